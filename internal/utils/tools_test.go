package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Simple", input: "Summer Trips", want: "summer-trips"},
		{name: "Punctuation", input: "Mom's BBQ!", want: "mom-s-bbq"},
		{name: "CollapsedSeparators", input: "  a --  b  ", want: "a-b"},
		{name: "Unicode", input: "캠핑 태그", want: "캠핑-태그"},
		{name: "Empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
