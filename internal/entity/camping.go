package entity

import "time"

// DbCamping is a logged camping visit owned by a single user.
type DbCamping struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"create_dt"`
	UpdatedAt time.Time `json:"update_dt"`

	UserID uint    `gorm:"column:user_id;index;not null" json:"user_id"`
	User   *DbUser `gorm:"foreignKey:UserID" json:"-"`

	Title     string      `gorm:"column:title;type:varchar(255);not null" json:"title"`
	VisitedDt time.Time   `gorm:"column:visited_dt;not null" json:"visited_dt"`
	Review    string      `gorm:"column:review;type:text" json:"review"`
	Price     uint        `gorm:"column:price;not null" json:"price"`
	Photos    StringArray `gorm:"column:photos;type:json" json:"photos"`

	Tags []DbCampingTag `gorm:"many2many:camping_tag_links;foreignKey:ID;joinForeignKey:CampingID;references:ID;joinReferences:TagID" json:"tags"`
}

// TableName overrides default pluralised name.
func (DbCamping) TableName() string {
	return "campings"
}

// DbCampingTag is a user-scoped label for camping entries. Names are unique
// per owner, never globally.
type DbCampingTag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint   `gorm:"column:user_id;uniqueIndex:idx_camping_tag_owner_name;not null" json:"user_id"`
	Name   string `gorm:"column:name;type:varchar(255);uniqueIndex:idx_camping_tag_owner_name;not null" json:"name"`

	UsageCount int64 `gorm:"-" json:"usage_count,omitempty"`
}

// TableName overrides default pluralised name.
func (DbCampingTag) TableName() string {
	return "camping_tags"
}

// DbCampingTagLink joins camping entries to camping tags.
type DbCampingTagLink struct {
	CampingID uint      `gorm:"primaryKey" json:"camping_id"`
	TagID     uint      `gorm:"primaryKey" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides default pluralised name.
func (DbCampingTagLink) TableName() string {
	return "camping_tag_links"
}

// CampingItem is the camping entry representation returned to clients.
type CampingItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	VisitedDt time.Time `json:"visited_dt"`
	Review    string    `json:"review"`
	Price     uint      `json:"price"`
	Photos    []Photo   `json:"photos"`
	Tags      []Tag     `json:"tags"`
	CreateDt  time.Time `json:"create_dt"`
	UpdateDt  time.Time `json:"update_dt"`
}

// CampingUpsertRequest is the payload for create and full update. All scalar
// fields are required except visited_dt, which defaults to the current time.
type CampingUpsertRequest struct {
	Title     string           `json:"title" binding:"required"`
	VisitedDt *time.Time       `json:"visited_dt"`
	Review    string           `json:"review" binding:"required"`
	Price     *uint            `json:"price" binding:"required"`
	Tags      *[]TagDescriptor `json:"tags"`
}

// CampingPatchRequest is the payload for partial update. Only fields present
// in the request are touched; the tag relation is rewritten only when the
// tags key itself is present.
type CampingPatchRequest struct {
	Title     *string          `json:"title"`
	VisitedDt *time.Time       `json:"visited_dt"`
	Review    *string          `json:"review"`
	Price     *uint            `json:"price"`
	Tags      *[]TagDescriptor `json:"tags"`
}

// CampingQuery supports listing camping entries with pagination.
type CampingQuery struct {
	BaseParams
	TagIDs []uint `json:"-" form:"-" query:"-"`
}

type CampingListResponse struct {
	Campings []CampingItem `json:"campings"`
	Meta     *Meta         `json:"meta"`
}

type CampingDetailResponse struct {
	Camping CampingItem `json:"camping"`
}
