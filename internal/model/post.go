package model

// CreatedDateLayout formats Post.Date, e.g. "October 18, 2026".
const CreatedDateLayout = "January 02, 2006"

// EventDateLayout is the storage format of StartDate and EndDate.
const EventDateLayout = "2006-01-02"

// Post 活动帖子
type Post struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	Title     string  `json:"title" gorm:"type:varchar(250);uniqueIndex;not null"`
	Subtitle  string  `json:"subtitle" gorm:"type:varchar(250);not null"`
	AuthorID  uint    `json:"author_id" gorm:"index:idx_post_author;not null"`
	Author    *User   `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Date      string  `json:"date" gorm:"type:text;not null"`
	StartDate string  `json:"start_date" gorm:"type:varchar(50);not null"`
	EndDate   string  `json:"end_date" gorm:"type:varchar(50);not null"`
	Details   string  `json:"details" gorm:"type:varchar(2000);not null"`
	Contact   *string `json:"contact,omitempty" gorm:"type:varchar(250)"`
	FormURL   string  `json:"join_url" gorm:"column:form_url;type:varchar(250);not null"`
}

func (Post) TableName() string { return "posts" }

// ContactOrEmpty returns the optional contact string.
func (p *Post) ContactOrEmpty() string {
	if p.Contact == nil {
		return ""
	}
	return *p.Contact
}
