package entities

import "time"

// Post is a published content item. Numeric session ids point at one, and its
// publish date is the enrolment date for every video watched in that session.
type Post struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	PostTitle  string    `json:"post_title" gorm:"type:text"`
	PostStatus string    `json:"post_status" gorm:"type:varchar(20);not null;default:'publish'"`
	PostDate   time.Time `json:"post_date" gorm:"not null"`
}

func (Post) TableName() string {
	return "posts"
}
