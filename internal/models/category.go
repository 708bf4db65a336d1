package models

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description,omitempty"`
	Posts       []Post `gorm:"many2many:post_categories;" json:"-"`
}

// CategoryCount pairs a category with the number of posts linked to it.
type CategoryCount struct {
	Category
	PostCount int64 `json:"post_count"`
}
