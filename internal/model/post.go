package model

import "time"

// Post 内容主体；删除作者级联删除，删除分组只置空 group_id
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index:idx_post_pub_date" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index:idx_post_author" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index:idx_post_group" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image    string    `gorm:"size:255" json:"image,omitempty"`
}

func (Post) TableName() string { return "posts" }

// String returns the first 15 characters of the text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}
