package model

import "time"

// Comment 帖子评论；删除帖子或作者时级联删除
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   *uint     `gorm:"index:idx_comment_post" json:"post_id,omitempty"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID *uint     `gorm:"index:idx_comment_author" json:"author_id,omitempty"`
	Author   *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
}

func (Comment) TableName() string { return "comments" }
