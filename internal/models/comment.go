package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment hangs off a post and owns replies.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"-"`
	Author       *Author   `gorm:"-" json:"author,omitempty"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	ReplyCount   int       `gorm:"not null;default:0" json:"reply_count"`
	LikeCount    int       `gorm:"not null;default:0" json:"like_count"`
	DislikeCount int       `gorm:"not null;default:0" json:"dislike_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reply is the leaf of the hierarchy. PostID is the root post, kept so a
// reply can be resolved to its channel without walking the comment.
type Reply struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"-"`
	Author       *Author   `gorm:"-" json:"author,omitempty"`
	CommentID    uint      `gorm:"not null;index" json:"comment_id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	LikeCount    int       `gorm:"not null;default:0" json:"like_count"`
	DislikeCount int       `gorm:"not null;default:0" json:"dislike_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Comment) AfterFind(tx *gorm.DB) error {
	c.Author = c.User.AsAuthor()
	return nil
}

func (r *Reply) AfterFind(tx *gorm.DB) error {
	r.Author = r.User.AsAuthor()
	return nil
}
