package models

import (
	"time"

	"gorm.io/gorm"
)

// Post belongs to a channel and owns comments.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:300;not null" json:"title"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"-"`
	Author       *Author   `gorm:"-" json:"author,omitempty"`
	ChannelID    uint      `gorm:"not null;index" json:"channel_id"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	LikeCount    int       `gorm:"not null;default:0" json:"like_count"`
	DislikeCount int       `gorm:"not null;default:0" json:"dislike_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AfterFind exposes the preloaded user as its public projection.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.Author = p.User.AsAuthor()
	return nil
}
