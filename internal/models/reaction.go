package models

import (
	"strings"
	"time"
)

// TargetKind discriminates what a reaction points at.
type TargetKind string

const (
	TargetPost    TargetKind = "Post"
	TargetComment TargetKind = "Comment"
	TargetReply   TargetKind = "Reply"
)

// ParseTargetKind accepts the wire tags case-insensitively.
func ParseTargetKind(raw string) (TargetKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "post":
		return TargetPost, true
	case "comment":
		return TargetComment, true
	case "reply":
		return TargetReply, true
	}
	return "", false
}

// Polarity is like or dislike.
type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity {
	if p == PolarityLike {
		return PolarityDislike
	}
	return PolarityLike
}

// CounterColumn is the denormalized column that tracks this polarity.
func (p Polarity) CounterColumn() string {
	if p == PolarityDislike {
		return "dislike_count"
	}
	return "like_count"
}

// Target is a polymorphic reference to a post, comment or reply.
type Target struct {
	Kind TargetKind `json:"target_kind"`
	ID   uint       `json:"target_id"`
}

// Reaction is one row of the ledger. The unique index allows at most one
// like and one dislike per (user, target); the service keeps them exclusive.
type Reaction struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_reaction_unique,priority:1;index" json:"user_id"`
	TargetKind TargetKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_reaction_unique,priority:2;index:idx_reaction_target,priority:1" json:"target_kind"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_reaction_unique,priority:3;index:idx_reaction_target,priority:2" json:"target_id"`
	Polarity   Polarity   `gorm:"type:varchar(10);not null;uniqueIndex:idx_reaction_unique,priority:4" json:"polarity"`
	CreatedAt  time.Time  `json:"created_at"`
}
