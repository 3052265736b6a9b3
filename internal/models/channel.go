package models

import (
	"strings"
	"time"
)

// ChannelType controls who may participate in a channel.
type ChannelType string

const (
	ChannelOpen       ChannelType = "open"
	ChannelRestricted ChannelType = "restricted"
)

// ParseChannelType accepts "open", "restricted" and the legacy "college" alias.
func ParseChannelType(raw string) (ChannelType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return ChannelOpen, true
	case "restricted", "college":
		return ChannelRestricted, true
	}
	return "", false
}

// NormalizeChannelName lowercases and trims a channel name.
func NormalizeChannelName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Channel is the top of the content hierarchy.
type Channel struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Type      ChannelType `gorm:"type:varchar(20);not null;default:'open'" json:"type"`
	PostCount int         `gorm:"not null;default:0" json:"post_count"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Restricted reports whether membership is required.
func (c *Channel) Restricted() bool {
	return c.Type == ChannelRestricted
}
