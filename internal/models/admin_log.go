package models

import "time"

// AdminAction is a recorded role change.
type AdminAction string

const (
	AdminActionPromote AdminAction = "PROMOTE"
	AdminActionDemote  AdminAction = "DEMOTE"
)

// AdminLog records who changed whose role.
type AdminLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Action      AdminAction `gorm:"type:varchar(10);not null" json:"action"`
	PerformedBy uint        `gorm:"not null;index" json:"performed_by"`
	TargetID    uint        `gorm:"not null;index" json:"target"`
	CreatedAt   time.Time   `json:"created_at"`
}
