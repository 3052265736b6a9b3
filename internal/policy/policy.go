// Package policy holds the access predicates every mutation is checked against.
// Nothing here touches storage.
package policy

import "agora/internal/models"

// Policy carries the switches that vary between deployments.
type Policy struct {
	// AdminContentOverride lets admin and super_admin delete content they did not author.
	AdminContentOverride bool
}

// Strict is the default: content authorship is never bypassed.
var Strict = Policy{}

// CanModerateChannel gates channel create, edit and delete.
func CanModerateChannel(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin
}

// CanPromote gates role management.
func CanPromote(actor models.Actor) bool {
	return actor.Role == models.RoleSuperAdmin
}

// CanActOnContent reports whether actor may edit content written by authorID.
func CanActOnContent(actor models.Actor, authorID uint) bool {
	return actor.ID != 0 && actor.ID == authorID
}

// CanAccessChannel is the membership gate for restricted channels.
func CanAccessChannel(actor models.Actor, channel *models.Channel) bool {
	if channel == nil {
		return false
	}
	return channel.Type == models.ChannelOpen || actor.PrivateMember
}

// CanDeleteAccount allows the owner, admin and super_admin.
func CanDeleteAccount(actor models.Actor, targetUserID uint) bool {
	return actor.ID == targetUserID || actor.IsAdmin()
}

// CanDeleteContent is CanActOnContent widened by the admin override flag.
func (p Policy) CanDeleteContent(actor models.Actor, authorID uint) bool {
	if CanActOnContent(actor, authorID) {
		return true
	}
	return p.AdminContentOverride && actor.IsAdmin()
}

// CanAccessChannel applies the membership gate. Admins bypass it only when
// the override flag is on.
func (p Policy) CanAccessChannel(actor models.Actor, channel *models.Channel) bool {
	if CanAccessChannel(actor, channel) {
		return true
	}
	return p.AdminContentOverride && channel != nil && actor.IsAdmin()
}
