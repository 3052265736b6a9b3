package database

import "agora/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Channel{},
		&models.Post{},
		&models.Comment{},
		&models.Reply{},
		&models.Reaction{},
		&models.AdminLog{},
		&models.RefreshToken{},
	}
}
