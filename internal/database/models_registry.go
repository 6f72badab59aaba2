package database

import "gamelogue/internal/models"

// PersistentModels returns the GORM models whose tables the schema layer manages.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
	}
}
