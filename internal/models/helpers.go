package models

import (
	"gorm.io/gorm"
)

// GetRoleByName retrieves a role from the database by its name
func GetRoleByName(name string, db *gorm.DB) (*Role, error) {
	role := &Role{}
	if err := db.Where("name = ? AND is_deleted = false", name).First(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}
