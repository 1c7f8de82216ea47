package models

import (
	"fmt"

	"a11yhub/internal/events"

	"gorm.io/gorm"
)

// AfterCreate attaches the default role to users created without one, so
// every persisted user owns at least one role.
func (u *User) AfterCreate(tx *gorm.DB) error {
	if len(u.Roles) == 0 {
		db := tx.Session(&gorm.Session{NewDB: true})

		var role Role
		if err := db.Where("name = ?", DefaultRole).First(&role).Error; err != nil {
			return fmt.Errorf("default role %q not found: %w", DefaultRole, err)
		}
		if err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", u.ID, role.ID).Error; err != nil {
			return fmt.Errorf("failed to attach default role: %w", err)
		}
		u.Roles = []Role{role}
	}

	events.Emit(events.UserCreated, u.ID)
	return nil
}

func (i *Integration) AfterCreate(tx *gorm.DB) error {
	log.Info("Integration created %s for %s", i.ID, i.Domain)
	events.Emit(events.IntegrationCreated, i.ID)
	return nil
}
