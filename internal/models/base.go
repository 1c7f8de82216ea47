package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index;default:NULL" json:"-"`
	IsDeleted bool       `gorm:"default:false" json:"isDeleted"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

type RoleName string

// Canonical role tiers. Storage accepts other names, guards only reason about these.
const (
	RoleUser       RoleName = "user"
	RoleAdmin      RoleName = "admin"
	RoleSuperAdmin RoleName = "super_admin"
)

var CanonicalRoles = []RoleName{RoleUser, RoleAdmin, RoleSuperAdmin}

// DefaultRole is attached to every user created without roles.
const DefaultRole = RoleUser

// IsCanonicalRole checks if a given role is one of the canonical tiers
func IsCanonicalRole(name string) bool {
	for _, r := range CanonicalRoles {
		if string(r) == name {
			return true
		}
	}
	return false
}

type IntegrationStatus string

const (
	IntegrationStatusActive    IntegrationStatus = "active"
	IntegrationStatusPending   IntegrationStatus = "pending"
	IntegrationStatusSuspended IntegrationStatus = "suspended"
	IntegrationStatusDisabled  IntegrationStatus = "disabled"
)

func IsValidIntegrationStatus(s IntegrationStatus) bool {
	switch s {
	case IntegrationStatusActive, IntegrationStatusPending, IntegrationStatusSuspended, IntegrationStatusDisabled:
		return true
	default:
		return false
	}
}

type ScriptType string

const (
	ScriptTypeCore    ScriptType = "core"
	ScriptTypePlugin  ScriptType = "plugin"
	ScriptTypeUtility ScriptType = "utility"
)

func IsValidScriptType(t ScriptType) bool {
	switch t {
	case ScriptTypeCore, ScriptTypePlugin, ScriptTypeUtility:
		return true
	default:
		return false
	}
}
