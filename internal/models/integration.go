package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Integration is a tenant's registration of one website.
type Integration struct {
	Base
	UserID           string                      `gorm:"type:uuid;not null;index" json:"userId"`
	User             *User                       `json:"user,omitempty"`
	Name             string                      `gorm:"not null" json:"name"`
	Domain           string                      `gorm:"not null" json:"domain"`
	AllowedDomains   datatypes.JSONSlice[string] `json:"allowedDomains"`
	APIKey           string                      `gorm:"uniqueIndex;not null" json:"apiKey"`
	SecretKey        string                      `gorm:"not null" json:"-"`
	Status           IntegrationStatus           `gorm:"not null;default:'pending'" json:"status"`
	IsDomainVerified bool                        `gorm:"default:false" json:"isDomainVerified"`
	Settings         datatypes.JSON              `json:"settings,omitempty"`
	LastUsedAt       *time.Time                  `json:"lastUsedAt,omitempty"`
}

func (i *Integration) IsActive() bool {
	return i.Status == IntegrationStatusActive
}

// ScriptAsset is a versioned widget script stored in object storage.
type ScriptAsset struct {
	Base
	Name          string                      `gorm:"not null;index:idx_script_name_version,unique" json:"name"`
	Version       string                      `gorm:"not null;index:idx_script_name_version,unique" json:"version"`
	Type          ScriptType                  `gorm:"not null;default:'core'" json:"type"`
	ObjectKey     string                      `gorm:"not null" json:"objectKey"`
	IntegrityHash string                      `gorm:"not null" json:"integrityHash"`
	IsActive      bool                        `gorm:"not null" json:"isActive"`
	IsLatest      bool                        `gorm:"not null" json:"isLatest"`
	Dependencies  datatypes.JSONSlice[string] `json:"dependencies,omitempty"`
	SignedURL     string                      `gorm:"-" json:"signedUrl,omitempty"` // Virtual field
}

func (s *ScriptAsset) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil {
		// Generate URL with 1-hour expiry
		url, err := generator.GetSignedURL(tx.Statement.Context, s.ObjectKey, time.Hour)
		if err != nil {
			return fmt.Errorf("failed to generate signed URL: %w", err)
		}
		s.SignedURL = url
	}
	return nil
}
