package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"a11yhub/internal/delivery"
	"a11yhub/internal/events"
	"a11yhub/internal/models"
	"a11yhub/internal/utils"
	"a11yhub/internal/utils/logger"
)

// Actor is the caller of an integration operation. Privileged actors may
// act on integrations they do not own.
type Actor struct {
	UserID     string
	Privileged bool
}

type IntegrationInput struct {
	Name           string
	Domain         string
	AllowedDomains []string
	Settings       map[string]interface{}
}

type IntegrationService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewIntegrationService(db *gorm.DB) *IntegrationService {
	return &IntegrationService{db: db, logger: logger.New("integration_service")}
}

// Create registers a website for owner with freshly generated keys. New
// integrations start pending.
func (s *IntegrationService) Create(ctx context.Context, ownerID string, in IntegrationInput) (*models.Integration, error) {
	domain, allowed, err := normalizeDomains(in.Domain, in.AllowedDomains)
	if err != nil {
		return nil, err
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, s.logger.Error("Failed to generate api key", err)
	}
	secretKey, err := utils.GenerateSecretKey()
	if err != nil {
		return nil, s.logger.Error("Failed to generate secret key", err)
	}

	integration := &models.Integration{
		UserID:         ownerID,
		Name:           in.Name,
		Domain:         domain,
		AllowedDomains: datatypes.JSONSlice[string](allowed),
		APIKey:         apiKey,
		SecretKey:      secretKey,
		Status:         models.IntegrationStatusPending,
	}
	if in.Settings != nil {
		settings, err := utils.MapToJSON(in.Settings)
		if err != nil {
			return nil, fmt.Errorf("%w: settings: %v", ErrInvalidInput, err)
		}
		integration.Settings = settings
	}

	if err := s.db.WithContext(ctx).Create(integration).Error; err != nil {
		return nil, s.logger.Error("Failed to create integration", err)
	}
	return integration, nil
}

// List returns the actor's integrations, or every integration for a
// privileged actor.
func (s *IntegrationService) List(ctx context.Context, actor Actor) ([]models.Integration, error) {
	query := s.db.WithContext(ctx).Where("is_deleted = ?", false)
	if !actor.Privileged {
		query = query.Where("user_id = ?", actor.UserID)
	}
	var out []models.Integration
	err := query.Order("created_at desc").Find(&out).Error
	return out, err
}

// Get returns the integration when the actor may see it. Integrations of
// other tenants are reported as not found.
func (s *IntegrationService) Get(ctx context.Context, id string, actor Actor) (*models.Integration, error) {
	var integration models.Integration
	err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: integration %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !actor.Privileged && integration.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: integration %s", ErrNotFound, id)
	}
	return &integration, nil
}

// Update replaces name, domains and settings.
func (s *IntegrationService) Update(ctx context.Context, id string, actor Actor, in IntegrationInput) (*models.Integration, error) {
	integration, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	domain, allowed, err := normalizeDomains(in.Domain, in.AllowedDomains)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":            in.Name,
		"domain":          domain,
		"allowed_domains": datatypes.JSONSlice[string](allowed),
	}
	if domain != integration.Domain {
		updates["is_domain_verified"] = false
	}
	if in.Settings != nil {
		settings, err := utils.MapToJSON(in.Settings)
		if err != nil {
			return nil, fmt.Errorf("%w: settings: %v", ErrInvalidInput, err)
		}
		updates["settings"] = settings
	}

	if err := s.db.WithContext(ctx).Model(integration).Updates(updates).Error; err != nil {
		return nil, s.logger.Error("Failed to update integration", err)
	}
	return s.Get(ctx, id, actor)
}

// SetStatus moves the integration to status. Only active integrations are
// served by the delivery endpoints.
func (s *IntegrationService) SetStatus(ctx context.Context, id string, status models.IntegrationStatus) (*models.Integration, error) {
	if !models.IsValidIntegrationStatus(status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	res := s.db.WithContext(ctx).Model(&models.Integration{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("status", status)
	if res.Error != nil {
		return nil, s.logger.Error("Failed to update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: integration %s", ErrNotFound, id)
	}

	events.Emit(events.IntegrationStatus, map[string]string{"integrationId": id, "status": string(status)})
	return s.Get(ctx, id, Actor{Privileged: true})
}

// MarkDomainVerified records that the owner proved control of the
// primary domain.
func (s *IntegrationService) MarkDomainVerified(ctx context.Context, id string, actor Actor) (*models.Integration, error) {
	integration, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(integration).Update("is_domain_verified", true).Error; err != nil {
		return nil, s.logger.Error("Failed to mark domain verified", err)
	}
	integration.IsDomainVerified = true
	return integration, nil
}

func (s *IntegrationService) Delete(ctx context.Context, id string, actor Actor) error {
	integration, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(integration).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": time.Now(),
		"status":     models.IntegrationStatusDisabled,
	}).Error
}

func normalizeDomains(primary string, additional []string) (string, []string, error) {
	host, ok := delivery.Hostname(primary)
	if !ok {
		return "", nil, fmt.Errorf("%w: domain %q", ErrInvalidInput, primary)
	}

	allowed := make([]string, 0, len(additional))
	for _, entry := range additional {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if !delivery.ValidPattern(entry) {
			return "", nil, fmt.Errorf("%w: allowed domain %q", ErrInvalidInput, entry)
		}
		allowed = append(allowed, entry)
	}
	return host, allowed, nil
}
