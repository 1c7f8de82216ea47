package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"a11yhub/internal/auth"
	"a11yhub/internal/models"
)

var _ auth.Repository = (*Repository)(nil)

// Repository is the gorm backed entity store used by the authorization
// pipeline and the delivery guard. Lookups of a missing row return nil
// without an error.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find user %s", id)
	}
	return &user, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &user, nil
}

func (r *Repository) FindRolesByUserID(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.is_deleted = ?", userID, false).
		Find(&roles).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find roles of user %s", userID)
	}
	return roles, nil
}

func (r *Repository) FindPermissionsByRoleIDs(ctx context.Context, roleIDs []string) ([]models.Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var perms []models.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id IN ? AND permissions.is_deleted = ?", roleIDs, false).
		Find(&perms).Error
	if err != nil {
		return nil, errors.Wrap(err, "find permissions by roles")
	}
	return perms, nil
}

func (r *Repository) FindIntegrationByAPIKey(ctx context.Context, apiKey string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.WithContext(ctx).
		Where("api_key = ? AND is_deleted = ?", apiKey, false).
		First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find integration by api key")
	}
	return &integration, nil
}

func (r *Repository) FindScriptByID(ctx context.Context, id string) (*models.ScriptAsset, error) {
	var script models.ScriptAsset
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ? AND is_active = ?", id, false, true).
		First(&script).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find script %s", id)
	}
	return &script, nil
}

// FindLatestScript returns the active latest asset of the given type.
func (r *Repository) FindLatestScript(ctx context.Context, scriptType models.ScriptType) (*models.ScriptAsset, error) {
	var script models.ScriptAsset
	err := r.db.WithContext(ctx).
		Where("type = ? AND is_latest = ? AND is_active = ? AND is_deleted = ?", scriptType, true, true, false).
		Order("created_at DESC").
		First(&script).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find latest script")
	}
	return &script, nil
}
