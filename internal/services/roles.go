package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"a11yhub/internal/events"
	"a11yhub/internal/models"
	"a11yhub/internal/utils/logger"
)

type RoleService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db, logger: logger.New("role_service")}
}

func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("is_deleted = ?", false).
		Order("name").
		Find(&roles).Error
	return roles, err
}

// CreateRole creates a role with an optional initial permission set.
func (s *RoleService) CreateRole(ctx context.Context, name, description string, permissions []string) (*models.Role, error) {
	parsed, err := models.ParsePermissions(permissions)
	if err != nil {
		return nil, err
	}

	role := &models.Role{Name: name, Description: description}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: role %s", ErrConflict, name)
		}
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		return attachPermissions(tx, role, parsed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Success("Created role %s", name)
	return s.role(ctx, role.ID)
}

// AssignPermissions adds permissions to a role. Names outside the
// enumeration fail with models.ErrUnknownPermission before anything is
// written.
func (s *RoleService) AssignPermissions(ctx context.Context, roleID string, permissions []string) (*models.Role, error) {
	parsed, err := models.ParsePermissions(permissions)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		err := tx.Where("id = ? AND is_deleted = ?", roleID, false).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		if err != nil {
			return err
		}
		return attachPermissions(tx, &role, parsed)
	})
	if err != nil {
		return nil, err
	}

	events.Emit(events.PermissionsGranted, map[string]interface{}{"roleId": roleID, "permissions": permissions})
	return s.role(ctx, roleID)
}

func (s *RoleService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).Where("is_deleted = ?", false).Order("name").Find(&perms).Error
	return perms, err
}

// EnsurePermission stores an enumerated permission, returning the existing
// row when it is already present. created reports whether a row was added.
func (s *RoleService) EnsurePermission(ctx context.Context, name, description string) (*models.Permission, bool, error) {
	p, err := models.ParsePermission(name)
	if err != nil {
		return nil, false, err
	}
	if description == "" {
		description = p.Description()
	}

	perm := models.Permission{}
	res := s.db.WithContext(ctx).
		Where(models.Permission{Name: string(p)}).
		Attrs(models.Permission{Description: description}).
		FirstOrCreate(&perm)
	if res.Error != nil {
		return nil, false, s.logger.Error("Failed to store permission", res.Error)
	}
	return &perm, res.RowsAffected > 0, nil
}

func (s *RoleService) role(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func attachPermissions(tx *gorm.DB, role *models.Role, names []models.PermissionName) error {
	if len(names) == 0 {
		return nil
	}
	raw := make([]string, len(names))
	for i, n := range names {
		raw[i] = string(n)
	}

	var perms []models.Permission
	if err := tx.Where("name IN ? AND is_deleted = ?", raw, false).Find(&perms).Error; err != nil {
		return err
	}
	if len(perms) != len(dedupe(raw)) {
		return fmt.Errorf("%w: some permissions are not seeded", ErrNotFound)
	}
	return tx.Model(role).Association("Permissions").Append(perms)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
