package models

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	console "a11yhub/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

var roleDescriptions = map[RoleName]string{
	RoleUser:       "Default role for registered users",
	RoleAdmin:      "Administrators with read access and FAQ management",
	RoleSuperAdmin: "Full access to every resource",
}

// Role-based permission mappings. "*:*" grants the whole enumeration,
// "resource:*" every action of one resource.
var rolePermissions = map[RoleName][]string{
	RoleSuperAdmin: {"*:*"},
	RoleAdmin:      {"*:read", "faq:*"},
	RoleUser:       {},
}

// expandScopes turns wildcard scopes into concrete enumerated permissions.
func expandScopes(scopes []string) ([]PermissionName, error) {
	seen := make(map[PermissionName]bool)
	var out []PermissionName
	for _, scope := range scopes {
		resource, action, ok := strings.Cut(scope, ":")
		if !ok {
			return nil, fmt.Errorf("invalid permission scope format: %s", scope)
		}
		matched := false
		for _, p := range AllPermissions {
			if (resource == "*" || resource == p.Resource()) && (action == "*" || action == p.Action()) {
				matched = true
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: scope %s matches nothing", ErrUnknownPermission, scope)
		}
	}
	return out, nil
}

// SeedRolesAndPermissions creates every enumerated permission and the three
// canonical roles with their default grants. It is idempotent.
func SeedRolesAndPermissions(db *gorm.DB) error {
	byName := make(map[PermissionName]Permission, len(AllPermissions))
	for _, name := range AllPermissions {
		perm := Permission{Name: string(name), Description: name.Description()}
		if err := db.Where(Permission{Name: string(name)}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("failed to create permission %s: %w", name, err)
		}
		byName[name] = perm
	}

	for _, roleName := range CanonicalRoles {
		log.Info("Seeding role: %s", roleName)

		role := Role{Name: string(roleName), Description: roleDescriptions[roleName]}
		if err := db.Where(Role{Name: string(roleName)}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %w", roleName, err)
		}

		names, err := expandScopes(rolePermissions[roleName])
		if err != nil {
			return err
		}
		if len(names) == 0 {
			continue
		}

		perms := make([]Permission, 0, len(names))
		for _, n := range names {
			perms = append(perms, byName[n])
		}
		if err := db.Model(&role).Association("Permissions").Append(perms); err != nil {
			return fmt.Errorf("failed to grant permissions to %s: %w", roleName, err)
		}
	}

	return nil
}

// CreateSuperAdminFromEnv creates the first super admin from SUPERADMIN_*
// variables unless one already exists.
func CreateSuperAdminFromEnv(db *gorm.DB) error {
	var count int64
	if err := db.Model(&User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ? AND users.is_deleted = ?", RoleSuperAdmin, false).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count super admins: %w", err)
	}
	log.Info("Super admin count: %d", count)
	if count > 0 {
		return nil
	}

	email, ok := os.LookupEnv("SUPERADMIN_EMAIL")
	if !ok {
		return fmt.Errorf("SUPERADMIN_EMAIL not set")
	}

	password, ok := os.LookupEnv("SUPERADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("SUPERADMIN_PASSWORD not set")
	}

	name, ok := os.LookupEnv("SUPERADMIN_NAME")
	if !ok {
		return fmt.Errorf("SUPERADMIN_NAME not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	role, err := GetRoleByName(string(RoleSuperAdmin), db)
	if err != nil {
		return fmt.Errorf("super_admin role missing, seed roles first: %w", err)
	}

	user := User{
		FirstName: name,
		Email:     email,
		Password:  string(hashedPassword),
		Roles:     []Role{*role},
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create superadmin user: %v", err)
	}

	return nil
}
