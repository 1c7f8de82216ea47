package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPermission is returned for names outside AllPermissions.
var ErrUnknownPermission = errors.New("unknown permission")

// PermissionName is a "resource:action" pair from the fixed enumeration below.
type PermissionName string

const (
	PermUserRead   PermissionName = "user:read"
	PermUserCreate PermissionName = "user:create"
	PermUserUpdate PermissionName = "user:update"
	PermUserDelete PermissionName = "user:delete"

	PermRoleRead   PermissionName = "role:read"
	PermRoleCreate PermissionName = "role:create"
	PermRoleUpdate PermissionName = "role:update"
	PermRoleDelete PermissionName = "role:delete"
	PermRoleAssign PermissionName = "role:assign"

	PermPermissionRead   PermissionName = "permission:read"
	PermPermissionAssign PermissionName = "permission:assign"

	PermPlanRead   PermissionName = "plan:read"
	PermPlanCreate PermissionName = "plan:create"
	PermPlanUpdate PermissionName = "plan:update"
	PermPlanDelete PermissionName = "plan:delete"

	PermSubscriptionRead   PermissionName = "subscription:read"
	PermSubscriptionCreate PermissionName = "subscription:create"
	PermSubscriptionUpdate PermissionName = "subscription:update"
	PermSubscriptionDelete PermissionName = "subscription:delete"

	PermIntegrationRead   PermissionName = "integration:read"
	PermIntegrationCreate PermissionName = "integration:create"
	PermIntegrationUpdate PermissionName = "integration:update"
	PermIntegrationDelete PermissionName = "integration:delete"

	PermAnalyticsRead   PermissionName = "analytics:read"
	PermAnalyticsExport PermissionName = "analytics:export"

	PermFAQRead   PermissionName = "faq:read"
	PermFAQCreate PermissionName = "faq:create"
	PermFAQUpdate PermissionName = "faq:update"
	PermFAQDelete PermissionName = "faq:delete"
)

var AllPermissions = []PermissionName{
	PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
	PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete, PermRoleAssign,
	PermPermissionRead, PermPermissionAssign,
	PermPlanRead, PermPlanCreate, PermPlanUpdate, PermPlanDelete,
	PermSubscriptionRead, PermSubscriptionCreate, PermSubscriptionUpdate, PermSubscriptionDelete,
	PermIntegrationRead, PermIntegrationCreate, PermIntegrationUpdate, PermIntegrationDelete,
	PermAnalyticsRead, PermAnalyticsExport,
	PermFAQRead, PermFAQCreate, PermFAQUpdate, PermFAQDelete,
}

var knownPermissions = func() map[PermissionName]struct{} {
	m := make(map[PermissionName]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// IsValidPermission reports whether name is part of the enumeration.
func IsValidPermission(name string) bool {
	_, ok := knownPermissions[PermissionName(name)]
	return ok
}

func ParsePermission(name string) (PermissionName, error) {
	if !IsValidPermission(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, name)
	}
	return PermissionName(name), nil
}

// ParsePermissions validates every name and reports the first unknown one.
func ParsePermissions(names []string) ([]PermissionName, error) {
	out := make([]PermissionName, 0, len(names))
	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p PermissionName) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

func (p PermissionName) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

// Description renders a human readable label used when seeding.
func (p PermissionName) Description() string {
	resource := strings.ReplaceAll(p.Resource(), "_", " ")
	switch p.Action() {
	case "read":
		return fmt.Sprintf("Can view %s information", resource)
	case "create":
		return fmt.Sprintf("Can create new %s", resource)
	case "update":
		return fmt.Sprintf("Can modify %s information", resource)
	case "delete":
		return fmt.Sprintf("Can delete %s", resource)
	case "assign":
		return fmt.Sprintf("Can assign %s to other entities", resource)
	case "export":
		return fmt.Sprintf("Can export %s data", resource)
	default:
		return fmt.Sprintf("Permission for %s", p)
	}
}
