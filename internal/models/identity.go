package models

// User owns a set of roles. TokenVersion is the credential generation
// counter; bumping it invalidates every refresh token minted before.
type User struct {
	Base
	Email        string        `gorm:"uniqueIndex;not null" json:"email"`
	Password     string        `gorm:"not null" json:"-"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Roles        []Role        `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	TokenVersion int           `gorm:"not null;default:0" json:"-"`
	Integrations []Integration `gorm:"foreignKey:UserID" json:"integrations,omitempty"`
}

// Role is a named bundle of permissions.
type Role struct {
	Base
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"many2many:user_roles;" json:"-"`
}

type Permission struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Roles       []Role `gorm:"many2many:role_permissions;" json:"-"`
}

// RoleNames returns the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
