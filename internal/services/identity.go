package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"a11yhub/internal/auth"
	"a11yhub/internal/events"
	"a11yhub/internal/models"
	"a11yhub/internal/repository"
	"a11yhub/internal/utils/logger"
)

// IdentityService owns users and their role assignments.
type IdentityService struct {
	db     *gorm.DB
	repo   *repository.Repository
	auth   *auth.Service
	cost   int
	logger *logger.Logger
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NewIdentityService(db *gorm.DB, authService *auth.Service) *IdentityService {
	return &IdentityService{
		db:     db,
		repo:   repository.New(db),
		auth:   authService,
		cost:   bcrypt.DefaultCost,
		logger: logger.New("identity_service"),
	}
}

// SetPasswordCost overrides the bcrypt cost.
func (s *IdentityService) SetPasswordCost(cost int) {
	s.cost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user holding the default role and signs them in.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, auth.TokenPair, error) {
	email := normalizeEmail(in.Email)

	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, auth.TokenPair{}, s.logger.Error("Failed to look up email", err)
	}
	if existing != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("%w: email %s", ErrConflict, email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, auth.TokenPair{}, s.logger.Error("Failed to hash password", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, auth.TokenPair{}, fmt.Errorf("%w: email %s", ErrConflict, email)
		}
		return nil, auth.TokenPair{}, s.logger.Error("Failed to create user", err)
	}

	pair, _, err := s.auth.IssueFor(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	s.logger.Success("Registered %s", email)
	return user, pair, nil
}

// Authenticate checks the password and mints a credential pair from the
// user's current roles. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, auth.TokenPair, error) {
	invalid := auth.New(auth.KindCredentialInvalid, "invalid email or password")

	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, auth.TokenPair{}, auth.UpstreamFailure(err)
	}
	if user == nil {
		return nil, auth.TokenPair{}, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, auth.TokenPair{}, invalid
	}

	pair, _, err := s.auth.IssueFor(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Profile loads a user with roles and their permissions.
func (s *IdentityService) Profile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Roles", "is_deleted = ?", false).
		Preload("Roles.Permissions").
		Where("id = ? AND is_deleted = ?", userID, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AssignRole attaches roleName to the user. Assigning a held role is a no-op.
func (s *IdentityService) AssignRole(ctx context.Context, userID, roleName string) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := activeUser(tx, userID)
		if err != nil {
			return err
		}
		role, err := models.GetRoleByName(roleName, tx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: role %s", ErrNotFound, roleName)
		}
		if err != nil {
			return err
		}
		return tx.Model(user).Association("Roles").Append(role)
	})
	if err != nil {
		return nil, err
	}

	events.Emit(events.RoleAssigned, map[string]string{"userId": userID, "role": roleName})
	return s.Profile(ctx, userID)
}

// RevokeRole removes roleName from the user, refusing to leave them
// without any role.
func (s *IdentityService) RevokeRole(ctx context.Context, userID, roleName string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activeUser(tx, userID); err != nil {
			return err
		}

		var held []models.Role
		if err := tx.Joins("JOIN user_roles ON user_roles.role_id = roles.id").
			Where("user_roles.user_id = ? AND roles.is_deleted = ?", userID, false).
			Find(&held).Error; err != nil {
			return err
		}

		var target *models.Role
		for i := range held {
			if held[i].Name == roleName {
				target = &held[i]
			}
		}
		if target == nil {
			return fmt.Errorf("%w: user does not hold role %s", ErrNotFound, roleName)
		}
		if len(held) <= 1 {
			return ErrLastRole
		}
		return tx.Exec("DELETE FROM user_roles WHERE user_id = ? AND role_id = ?", userID, target.ID).Error
	})
	if err != nil {
		return err
	}

	events.Emit(events.RoleRevoked, map[string]string{"userId": userID, "role": roleName})
	return nil
}

// DeleteUser soft deletes the user and revokes every credential they hold.
func (s *IdentityService) DeleteUser(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Updates(map[string]interface{}{
			"is_deleted":    true,
			"deleted_at":    time.Now(),
			"token_version": gorm.Expr("token_version + 1"),
		})
	if res.Error != nil {
		return s.logger.Error("Failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	events.Emit(events.UserDeleted, userID)
	return nil
}

// RevokeCredentials bumps the token generation of the user, invalidating
// every refresh credential issued so far.
func (s *IdentityService) RevokeCredentials(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return s.logger.Error("Failed to revoke credentials", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	events.Emit(events.CredentialsRevoked, userID)
	return nil
}

func activeUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := tx.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
