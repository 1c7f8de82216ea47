package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"a11yhub/internal/delivery"
	"a11yhub/internal/models"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance with the domain tags
// registered.
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]playgroundvalidator.Func{
		"role_name":         validateRoleName,
		"permission_name":   validatePermissionName,
		"domain_pattern":    validateDomainPattern,
		"script_type":       validateScriptType,
		"integration_state": validateIntegrationStatus,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return &CustomValidator{validator: v}
}

// role names are lowercase identifiers, canonical or not
func validateRoleName(fl playgroundvalidator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func validatePermissionName(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidPermission(fl.Field().String())
}

func validateDomainPattern(fl playgroundvalidator.FieldLevel) bool {
	return delivery.ValidPattern(fl.Field().String())
}

func validateScriptType(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidScriptType(models.ScriptType(fl.Field().String()))
}

func validateIntegrationStatus(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidIntegrationStatus(models.IntegrationStatus(fl.Field().String()))
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,role_name"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions" validate:"dive,permission_name"`
}

type AssignPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,permission_name"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required,permission_name"`
	Description string `json:"description" validate:"max=255"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,role_name"`
}

type IntegrationRequest struct {
	Name           string                 `json:"name" validate:"required,max=100"`
	Domain         string                 `json:"domain" validate:"required,domain_pattern,excludes=*"`
	AllowedDomains []string               `json:"allowedDomains" validate:"max=50,dive,domain_pattern"`
	Settings       map[string]interface{} `json:"settings"`
}

type IntegrationStatusRequest struct {
	Status string `json:"status" validate:"required,integration_state"`
}

// ScriptUploadRequest is bound from the multipart form fields; the file
// itself is read separately.
type ScriptUploadRequest struct {
	Name         string   `form:"name" json:"name" validate:"required,max=64"`
	Version      string   `form:"version" json:"version" validate:"required,max=32"`
	Type         string   `form:"type" json:"type" validate:"required,script_type"`
	Dependencies []string `form:"dependencies" json:"dependencies" validate:"dive,required"`
	Latest       bool     `form:"latest" json:"latest"`
}
