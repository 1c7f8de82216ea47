package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"text/template"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"a11yhub/internal/events"
	"a11yhub/internal/models"
	"a11yhub/internal/repository"
	"a11yhub/internal/utils"
	"a11yhub/internal/utils/crypto"
	"a11yhub/internal/utils/logger"
)

const scriptContentType = "application/javascript"

var versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+([-+][0-9A-Za-z.-]+)?$`)

type UploadScriptInput struct {
	Name         string
	Version      string
	Type         models.ScriptType
	Dependencies []string
	Content      []byte
	Latest       bool
}

// ScriptService manages widget script versions and renders the loader.
type ScriptService struct {
	db     *gorm.DB
	repo   *repository.Repository
	store  ObjectStore
	logger *logger.Logger
}

// NewScriptService creates the service. store may be nil, in which case
// uploads and content reads fail with ErrStorageUnavailable.
func NewScriptService(db *gorm.DB, store ObjectStore) *ScriptService {
	return &ScriptService{
		db:     db,
		repo:   repository.New(db),
		store:  store,
		logger: logger.New("script_service"),
	}
}

func scriptKey(in UploadScriptInput) string {
	return fmt.Sprintf("scripts/%s/%s-%s.js", in.Type, in.Name, in.Version)
}

// Upload stores a new script version. When Latest is set the previous
// latest script of the same type loses the flag in the same transaction.
func (s *ScriptService) Upload(ctx context.Context, in UploadScriptInput) (*models.ScriptAsset, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if !models.IsValidScriptType(in.Type) {
		return nil, fmt.Errorf("%w: script type %q", ErrInvalidInput, in.Type)
	}
	if !versionPattern.MatchString(in.Version) {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidInput, in.Version)
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: empty script", ErrInvalidInput)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ScriptAsset{}).
		Where("name = ? AND version = ?", in.Name, in.Version).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s@%s", ErrConflict, in.Name, in.Version)
	}

	key := scriptKey(in)
	if err := s.store.PutObject(ctx, key, in.Content, scriptContentType); err != nil {
		return nil, err
	}

	script := &models.ScriptAsset{
		Name:          in.Name,
		Version:       in.Version,
		Type:          in.Type,
		ObjectKey:     key,
		IntegrityHash: crypto.IntegrityHash(in.Content),
		IsActive:      true,
		IsLatest:      in.Latest,
		Dependencies:  datatypes.JSONSlice[string](in.Dependencies),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Latest {
			if err := tx.Model(&models.ScriptAsset{}).
				Where("type = ? AND is_latest = ?", in.Type, true).
				Update("is_latest", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(script).Error
	})
	if err != nil {
		return nil, s.logger.Error("Failed to record script", err)
	}

	s.logger.Success("Uploaded %s@%s (%s)", in.Name, in.Version, script.IntegrityHash)
	events.Emit(events.ScriptUploaded, script.ID)
	return script, nil
}

// Latest returns the active latest script of scriptType.
func (s *ScriptService) Latest(ctx context.Context, scriptType models.ScriptType) (*models.ScriptAsset, error) {
	script, err := s.repo.FindLatestScript(ctx, scriptType)
	if err != nil {
		return nil, err
	}
	if script == nil {
		return nil, fmt.Errorf("%w: no active %s script", ErrNotFound, scriptType)
	}
	return script, nil
}

// Content fetches the stored bytes of an active script and checks them
// against the recorded integrity hash.
func (s *ScriptService) Content(ctx context.Context, id string) (*models.ScriptAsset, []byte, error) {
	if s.store == nil {
		return nil, nil, ErrStorageUnavailable
	}
	script, err := s.repo.FindScriptByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if script == nil {
		return nil, nil, fmt.Errorf("%w: script %s", ErrNotFound, id)
	}

	content, err := s.store.GetObject(ctx, script.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	if !crypto.VerifyIntegrity(content, script.IntegrityHash) {
		s.logger.Warn("integrity mismatch serving %s@%s", script.Name, script.Version)
		return nil, nil, ErrIntegrityMismatch
	}
	return script, content, nil
}

// LoaderInput is everything the loader needs to fetch the core script.
type LoaderInput struct {
	Integration *models.Integration
	Script      *models.ScriptAsset
	Token       string
	BaseURL     string
}

var loaderTemplate = template.Must(template.New("loader").Parse(`// a11yhub widget loader
(function () {
  var config = {{.Config}};
  var script = document.createElement("script");
  script.async = true;
  script.src = config.cdnBase + "/cdn/scripts/" + encodeURIComponent(config.scriptId) +
    "?apiKey=" + encodeURIComponent(config.apiKey) +
    "&token=" + encodeURIComponent(config.token);
  script.integrity = config.integrity;
  script.crossOrigin = "anonymous";
  script.onerror = function () {
    console.error("a11yhub: failed to load accessibility script");
  };
  window.__A11YHUB__ = config;
  document.head.appendChild(script);
})();
`))

type loaderConfig struct {
	APIKey    string                 `json:"apiKey"`
	Token     string                 `json:"token"`
	CDNBase   string                 `json:"cdnBase"`
	ScriptID  string                 `json:"scriptId"`
	Version   string                 `json:"version"`
	Integrity string                 `json:"integrity"`
	Settings  map[string]interface{} `json:"settings"`
}

// RenderLoader produces the loader JavaScript. All dynamic values are
// embedded as one JSON literal.
func (s *ScriptService) RenderLoader(in LoaderInput) ([]byte, error) {
	settings := map[string]interface{}{}
	if len(in.Integration.Settings) > 0 {
		parsed, err := utils.JSONToMap(in.Integration.Settings)
		if err != nil {
			s.logger.Warn("ignoring unreadable settings of %s: %v", in.Integration.ID, err)
		} else {
			settings = parsed
		}
	}

	cfg, err := json.Marshal(loaderConfig{
		APIKey:    in.Integration.APIKey,
		Token:     in.Token,
		CDNBase:   in.BaseURL,
		ScriptID:  in.Script.ID,
		Version:   in.Script.Version,
		Integrity: in.Script.IntegrityHash,
		Settings:  settings,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := loaderTemplate.Execute(&buf, struct{ Config string }{string(cfg)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
