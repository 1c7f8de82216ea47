package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"a11yhub/internal/models"
	"a11yhub/internal/utils/crypto"
	"a11yhub/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// ObjectReader fetches stored script bodies.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	store  ObjectReader
}

// NewTaskHandler creates a new TaskHandler. store may be nil when object
// storage is not configured; integrity sweeps are then skipped.
func NewTaskHandler(db *gorm.DB, store ObjectReader) *TaskHandler {
	return &TaskHandler{
		db:     db,
		logger: logger.New("task_handler"),
		store:  store,
	}
}

// HandleIntegrationUsed stamps LastUsedAt, never moving it backwards.
func (h *TaskHandler) HandleIntegrationUsed(ctx context.Context, t *asynq.Task) error {
	var p IntegrationUsedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	err := h.db.WithContext(ctx).Model(&models.Integration{}).
		Where("id = ? AND (last_used_at IS NULL OR last_used_at < ?)", p.IntegrationID, p.UsedAt).
		Update("last_used_at", p.UsedAt).Error
	if err != nil {
		return h.logger.Error("Failed to update last used", err)
	}
	return nil
}

// IntegrityReport summarizes one sweep.
type IntegrityReport struct {
	Checked    int
	Mismatched []string
	Failed     []string
}

// HandleScriptIntegrity re-hashes active scripts and deactivates any whose
// stored bytes no longer match their SRI value.
func (h *TaskHandler) HandleScriptIntegrity(ctx context.Context, t *asynq.Task) error {
	var p ScriptIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	report, err := h.CheckIntegrity(ctx, p.ScriptIDs...)
	if err != nil {
		return err
	}
	h.logger.Info("integrity sweep checked=%d mismatched=%d failed=%d", report.Checked, len(report.Mismatched), len(report.Failed))
	return nil
}

func (h *TaskHandler) CheckIntegrity(ctx context.Context, scriptIDs ...string) (IntegrityReport, error) {
	var report IntegrityReport
	if h.store == nil {
		h.logger.Warn("object storage not configured, skipping integrity sweep")
		return report, nil
	}

	query := h.db.WithContext(ctx).Where("is_active = ? AND is_deleted = ?", true, false)
	if len(scriptIDs) > 0 {
		query = query.Where("id IN ?", scriptIDs)
	}
	var scripts []models.ScriptAsset
	if err := query.Find(&scripts).Error; err != nil {
		return report, h.logger.Error("Failed to list scripts", err)
	}

	for _, s := range scripts {
		report.Checked++
		content, err := h.store.GetObject(ctx, s.ObjectKey)
		if err != nil {
			h.logger.Warn("could not fetch %s@%s: %v", s.Name, s.Version, err)
			report.Failed = append(report.Failed, s.ID)
			continue
		}
		if crypto.VerifyIntegrity(content, s.IntegrityHash) {
			continue
		}

		h.logger.Warn("integrity mismatch for %s@%s, deactivating", s.Name, s.Version)
		report.Mismatched = append(report.Mismatched, s.ID)
		if err := h.db.WithContext(ctx).Model(&models.ScriptAsset{}).
			Where("id = ?", s.ID).
			Updates(map[string]interface{}{"is_active": false, "is_latest": false}).Error; err != nil {
			return report, h.logger.Error("Failed to deactivate script", err)
		}
	}
	return report, nil
}
