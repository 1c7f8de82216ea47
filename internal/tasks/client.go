package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"a11yhub/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskClient handles task enqueuing with improved error handling and context support
type TaskClient struct {
	client      *asynq.Client
	logger      *logger.Logger
	redisClient *redis.Client
}

// RedisClient exposes the shared connection, used by the delivery rate limiter.
func (c *TaskClient) RedisClient() *redis.Client {
	return c.redisClient
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	redisClient := redis.NewClient(
		&redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
	)

	return &TaskClient{
		client:      asynq.NewClient(redisOpt),
		redisClient: redisClient,
		logger:      logger.New("TASKS"),
	}
}

// RecordIntegrationUsed enqueues a LastUsedAt update for integrationID.
func (c *TaskClient) RecordIntegrationUsed(ctx context.Context, integrationID string) error {
	payload, err := json.Marshal(IntegrationUsedPayload{IntegrationID: integrationID, UsedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeIntegrationUsed, payload), IntegrationUsedOptions(integrationID)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return c.logger.Error("Failed to enqueue usage update", err)
	}
	c.logger.Debug("enqueued %s id=%s queue=%s", info.Type, info.ID, info.Queue)
	return nil
}

// EnqueueIntegrityCheck schedules an immediate integrity sweep.
func (c *TaskClient) EnqueueIntegrityCheck(ctx context.Context, scriptIDs ...string) error {
	payload, err := json.Marshal(ScriptIntegrityPayload{ScriptIDs: scriptIDs})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeScriptIntegrity, payload), IntegrityOptions()...); err != nil {
		return c.logger.Error("Failed to enqueue integrity check", err)
	}
	return nil
}

// Close closes the underlying asynq client and redis connection
func (c *TaskClient) Close() error {
	if err := c.redisClient.Close(); err != nil {
		c.logger.Warn("failed to close redis client: %v", err)
	}
	return c.client.Close()
}
