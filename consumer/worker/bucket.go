package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/blobgate/blobgate/entity"
	"github.com/blobgate/blobgate/infra"
	"github.com/blobgate/blobgate/infra/produce"
	"github.com/blobgate/blobgate/infra/storage"
	"github.com/blobgate/blobgate/provider"
	"github.com/blobgate/blobgate/repository"
)

type BucketConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	provider   *provider.Provider
}

func NewBucketConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository, prov *provider.Provider) *BucketConsumer {
	return &BucketConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
		provider:   prov,
	}
}

func (c *BucketConsumer) Start(ctx context.Context) error {
	if err := c.startEmptyConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start bucket empty consumer: %w", err)
	}

	if err := c.startDeleteConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start bucket delete consumer: %w", err)
	}

	return nil
}

func (c *BucketConsumer) startEmptyConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.BucketEmptyQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register bucket empty consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer] Started listening for empty jobs on queue: %s", produce.BucketEmptyQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Empty] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Empty] Channel closed")
					return
				}
				c.handleEmptyBucket(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *BucketConsumer) startDeleteConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.BucketDeleteQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register bucket delete consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer] Started listening for delete jobs on queue: %s", produce.BucketDeleteQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Delete] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Delete] Channel closed")
					return
				}
				c.handleDeleteBucket(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *BucketConsumer) handleEmptyBucket(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Empty] Received message: %s", string(msg.Body))

	var payload produce.EmptyBucketMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Empty] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if _, err := uuid.Parse(payload.UserID); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Empty] Invalid User ID: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	// Redelivered copies of a job already running are acked away
	lockKey := "job:bucket:empty:" + payload.BucketName
	acquired, err := c.infra.Redis.SetNX(ctx, lockKey, payload.Timestamp, 10*time.Minute)
	if err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Empty] Failed to acquire job lock: %v", err)
	} else if !acquired {
		c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Empty] Job for bucket '%s' already in progress, skipping", payload.BucketName)
		_ = msg.Ack(false)
		return
	}
	defer func() {
		_ = c.infra.Redis.Delete(ctx, lockKey)
	}()

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.executeEmptyBucket(ctx, payload.BucketName)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Empty] Successfully emptied bucket: %s", payload.BucketName)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Empty] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	// After max retries, reject and requeue
	c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Empty] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

func (c *BucketConsumer) handleDeleteBucket(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Delete] Received message: %s", string(msg.Body))

	var payload produce.DeleteBucketMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Delete] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if _, err := uuid.Parse(payload.UserID); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Delete] Invalid User ID: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	lockKey := "job:bucket:delete:" + payload.BucketName
	acquired, err := c.infra.Redis.SetNX(ctx, lockKey, payload.Timestamp, 10*time.Minute)
	if err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Delete] Failed to acquire job lock: %v", err)
	} else if !acquired {
		c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Delete] Job for bucket '%s' already in progress, skipping", payload.BucketName)
		_ = msg.Ack(false)
		return
	}
	defer func() {
		_ = c.infra.Redis.Delete(ctx, lockKey)
	}()

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.executeDeleteBucket(ctx, payload.BucketName)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Bucket Consumer - Delete] Successfully deleted bucket: %s", payload.BucketName)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Delete] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Bucket Consumer - Delete] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

// executeEmptyBucket drains the backend bucket, clears its catalog rows
// and returns the bucket to active.
func (c *BucketConsumer) executeEmptyBucket(ctx context.Context, bucketName string) error {
	if err := c.provider.EmptyBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("failed to empty bucket %s: %w", bucketName, err)
	}

	bucket, err := c.repository.BucketRepo.FindByName(bucketName)
	if err != nil {
		return fmt.Errorf("failed to load bucket %s from catalog: %w", bucketName, err)
	}

	if err := c.repository.ObjectRepo.DeleteByBucketID(bucket.ID); err != nil {
		return fmt.Errorf("failed to clear catalog for bucket %s: %w", bucketName, err)
	}

	if err := c.repository.BucketRepo.UpdateStatus(bucket.ID, entity.BucketStatusActive); err != nil {
		return fmt.Errorf("failed to reactivate bucket %s: %w", bucketName, err)
	}

	if err := c.infra.Redis.Delete(ctx, "bucket:stats:"+bucketName); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Empty] Failed to invalidate stats cache for '%s': %v", bucketName, err)
	}

	return nil
}

// executeDeleteBucket empties the bucket first, so the backend delete
// never hits the non-empty refusal. A bucket already gone from the
// backend counts as done; a retry may land after a partial earlier run.
func (c *BucketConsumer) executeDeleteBucket(ctx context.Context, bucketName string) error {
	if err := c.provider.EmptyBucket(ctx, bucketName); err != nil && !errors.Is(err, storage.ErrBucketNotFound) {
		return fmt.Errorf("failed to empty bucket %s before deletion: %w", bucketName, err)
	}

	if err := c.provider.DeleteBucket(ctx, bucketName); err != nil && !errors.Is(err, storage.ErrBucketNotFound) {
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}

	bucket, err := c.repository.BucketRepo.FindByName(bucketName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Catalog row already removed by an earlier attempt
			return nil
		}
		return fmt.Errorf("failed to load bucket %s from catalog: %w", bucketName, err)
	}

	if err := c.repository.ObjectRepo.DeleteByBucketID(bucket.ID); err != nil {
		return fmt.Errorf("failed to clear catalog for bucket %s: %w", bucketName, err)
	}

	if err := c.repository.BucketRepo.DeleteByID(bucket.ID); err != nil {
		return fmt.Errorf("failed to delete bucket %s from catalog: %w", bucketName, err)
	}

	if err := c.infra.Redis.Delete(ctx, "bucket:stats:"+bucketName); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Bucket Consumer - Delete] Failed to invalidate stats cache for '%s': %v", bucketName, err)
	}

	return nil
}
