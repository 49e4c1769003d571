package controller

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blobgate/blobgate/entity"
	"github.com/blobgate/blobgate/http/controller/dto"
	"github.com/blobgate/blobgate/infra"
	"github.com/blobgate/blobgate/infra/storage"
	"github.com/blobgate/blobgate/utils"
)

func (ctrl *Controller) CreateBucket(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Bucket] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	var req dto.CreateBucketRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	region := req.Region
	if region == "" {
		region = ctrl.Config.EnvConfig.Storage.Region
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Creating bucket '%s' in region '%s' for user_id: %s",
		req.Name, region, userID)

	// Check the catalog before touching the backend
	existsByName, err := ctrl.Repository.BucketRepo.ExistsByName(req.Name)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Error checking bucket name existence: %v", err)
		utils.JSON500(c, "Error checking bucket name existence")
		return
	}

	if existsByName {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Bucket] Bucket with name '%s' already exists", req.Name)
		utils.JSON409(c, "Bucket with this name already exists")
		return
	}

	// Create bucket on the storage backend
	if err := ctrl.Provider.CreateBucket(ctx, req.Name); err != nil {
		ctrl.respondStorageError(c, ctx, "[Bucket]", err)
		return
	}

	bucket := &entity.Bucket{
		ID:      uuid.New(),
		Name:    req.Name,
		Region:  region,
		Status:  entity.BucketStatusActive,
		OwnerID: userID,
	}

	if err := ctrl.Repository.BucketRepo.Create(bucket); err != nil {
		// Rollback the backend bucket so catalog and storage stay in sync
		if rollbackErr := ctrl.Provider.DeleteBucket(ctx, req.Name); rollbackErr != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, rollbackErr, "[Bucket] Failed to rollback backend bucket after database error: %v", rollbackErr)
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to create bucket in database: %v", err)
		utils.JSON500(c, "Failed to create bucket in database")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Successfully created bucket: %s", bucket.ID)
	utils.JSON201(c, gin.H{
		"message": "Bucket created successfully",
		"bucket":  bucket,
	})
}

func (ctrl *Controller) ListBuckets(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Bucket] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	buckets, err := ctrl.Repository.BucketRepo.FindByOwnerID(userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to list buckets: %v", err)
		utils.JSON500(c, "Failed to list buckets")
		return
	}

	utils.JSON200(c, gin.H{
		"buckets": buckets,
		"count":   len(buckets),
	})
}

func (ctrl *Controller) DeleteBucket(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Bucket] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	bucket := ctrl.findOwnedBucket(c, ctx, "[Bucket]", name, userID)
	if bucket == nil {
		return
	}

	if bucket.Status == entity.BucketStatusDeleting {
		utils.JSON409(c, "Bucket deletion is already in progress")
		return
	}

	if c.DefaultQuery("mode", "sync") == "async" {
		if err := ctrl.Repository.BucketRepo.UpdateStatus(bucket.ID, entity.BucketStatusDeleting); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to mark bucket '%s' as deleting: %v", name, err)
			utils.JSON500(c, "Failed to schedule bucket deletion")
			return
		}

		if err := ctrl.Infra.Produce.BucketService.PublishDeleteBucket(ctx, userID.String(), name); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to publish delete message for '%s': %v", name, err)
			if revertErr := ctrl.Repository.BucketRepo.UpdateStatus(bucket.ID, entity.BucketStatusActive); revertErr != nil {
				ctrl.Infra.Logger.ErrorWithContextf(ctx, revertErr, "[Bucket] Failed to revert bucket '%s' status: %v", name, revertErr)
			}
			utils.JSON500(c, "Failed to schedule bucket deletion")
			return
		}

		ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Scheduled deletion of bucket '%s'", name)
		utils.JSON202(c, gin.H{
			"message": "Bucket deletion scheduled",
			"bucket":  name,
			"status":  entity.BucketStatusDeleting,
		})
		return
	}

	// Sync mode refuses to delete a non-empty bucket
	if err := ctrl.Provider.DeleteBucket(ctx, name); err != nil {
		ctrl.respondStorageError(c, ctx, "[Bucket]", err)
		return
	}

	if err := ctrl.Repository.BucketRepo.DeleteByID(bucket.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to delete bucket '%s' from database: %v", name, err)
		utils.JSON500(c, "Failed to delete bucket from database")
		return
	}

	ctrl.invalidateStatsCache(ctx, "[Bucket]", name)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Successfully deleted bucket '%s'", name)
	utils.JSON200(c, gin.H{
		"message": "Bucket deleted successfully",
		"bucket":  name,
	})
}

func (ctrl *Controller) EmptyBucket(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Bucket] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	bucket := ctrl.findOwnedBucket(c, ctx, "[Bucket]", name, userID)
	if bucket == nil {
		return
	}

	if bucket.Status != entity.BucketStatusActive {
		utils.JSON409(c, "Bucket is busy: "+bucket.Status)
		return
	}

	if c.DefaultQuery("mode", "sync") == "async" {
		if err := ctrl.Repository.BucketRepo.UpdateStatus(bucket.ID, entity.BucketStatusEmptying); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to mark bucket '%s' as emptying: %v", name, err)
			utils.JSON500(c, "Failed to schedule bucket emptying")
			return
		}

		if err := ctrl.Infra.Produce.BucketService.PublishEmptyBucket(ctx, userID.String(), name); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to publish empty message for '%s': %v", name, err)
			if revertErr := ctrl.Repository.BucketRepo.UpdateStatus(bucket.ID, entity.BucketStatusActive); revertErr != nil {
				ctrl.Infra.Logger.ErrorWithContextf(ctx, revertErr, "[Bucket] Failed to revert bucket '%s' status: %v", name, revertErr)
			}
			utils.JSON500(c, "Failed to schedule bucket emptying")
			return
		}

		ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Scheduled emptying of bucket '%s'", name)
		utils.JSON202(c, gin.H{
			"message": "Bucket emptying scheduled",
			"bucket":  name,
			"status":  entity.BucketStatusEmptying,
		})
		return
	}

	if err := ctrl.Provider.EmptyBucket(ctx, name); err != nil {
		ctrl.respondStorageError(c, ctx, "[Bucket]", err)
		return
	}

	if err := ctrl.Repository.ObjectRepo.DeleteByBucketID(bucket.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Failed to clear catalog for bucket '%s': %v", name, err)
		utils.JSON500(c, "Failed to clear bucket catalog")
		return
	}

	ctrl.invalidateStatsCache(ctx, "[Bucket]", name)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Bucket] Successfully emptied bucket '%s'", name)
	utils.JSON200(c, gin.H{
		"message": "Bucket emptied successfully",
		"bucket":  name,
	})
}

func (ctrl *Controller) GetBucketStats(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Bucket] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Bucket] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	if ctrl.findOwnedBucket(c, ctx, "[Bucket]", name, userID) == nil {
		return
	}

	var stats storage.BucketStats
	cacheKey := statsCacheKey(name)
	cacheErr := ctrl.Infra.Redis.Get(ctx, cacheKey, &stats)
	if cacheErr != nil {
		if !errors.Is(cacheErr, infra.ErrCacheMiss) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Bucket] Stats cache read failed for '%s': %v", name, cacheErr)
		}

		stats, err = ctrl.Provider.BucketStats(ctx, name)
		if err != nil {
			ctrl.respondStorageError(c, ctx, "[Bucket]", err)
			return
		}

		if err := ctrl.Infra.Redis.Set(ctx, cacheKey, stats, ctrl.Config.EnvConfig.StatsCache.TTL); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Bucket] Stats cache write failed for '%s': %v", name, err)
		}
	}

	utils.JSON200(c, gin.H{
		"bucket":       name,
		"object_count": stats.ObjectCount,
		"total_bytes":  stats.TotalBytes,
		"total_size":   humanize.IBytes(uint64(stats.TotalBytes)),
	})
}
