package controller

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blobgate/blobgate/entity"
	"github.com/blobgate/blobgate/infra/storage"
	"github.com/blobgate/blobgate/provider"
	"github.com/blobgate/blobgate/utils"
)

// respondStorageError translates provider and backend failures into HTTP
// responses. Callers handle nil errors themselves.
func (ctrl *Controller) respondStorageError(c *gin.Context, ctx context.Context, tag string, err error) {
	var nameErr *provider.BucketNameError
	if errors.As(err, &nameErr) {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "%s Rejected bucket name: %v", tag, err)
		utils.JSON400(c, nameErr.Error())
		return
	}

	switch {
	case errors.Is(err, provider.ErrUnsupportedMediaType):
		ctrl.Infra.Logger.WarningWithContextf(ctx, "%s Rejected upload: %v", tag, err)
		utils.JSON415(c, "Unsupported media type")
	case errors.Is(err, storage.ErrBucketExists):
		utils.JSON409(c, "Bucket with this name already exists")
	case errors.Is(err, storage.ErrBucketNotEmpty):
		utils.JSON409(c, "Bucket is not empty")
	case errors.Is(err, storage.ErrBucketNotFound):
		utils.JSON404(c, "Bucket not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		utils.JSON404(c, "Object not found")
	case errors.Is(err, storage.ErrTimeout):
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "%s Storage operation timed out", tag)
		utils.JSON504(c, "Storage operation timed out")
	case errors.Is(err, storage.ErrBackendUnavailable):
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "%s Storage backend unavailable", tag)
		utils.JSON502(c, "Storage backend unavailable")
	default:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "%s Storage operation failed", tag)
		utils.JSON500(c, "Storage operation failed")
	}
}

// findOwnedBucket loads the catalog row for a bucket name and enforces
// ownership. It writes the error response itself and returns nil when
// the caller should stop.
func (ctrl *Controller) findOwnedBucket(c *gin.Context, ctx context.Context, tag, name string, userID uuid.UUID) *entity.Bucket {
	bucket, err := ctrl.Repository.BucketRepo.FindByName(name)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "%s Bucket '%s' not found: %v", tag, name, err)
		utils.JSON404(c, "Bucket not found")
		return nil
	}

	if bucket.OwnerID != userID {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "%s User %s attempted to access bucket '%s' owned by %s", tag, userID, name, bucket.OwnerID)
		utils.JSON403(c, "Forbidden: you don't have permission to access this bucket")
		return nil
	}

	return bucket
}

// statsCacheKey is shared by the stats read path and every mutation that
// invalidates it.
func statsCacheKey(bucketName string) string {
	return "bucket:stats:" + bucketName
}

func (ctrl *Controller) invalidateStatsCache(ctx context.Context, tag, bucketName string) {
	if err := ctrl.Infra.Redis.Delete(ctx, statsCacheKey(bucketName)); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "%s Failed to invalidate stats cache for '%s': %v", tag, bucketName, err)
	}
}
