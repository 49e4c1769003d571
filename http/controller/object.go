package controller

import (
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blobgate/blobgate/entity"
	"github.com/blobgate/blobgate/http/controller/dto"
	"github.com/blobgate/blobgate/infra/produce"
	"github.com/blobgate/blobgate/provider"
	"github.com/blobgate/blobgate/utils"
)

func (ctrl *Controller) UploadObjects(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Object] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	bucket := ctrl.findOwnedBucket(c, ctx, "[Object]", name, userID)
	if bucket == nil {
		return
	}

	if bucket.Status != entity.BucketStatusActive {
		utils.JSON409(c, "Bucket is busy: "+bucket.Status)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to parse multipart form: %v", err)
		utils.JSON400(c, "Invalid multipart form")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		utils.JSON400(c, "No files provided")
		return
	}

	maxSize := ctrl.Config.EnvConfig.Upload.MaxSizeBytes
	for _, fh := range files {
		if maxSize > 0 && fh.Size > maxSize {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Object] File '%s' exceeds size limit (%d > %d)", fh.Filename, fh.Size, maxSize)
			utils.JSON413(c, "File '"+fh.Filename+"' exceeds the upload limit of "+humanize.IBytes(uint64(maxSize)))
			return
		}
	}

	reqs := make([]*provider.UploadRequest, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			for _, r := range reqs {
				_ = r.Content.Close()
			}
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to open uploaded file '%s': %v", fh.Filename, err)
			utils.JSON500(c, "Failed to read uploaded file")
			return
		}
		reqs = append(reqs, &provider.UploadRequest{
			OriginalName: fh.Filename,
			Size:         fh.Size,
			Content:      f,
		})
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Object] Uploading %d file(s) to bucket '%s' for user_id: %s", len(reqs), name, userID)

	locators, err := ctrl.Provider.UploadMany(ctx, name, reqs)
	if err != nil {
		ctrl.respondStorageError(c, ctx, "[Object]", err)
		return
	}

	objects := make([]entity.Object, 0, len(reqs))
	for i, req := range reqs {
		objects = append(objects, entity.Object{
			ID:           uuid.New(),
			BucketID:     bucket.ID,
			Key:          req.Key,
			OriginalName: req.OriginalName,
			SizeBytes:    req.Size,
			ContentType:  req.ContentType,
			ETag:         req.ETag,
			Locator:      locators[i],
			UploaderID:   userID,
		})
	}

	if err := ctrl.Repository.ObjectRepo.CreateBatch(objects); err != nil {
		// Remove the stored blobs so the catalog stays authoritative
		for _, req := range reqs {
			if delErr := ctrl.Provider.DeleteObject(ctx, name, req.Key); delErr != nil {
				ctrl.Infra.Logger.ErrorWithContextf(ctx, delErr, "[Object] Failed to rollback object '%s': %v", req.Key, delErr)
			}
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to record objects in database: %v", err)
		utils.JSON500(c, "Failed to record objects in database")
		return
	}

	for _, obj := range objects {
		publishErr := ctrl.Infra.Produce.ObjectService.PublishObjectUploaded(ctx, produce.ObjectEventMessage{
			Bucket:      name,
			Key:         obj.Key,
			Locator:     obj.Locator,
			ContentType: obj.ContentType,
			SizeBytes:   obj.SizeBytes,
			UserID:      userID.String(),
		})
		if publishErr != nil {
			// Events are best effort, the upload already succeeded
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Object] Failed to publish uploaded event for '%s': %v", obj.Key, publishErr)
		}
	}

	ctrl.invalidateStatsCache(ctx, "[Object]", name)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Object] Successfully uploaded %d object(s) to bucket '%s'", len(objects), name)
	utils.JSON201(c, gin.H{
		"message": "Objects uploaded successfully",
		"objects": objects,
		"count":   len(objects),
	})
}

func (ctrl *Controller) ListObjects(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Object] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	if ctrl.findOwnedBucket(c, ctx, "[Object]", name, userID) == nil {
		return
	}

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil {
			utils.JSON400(c, "Invalid limit parameter")
			return
		}
	}

	listing, err := ctrl.Provider.List(ctx, name, provider.ListQuery{
		Prefix:    c.Query("prefix"),
		Extension: c.Query("ext"),
		Token:     c.Query("token"),
		Limit:     limit,
	})
	if err != nil {
		ctrl.respondStorageError(c, ctx, "[Object]", err)
		return
	}

	utils.JSON200(c, listing)
}

func (ctrl *Controller) DownloadObject(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Object] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	bucket := ctrl.findOwnedBucket(c, ctx, "[Object]", name, userID)
	if bucket == nil {
		return
	}

	key := c.Param("key")
	obj, err := ctrl.Provider.DownloadOne(ctx, name, key)
	if err != nil {
		ctrl.respondStorageError(c, ctx, "[Object]", err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Serve the original filename when the catalog still has it
	downloadName := key
	if record, err := ctrl.Repository.ObjectRepo.FindByBucketIDAndKey(bucket.ID, key); err == nil && record.OriginalName != "" {
		downloadName = record.OriginalName
	}

	if obj.ETag != "" {
		c.Header("ETag", `"`+obj.ETag+`"`)
	}

	extraHeaders := map[string]string{
		"Content-Disposition": `attachment; filename="` + downloadName + `"`,
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, extraHeaders)
}

func (ctrl *Controller) DeleteObject(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Object] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	bucket := ctrl.findOwnedBucket(c, ctx, "[Object]", name, userID)
	if bucket == nil {
		return
	}

	key := c.Param("key")
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Object] Deleting object '%s' from bucket '%s'", key, name)

	// Deleting an absent object succeeds
	if err := ctrl.Provider.DeleteObject(ctx, name, key); err != nil {
		ctrl.respondStorageError(c, ctx, "[Object]", err)
		return
	}

	if err := ctrl.Repository.ObjectRepo.DeleteByBucketIDAndKey(bucket.ID, key); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to delete object '%s' from database: %v", key, err)
		utils.JSON500(c, "Failed to delete object from database")
		return
	}

	publishErr := ctrl.Infra.Produce.ObjectService.PublishObjectDeleted(ctx, produce.ObjectEventMessage{
		Bucket: name,
		Key:    key,
		UserID: userID.String(),
	})
	if publishErr != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Object] Failed to publish deleted event for '%s': %v", key, publishErr)
	}

	ctrl.invalidateStatsCache(ctx, "[Object]", name)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Object] Successfully deleted object '%s' from bucket '%s'", key, name)
	utils.JSON200(c, gin.H{
		"message": "Object deleted successfully",
		"key":     key,
	})
}

func (ctrl *Controller) PresignObject(c *gin.Context) {
	ctx := c.Request.Context()
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, nil, "[Object] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Invalid user_id format: %v", err)
		utils.JSON400(c, "Invalid user_id format")
		return
	}

	name := c.Param("name")
	if ctrl.findOwnedBucket(c, ctx, "[Object]", name, userID) == nil {
		return
	}

	key := c.Param("key")
	url, err := ctrl.Provider.PresignedGetURL(ctx, name, key)
	if err != nil {
		ctrl.respondStorageError(c, ctx, "[Object]", err)
		return
	}

	utils.JSON200(c, dto.PresignResponseDTO{
		URL:              url,
		Key:              key,
		ExpiresInSeconds: int64(ctrl.Provider.PresignExpiry().Seconds()),
	})
}
