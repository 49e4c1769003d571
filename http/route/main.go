package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/blobgate/blobgate/http/controller"
	middlewares "github.com/blobgate/blobgate/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiRoutes := r.Group("/api/v1/storage")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		bucketRoutes := apiRoutes.Group("/buckets")
		{
			bucketRoutes.POST("", ctrl.CreateBucket)
			bucketRoutes.GET("", ctrl.ListBuckets)
			bucketRoutes.DELETE("/:name", ctrl.DeleteBucket)
			bucketRoutes.POST("/:name/empty", ctrl.EmptyBucket)
			bucketRoutes.GET("/:name/stats", ctrl.GetBucketStats)

			// Object routes (nested under bucket)
			bucketRoutes.POST("/:name/objects", ctrl.UploadObjects)
			bucketRoutes.GET("/:name/objects", ctrl.ListObjects)
			bucketRoutes.GET("/:name/objects/:key", ctrl.DownloadObject)
			bucketRoutes.DELETE("/:name/objects/:key", ctrl.DeleteObject)
			bucketRoutes.GET("/:name/objects/:key/presign", ctrl.PresignObject)
		}
	}
	return r
}
