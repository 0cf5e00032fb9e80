//go:build dev

package httpapi

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lcensies/task-trackers-synchronizer/docs"
)

// Swagger UI, only in images built with INSTALL_DEV=true.
func registerDocs(r *gin.Engine) {
	r.GET("/docs/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/docs/doc.json"),
	))
}
