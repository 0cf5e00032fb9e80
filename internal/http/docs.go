//go:build !dev

package httpapi

import "github.com/gin-gonic/gin"

// registerDocs is a no-op outside dev builds; see docs_dev.go.
func registerDocs(*gin.Engine) {}
