package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode switches gin to release mode outside development so the
// debug route dump stays out of production logs.
func SetGinMode(env string) {
	switch env {
	case "production", "staging":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
