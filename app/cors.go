package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// 只有配置了 WEB_ORIGIN 才开 CORS（浏览器端直接调发链接接口时用）
func useCORS(r *gin.Engine, origin string) {
	if origin == "" {
		return
	}
	cfg := cors.Config{
		AllowOrigins: []string{origin},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", IssueSecretHeader},
		MaxAge:       12 * time.Hour,
	}
	r.Use(cors.New(cfg))
}
