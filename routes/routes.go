package routes

import (
	"tg_invite_bridge/app"
	"tg_invite_bridge/controllers"
	"tg_invite_bridge/telegram"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	inviteCtl := controllers.GetInviteController(s)
	webhookCtl := controllers.NewWebhookController(s)

	// 复用的中间件
	issueMW := app.SharedSecret(app.IssueSecretHeader, a.Config.IssueAPISecret)
	webhookMW := app.SharedSecret(telegram.SecretHeader, a.Config.TelegramWebhookSecret)

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	// ------------------------------
	// 发链接 + 排查（共享密钥）
	// ------------------------------
	api := r.Group("/api", issueMW)
	{
		api.POST("/invites", inviteCtl.CreateInvite)
		api.GET("/invites/:requestId", inviteCtl.GetInvite)
		api.GET("/orphans", inviteCtl.ListOrphans) // ?limit=
	}

	// ------------------------------
	// Telegram 回调
	// ------------------------------
	r.POST("/telegram/webhook", webhookMW, webhookCtl.Telegram)
}
