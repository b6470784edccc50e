// app/bootstrap.go
package app

import (
	"context"
	"log"
	"time"
)

// webhookRegistrar is the part of the telegram client bootstrap needs.
type webhookRegistrar interface {
	SetWebhook(ctx context.Context, webhookURL, secret string, allowedUpdates []string) error
}

// RegisterWebhook 启动时把 webhook 指向本服务；失败只记日志
// Telegram 默认不推 chat_member，必须显式订阅
func RegisterWebhook(ctx context.Context, tg webhookRegistrar, webhookURL, secret string) bool {
	if webhookURL == "" {
		log.Println("[bootstrap] TELEGRAM_WEBHOOK_URL not set, skipping setWebhook")
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := tg.SetWebhook(ctx, webhookURL, secret, []string{"chat_member"}); err != nil {
		log.Printf("[bootstrap] setWebhook failed: %v", err)
		return false
	}
	log.Printf("[bootstrap] webhook registered: %s", webhookURL)
	return true
}
