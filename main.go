package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"tg_invite_bridge/app"
	"tg_invite_bridge/config"
	"tg_invite_bridge/routes"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// run 返回前 defer 的 Close 会等事件投递完，监听失败也一样
func run() error {
	config.LoadEnv()
	cfg := config.MustLoad()

	application := app.MustNew(cfg)
	defer application.Close()

	r := application.Router
	routes.RegisterRoutes(r, application)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.RegisterWebhook(ctx, application.Telegram, cfg.TelegramWebhookURL, cfg.TelegramWebhookSecret)

	log.Printf("listening on :%s (store=%s)", cfg.Port, cfg.StoreBackend)
	return app.Serve(ctx, &http.Server{Addr: ":" + cfg.Port, Handler: r})
}
