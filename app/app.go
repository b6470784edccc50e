package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"tg_invite_bridge/bridge"
	"tg_invite_bridge/config"
	"tg_invite_bridge/db"
	"tg_invite_bridge/engage"
	"tg_invite_bridge/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB      // STORE_BACKEND=postgres
	RDB    *redis.Client // STORE_BACKEND=redis
	Config config.Config

	Telegram *telegram.Client
	Tasks    *engage.Dispatcher
	Service  *bridge.Service
}

func MustNew(cfg config.Config) *App {
	a := &App{Config: cfg}

	var store bridge.Store
	switch cfg.StoreBackend {
	case config.BackendRedis:
		// --- Redis ---
		a.RDB = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.RDB.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = db.NewRedisRepo(a.RDB)
	default:
		// --- DB: Postgres ---
		a.DB = db.ConnectDB(cfg.PostgresDSN())
		store = db.NewRepo(a.DB)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.Telegram = telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken, httpClient)

	events := engage.NewDisabledClient()
	if cfg.EngageEnabled() {
		events = engage.NewClient(cfg.EngageBaseURL, cfg.EngageAccountID, cfg.EngageAPIToken, httpClient)
	} else {
		log.Println("[engage] platform not configured, events will only be logged")
	}
	a.Tasks = engage.NewDispatcher(cfg.EmitTimeout, engage.LogError)

	a.Service = bridge.NewService(store, a.Telegram, events, a.Tasks, bridge.Options{
		ChannelID:       cfg.TelegramChannelID,
		InviteTTL:       cfg.InviteTTL,
		EventIssuedName: cfg.EventIssuedName,
		EventJoinedName: cfg.EventJoinedName,
	})

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a.Router = r
	return a
}

// Close 先等事件投递跑完，再关连接
func (a *App) Close() {
	if a.Tasks != nil {
		a.Tasks.Wait()
	}
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
