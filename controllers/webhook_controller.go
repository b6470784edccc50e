package controllers

import (
	"log"
	"net/http"

	"tg_invite_bridge/bridge"
	"tg_invite_bridge/telegram"

	"github.com/gin-gonic/gin"
)

type WebhookController struct{ *Srv }

func NewWebhookController(s *Srv) *WebhookController { return &WebhookController{Srv: s} }

// POST /telegram/webhook
// 无论内部结果如何都回 200，否则 Telegram 会不停重推
func (wc *WebhookController) Telegram(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[webhook] panic: %v", r)
			ack(c)
		}
	}()

	var u telegram.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		log.Printf("[webhook] unreadable update: %v", err)
		ack(c)
		return
	}
	n, ok := bridge.Normalize(u)
	if !ok {
		ack(c)
		return
	}

	outcome, err := wc.Joins.HandleNotification(c.Request.Context(), n)
	switch {
	case err != nil:
		log.Printf("[webhook] update %d: %s: %v", u.UpdateID, outcome, err)
	case outcome == bridge.OutcomeJoined, outcome == bridge.OutcomeOrphan:
		log.Printf("[webhook] update %d: %s (user %s)", u.UpdateID, outcome, n.JoinedBySubject)
	}
	ack(c)
}

func ack(c *gin.Context) {
	if c.Writer.Written() {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
