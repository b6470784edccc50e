// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"

	"tg_invite_bridge/app"
	"tg_invite_bridge/bridge"
	"tg_invite_bridge/db"
	"tg_invite_bridge/models"
)

// InviteService is what the issuance and diagnostics handlers need.
type InviteService interface {
	Issue(ctx context.Context, requestID, subjectID string) (bridge.IssueResult, error)
	Lookup(ctx context.Context, requestID string) (*models.InviteRequest, error)
	Orphans(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error)
}

// JoinMatcher consumes normalized membership notifications.
type JoinMatcher interface {
	HandleNotification(ctx context.Context, n bridge.MembershipNotification) (bridge.Outcome, error)
}

type Srv struct {
	Invites InviteService
	Joins   JoinMatcher
}

func GetSrv(a *app.App) *Srv {
	return &Srv{Invites: a.Service, Joins: a.Service}
}

// --- helpers ---

// 错误 → HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bridge.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *app.Ctx, err error) {
	c.AbortWithStatusJSON(statusFor(err), app.H{"error": err.Error()})
}
