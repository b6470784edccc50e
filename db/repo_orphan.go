package db

import (
	"context"
	"fmt"

	"tg_invite_bridge/models"

	"github.com/google/uuid"
)

const maxOrphanPage = 500

func (r *Repo) RecordOrphanJoin(ctx context.Context, rec *models.OrphanJoinRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert orphan join: %w", err)
	}
	return nil
}

// ListOrphanJoins 最新的在前
func (r *Repo) ListOrphanJoins(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error) {
	limit = clampLimit(limit)
	var out []models.OrphanJoinRecord
	if err := r.DB.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > maxOrphanPage {
		return maxOrphanPage
	}
	return limit
}
