package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg_invite_bridge/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by every store backend when a record is absent.
var ErrNotFound = errors.New("record not found")

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

type CreateInviteInput struct {
	RequestID   string
	SubjectID   string
	Credential  string
	Fingerprint string
}

func (r *Repo) GetByRequestID(ctx context.Context, requestID string) (*models.InviteRequest, error) {
	var req models.InviteRequest
	if err := r.DB.WithContext(ctx).First(&req, "request_id = ?", requestID).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *Repo) GetByFingerprint(ctx context.Context, fingerprint string) (*models.CredentialIndexEntry, error) {
	var e models.CredentialIndexEntry
	if err := r.DB.WithContext(ctx).First(&e, "fingerprint = ?", fingerprint).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// CreateIfAbsent 原子写入：请求 + 指纹索引，同一事务
// 已存在且带 credential → 原样返回，wasAlreadyPresent=true
func (r *Repo) CreateIfAbsent(ctx context.Context, in CreateInviteInput) (*models.InviteRequest, bool, error) {
	var (
		stored  models.InviteRequest
		present bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// 1) 锁住已有记录（若存在）
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&stored, "request_id = ?", in.RequestID).Error
		switch {
		case err == nil && stored.Credential != "":
			present = true
			return nil
		case err == nil:
			// 2) 有记录但还没发过链接：就地补齐
			if err := tx.Model(&models.InviteRequest{}).
				Where("request_id = ? AND (credential IS NULL OR credential = '')", in.RequestID).
				Updates(map[string]any{
					"credential":             in.Credential,
					"credential_fingerprint": in.Fingerprint,
				}).Error; err != nil {
				return err
			}
			stored.Credential = in.Credential
			stored.CredentialFingerprint = in.Fingerprint
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 3) 新建；并发下另一笔先提交则 DO NOTHING，再读回那一条
			stored = models.InviteRequest{
				RequestID:             in.RequestID,
				SubjectID:             in.SubjectID,
				Credential:            in.Credential,
				CredentialFingerprint: in.Fingerprint,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stored)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if err := tx.First(&stored, "request_id = ?", in.RequestID).Error; err != nil {
					return err
				}
				present = true
				return nil
			}
		default:
			return err
		}

		entry := &models.CredentialIndexEntry{
			Fingerprint: in.Fingerprint,
			RequestID:   stored.RequestID,
			SubjectID:   stored.SubjectID,
			Credential:  in.Credential,
			CreatedAt:   now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("insert credential index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, present, nil
}

// MarkJoinedIfNotAlready 单条条件更新，RowsAffected==1 才算本次触发
func (r *Repo) MarkJoinedIfNotAlready(ctx context.Context, requestID, joinedBySubject string, joinedAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.InviteRequest{}).
		Where("request_id = ? AND joined = ?", requestID, false).
		Updates(map[string]any{
			"joined":            true,
			"joined_by_subject": joinedBySubject,
			"joined_at":         joinedAt.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
