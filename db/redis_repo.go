package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tg_invite_bridge/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTxContention means an optimistic WATCH transaction kept losing the race.
var ErrTxContention = errors.New("redis: too much contention on key")

const maxWatchRetries = 16

// RedisRepo is the redis backend of the request store, lookup index and orphan log.
// Records are JSON blobs without TTL; state changes go through WATCH/MULTI.
type RedisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) *RedisRepo { return &RedisRepo{rdb: rdb} }

func reqKey(id string) string         { return fmt.Sprintf("invite:req:%s", id) }
func fingerprintKey(fp string) string { return fmt.Sprintf("invite:fp:%s", fp) }

const orphanKey = "invite:orphans"

func (r *RedisRepo) GetByRequestID(ctx context.Context, requestID string) (*models.InviteRequest, error) {
	var req models.InviteRequest
	if err := r.getJSON(ctx, reqKey(requestID), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RedisRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*models.CredentialIndexEntry, error) {
	var e models.CredentialIndexEntry
	if err := r.getJSON(ctx, fingerprintKey(fingerprint), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RedisRepo) CreateIfAbsent(ctx context.Context, in CreateInviteInput) (*models.InviteRequest, bool, error) {
	var (
		stored  models.InviteRequest
		present bool
	)
	key := reqKey(in.RequestID)
	txf := func(tx *redis.Tx) error {
		stored, present = models.InviteRequest{}, false
		now := time.Now().UTC()

		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(b, &stored); err != nil {
				return err
			}
			if stored.Credential != "" {
				present = true
				return nil
			}
			stored.Credential = in.Credential
			stored.CredentialFingerprint = in.Fingerprint
			stored.UpdatedAt = now
		case errors.Is(err, redis.Nil):
			stored = models.InviteRequest{
				RequestID:             in.RequestID,
				SubjectID:             in.SubjectID,
				Credential:            in.Credential,
				CredentialFingerprint: in.Fingerprint,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
		default:
			return err
		}

		rb, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		eb, err := json.Marshal(models.CredentialIndexEntry{
			Fingerprint: in.Fingerprint,
			RequestID:   stored.RequestID,
			SubjectID:   stored.SubjectID,
			Credential:  in.Credential,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		// 请求 + 索引一起提交
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, rb, 0)
			pipe.Set(ctx, fingerprintKey(in.Fingerprint), eb, 0)
			return nil
		})
		return err
	}
	if err := r.watch(ctx, txf, key); err != nil {
		return nil, false, err
	}
	return &stored, present, nil
}

func (r *RedisRepo) MarkJoinedIfNotAlready(ctx context.Context, requestID, joinedBySubject string, joinedAt time.Time) (bool, error) {
	var fired bool
	key := reqKey(requestID)
	txf := func(tx *redis.Tx) error {
		fired = false
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var req models.InviteRequest
		if err := json.Unmarshal(b, &req); err != nil {
			return err
		}
		if req.Joined {
			return nil
		}
		at := joinedAt.UTC()
		by := joinedBySubject
		req.Joined = true
		req.JoinedAt = &at
		req.JoinedBySubject = &by
		req.UpdatedAt = time.Now().UTC()
		nb, err := json.Marshal(req)
		if err != nil {
			return err
		}
		// key 在 WATCH 之后被改过 → EXEC 失败，重试时会读到 joined=true
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, 0)
			return nil
		}); err != nil {
			return err
		}
		fired = true
		return nil
	}
	if err := r.watch(ctx, txf, key); err != nil {
		return false, err
	}
	return fired, nil
}

// RecordOrphanJoin 写入按 received_at 打分的 zset，和 postgres 的排序一致
func (r *RedisRepo) RecordOrphanJoin(ctx context.Context, rec *models.OrphanJoinRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = rec.CreatedAt
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	z := redis.Z{Score: float64(rec.ReceivedAt.UnixMilli()), Member: string(b)}
	if err := r.rdb.ZAdd(ctx, orphanKey, z).Err(); err != nil {
		return fmt.Errorf("add orphan join: %w", err)
	}
	return nil
}

// ListOrphanJoins 最新的在前（received_at DESC）
func (r *RedisRepo) ListOrphanJoins(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error) {
	limit = clampLimit(limit)
	raw, err := r.rdb.ZRevRange(ctx, orphanKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.OrphanJoinRecord, 0, len(raw))
	for _, m := range raw {
		var rec models.OrphanJoinRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepo) getJSON(ctx context.Context, key string, v any) error {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (r *RedisRepo) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxContention
}
