package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"tg_invite_bridge/db"
	"tg_invite_bridge/models"
)

// Store is the request store, lookup index and orphan log.
// db.Repo (postgres) and db.RedisRepo both satisfy it.
type Store interface {
	GetByRequestID(ctx context.Context, requestID string) (*models.InviteRequest, error)
	CreateIfAbsent(ctx context.Context, in db.CreateInviteInput) (*models.InviteRequest, bool, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.CredentialIndexEntry, error)
	MarkJoinedIfNotAlready(ctx context.Context, requestID, joinedBySubject string, joinedAt time.Time) (bool, error)
	RecordOrphanJoin(ctx context.Context, rec *models.OrphanJoinRecord) error
	ListOrphanJoins(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error)
}

type InviteIssuer interface {
	CreateInviteLink(ctx context.Context, chatID, name string, expireAt time.Time) (string, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, subjectID, eventName string, data map[string]any) error
}

// TaskRunner runs task off the caller's path. Errors go to the runner's own
// error callback, never back to the caller.
type TaskRunner interface {
	Go(ctx context.Context, name string, task func(ctx context.Context) error)
}

type Options struct {
	ChannelID       string
	InviteTTL       time.Duration
	EventIssuedName string
	EventJoinedName string
	// Now is overridable in tests.
	Now func() time.Time
}

type Service struct {
	store  Store
	issuer InviteIssuer
	events EventEmitter
	tasks  TaskRunner
	opts   Options
}

func NewService(store Store, issuer InviteIssuer, events EventEmitter, tasks TaskRunner, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, issuer: issuer, events: events, tasks: tasks, opts: opts}
}

// maxIDLen 与 models.InviteRequest 的 size:191 列宽一致
const maxIDLen = 191

type IssueResult struct {
	RequestID  string `json:"requestId"`
	Credential string `json:"credential"`
	WasReused  bool   `json:"wasReused"`
}

// Issue returns the invite link for requestID, minting one only if the
// request has none yet.
func (s *Service) Issue(ctx context.Context, requestID, subjectID string) (IssueResult, error) {
	requestID = strings.TrimSpace(requestID)
	subjectID = strings.TrimSpace(subjectID)
	if requestID == "" || subjectID == "" {
		return IssueResult{}, fmt.Errorf("%w: requestId and subjectId are required", ErrValidation)
	}
	if utf8.RuneCountInString(requestID) > maxIDLen || utf8.RuneCountInString(subjectID) > maxIDLen {
		return IssueResult{}, fmt.Errorf("%w: requestId and subjectId must be at most %d characters", ErrValidation, maxIDLen)
	}

	// 先查：重复请求不浪费一次性链接
	existing, err := s.store.GetByRequestID(ctx, requestID)
	switch {
	case err == nil && existing.Credential != "":
		return IssueResult{RequestID: requestID, Credential: existing.Credential, WasReused: true}, nil
	case err != nil && !errors.Is(err, db.ErrNotFound):
		return IssueResult{}, fmt.Errorf("%w: load request %s: %v", ErrStore, requestID, err)
	}

	var expireAt time.Time
	if s.opts.InviteTTL > 0 {
		expireAt = s.opts.Now().Add(s.opts.InviteTTL)
	}
	link, err := s.issuer.CreateInviteLink(ctx, s.opts.ChannelID, InviteLabel(requestID), expireAt)
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if strings.TrimSpace(link) == "" {
		return IssueResult{}, fmt.Errorf("%w: empty invite link", ErrProvider)
	}

	stored, present, err := s.store.CreateIfAbsent(ctx, db.CreateInviteInput{
		RequestID:   requestID,
		SubjectID:   subjectID,
		Credential:  link,
		Fingerprint: Fingerprint(link),
	})
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: create request %s: %v", ErrStore, requestID, err)
	}
	if present {
		log.Printf("[issue] request %s was issued concurrently; fresh link left unused", requestID)
		return IssueResult{RequestID: requestID, Credential: stored.Credential, WasReused: true}, nil
	}

	s.emit(ctx, stored.SubjectID, s.opts.EventIssuedName, map[string]any{
		"transactionId": stored.RequestID,
		"inviteLink":    stored.Credential,
	})
	return IssueResult{RequestID: requestID, Credential: stored.Credential}, nil
}

// Lookup returns the stored request, db.ErrNotFound when unknown.
func (s *Service) Lookup(ctx context.Context, requestID string) (*models.InviteRequest, error) {
	req, err := s.store.GetByRequestID(ctx, requestID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return req, err
}

func (s *Service) Orphans(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error) {
	out, err := s.store.ListOrphanJoins(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return out, nil
}

type Outcome string

const (
	OutcomeIgnoredStatus       Outcome = "ignored_status"
	OutcomeIgnoredChannel      Outcome = "ignored_channel"
	OutcomeIgnoredNoCredential Outcome = "ignored_no_credential"
	OutcomeOrphan              Outcome = "orphan"
	OutcomeJoined              Outcome = "joined"
	OutcomeDuplicate           Outcome = "duplicate"
	OutcomeFailed              Outcome = "failed"
)

// HandleNotification matches a membership change to its invite request and
// fires the joined event at most once per request. The returned error is for
// logging only; the webhook acknowledges regardless.
func (s *Service) HandleNotification(ctx context.Context, n MembershipNotification) (Outcome, error) {
	if !IsActiveMember(n.Status) {
		return OutcomeIgnoredStatus, nil
	}
	if !s.matchesChannel(n) {
		return OutcomeIgnoredChannel, nil
	}
	if n.Credential == "" {
		return OutcomeIgnoredNoCredential, nil
	}

	fp := Fingerprint(n.Credential)
	entry, err := s.store.GetByFingerprint(ctx, fp)
	if errors.Is(err, db.ErrNotFound) {
		rec := &models.OrphanJoinRecord{
			Fingerprint:     fp,
			Credential:      n.Credential,
			ChannelID:       n.ChannelID,
			JoinedBySubject: n.JoinedBySubject,
			Status:          n.Status,
			UpdateID:        n.UpdateID,
			ReceivedAt:      s.opts.Now().UTC(),
		}
		if err := s.store.RecordOrphanJoin(ctx, rec); err != nil {
			return OutcomeFailed, fmt.Errorf("%w: record orphan %s: %v", ErrStore, fp, err)
		}
		return OutcomeOrphan, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: lookup fingerprint %s: %v", ErrStore, fp, err)
	}

	joinedAt := n.OccurredAt
	if joinedAt.IsZero() {
		joinedAt = s.opts.Now()
	}
	fired, err := s.store.MarkJoinedIfNotAlready(ctx, entry.RequestID, n.JoinedBySubject, joinedAt)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: mark joined %s: %v", ErrStore, entry.RequestID, err)
	}
	if !fired {
		return OutcomeDuplicate, nil
	}

	s.emit(ctx, entry.SubjectID, s.opts.EventJoinedName, map[string]any{
		"transactionId":  entry.RequestID,
		"inviteLink":     entry.Credential,
		"telegramUserId": n.JoinedBySubject,
	})
	return OutcomeJoined, nil
}

func (s *Service) matchesChannel(n MembershipNotification) bool {
	want := strings.TrimSpace(s.opts.ChannelID)
	if name, ok := strings.CutPrefix(want, "@"); ok {
		return name != "" && strings.EqualFold(name, n.ChannelUsername)
	}
	return want != "" && want == n.ChannelID
}

func (s *Service) emit(ctx context.Context, subjectID, eventName string, data map[string]any) {
	s.tasks.Go(ctx, eventName, func(ctx context.Context) error {
		if err := s.events.Emit(ctx, subjectID, eventName, data); err != nil {
			return fmt.Errorf("%w: %s for %s: %v", ErrEmission, eventName, subjectID, err)
		}
		return nil
	})
}

// InviteLabel is the advisory link name; the issuer truncates it.
func InviteLabel(requestID string) string { return "req:" + requestID }
