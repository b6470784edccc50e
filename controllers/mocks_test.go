package controllers

import (
	"context"

	"tg_invite_bridge/bridge"
	"tg_invite_bridge/models"
)

// MockInviteService implements InviteService for testing
type MockInviteService struct {
	IssueFunc   func(ctx context.Context, requestID, subjectID string) (bridge.IssueResult, error)
	LookupFunc  func(ctx context.Context, requestID string) (*models.InviteRequest, error)
	OrphansFunc func(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error)
}

func (m *MockInviteService) Issue(ctx context.Context, requestID, subjectID string) (bridge.IssueResult, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, requestID, subjectID)
	}
	return bridge.IssueResult{}, nil
}

func (m *MockInviteService) Lookup(ctx context.Context, requestID string) (*models.InviteRequest, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, requestID)
	}
	return nil, nil
}

func (m *MockInviteService) Orphans(ctx context.Context, limit int) ([]models.OrphanJoinRecord, error) {
	if m.OrphansFunc != nil {
		return m.OrphansFunc(ctx, limit)
	}
	return nil, nil
}

// MockJoinMatcher implements JoinMatcher for testing
type MockJoinMatcher struct {
	HandleFunc func(ctx context.Context, n bridge.MembershipNotification) (bridge.Outcome, error)
	calls      []bridge.MembershipNotification
}

func (m *MockJoinMatcher) HandleNotification(ctx context.Context, n bridge.MembershipNotification) (bridge.Outcome, error) {
	m.calls = append(m.calls, n)
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, n)
	}
	return bridge.OutcomeJoined, nil
}
