package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tg_invite_bridge/bridge"
	"tg_invite_bridge/db"
	"tg_invite_bridge/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInviteRouter(svc *MockInviteService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ic := GetInviteController(&Srv{Invites: svc})
	r.POST("/api/invites", ic.CreateInvite)
	r.GET("/api/invites/:requestId", ic.GetInvite)
	r.GET("/api/orphans", ic.ListOrphans)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateInvite(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     bridge.IssueResult
		err        error
		wantStatus int
	}{
		{"fresh", `{"requestId":"T1","subjectId":"U1"}`, bridge.IssueResult{RequestID: "T1", Credential: "https://t.me/+a"}, nil, http.StatusCreated},
		{"reused", `{"requestId":"T1","subjectId":"U1"}`, bridge.IssueResult{RequestID: "T1", Credential: "https://t.me/+a", WasReused: true}, nil, http.StatusOK},
		{"missing subject", `{"requestId":"T1"}`, bridge.IssueResult{}, nil, http.StatusBadRequest},
		{"not json", `requestId=T1`, bridge.IssueResult{}, nil, http.StatusBadRequest},
		{"validation", `{"requestId":"T1","subjectId":"U1"}`, bridge.IssueResult{}, fmt.Errorf("%w: blank", bridge.ErrValidation), http.StatusBadRequest},
		{"provider", `{"requestId":"T1","subjectId":"U1"}`, bridge.IssueResult{}, fmt.Errorf("%w: chat not found", bridge.ErrProvider), http.StatusBadGateway},
		{"store", `{"requestId":"T1","subjectId":"U1"}`, bridge.IssueResult{}, fmt.Errorf("%w: timeout", bridge.ErrStore), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockInviteService{IssueFunc: func(_ context.Context, requestID, subjectID string) (bridge.IssueResult, error) {
				assert.Equal(t, "T1", requestID)
				assert.Equal(t, "U1", subjectID)
				return tt.result, tt.err
			}}
			w := do(newInviteRouter(svc), http.MethodPost, "/api/invites", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantStatus < 300 {
				assert.Equal(t, tt.result.Credential, body["credential"])
				assert.Equal(t, tt.result.WasReused, body["wasReused"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestCreateInvite_OverlongIDs(t *testing.T) {
	long := strings.Repeat("x", 192)
	for _, body := range []string{
		fmt.Sprintf(`{"requestId":%q,"subjectId":"U1"}`, long),
		fmt.Sprintf(`{"requestId":"T1","subjectId":%q}`, long),
	} {
		called := false
		svc := &MockInviteService{IssueFunc: func(context.Context, string, string) (bridge.IssueResult, error) {
			called = true
			return bridge.IssueResult{}, nil
		}}
		w := do(newInviteRouter(svc), http.MethodPost, "/api/invites", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	}
}

func TestGetInvite(t *testing.T) {
	svc := &MockInviteService{LookupFunc: func(_ context.Context, id string) (*models.InviteRequest, error) {
		if id == "T1" {
			return &models.InviteRequest{RequestID: "T1", SubjectID: "U1", Joined: true}, nil
		}
		return nil, db.ErrNotFound
	}}
	r := newInviteRouter(svc)

	w := do(r, http.MethodGet, "/api/invites/T1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Invite models.InviteRequest `json:"invite"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Invite.Joined)

	w = do(r, http.MethodGet, "/api/invites/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrphans(t *testing.T) {
	var gotLimit int
	svc := &MockInviteService{OrphansFunc: func(_ context.Context, limit int) ([]models.OrphanJoinRecord, error) {
		gotLimit = limit
		return []models.OrphanJoinRecord{{ID: "o1"}}, nil
	}}
	r := newInviteRouter(svc)

	w := do(r, http.MethodGet, "/api/orphans?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, w.Body.String(), `"o1"`)

	svc.OrphansFunc = func(context.Context, int) ([]models.OrphanJoinRecord, error) {
		return nil, fmt.Errorf("%w: gone", bridge.ErrStore)
	}
	w = do(r, http.MethodGet, "/api/orphans", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(bridge.ErrAuth))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}
