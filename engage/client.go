package engage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client posts custom events to the engagement platform's ingestion API.
type Client struct {
	baseURL   string
	accountID string
	token     string
	http      *http.Client
	enabled   bool
}

func NewClient(baseURL, accountID, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		token:     token,
		http:      httpClient,
		enabled:   true,
	}
}

// NewDisabledClient 未配置平台时使用：只打日志，不发请求
func NewDisabledClient() *Client { return &Client{} }

type event struct {
	ID        string         `json:"id"`
	SubjectID string         `json:"subjectId"`
	Name      string         `json:"name"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

type batch struct {
	Events []event `json:"events"`
}

func (c *Client) Emit(ctx context.Context, subjectID, eventName string, data map[string]any) error {
	if !c.enabled {
		log.Printf("[DEV] event %s for %s: %v", eventName, subjectID, data)
		return nil
	}
	body, err := json.Marshal(batch{Events: []event{{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Name:      eventName,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}}})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/accounts/%s/events", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engage: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
