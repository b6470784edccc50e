package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxInviteNameLen is the Bot API limit on an invite link name.
const MaxInviteNameLen = 32

// SecretHeader carries the webhook secret on every update Telegram delivers.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// ErrNoInviteLink means the API answered ok but returned no link.
var ErrNoInviteLink = errors.New("telegram: response has no invite_link")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

type createInviteLinkReq struct {
	ChatID      string `json:"chat_id"`
	Name        string `json:"name,omitempty"`
	ExpireDate  int64  `json:"expire_date,omitempty"`
	MemberLimit int    `json:"member_limit"`
}

// CreateInviteLink mints a link usable by exactly one user. A zero expireAt
// means no expiry. name is cut to MaxInviteNameLen.
func (c *Client) CreateInviteLink(ctx context.Context, chatID, name string, expireAt time.Time) (string, error) {
	in := createInviteLinkReq{
		ChatID:      chatID,
		Name:        TruncateName(name),
		MemberLimit: 1,
	}
	if !expireAt.IsZero() {
		in.ExpireDate = expireAt.Unix()
	}
	var out ChatInviteLink
	if err := c.call(ctx, "createChatInviteLink", in, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.InviteLink) == "" {
		return "", ErrNoInviteLink
	}
	return out.InviteLink, nil
}

type setWebhookReq struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// SetWebhook points the bot at url. chat_member updates are only delivered
// when listed in allowedUpdates.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string, allowedUpdates []string) error {
	var ok bool
	return c.call(ctx, "setWebhook", setWebhookReq{URL: webhookURL, SecretToken: secret, AllowedUpdates: allowedUpdates}, &ok)
}

func (c *Client) call(ctx context.Context, method string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error 会带上 token，这里只保留方法名
		return fmt.Errorf("telegram %s: %w", method, unwrapURLError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram %s: read body: %w", method, err)
	}
	env := apiResponse[json.RawMessage]{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("telegram %s: status %d: decode: %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		return fmt.Errorf("telegram %s: %d %s", method, env.ErrorCode, env.Description)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}

// TruncateName cuts name to MaxInviteNameLen characters without splitting runes.
func TruncateName(name string) string {
	r := []rune(name)
	if len(r) <= MaxInviteNameLen {
		return name
	}
	return string(r[:MaxInviteNameLen])
}
