package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRegistrar struct {
	calls   int
	url     string
	secret  string
	updates []string
	err     error
}

func (f *fakeRegistrar) SetWebhook(_ context.Context, webhookURL, secret string, allowed []string) error {
	f.calls++
	f.url, f.secret, f.updates = webhookURL, secret, allowed
	return f.err
}

func TestRegisterWebhook(t *testing.T) {
	f := &fakeRegistrar{}
	assert.True(t, RegisterWebhook(context.Background(), f, "https://bridge.example/telegram/webhook", "tok"))
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "tok", f.secret)
	assert.Equal(t, []string{"chat_member"}, f.updates)
}

func TestRegisterWebhook_SkippedWithoutURL(t *testing.T) {
	f := &fakeRegistrar{}
	assert.False(t, RegisterWebhook(context.Background(), f, "", "tok"))
	assert.Zero(t, f.calls)
}

func TestRegisterWebhook_FailureIsNotFatal(t *testing.T) {
	f := &fakeRegistrar{err: errors.New("401 Unauthorized")}
	assert.False(t, RegisterWebhook(context.Background(), f, "https://x", ""))
	assert.Equal(t, 1, f.calls)
}
