package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"tg_invite_bridge/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatMemberJSON = `{
  "update_id": 1001,
  "chat_member": {
    "chat": {"id": -1001234567890, "type": "channel", "title": "News", "username": "newsroom"},
    "from": {"id": 555, "is_bot": false, "first_name": "Ann"},
    "date": 1767225600,
    "old_chat_member": {"status": "left", "user": {"id": 555, "is_bot": false, "first_name": "Ann"}},
    "new_chat_member": {"status": "Member", "user": {"id": 555, "is_bot": false, "first_name": "Ann"}},
    "invite_link": {"invite_link": " https://t.me/+AbC ", "name": "req:T1", "member_limit": 1, "is_primary": false, "is_revoked": false}
  }
}`

func TestNormalize_ChatMember(t *testing.T) {
	var u telegram.Update
	require.NoError(t, json.Unmarshal([]byte(chatMemberJSON), &u))

	n, ok := Normalize(u)
	require.True(t, ok)
	assert.Equal(t, MembershipNotification{
		UpdateID:        1001,
		Source:          SourceChatMember,
		ChannelID:       "-1001234567890",
		ChannelUsername: "newsroom",
		Status:          "member",
		JoinedBySubject: "555",
		Credential:      "https://t.me/+AbC",
		OccurredAt:      time.Unix(1767225600, 0).UTC(),
	}, n)
}

func TestNormalize_Variants(t *testing.T) {
	upd := &telegram.ChatMemberUpdated{
		Chat:          telegram.Chat{ID: -100, Type: "channel"},
		From:          telegram.User{ID: 9},
		NewChatMember: telegram.ChatMember{Status: "administrator"},
	}

	tests := []struct {
		name        string
		update      telegram.Update
		wantOK      bool
		wantSource  string
		wantSubject string
	}{
		{name: "no membership payload", update: telegram.Update{UpdateID: 1}},
		{name: "my_chat_member", update: telegram.Update{MyChatMember: upd}, wantOK: true, wantSource: SourceMyChatMember, wantSubject: "9"},
		{name: "chat_member preferred", update: telegram.Update{ChatMember: upd, MyChatMember: &telegram.ChatMemberUpdated{}}, wantOK: true, wantSource: SourceChatMember, wantSubject: "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Normalize(tt.update)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantSource, n.Source)
			assert.Equal(t, tt.wantSubject, n.JoinedBySubject)
			assert.Empty(t, n.Credential)
			assert.True(t, n.OccurredAt.IsZero())
		})
	}
}

func TestIsActiveMember(t *testing.T) {
	for _, s := range []string{"member", "administrator", "creator"} {
		assert.True(t, IsActiveMember(s), s)
	}
	for _, s := range []string{"left", "kicked", "restricted", ""} {
		assert.False(t, IsActiveMember(s), s)
	}
}
