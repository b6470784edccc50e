package bridge

import (
	"strconv"
	"strings"
	"time"

	"tg_invite_bridge/telegram"
)

// MembershipNotification is the single shape the join matcher consumes,
// whichever update variant Telegram delivered it under.
type MembershipNotification struct {
	UpdateID        int64
	Source          string
	ChannelID       string
	ChannelUsername string
	Status          string
	JoinedBySubject string
	Credential      string
	OccurredAt      time.Time
}

const (
	SourceChatMember   = "chat_member"
	SourceMyChatMember = "my_chat_member"
)

// Normalize picks the membership change out of u. ok is false when the
// update carries no membership change at all.
func Normalize(u telegram.Update) (n MembershipNotification, ok bool) {
	var (
		m   *telegram.ChatMemberUpdated
		src string
	)
	switch {
	case u.ChatMember != nil:
		m, src = u.ChatMember, SourceChatMember
	case u.MyChatMember != nil:
		m, src = u.MyChatMember, SourceMyChatMember
	default:
		return MembershipNotification{}, false
	}

	n = MembershipNotification{
		UpdateID:        u.UpdateID,
		Source:          src,
		ChannelID:       strconv.FormatInt(m.Chat.ID, 10),
		ChannelUsername: m.Chat.Username,
		Status:          strings.ToLower(strings.TrimSpace(m.NewChatMember.Status)),
	}
	if id := m.NewChatMember.User.ID; id != 0 {
		n.JoinedBySubject = strconv.FormatInt(id, 10)
	} else if m.From.ID != 0 {
		n.JoinedBySubject = strconv.FormatInt(m.From.ID, 10)
	}
	if m.InviteLink != nil {
		n.Credential = strings.TrimSpace(m.InviteLink.InviteLink)
	}
	if m.Date > 0 {
		n.OccurredAt = time.Unix(m.Date, 0).UTC()
	}
	return n, true
}

var activeStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// IsActiveMember reports whether status means the user is now in the channel.
func IsActiveMember(status string) bool { return activeStatuses[status] }
