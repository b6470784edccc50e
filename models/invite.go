package models

import "time"

const InviteRequestTable = "tg_invite_requests"
const CredentialIndexTable = "tg_credential_index"

// InviteRequest is one issuance per caller-supplied request id.
// Joined only ever moves false -> true, together with JoinedAt/JoinedBySubject.
type InviteRequest struct {
	RequestID             string     `gorm:"primaryKey;size:191" json:"requestId"`
	SubjectID             string     `gorm:"size:191;index;not null" json:"subjectId"`
	Credential            string     `gorm:"type:text" json:"credential"`
	CredentialFingerprint string     `gorm:"size:64;index" json:"credentialFingerprint"`
	Joined                bool       `gorm:"not null;default:false" json:"joined"`
	JoinedBySubject       *string    `gorm:"size:64" json:"joinedBySubject,omitempty"`
	JoinedAt              *time.Time `json:"joinedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// CredentialIndexEntry maps a credential fingerprint back to its request.
// Written in the same transaction as the InviteRequest and never updated.
type CredentialIndexEntry struct {
	Fingerprint string    `gorm:"primaryKey;size:64" json:"fingerprint"`
	RequestID   string    `gorm:"size:191;uniqueIndex;not null" json:"requestId"`
	SubjectID   string    `gorm:"size:191;not null" json:"subjectId"`
	Credential  string    `gorm:"type:text;not null" json:"credential"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (InviteRequest) TableName() string        { return InviteRequestTable }
func (CredentialIndexEntry) TableName() string { return CredentialIndexTable }
