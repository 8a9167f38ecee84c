package outbox

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"affiliate/internal/model"

	"github.com/oklog/ulid/v2"
)

// Job kinds
const (
	KindLinkRecord             = "link.record"
	KindEmailPartnerApproved   = "email.partner_approved"
	KindEmailPartnerRejected   = "email.partner_rejected"
	KindAuditPartnerApproved   = "audit.partner_approved"
	KindAuditPartnerRejected   = "audit.partner_rejected"
	KindWebhookPartnerApproved = "webhook.partner_approved"
	KindWebhookPartnerRejected = "webhook.partner_rejected"
)

// LinkRecordPayload is the link snapshot handed to the analytics recorder
type LinkRecordPayload struct {
	LinkID      string    `json:"linkId"`
	WorkspaceID string    `json:"workspaceId"`
	ProgramID   string    `json:"programId,omitempty"`
	PartnerID   string    `json:"partnerId,omitempty"`
	FolderID    string    `json:"folderId,omitempty"`
	Domain      string    `json:"domain"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	TagIDs      []string  `json:"tagIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmailPayload is a templated notification
type EmailPayload struct {
	To       string     `json:"to"`
	Subject  string     `json:"subject"`
	Template string     `json:"template"`
	Props    EmailProps `json:"props"`
}

type EmailProps struct {
	Program           EmailProgram `json:"program"`
	Partner           EmailPartner `json:"partner"`
	RewardDescription string       `json:"rewardDescription,omitempty"`
}

type EmailProgram struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
	Slug string `json:"slug"`
}

type EmailPartner struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	PayoutsEnabled bool   `json:"payoutsEnabled"`
}

// AuditPayload becomes one append-only audit row
type AuditPayload struct {
	WorkspaceID string                 `json:"workspaceId"`
	ProgramID   string                 `json:"programId"`
	ActorID     string                 `json:"actorId"`
	ActorName   string                 `json:"actorName"`
	Description string                 `json:"description"`
	EventType   string                 `json:"eventType"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// WebhookPayload is the partner lifecycle event published to subscribers
type WebhookPayload struct {
	Event       string         `json:"event"`
	WorkspaceID string         `json:"workspaceId"`
	ProgramID   string         `json:"programId"`
	LinkID      string         `json:"linkId,omitempty"`
	Partner     WebhookPartner `json:"partner"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

type WebhookPartner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status"`
}

// NewJob encodes payload into a pending job that is due immediately
func NewJob(kind string, payload interface{}, now time.Time) (model.OutboxJob, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.OutboxJob{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return model.OutboxJob{
		ID:            ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String(),
		Kind:          kind,
		Payload:       string(raw),
		Status:        model.OutboxPending,
		NextAttemptAt: now,
	}, nil
}

// Family groups kinds by their prefix, e.g. "email" for "email.partner_approved"
func Family(kind string) string {
	if i := strings.IndexByte(kind, '.'); i > 0 {
		return kind[:i]
	}
	return kind
}
