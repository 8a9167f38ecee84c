package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"affiliate/internal/model"
	"affiliate/internal/repository"

	"github.com/google/uuid"
)

// ErrPermanent marks a failure that retrying cannot fix, such as an undecodable payload
var ErrPermanent = errors.New("permanent outbox failure")

// LinkRecorder pushes a link into the analytics pipeline
type LinkRecorder interface {
	RecordLink(ctx context.Context, p LinkRecordPayload) error
}

// Mailer delivers one templated email
type Mailer interface {
	Send(ctx context.Context, p EmailPayload) error
}

// AuditWriter appends an audit row
type AuditWriter interface {
	Log(ctx context.Context, entry *model.AuditLog) error
}

// EventPublisher emits partner lifecycle events to webhook subscribers
type EventPublisher interface {
	Publish(ctx context.Context, p WebhookPayload) error
}

// Sinks bundles the side-effect adapters the worker dispatches to
type Sinks struct {
	Recorder  LinkRecorder
	Mailer    Mailer
	Audit     AuditWriter
	Publisher EventPublisher
}

// Register wires every job kind to its sink
func Register(w *Worker, s Sinks) {
	w.Handle(KindLinkRecord, decoded(func(ctx context.Context, _ model.OutboxJob, p LinkRecordPayload) error {
		return s.Recorder.RecordLink(ctx, p)
	}))

	mail := decoded(func(ctx context.Context, _ model.OutboxJob, p EmailPayload) error {
		return s.Mailer.Send(ctx, p)
	})
	w.Handle(KindEmailPartnerApproved, mail)
	w.Handle(KindEmailPartnerRejected, mail)

	audit := decoded(func(ctx context.Context, job model.OutboxJob, p AuditPayload) error {
		entry, err := auditEntry(job.ID, p)
		if err != nil {
			return err
		}
		// A rerun after a lost lease finds its row already written.
		if err := s.Audit.Log(ctx, entry); err != nil && !errors.Is(err, repository.ErrConflict) {
			return err
		}
		return nil
	})
	w.Handle(KindAuditPartnerApproved, audit)
	w.Handle(KindAuditPartnerRejected, audit)

	webhook := decoded(func(ctx context.Context, _ model.OutboxJob, p WebhookPayload) error {
		return s.Publisher.Publish(ctx, p)
	})
	w.Handle(KindWebhookPartnerApproved, webhook)
	w.Handle(KindWebhookPartnerRejected, webhook)
}

func decoded[T any](fn func(context.Context, model.OutboxJob, T) error) HandlerFunc {
	return func(ctx context.Context, job model.OutboxJob) error {
		var p T
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return fmt.Errorf("%w: decode %s payload: %v", ErrPermanent, job.Kind, err)
		}
		return fn(ctx, job, p)
	}
}

// auditEntry derives the row id from the job id so each job writes at most one row
func auditEntry(jobID string, p AuditPayload) (*model.AuditLog, error) {
	workspaceID, err := uuid.Parse(p.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: audit workspace id: %v", ErrPermanent, err)
	}
	entry := &model.AuditLog{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("outbox:"+jobID)),
		WorkspaceID: workspaceID,
		ActorName:   p.ActorName,
		Description: p.Description,
		EventType:   p.EventType,
	}
	if id, err := uuid.Parse(p.ProgramID); err == nil {
		entry.ProgramID = &id
	}
	if id, err := uuid.Parse(p.ActorID); err == nil {
		entry.ActorID = &id
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: audit metadata: %v", ErrPermanent, err)
	}
	entry.Metadata = string(metadata)
	return entry, nil
}
