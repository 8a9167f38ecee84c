package service

import (
	"context"
	"fmt"
	"time"

	"affiliate/internal/model"
	"affiliate/internal/outbox"
	"affiliate/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgProgramNotFound    = "Program not found."
	msgLinkNotFound       = "Link not found."
	msgEnrollmentNotFound = "Partner enrollment not found."
	msgLinkTaken          = "Link is already associated with another partner."
	msgWorkspaceMismatch  = "workspaceId does not match the active workspace."

	templatePartnerApproved = "partner-application-approved"
	templatePartnerRejected = "partner-application-rejected"
)

// --- DTOs ---

type ApprovePartnerRequest struct {
	WorkspaceID string `json:"workspaceId"`
	ProgramID   string `json:"programId" binding:"required"`
	PartnerID   string `json:"partnerId" binding:"required"`
	LinkID      string `json:"linkId" binding:"required"`
}

type RejectPartnerRequest struct {
	WorkspaceID string `json:"workspaceId"`
	ProgramID   string `json:"programId" binding:"required"`
	PartnerID   string `json:"partnerId" binding:"required"`
}

type ActionResult struct {
	OK bool `json:"ok"`
}

// PartnerInvalidator tells connected dashboards that a program's partner list changed
type PartnerInvalidator interface {
	InvalidatePartners(workspaceID, programID uuid.UUID)
}

// OutboxNotifier wakes the outbox worker after new jobs commit
type OutboxNotifier interface {
	Notify()
}

// --- Interface ---

type PartnerApprovalService interface {
	Approve(ctx context.Context, actor Actor, req ApprovePartnerRequest) (ActionResult, error)
	Reject(ctx context.Context, actor Actor, req RejectPartnerRequest) (ActionResult, error)
}

// PartnerApprovalDeps lists the collaborators of the approval workflow
type PartnerApprovalDeps struct {
	Programs    repository.ProgramRepository
	Links       repository.LinkRepository
	Partners    repository.PartnerRepository
	Outbox      repository.OutboxRepository
	TxManager   repository.TransactionManager
	Rewards     RewardService
	Invalidator PartnerInvalidator
	Notifier    OutboxNotifier
	Logger      *zap.Logger
}

type partnerApprovalService struct {
	PartnerApprovalDeps
	now func() time.Time
}

func NewPartnerApprovalService(deps PartnerApprovalDeps) PartnerApprovalService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &partnerApprovalService{PartnerApprovalDeps: deps, now: time.Now}
}

// --- Implementation ---

// Approve binds linkID to the partner and approves the enrollment. The enrollment
// update, the link update and the side-effect jobs commit together or not at all.
func (s *partnerApprovalService) Approve(ctx context.Context, actor Actor, req ApprovePartnerRequest) (ActionResult, error) {
	if err := checkWorkspace(actor, req.WorkspaceID); err != nil {
		return ActionResult{}, err
	}
	programID, err := parseID(req.ProgramID, "programId")
	if err != nil {
		return ActionResult{}, err
	}
	partnerID, err := parseID(req.PartnerID, "partnerId")
	if err != nil {
		return ActionResult{}, err
	}
	linkID, err := parseID(req.LinkID, "linkId")
	if err != nil {
		return ActionResult{}, err
	}

	var (
		program *model.Program
		link    *model.Link
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.Programs.FindInWorkspace(gctx, actor.WorkspaceID, programID)
		if err != nil {
			return fromRepo(err, msgProgramNotFound, "")
		}
		program = p
		return nil
	})
	g.Go(func() error {
		l, err := s.Links.FindInWorkspace(gctx, actor.WorkspaceID, linkID)
		if err != nil {
			return fromRepo(err, msgLinkNotFound, "")
		}
		link = l
		return nil
	})
	if err := g.Wait(); err != nil {
		return ActionResult{}, err
	}

	if link.PartnerID != nil {
		return ActionResult{}, Conflict(msgLinkTaken)
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var (
			enrollment *model.ProgramEnrollment
			assigned   *model.Link
			reward     *model.Reward
		)

		// Reward reads go through the pool. The mutations share the transaction connection.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			r, err := s.Rewards.DeterminePartnerReward(gctx, programID, partnerID, model.RewardEventSale)
			if err != nil {
				return err
			}
			reward = r
			return nil
		})
		g.Go(func() error {
			e, err := s.Partners.UpdateEnrollmentStatus(txCtx, programID, partnerID, model.EnrollmentApproved)
			if err != nil {
				return fromRepo(err, msgEnrollmentNotFound, "")
			}
			enrollment = e

			l, err := s.Links.AssignPartner(txCtx, linkID, repository.LinkAssignment{
				ProgramID: programID,
				PartnerID: partnerID,
				FolderID:  program.DefaultFolderID,
			})
			if err != nil {
				return fromRepo(err, msgLinkNotFound, msgLinkTaken)
			}
			assigned = l
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		jobs, err := s.approvalJobs(actor, program, enrollment.Partner, assigned, reward)
		if err != nil {
			return err
		}
		if err := s.Outbox.Enqueue(txCtx, jobs...); err != nil {
			return fmt.Errorf("failed to enqueue approval side effects: %w", err)
		}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	s.afterCommit(actor.WorkspaceID, programID)
	s.Logger.Info("partner approved",
		zap.String("workspace_id", actor.WorkspaceID.String()),
		zap.String("program_id", programID.String()),
		zap.String("partner_id", partnerID.String()),
		zap.String("link_id", linkID.String()),
		zap.String("actor_id", actor.UserID.String()))

	return ActionResult{OK: true}, nil
}

// Reject never touches links
func (s *partnerApprovalService) Reject(ctx context.Context, actor Actor, req RejectPartnerRequest) (ActionResult, error) {
	if err := checkWorkspace(actor, req.WorkspaceID); err != nil {
		return ActionResult{}, err
	}
	programID, err := parseID(req.ProgramID, "programId")
	if err != nil {
		return ActionResult{}, err
	}
	partnerID, err := parseID(req.PartnerID, "partnerId")
	if err != nil {
		return ActionResult{}, err
	}

	program, err := s.Programs.FindInWorkspace(ctx, actor.WorkspaceID, programID)
	if err != nil {
		return ActionResult{}, fromRepo(err, msgProgramNotFound, "")
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		enrollment, err := s.Partners.UpdateEnrollmentStatus(txCtx, programID, partnerID, model.EnrollmentRejected)
		if err != nil {
			return fromRepo(err, msgEnrollmentNotFound, "")
		}

		jobs, err := s.rejectionJobs(actor, program, enrollment.Partner)
		if err != nil {
			return err
		}
		if err := s.Outbox.Enqueue(txCtx, jobs...); err != nil {
			return fmt.Errorf("failed to enqueue rejection side effects: %w", err)
		}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	s.afterCommit(actor.WorkspaceID, programID)
	s.Logger.Info("partner rejected",
		zap.String("workspace_id", actor.WorkspaceID.String()),
		zap.String("program_id", programID.String()),
		zap.String("partner_id", partnerID.String()),
		zap.String("actor_id", actor.UserID.String()))

	return ActionResult{OK: true}, nil
}

func (s *partnerApprovalService) afterCommit(workspaceID, programID uuid.UUID) {
	if s.Invalidator != nil {
		s.Invalidator.InvalidatePartners(workspaceID, programID)
	}
	if s.Notifier != nil {
		s.Notifier.Notify()
	}
}

func (s *partnerApprovalService) approvalJobs(actor Actor, program *model.Program, partner model.Partner, link *model.Link, reward *model.Reward) ([]model.OutboxJob, error) {
	now := s.now()
	b := jobBuilder{now: now}

	b.add(outbox.KindLinkRecord, linkRecordPayload(link))

	if partner.Email != nil {
		b.add(outbox.KindEmailPartnerApproved, outbox.EmailPayload{
			To:       *partner.Email,
			Subject:  fmt.Sprintf("Your application to join %s partner program has been approved!", program.Name),
			Template: templatePartnerApproved,
			Props: outbox.EmailProps{
				Program:           emailProgram(program),
				Partner:           emailPartner(partner),
				RewardDescription: DescribeReward(reward),
			},
		})
	}

	b.add(outbox.KindAuditPartnerApproved, auditPayload(actor, program, partner,
		fmt.Sprintf("Approved partner %s to join the program.", partner.DisplayName()),
		model.AuditPartnerApproved))

	b.add(outbox.KindWebhookPartnerApproved, webhookPayload(model.AuditPartnerApproved, actor, program, partner, model.EnrollmentApproved, link.ID.String(), now))

	return b.jobs, b.err
}

func (s *partnerApprovalService) rejectionJobs(actor Actor, program *model.Program, partner model.Partner) ([]model.OutboxJob, error) {
	now := s.now()
	b := jobBuilder{now: now}

	if partner.Email != nil {
		b.add(outbox.KindEmailPartnerRejected, outbox.EmailPayload{
			To:       *partner.Email,
			Subject:  fmt.Sprintf("Your application to join %s partner program has been rejected", program.Name),
			Template: templatePartnerRejected,
			Props: outbox.EmailProps{
				Program: emailProgram(program),
				Partner: emailPartner(partner),
			},
		})
	}

	b.add(outbox.KindAuditPartnerRejected, auditPayload(actor, program, partner,
		fmt.Sprintf("Rejected partner %s from the program.", partner.DisplayName()),
		model.AuditPartnerRejected))

	b.add(outbox.KindWebhookPartnerRejected, webhookPayload(model.AuditPartnerRejected, actor, program, partner, model.EnrollmentRejected, "", now))

	return b.jobs, b.err
}

// --- Helpers ---

type jobBuilder struct {
	now  time.Time
	jobs []model.OutboxJob
	err  error
}

func (b *jobBuilder) add(kind string, payload interface{}) {
	if b.err != nil {
		return
	}
	job, err := outbox.NewJob(kind, payload, b.now)
	if err != nil {
		b.err = err
		return
	}
	b.jobs = append(b.jobs, job)
}

func checkWorkspace(actor Actor, requested string) error {
	if actor.WorkspaceID == uuid.Nil {
		return Unauthorized("Workspace is required.")
	}
	if requested != "" && requested != actor.WorkspaceID.String() {
		return Validation(msgWorkspaceMismatch)
	}
	return nil
}

func linkRecordPayload(l *model.Link) outbox.LinkRecordPayload {
	p := outbox.LinkRecordPayload{
		LinkID:      l.ID.String(),
		WorkspaceID: l.WorkspaceID.String(),
		ProgramID:   optionalID(l.ProgramID),
		PartnerID:   optionalID(l.PartnerID),
		FolderID:    optionalID(l.FolderID),
		Domain:      l.Domain,
		Key:         l.Key,
		URL:         l.URL,
		TagIDs:      make([]string, 0, len(l.Tags)),
		CreatedAt:   l.CreatedAt,
	}
	for _, t := range l.Tags {
		p.TagIDs = append(p.TagIDs, t.ID.String())
	}
	return p
}

func emailProgram(p *model.Program) outbox.EmailProgram {
	return outbox.EmailProgram{Name: p.Name, Logo: p.Logo, Slug: p.Slug}
}

func emailPartner(p model.Partner) outbox.EmailPartner {
	return outbox.EmailPartner{
		Name:           p.Name,
		Email:          stringValue(p.Email),
		PayoutsEnabled: p.PayoutsEnabledAt != nil,
	}
}

func auditPayload(actor Actor, program *model.Program, partner model.Partner, description, eventType string) outbox.AuditPayload {
	return outbox.AuditPayload{
		WorkspaceID: actor.WorkspaceID.String(),
		ProgramID:   program.ID.String(),
		ActorID:     actor.UserID.String(),
		ActorName:   actor.Name,
		Description: description,
		EventType:   eventType,
		Metadata: map[string]interface{}{
			"id":    partner.ID.String(),
			"name":  partner.Name,
			"email": stringValue(partner.Email),
		},
	}
}

func webhookPayload(event string, actor Actor, program *model.Program, partner model.Partner, status, linkID string, now time.Time) outbox.WebhookPayload {
	return outbox.WebhookPayload{
		Event:       event,
		WorkspaceID: actor.WorkspaceID.String(),
		ProgramID:   program.ID.String(),
		LinkID:      linkID,
		Partner: outbox.WebhookPartner{
			ID:     partner.ID.String(),
			Name:   partner.Name,
			Email:  stringValue(partner.Email),
			Status: status,
		},
		OccurredAt: now.UTC(),
	}
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
