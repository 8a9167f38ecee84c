package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"affiliate/internal/model"
	"affiliate/internal/outbox"
	"affiliate/internal/repository"
	"affiliate/pkg/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgDuplicateLink = "Duplicate key: This short link already exists."

// --- DTOs ---

type CreateLinkRequest struct {
	Domain          string  `json:"domain" binding:"required"`
	Key             string  `json:"key" binding:"required"`
	URL             string  `json:"url" binding:"required"`
	TrackConversion bool    `json:"trackConversion"`
	ProgramID       *string `json:"programId"`
	FolderID        *string `json:"folderId"`
}

type TagResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type LinkResponse struct {
	ID              uuid.UUID     `json:"id"`
	Domain          string        `json:"domain"`
	Key             string        `json:"key"`
	URL             string        `json:"url"`
	ShortLink       string        `json:"shortLink"`
	TrackConversion bool          `json:"trackConversion"`
	ProgramID       *uuid.UUID    `json:"programId"`
	PartnerID       *uuid.UUID    `json:"partnerId"`
	FolderID        *uuid.UUID    `json:"folderId"`
	Clicks          int64         `json:"clicks"`
	Leads           int64         `json:"leads"`
	Sales           int64         `json:"sales"`
	SaleAmount      int64         `json:"saleAmount"`
	Tags            []TagResponse `json:"tags"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// --- Interface ---

type LinkService interface {
	CreateLink(ctx context.Context, actor Actor, req CreateLinkRequest) (LinkResponse, error)
	ListPartnerLinks(ctx context.Context, actor Actor, programID, partnerID string, limit int) ([]LinkResponse, error)
}

type linkService struct {
	programs  repository.ProgramRepository
	links     repository.LinkRepository
	outbox    repository.OutboxRepository
	txManager repository.TransactionManager
	notifier  OutboxNotifier
	log       *zap.Logger
}

func NewLinkService(
	programs repository.ProgramRepository,
	links repository.LinkRepository,
	outboxRepo repository.OutboxRepository,
	txManager repository.TransactionManager,
	notifier OutboxNotifier,
	log *zap.Logger,
) LinkService {
	return &linkService{
		programs:  programs,
		links:     links,
		outbox:    outboxRepo,
		txManager: txManager,
		notifier:  notifier,
		log:       log,
	}
}

// --- Implementation ---

// CreateLink stores a new short link and queues it for recording
func (s *linkService) CreateLink(ctx context.Context, actor Actor, req CreateLinkRequest) (LinkResponse, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return LinkResponse{}, err
	}
	domain := strings.TrimSpace(req.Domain)
	key := strings.Trim(strings.TrimSpace(req.Key), "/")
	url := strings.TrimSpace(req.URL)
	if domain == "" || key == "" || url == "" {
		return LinkResponse{}, Validation("domain, key and url are required.")
	}

	link := model.Link{
		WorkspaceID:     actor.WorkspaceID,
		Domain:          domain,
		Key:             key,
		URL:             url,
		TrackConversion: req.TrackConversion,
	}

	if req.ProgramID != nil && *req.ProgramID != "" {
		programID, err := parseID(*req.ProgramID, "programId")
		if err != nil {
			return LinkResponse{}, err
		}
		if _, err := s.programs.FindInWorkspace(ctx, actor.WorkspaceID, programID); err != nil {
			return LinkResponse{}, fromRepo(err, msgProgramNotFound, "")
		}
		link.ProgramID = &programID
	}
	if req.FolderID != nil && *req.FolderID != "" {
		folderID, err := parseID(*req.FolderID, "folderId")
		if err != nil {
			return LinkResponse{}, err
		}
		link.FolderID = &folderID
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.links.Create(txCtx, &link); err != nil {
			return fromRepo(err, "", msgDuplicateLink)
		}
		job, err := outbox.NewJob(outbox.KindLinkRecord, linkRecordPayload(&link), time.Now())
		if err != nil {
			return err
		}
		if err := s.outbox.Enqueue(txCtx, job); err != nil {
			return fmt.Errorf("failed to enqueue link record: %w", err)
		}
		return nil
	})
	if err != nil {
		return LinkResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.Notify()
	}
	s.log.Info("link created",
		zap.String("workspace_id", actor.WorkspaceID.String()),
		zap.String("link_id", link.ID.String()),
		zap.String("short_link", link.ShortLink()))

	return toLinkResponse(link), nil
}

func (s *linkService) ListPartnerLinks(ctx context.Context, actor Actor, programID, partnerID string, limit int) ([]LinkResponse, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return nil, err
	}
	progID, err := parseID(programID, "programId")
	if err != nil {
		return nil, err
	}
	pid, err := parseID(partnerID, "partnerId")
	if err != nil {
		return nil, err
	}
	if _, err := s.programs.FindInWorkspace(ctx, actor.WorkspaceID, progID); err != nil {
		return nil, fromRepo(err, msgProgramNotFound, "")
	}

	limit = pagination.BoundSheet(limit)
	links, err := s.links.ListByPartner(ctx, progID, pid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list partner links: %w", err)
	}

	result := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		result = append(result, toLinkResponse(l))
	}
	return result, nil
}

// --- Helpers ---

func toLinkResponse(l model.Link) LinkResponse {
	resp := LinkResponse{
		ID:              l.ID,
		Domain:          l.Domain,
		Key:             l.Key,
		URL:             l.URL,
		ShortLink:       l.ShortLink(),
		TrackConversion: l.TrackConversion,
		ProgramID:       l.ProgramID,
		PartnerID:       l.PartnerID,
		FolderID:        l.FolderID,
		Clicks:          l.Clicks,
		Leads:           l.Leads,
		Sales:           l.Sales,
		SaleAmount:      l.SaleAmount,
		Tags:            make([]TagResponse, 0, len(l.Tags)),
		CreatedAt:       l.CreatedAt,
	}
	for _, t := range l.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return resp
}
