package service

import (
	"context"

	"affiliate/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          string `json:"id"`
	ProgramID   string `json:"programId"`
	ActorID     string `json:"actorId"`
	ActorName   string `json:"actorName"`
	Description string `json:"description"`
	EventType   string `json:"eventType"`
	Metadata    string `json:"metadata"`
	CreatedAt   string `json:"createdAt"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, actor Actor, programID string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs lists the workspace's audit trail, newest first
func (s *auditService) GetAuditLogs(ctx context.Context, actor Actor, programID string, page, limit int) ([]AuditLogResponse, int64, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return nil, 0, err
	}

	var programFilter *uuid.UUID
	if programID != "" {
		id, err := parseID(programID, "programId")
		if err != nil {
			return nil, 0, err
		}
		programFilter = &id
	}

	logs, total, err := s.repo.List(ctx, actor.WorkspaceID, programFilter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actorName := l.ActorName
		if actorName == "" {
			actorName = "System"
		}
		res = append(res, AuditLogResponse{
			ID:          l.ID.String(),
			ProgramID:   optionalID(l.ProgramID),
			ActorID:     optionalID(l.ActorID),
			ActorName:   actorName,
			Description: l.Description,
			EventType:   l.EventType,
			Metadata:    l.Metadata,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
