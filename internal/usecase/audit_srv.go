package usecase

import (
	"context"
	"fmt"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/dto/request"
	"gig-booking/internal/dto/response"
	"gig-booking/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEntry describes one ledger row before it is written.
type AuditEntry struct {
	Actor      *entity.Actor
	EntityType entity.AuditEntityType
	EntityID   *uuid.UUID
	Action     entity.AuditAction
	Payload    map[string]any
	Meta       entity.ClientMeta
}

type AuditService interface {
	// Log appends through repo so the row commits or rolls back with the
	// caller's transaction. A failed append fails the caller.
	Log(ctx context.Context, repo *repository.Repository, entry AuditEntry) error
	List(ctx context.Context, req *request.AuditQueryRequest) ([]*response.AuditEventResponse, error)
}

type auditService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAuditService(repo *repository.Repository, log *zap.Logger) AuditService {
	return &auditService{
		repo: repo,
		log:  log.With(zap.String("service", "audit")),
	}
}

func (s *auditService) Log(ctx context.Context, repo *repository.Repository, entry AuditEntry) error {
	event := &entity.AuditEvent{
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Payload:    entry.Payload,
		IP:         entry.Meta.IP,
		UserAgent:  entry.Meta.UserAgent,
	}
	if entry.Actor != nil {
		userID := entry.Actor.UserID
		role := entry.Actor.Role
		event.ActorUserID = &userID
		event.ActorRole = &role
	}

	if err := repo.Audit.Append(ctx, event); err != nil {
		s.log.Error("Failed to write audit event",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
		)
		return fmt.Errorf("audit %s: %w", entry.Action, err)
	}

	s.log.Debug("Audit event written",
		zap.Int64("id", event.ID),
		zap.String("action", string(event.Action)),
	)
	return nil
}

func (s *auditService) List(ctx context.Context, req *request.AuditQueryRequest) ([]*response.AuditEventResponse, error) {
	filter := entity.AuditFilter{Limit: req.ClampedLimit()}

	if req.EntityType != "" {
		et := entity.AuditEntityType(req.EntityType)
		filter.EntityType = &et
	}
	if req.EntityID != "" {
		id, err := uuid.Parse(req.EntityID)
		if err != nil {
			return nil, apperr.Invalid("INVALID_ENTITY_ID", "entity_id must be a UUID")
		}
		filter.EntityID = &id
	}
	if req.ActorUserID != "" {
		id, err := uuid.Parse(req.ActorUserID)
		if err != nil {
			return nil, apperr.Invalid("INVALID_ACTOR_USER_ID", "actor_user_id must be a UUID")
		}
		filter.ActorUserID = &id
	}
	if req.Action != "" {
		action := entity.AuditAction(req.Action)
		filter.Action = &action
	}

	events, err := s.repo.Audit.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	result := make([]*response.AuditEventResponse, 0, len(events))
	for _, ev := range events {
		result = append(result, response.NewAuditEventResponse(ev))
	}
	return result, nil
}
