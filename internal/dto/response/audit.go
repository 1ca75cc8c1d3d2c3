package response

import (
	"time"

	"gig-booking/internal/data/entity"
)

type AuditEventResponse struct {
	ID          int64                  `json:"id"`
	CreatedAt   time.Time              `json:"created_at"`
	ActorUserID *string                `json:"actor_user_id"`
	ActorRole   *entity.Role           `json:"actor_role"`
	EntityType  entity.AuditEntityType `json:"entity_type"`
	EntityID    *string                `json:"entity_id"`
	Action      entity.AuditAction     `json:"action"`
	Payload     map[string]any         `json:"payload"`
	IP          *string                `json:"ip"`
	UserAgent   *string                `json:"user_agent"`
}

func NewAuditEventResponse(ev *entity.AuditEvent) *AuditEventResponse {
	return &AuditEventResponse{
		ID:          ev.ID,
		CreatedAt:   ev.CreatedAt,
		ActorUserID: uuidString(ev.ActorUserID),
		ActorRole:   ev.ActorRole,
		EntityType:  ev.EntityType,
		EntityID:    uuidString(ev.EntityID),
		Action:      ev.Action,
		Payload:     ev.Payload,
		IP:          ev.IP,
		UserAgent:   ev.UserAgent,
	}
}

type CatalogSeedResponse struct {
	InsertedProviders int `json:"inserted_providers"`
	InsertedProducts  int `json:"inserted_products"`
	InsertedTemplates int `json:"inserted_templates"`
}
