package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuditEntityType string

const (
	AuditEntityGig     AuditEntityType = "gig"
	AuditEntityBooking AuditEntityType = "booking"
	AuditEntityCatalog AuditEntityType = "catalog"
)

type AuditAction string

const (
	ActionJobCreated          AuditAction = "JOB_CREATED"
	ActionJobPreauthorized    AuditAction = "JOB_PREAUTHORIZED"
	ActionJobPublished        AuditAction = "JOB_PUBLISHED"
	ActionBookingApplied      AuditAction = "BOOKING_APPLIED"
	ActionBookingAccepted     AuditAction = "BOOKING_ACCEPTED"
	ActionAttendanceConfirmed AuditAction = "ATTENDANCE_CONFIRMED"
	ActionCatalogSeeded       AuditAction = "CATALOG_SEEDED"
)

// AuditEvent is one append-only ledger row. Nothing references it.
type AuditEvent struct {
	ID          int64           `db:"id"`
	TxID        int64           `db:"tx_id"`
	CreatedAt   time.Time       `db:"created_at"`
	ActorUserID *uuid.UUID      `db:"actor_user_id"`
	ActorRole   *Role           `db:"actor_role"`
	EntityType  AuditEntityType `db:"entity_type"`
	EntityID    *uuid.UUID      `db:"entity_id"`
	Action      AuditAction     `db:"action"`
	Payload     map[string]any  `db:"payload"`
	IP          *string         `db:"ip"`
	UserAgent   *string         `db:"user_agent"`
}

// RelayPosition orders ledger rows by the transaction that wrote them, then
// by id. Ids alone are not commit order: a lower id can commit later.
type RelayPosition struct {
	TxID int64
	ID   int64
}

func (p RelayPosition) Less(o RelayPosition) bool {
	if p.TxID != o.TxID {
		return p.TxID < o.TxID
	}
	return p.ID < o.ID
}

func (ev *AuditEvent) Position() RelayPosition {
	return RelayPosition{TxID: ev.TxID, ID: ev.ID}
}

type AuditFilter struct {
	EntityType  *AuditEntityType
	EntityID    *uuid.UUID
	ActorUserID *uuid.UUID
	Action      *AuditAction
	Limit       int
}
