package repository

import (
	"context"
	"fmt"
	"strings"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// AuditRepository is append-only. The table rejects UPDATE and DELETE.
type AuditRepository interface {
	Append(ctx context.Context, event *entity.AuditEvent) error
	Find(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error)
	FindAfter(ctx context.Context, after entity.RelayPosition, limit int) ([]*entity.AuditEvent, error)
}

type auditRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAuditRepository(db database.Querier, log *zap.Logger) AuditRepository {
	return &auditRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit")),
	}
}

const auditColumns = `id, tx_id, created_at, actor_user_id, actor_role, entity_type, entity_id, action, payload, ip, user_agent`

func scanAuditEvent(row pgx.Row) (*entity.AuditEvent, error) {
	var ev entity.AuditEvent
	err := row.Scan(
		&ev.ID,
		&ev.TxID,
		&ev.CreatedAt,
		&ev.ActorUserID,
		&ev.ActorRole,
		&ev.EntityType,
		&ev.EntityID,
		&ev.Action,
		&ev.Payload,
		&ev.IP,
		&ev.UserAgent,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Append inserts the event and fills in its id, tx_id and created_at.
func (r *auditRepository) Append(ctx context.Context, event *entity.AuditEvent) error {
	query := `
		INSERT INTO audit_events (actor_user_id, actor_role, entity_type, entity_id, action, payload, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, tx_id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		event.ActorUserID,
		event.ActorRole,
		event.EntityType,
		event.EntityID,
		event.Action,
		event.Payload,
		event.IP,
		event.UserAgent,
	).Scan(&event.ID, &event.TxID, &event.CreatedAt)

	if err != nil {
		r.log.Error("Failed to append audit event",
			zap.Error(err),
			zap.String("action", string(event.Action)),
			zap.String("entity_type", string(event.EntityType)),
		)
		return fmt.Errorf("append audit event %s: %w", event.Action, err)
	}

	return nil
}

// Find returns matching events newest first.
func (r *auditRepository) Find(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
	var queryBuilder strings.Builder
	var args []any
	argCount := 1

	queryBuilder.WriteString(`SELECT ` + auditColumns + ` FROM audit_events WHERE 1=1`)

	if filter.EntityType != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND entity_type = $%d", argCount))
		args = append(args, *filter.EntityType)
		argCount++
	}
	if filter.EntityID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND entity_id = $%d", argCount))
		args = append(args, *filter.EntityID)
		argCount++
	}
	if filter.ActorUserID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND actor_user_id = $%d", argCount))
		args = append(args, *filter.ActorUserID)
		argCount++
	}
	if filter.Action != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND action = $%d", argCount))
		args = append(args, *filter.Action)
		argCount++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argCount))
	args = append(args, filter.Limit)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find audit events", zap.Error(err), zap.Int("limit", filter.Limit))
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

// FindAfter returns events positioned after the cursor, written only by
// transactions older than every transaction still in progress. Such rows can
// no longer be joined by a lower position, so the cursor never skips one.
func (r *auditRepository) FindAfter(ctx context.Context, after entity.RelayPosition, limit int) ([]*entity.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_events
		WHERE tx_id < pg_snapshot_xmin(pg_current_snapshot())::text::bigint
		  AND (tx_id, id) > ($1, $2)
		ORDER BY tx_id ASC, id ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, after.TxID, after.ID, limit)
	if err != nil {
		r.log.Error("Failed to find audit events after cursor",
			zap.Error(err),
			zap.Int64("after_tx_id", after.TxID),
			zap.Int64("after_id", after.ID),
		)
		return nil, fmt.Errorf("find audit events after %d/%d: %w", after.TxID, after.ID, err)
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

func collectAuditEvents(rows pgx.Rows) ([]*entity.AuditEvent, error) {
	var events []*entity.AuditEvent
	for rows.Next() {
		ev, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return events, nil
}
