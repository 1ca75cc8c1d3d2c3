package repository

import (
	"context"
	"fmt"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/database"

	"go.uber.org/zap"
)

// RelayCursorRepository stores how far a relay has read the audit ledger.
type RelayCursorRepository interface {
	// Lock returns the cursor position, creating it at zero, and holds a row
	// lock until the transaction ends.
	Lock(ctx context.Context, name string) (entity.RelayPosition, error)
	Save(ctx context.Context, name string, pos entity.RelayPosition) error
}

type relayCursorRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewRelayCursorRepository(db database.Querier, log *zap.Logger) RelayCursorRepository {
	return &relayCursorRepository{
		db:  db,
		log: log.With(zap.String("repository", "relay_cursor")),
	}
}

func (r *relayCursorRepository) Lock(ctx context.Context, name string) (entity.RelayPosition, error) {
	var pos entity.RelayPosition
	if _, err := r.db.Exec(ctx,
		`INSERT INTO audit_relay_cursors (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
	); err != nil {
		r.log.Error("Failed to init relay cursor", zap.Error(err), zap.String("name", name))
		return pos, fmt.Errorf("init relay cursor %s: %w", name, err)
	}

	if err := r.db.QueryRow(ctx,
		`SELECT last_tx_id, last_id FROM audit_relay_cursors WHERE name = $1 FOR UPDATE`, name,
	).Scan(&pos.TxID, &pos.ID); err != nil {
		r.log.Error("Failed to lock relay cursor", zap.Error(err), zap.String("name", name))
		return pos, fmt.Errorf("lock relay cursor %s: %w", name, err)
	}

	return pos, nil
}

func (r *relayCursorRepository) Save(ctx context.Context, name string, pos entity.RelayPosition) error {
	_, err := r.db.Exec(ctx,
		`UPDATE audit_relay_cursors SET last_tx_id = $2, last_id = $3, updated_at = now() WHERE name = $1`,
		name, pos.TxID, pos.ID)
	if err != nil {
		r.log.Error("Failed to save relay cursor",
			zap.Error(err),
			zap.String("name", name),
			zap.Int64("last_tx_id", pos.TxID),
			zap.Int64("last_id", pos.ID),
		)
		return fmt.Errorf("save relay cursor %s: %w", name, err)
	}
	return nil
}
