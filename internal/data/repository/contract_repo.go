package repository

import (
	"context"
	"fmt"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ContractRepository interface {
	Count(ctx context.Context) (int64, error)
	// Create is a no-op when the code and version already exist.
	Create(ctx context.Context, template *entity.ContractTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ContractTemplate, error)
	FindActiveByCode(ctx context.Context, code string) (*entity.ContractTemplate, error)
}

type contractRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewContractRepository(db database.Querier, log *zap.Logger) ContractRepository {
	return &contractRepository{
		db:  db,
		log: log.With(zap.String("repository", "contract")),
	}
}

const templateSelect = `SELECT id, code, name, version, body, active, created_at, updated_at FROM contract_templates`

func (r *contractRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contract_templates`).Scan(&count); err != nil {
		r.log.Error("Failed to count contract templates", zap.Error(err))
		return 0, fmt.Errorf("count contract templates: %w", err)
	}
	return count, nil
}

func (r *contractRepository) Create(ctx context.Context, template *entity.ContractTemplate) error {
	query := `
		INSERT INTO contract_templates (id, code, name, version, body, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code, version) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		template.ID,
		template.Code,
		template.Name,
		template.Version,
		template.Body,
		template.Active,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create contract template",
			zap.Error(err),
			zap.String("code", template.Code),
		)
		return fmt.Errorf("create contract template %s: %w", template.Code, err)
	}

	return nil
}

func scanTemplate(row pgx.Row) (*entity.ContractTemplate, error) {
	var t entity.ContractTemplate
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Version, &t.Body, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *contractRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ContractTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, templateSelect+` WHERE id = $1`, id))
	if err != nil {
		r.log.Error("Failed to find contract template by ID",
			zap.Error(err),
			zap.String("template_id", id.String()),
		)
		return nil, fmt.Errorf("find contract template by ID %s: %w", id.String(), err)
	}
	return t, nil
}

// FindActiveByCode returns the newest active template with the given code.
func (r *contractRepository) FindActiveByCode(ctx context.Context, code string) (*entity.ContractTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx,
		templateSelect+` WHERE code = $1 AND active ORDER BY created_at DESC, id DESC LIMIT 1`, code))
	if err != nil {
		r.log.Error("Failed to find contract template by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find contract template by code %s: %w", code, err)
	}
	return t, nil
}
