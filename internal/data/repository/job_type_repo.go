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

type JobTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.JobType, error)
}

type jobTypeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewJobTypeRepository(db database.Querier, log *zap.Logger) JobTypeRepository {
	return &jobTypeRepository{
		db:  db,
		log: log.With(zap.String("repository", "job_type")),
	}
}

func (r *jobTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.JobType, error) {
	query := `
		SELECT id, code, name, min_hourly_rate, default_insurance_tier_code, active, created_at, updated_at
		FROM job_types
		WHERE id = $1
	`

	var jobType entity.JobType
	err := r.db.QueryRow(ctx, query, id).Scan(
		&jobType.ID,
		&jobType.Code,
		&jobType.Name,
		&jobType.MinHourlyRate,
		&jobType.DefaultInsuranceTierCode,
		&jobType.Active,
		&jobType.CreatedAt,
		&jobType.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find job type by ID",
			zap.Error(err),
			zap.String("job_type_id", id.String()),
		)
		return nil, fmt.Errorf("find job type by ID %s: %w", id.String(), err)
	}

	return &jobType, nil
}
