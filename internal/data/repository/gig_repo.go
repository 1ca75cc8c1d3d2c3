package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type GigFilter struct {
	PublishStatus *entity.GigPublishStatus
	VenueID       *uuid.UUID
	OwnerID       *uuid.UUID
}

type GigRepository interface {
	Create(ctx context.Context, gig *entity.Gig) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Gig, error)
	FindAll(ctx context.Context, filter GigFilter, limit, offset int) ([]*entity.Gig, error)
	CountAll(ctx context.Context, filter GigFilter) (int64, error)

	// Lifecycle writes
	SavePreauthorization(ctx context.Context, gig *entity.Gig) error
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
}

type gigRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewGigRepository(db database.Querier, log *zap.Logger) GigRepository {
	return &gigRepository{
		db:  db,
		log: log.With(zap.String("repository", "gig")),
	}
}

const gigColumns = `g.id, g.public_code, g.title, g.description, g.venue_id, g.job_type_id,
	g.start_time, g.end_time, g.pay_amount, g.currency,
	g.insurance_product_id, g.insurance_snapshot, g.contract_template_id, g.contract_snapshot,
	g.payment_snapshot, g.publish_status, g.published_at, g.created_by, g.created_at, g.updated_at`

func scanGig(row pgx.Row) (*entity.Gig, error) {
	var gig entity.Gig
	err := row.Scan(
		&gig.ID,
		&gig.PublicCode,
		&gig.Title,
		&gig.Description,
		&gig.VenueID,
		&gig.JobTypeID,
		&gig.StartTime,
		&gig.EndTime,
		&gig.PayAmount,
		&gig.Currency,
		&gig.InsuranceProductID,
		&gig.InsuranceSnapshot,
		&gig.ContractTemplateID,
		&gig.ContractSnapshot,
		&gig.PaymentSnapshot,
		&gig.PublishStatus,
		&gig.PublishedAt,
		&gig.CreatedBy,
		&gig.CreatedAt,
		&gig.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

func (r *gigRepository) Create(ctx context.Context, gig *entity.Gig) error {
	query := `
		INSERT INTO gigs (id, public_code, title, description, venue_id, job_type_id,
		                  start_time, end_time, pay_amount, currency,
		                  insurance_product_id, contract_template_id,
		                  publish_status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		gig.ID,
		gig.PublicCode,
		gig.Title,
		gig.Description,
		gig.VenueID,
		gig.JobTypeID,
		gig.StartTime,
		gig.EndTime,
		gig.PayAmount,
		gig.Currency,
		gig.InsuranceProductID,
		gig.ContractTemplateID,
		gig.PublishStatus,
		gig.CreatedBy,
		gig.CreatedAt,
		gig.UpdatedAt,
	)

	if database.IsUniqueViolation(err) {
		return fmt.Errorf("create gig %s: %w", gig.PublicCode, ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create gig",
			zap.Error(err),
			zap.String("public_code", gig.PublicCode),
			zap.String("venue_id", gig.VenueID.String()),
		)
		return fmt.Errorf("create gig %s: %w", gig.PublicCode, err)
	}

	return nil
}

func (r *gigRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	return r.findOne(ctx, `SELECT `+gigColumns+` FROM gigs g WHERE g.id = $1`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *gigRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	return r.findOne(ctx, `SELECT `+gigColumns+` FROM gigs g WHERE g.id = $1 FOR UPDATE`, id)
}

func (r *gigRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Gig, error) {
	gig, err := scanGig(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find gig by ID",
			zap.Error(err),
			zap.String("gig_id", id.String()),
		)
		return nil, fmt.Errorf("find gig by ID %s: %w", id.String(), err)
	}
	return gig, nil
}

func buildGigWhere(filter GigFilter) (string, []any) {
	var queryBuilder strings.Builder
	var args []any
	argCount := 1

	queryBuilder.WriteString(" FROM gigs g")
	if filter.OwnerID != nil {
		queryBuilder.WriteString(" JOIN venues v ON v.id = g.venue_id")
	}
	queryBuilder.WriteString(" WHERE 1=1")

	if filter.PublishStatus != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND g.publish_status = $%d", argCount))
		args = append(args, *filter.PublishStatus)
		argCount++
	}
	if filter.VenueID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND g.venue_id = $%d", argCount))
		args = append(args, *filter.VenueID)
		argCount++
	}
	if filter.OwnerID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND v.owner_id = $%d", argCount))
		args = append(args, *filter.OwnerID)
	}

	return queryBuilder.String(), args
}

// FindAll orders the published feed by publication time and everything else
// by creation time, newest first.
func (r *gigRepository) FindAll(ctx context.Context, filter GigFilter, limit, offset int) ([]*entity.Gig, error) {
	where, args := buildGigWhere(filter)

	order := " ORDER BY g.created_at DESC, g.id DESC"
	if filter.PublishStatus != nil && *filter.PublishStatus == entity.GigStatusPublished {
		order = " ORDER BY g.published_at DESC, g.id DESC"
	}

	query := fmt.Sprintf("SELECT %s%s%s LIMIT $%d OFFSET $%d",
		gigColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find gigs",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find gigs: %w", err)
	}
	defer rows.Close()

	var gigs []*entity.Gig
	for rows.Next() {
		gig, err := scanGig(rows)
		if err != nil {
			r.log.Error("Failed to scan gig row", zap.Error(err))
			return nil, fmt.Errorf("scan gig row: %w", err)
		}
		gigs = append(gigs, gig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gig rows: %w", err)
	}

	return gigs, nil
}

func (r *gigRepository) CountAll(ctx context.Context, filter GigFilter) (int64, error) {
	where, args := buildGigWhere(filter)

	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count gigs", zap.Error(err))
		return 0, fmt.Errorf("count gigs: %w", err)
	}

	return count, nil
}

// SavePreauthorization writes the frozen snapshots together with the
// preauthorized status. It only succeeds on a draft gig.
func (r *gigRepository) SavePreauthorization(ctx context.Context, gig *entity.Gig) error {
	query := `
		UPDATE gigs
		SET insurance_product_id = $2, insurance_snapshot = $3,
		    contract_template_id = $4, contract_snapshot = $5,
		    payment_snapshot = $6, publish_status = $7, updated_at = $8
		WHERE id = $1 AND publish_status = 'draft'
	`

	result, err := r.db.Exec(ctx, query,
		gig.ID,
		gig.InsuranceProductID,
		gig.InsuranceSnapshot,
		gig.ContractTemplateID,
		gig.ContractSnapshot,
		gig.PaymentSnapshot,
		gig.PublishStatus,
		gig.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to save gig preauthorization",
			zap.Error(err),
			zap.String("gig_id", gig.ID.String()),
		)
		return fmt.Errorf("save preauthorization for gig %s: %w", gig.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("gig %s is not a draft", gig.ID.String())
	}

	return nil
}

func (r *gigRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE gigs
		SET publish_status = 'published', published_at = $2, updated_at = $2
		WHERE id = $1 AND publish_status = 'preauthorized'
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to publish gig",
			zap.Error(err),
			zap.String("gig_id", id.String()),
		)
		return fmt.Errorf("publish gig %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("gig %s is not preauthorized", id.String())
	}

	return nil
}
