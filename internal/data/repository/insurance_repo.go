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

type InsuranceRepository interface {
	CountProviders(ctx context.Context) (int64, error)
	// CreateProvider inserts the provider unless one with the same name exists,
	// and returns the id of the stored row either way.
	CreateProvider(ctx context.Context, provider *entity.InsuranceProvider) (uuid.UUID, error)
	// CreateProduct is a no-op when the product code already exists.
	CreateProduct(ctx context.Context, product *entity.InsuranceProduct) error

	FindProductByID(ctx context.Context, id uuid.UUID) (*entity.InsuranceProduct, error)
	FindActiveProductByCode(ctx context.Context, code string) (*entity.InsuranceProduct, error)
	FindCheapestActiveProduct(ctx context.Context) (*entity.InsuranceProduct, error)
}

type insuranceRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewInsuranceRepository(db database.Querier, log *zap.Logger) InsuranceRepository {
	return &insuranceRepository{
		db:  db,
		log: log.With(zap.String("repository", "insurance")),
	}
}

const productSelect = `
	SELECT p.id, p.code, p.name, p.description, p.scope, p.price_cents, p.currency,
	       p.provider_id, pr.name, p.is_active, p.created_at, p.updated_at
	FROM insurance_products p
	JOIN insurance_providers pr ON pr.id = p.provider_id`

func (r *insuranceRepository) CountProviders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM insurance_providers`).Scan(&count); err != nil {
		r.log.Error("Failed to count insurance providers", zap.Error(err))
		return 0, fmt.Errorf("count insurance providers: %w", err)
	}
	return count, nil
}

func (r *insuranceRepository) CreateProvider(ctx context.Context, provider *entity.InsuranceProvider) (uuid.UUID, error) {
	query := `
		WITH ins AS (
			INSERT INTO insurance_providers (id, name, country, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM insurance_providers WHERE name = $2
		LIMIT 1
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		provider.ID,
		provider.Name,
		provider.Country,
		provider.IsActive,
		provider.CreatedAt,
		provider.UpdatedAt,
	).Scan(&id)
	if err != nil {
		r.log.Error("Failed to create insurance provider",
			zap.Error(err),
			zap.String("name", provider.Name),
		)
		return uuid.Nil, fmt.Errorf("create insurance provider %s: %w", provider.Name, err)
	}

	return id, nil
}

func (r *insuranceRepository) CreateProduct(ctx context.Context, product *entity.InsuranceProduct) error {
	query := `
		INSERT INTO insurance_products (id, provider_id, code, name, description, scope,
		                                price_cents, currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.ProviderID,
		product.Code,
		product.Name,
		product.Description,
		product.Scope,
		product.PriceCents,
		product.Currency,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create insurance product",
			zap.Error(err),
			zap.String("code", product.Code),
		)
		return fmt.Errorf("create insurance product %s: %w", product.Code, err)
	}

	return nil
}

func (r *insuranceRepository) scanProduct(row pgx.Row) (*entity.InsuranceProduct, error) {
	var p entity.InsuranceProduct
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Description,
		&p.Scope,
		&p.PriceCents,
		&p.Currency,
		&p.ProviderID,
		&p.ProviderName,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *insuranceRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*entity.InsuranceProduct, error) {
	p, err := r.scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		r.log.Error("Failed to find insurance product by ID",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return nil, fmt.Errorf("find insurance product by ID %s: %w", id.String(), err)
	}
	return p, nil
}

func (r *insuranceRepository) FindActiveProductByCode(ctx context.Context, code string) (*entity.InsuranceProduct, error) {
	p, err := r.scanProduct(r.db.QueryRow(ctx,
		productSelect+` WHERE p.code = $1 AND p.is_active AND pr.is_active`, code))
	if err != nil {
		r.log.Error("Failed to find insurance product by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find insurance product by code %s: %w", code, err)
	}
	return p, nil
}

func (r *insuranceRepository) FindCheapestActiveProduct(ctx context.Context) (*entity.InsuranceProduct, error) {
	p, err := r.scanProduct(r.db.QueryRow(ctx, productSelect+`
		WHERE p.is_active AND pr.is_active
		ORDER BY p.price_cents ASC, p.created_at ASC, p.id ASC
		LIMIT 1`))
	if err != nil {
		r.log.Error("Failed to find cheapest insurance product", zap.Error(err))
		return nil, fmt.Errorf("find cheapest insurance product: %w", err)
	}
	return p, nil
}
