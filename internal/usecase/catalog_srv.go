package usecase

import (
	"context"
	"fmt"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultProviderName    = "DUMMY-INSURER"
	defaultProviderCountry = "IT"
	defaultTemplateCode    = "HORECA_HORECA_WAITER_BASIC_V1"
	defaultTemplateVersion = "v1"
	defaultCatalogCurrency = "EUR"
	contractCodePrefix     = "HORECA_"
	contractCodeSuffix     = "_V1"
	catalogSeedLock        = "catalog_seed"
)

var defaultProducts = []entity.InsuranceProduct{
	{
		Code:        "BASIC_JOB",
		Name:        "Basic per Job",
		Description: "Basic cover for a single job.",
		Scope:       entity.InsuranceScopeJob,
		PriceCents:  199,
	},
	{
		Code:        "VENUE_JOB",
		Name:        "Venue per Job",
		Description: "Venue cover for a single job.",
		Scope:       entity.InsuranceScopeJob,
		PriceCents:  299,
	},
}

// ContractCodeForJobType builds the template code convention, for example
// HORECA_WAITER_BASIC becomes HORECA_HORECA_WAITER_BASIC_V1.
func ContractCodeForJobType(jobTypeCode string) string {
	return contractCodePrefix + jobTypeCode + contractCodeSuffix
}

type CatalogService interface {
	PickDefaultInsurance(ctx context.Context, repo *repository.Repository, jobType *entity.JobType) (*entity.InsuranceProduct, error)
	PickDefaultContract(ctx context.Context, repo *repository.Repository, jobType *entity.JobType) (*entity.ContractTemplate, error)

	// ResolveInsurance honors a product pre-assigned on the gig and falls
	// back to the default picker. nil means nothing usable was found.
	ResolveInsurance(ctx context.Context, repo *repository.Repository, gig *entity.Gig, jobType *entity.JobType) (*entity.InsuranceProduct, error)
	ResolveContract(ctx context.Context, repo *repository.Repository, gig *entity.Gig, jobType *entity.JobType) (*entity.ContractTemplate, error)

	SeedDefaults(ctx context.Context, actor entity.Actor, meta entity.ClientMeta) (*response.CatalogSeedResponse, error)
}

type catalogService struct {
	repo  *repository.Repository
	audit AuditService
	log   *zap.Logger
}

func NewCatalogService(repo *repository.Repository, audit AuditService, log *zap.Logger) CatalogService {
	return &catalogService{
		repo:  repo,
		audit: audit,
		log:   log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) PickDefaultInsurance(ctx context.Context, repo *repository.Repository, jobType *entity.JobType) (*entity.InsuranceProduct, error) {
	if _, _, err := s.seedInsurance(ctx, repo); err != nil {
		return nil, err
	}

	if jobType.DefaultInsuranceTierCode != nil && *jobType.DefaultInsuranceTierCode != "" {
		preferred, err := repo.Insurance.FindActiveProductByCode(ctx, *jobType.DefaultInsuranceTierCode)
		if err != nil {
			return nil, err
		}
		if preferred != nil {
			return preferred, nil
		}
		s.log.Debug("Preferred insurance tier not available, using cheapest",
			zap.String("job_type", jobType.Code),
			zap.String("tier", *jobType.DefaultInsuranceTierCode),
		)
	}

	return repo.Insurance.FindCheapestActiveProduct(ctx)
}

func (s *catalogService) PickDefaultContract(ctx context.Context, repo *repository.Repository, jobType *entity.JobType) (*entity.ContractTemplate, error) {
	if _, err := s.seedContracts(ctx, repo); err != nil {
		return nil, err
	}
	return repo.Contract.FindActiveByCode(ctx, ContractCodeForJobType(jobType.Code))
}

func (s *catalogService) ResolveInsurance(ctx context.Context, repo *repository.Repository, gig *entity.Gig, jobType *entity.JobType) (*entity.InsuranceProduct, error) {
	if gig.InsuranceProductID == nil {
		return s.PickDefaultInsurance(ctx, repo, jobType)
	}

	product, err := repo.Insurance.FindProductByID(ctx, *gig.InsuranceProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		s.log.Warn("Pre-assigned insurance product is not usable",
			zap.String("gig_id", gig.ID.String()),
			zap.String("product_id", gig.InsuranceProductID.String()),
		)
		return nil, nil
	}
	return product, nil
}

func (s *catalogService) ResolveContract(ctx context.Context, repo *repository.Repository, gig *entity.Gig, jobType *entity.JobType) (*entity.ContractTemplate, error) {
	if gig.ContractTemplateID == nil {
		return s.PickDefaultContract(ctx, repo, jobType)
	}

	template, err := repo.Contract.FindByID(ctx, *gig.ContractTemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil || !template.Active {
		s.log.Warn("Pre-assigned contract template is not usable",
			zap.String("gig_id", gig.ID.String()),
			zap.String("template_id", gig.ContractTemplateID.String()),
		)
		return nil, nil
	}
	return template, nil
}

func (s *catalogService) SeedDefaults(ctx context.Context, actor entity.Actor, meta entity.ClientMeta) (*response.CatalogSeedResponse, error) {
	if !actor.Is(entity.RoleAdmin) {
		return nil, ErrForbiddenRole
	}

	var result response.CatalogSeedResponse
	err := s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		providers, products, err := s.seedInsurance(ctx, repo)
		if err != nil {
			return err
		}
		templates, err := s.seedContracts(ctx, repo)
		if err != nil {
			return err
		}
		result = response.CatalogSeedResponse{
			InsertedProviders: providers,
			InsertedProducts:  products,
			InsertedTemplates: templates,
		}

		if providers+products+templates == 0 {
			return nil
		}
		return s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityCatalog,
			Action:     entity.ActionCatalogSeeded,
			Payload: map[string]any{
				"inserted_providers": providers,
				"inserted_products":  products,
				"inserted_templates": templates,
			},
			Meta: meta,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	s.log.Info("Catalog seed finished",
		zap.Int("providers", result.InsertedProviders),
		zap.Int("products", result.InsertedProducts),
		zap.Int("templates", result.InsertedTemplates),
	)
	return &result, nil
}

// seedInsurance inserts the default provider and products when no provider
// exists yet.
func (s *catalogService) seedInsurance(ctx context.Context, repo *repository.Repository) (int, int, error) {
	empty, err := s.emptyUnderLock(ctx, repo, repo.Insurance.CountProviders)
	if err != nil || !empty {
		return 0, 0, err
	}

	now := time.Now().UTC()
	providerID, err := repo.Insurance.CreateProvider(ctx, &entity.InsuranceProvider{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:     defaultProviderName,
		Country:  defaultProviderCountry,
		IsActive: true,
	})
	if err != nil {
		return 0, 0, err
	}

	for i, p := range defaultProducts {
		product := p
		// distinct created_at keeps the cheapest-first tie-break stable
		created := now.Add(time.Duration(i) * time.Millisecond)
		product.Base = entity.Base{ID: uuid.New(), CreatedAt: created, UpdatedAt: created}
		product.ProviderID = providerID
		product.ProviderName = defaultProviderName
		product.Currency = defaultCatalogCurrency
		product.IsActive = true
		if err := repo.Insurance.CreateProduct(ctx, &product); err != nil {
			return 0, 0, err
		}
	}

	s.log.Info("Default insurance catalog seeded", zap.Int("products", len(defaultProducts)))
	return 1, len(defaultProducts), nil
}

func (s *catalogService) seedContracts(ctx context.Context, repo *repository.Repository) (int, error) {
	empty, err := s.emptyUnderLock(ctx, repo, repo.Contract.Count)
	if err != nil || !empty {
		return 0, err
	}

	now := time.Now().UTC()
	err = repo.Contract.Create(ctx, &entity.ContractTemplate{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Code:    defaultTemplateCode,
		Name:    "Waiter contract (basic)",
		Version: defaultTemplateVersion,
		Body:    "CONTRACT TEMPLATE (v1)\n\nJob type: Waiter (basic) (HORECA_WAITER_BASIC)\n\n[FULL LEGAL TEXT]",
		Active:  true,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("Default contract template seeded", zap.String("code", defaultTemplateCode))
	return 1, nil
}

// emptyUnderLock reports whether count is zero. An empty table is counted again
// under the seed lock, which is held until the transaction ends, so concurrent
// first seeds insert once.
func (s *catalogService) emptyUnderLock(ctx context.Context, repo *repository.Repository, count func(context.Context) (int64, error)) (bool, error) {
	n, err := count(ctx)
	if err != nil || n > 0 {
		return false, err
	}
	if err := repo.SeedLock.Lock(ctx, catalogSeedLock); err != nil {
		return false, err
	}
	n, err = count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
