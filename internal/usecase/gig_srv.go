package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/dto/request"
	"gig-booking/internal/dto/response"
	"gig-booking/internal/payment"
	"gig-booking/internal/pricing"
	"gig-booking/pkg/apperr"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/tracing"
	"gig-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	defaultGigCurrency      = "EUR"
	publicCodeAttempts      = 3
	defaultPaymentTimeout   = 10 * time.Second
	compensationVoidTimeout = 10 * time.Second

	// providerCallLimit bounds a provider call that outlived PaymentTimeout.
	providerCallLimit = 2 * time.Minute
)

var tracer = tracing.Tracer("gig-booking/usecase")

type GigService interface {
	CreateGig(ctx context.Context, actor entity.Actor, req *request.CreateGigRequest, meta entity.ClientMeta) (*response.GigResponse, error)
	PreauthorizeGig(ctx context.Context, actor entity.Actor, gigID string, req *request.PreauthorizeGigRequest, meta entity.ClientMeta) (*response.GigResponse, error)
	PublishGig(ctx context.Context, actor entity.Actor, gigID string, meta entity.ClientMeta) (*response.GigResponse, error)

	ListGigs(ctx context.Context, actor entity.Actor, req *request.ListGigsRequest) (*response.PaginatedResponse[*response.GigResponse], error)
	GetGig(ctx context.Context, actor entity.Actor, gigID string) (*response.GigResponse, error)
}

// GigSettings carries the pricing and payment knobs of the gig pipeline.
type GigSettings struct {
	Calculator     pricing.Calculator
	PlatformFee    decimal.Decimal
	PaymentTimeout time.Duration
}

func GigSettingsFromConfig(cfg *utils.Config) GigSettings {
	return GigSettings{
		Calculator:     pricing.NewCalculator(cfg.Pricing.FeePercent, cfg.Pricing.FeeFixed),
		PlatformFee:    cfg.Pricing.PlatformFee,
		PaymentTimeout: cfg.Payment.Timeout,
	}
}

type gigService struct {
	repo       *repository.Repository
	catalog    CatalogService
	ownership  VenueOwnership
	audit      AuditService
	authorizer payment.Authorizer
	settings   GigSettings
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewGigService(
	repo *repository.Repository,
	catalog CatalogService,
	ownership VenueOwnership,
	audit AuditService,
	authorizer payment.Authorizer,
	settings GigSettings,
	m *metrics.Metrics,
	log *zap.Logger,
) GigService {
	if settings.PaymentTimeout <= 0 {
		settings.PaymentTimeout = defaultPaymentTimeout
	}
	return &gigService{
		repo:       repo,
		catalog:    catalog,
		ownership:  ownership,
		audit:      audit,
		authorizer: authorizer,
		settings:   settings,
		metrics:    m,
		log:        log.With(zap.String("service", "gig")),
	}
}

func parseOptionalUUID(raw *string, code, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperr.Invalid(code, field+" must be a UUID")
	}
	return &id, nil
}

func parseGigID(raw string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid("INVALID_GIG_ID", "gig id must be a UUID")
	}
	return id, nil
}

func (s *gigService) CreateGig(ctx context.Context, actor entity.Actor, req *request.CreateGigRequest, meta entity.ClientMeta) (*response.GigResponse, error) {
	if !actor.Is(entity.RoleVenue) {
		return nil, ErrForbiddenRole
	}

	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		return nil, apperr.Invalid("INVALID_VENUE_ID", "venue_id must be a UUID")
	}
	jobTypeID, err := parseOptionalUUID(req.JobTypeID, "INVALID_JOB_TYPE_ID", "job_type_id")
	if err != nil {
		return nil, err
	}
	productID, err := parseOptionalUUID(req.InsuranceProductID, "INVALID_INSURANCE_PRODUCT_ID", "insurance_product_id")
	if err != nil {
		return nil, err
	}
	templateID, err := parseOptionalUUID(req.ContractTemplateID, "INVALID_CONTRACT_TEMPLATE_ID", "contract_template_id")
	if err != nil {
		return nil, err
	}

	if req.PayAmount != nil && req.PayAmount.IsNegative() {
		return nil, apperr.Invalid("INVALID_PAY_AMOUNT", "pay_amount cannot be negative")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultGigCurrency
	}

	var gig *entity.Gig
	for attempt := 1; attempt <= publicCodeAttempts; attempt++ {
		now := time.Now().UTC()
		gig = &entity.Gig{
			Base:               entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			PublicCode:         utils.GeneratePublicCode(),
			Title:              strings.TrimSpace(req.Title),
			Description:        req.Description,
			VenueID:            venueID,
			JobTypeID:          jobTypeID,
			StartTime:          req.StartTime.UTC(),
			EndTime:            req.EndTime.UTC(),
			PayAmount:          req.PayAmount,
			Currency:           currency,
			InsuranceProductID: productID,
			ContractTemplateID: templateID,
			PublishStatus:      entity.GigStatusDraft,
			CreatedBy:          actor.UserID,
		}

		// A unique violation aborts the transaction, so each attempt gets a
		// fresh one.
		err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
			return s.insertGig(ctx, repo, actor, gig, meta)
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.log.Warn("Public code collision, retrying",
			zap.String("public_code", gig.PublicCode),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityGig), string(entity.ActionJobCreated))
	s.log.Info("Gig created",
		zap.String("gig_id", gig.ID.String()),
		zap.String("public_code", gig.PublicCode),
		zap.String("venue_id", gig.VenueID.String()),
	)

	return response.NewGigResponse(gig), nil
}

func (s *gigService) insertGig(ctx context.Context, repo *repository.Repository, actor entity.Actor, gig *entity.Gig, meta entity.ClientMeta) error {
	if err := requireVenueOwner(ctx, s.ownership, repo, gig.VenueID, actor.UserID); err != nil {
		return err
	}

	if gig.JobTypeID != nil {
		jobType, err := repo.JobType.FindByID(ctx, *gig.JobTypeID)
		if err != nil {
			return err
		}
		if jobType == nil {
			return ErrJobTypeNotFound
		}
	}
	if gig.InsuranceProductID != nil {
		product, err := repo.Insurance.FindProductByID(ctx, *gig.InsuranceProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
	}
	if gig.ContractTemplateID != nil {
		template, err := repo.Contract.FindByID(ctx, *gig.ContractTemplateID)
		if err != nil {
			return err
		}
		if template == nil {
			return ErrTemplateNotFound
		}
	}

	if err := repo.Gig.Create(ctx, gig); err != nil {
		return err
	}

	return s.audit.Log(ctx, repo, AuditEntry{
		Actor:      &actor,
		EntityType: entity.AuditEntityGig,
		EntityID:   &gig.ID,
		Action:     entity.ActionJobCreated,
		Payload: map[string]any{
			"venue_id":       gig.VenueID.String(),
			"publish_status": string(gig.PublishStatus),
		},
		Meta: meta,
	})
}

// preauthPlan is everything resolved and priced before the provider call.
type preauthPlan struct {
	gig        *entity.Gig
	venue      *entity.Venue
	insurance  *entity.InsuranceSnapshot
	contract   *entity.ContractSnapshot
	pricing    pricing.Result
	cardToken  string
	authorized *string
}

func (s *gigService) PreauthorizeGig(ctx context.Context, actor entity.Actor, gigID string, req *request.PreauthorizeGigRequest, meta entity.ClientMeta) (*response.GigResponse, error) {
	ctx, span := tracer.Start(ctx, "gig.preauthorize")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	if !actor.Is(entity.RoleVenue) {
		return nil, ErrForbiddenRole
	}
	id, err := parseGigID(gigID)
	if err != nil {
		return nil, err
	}

	var plan *preauthPlan
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		var err error
		plan, err = s.planPreauthorization(ctx, repo, actor, id)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, apperr.CodeOf(err))
		return nil, err
	}
	if req != nil {
		plan.cardToken = strings.TrimSpace(req.CardToken)
	}

	if err := s.authorize(ctx, plan); err != nil {
		span.SetStatus(codes.Error, apperr.CodeOf(err))
		return nil, err
	}

	var saved *entity.Gig
	var winnerAuthID *string
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		current, err := repo.Gig.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrGigNotFound
		}
		if !current.PublishStatus.CanAdvanceTo(entity.GigStatusPreauthorized) {
			if current.PaymentSnapshot != nil {
				winnerAuthID = current.PaymentSnapshot.Preauth.AuthorizationID
			}
			return ErrGigNotDraft
		}

		snapshot := plan.pricing.Snapshot
		current.InsuranceProductID = &plan.insurance.ProductID
		current.InsuranceSnapshot = plan.insurance.Clone()
		current.ContractTemplateID = &plan.contract.TemplateID
		current.ContractSnapshot = plan.contract.Clone()
		current.PaymentSnapshot = snapshot.Clone()
		current.PublishStatus = entity.GigStatusPreauthorized
		current.UpdatedAt = time.Now().UTC()

		if err := repo.Gig.SavePreauthorization(ctx, current); err != nil {
			return err
		}

		if err := s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityGig,
			EntityID:   &current.ID,
			Action:     entity.ActionJobPreauthorized,
			Payload:    map[string]any{"payment_snapshot": current.PaymentSnapshot},
			Meta:       meta,
		}); err != nil {
			return err
		}

		saved = current
		return nil
	})
	if err != nil {
		s.compensate(ctx, plan, winnerAuthID)
		span.SetStatus(codes.Error, apperr.CodeOf(err))
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityGig), string(entity.ActionJobPreauthorized))
	s.log.Info("Gig preauthorized",
		zap.String("gig_id", saved.ID.String()),
		zap.String("total", plan.pricing.TotalCharge.StringFixed(2)),
		zap.String("preauth_status", saved.PaymentSnapshot.Preauth.Status),
	)

	return response.NewGigResponse(saved), nil
}

// planPreauthorization runs every check in order and prices the gig. It
// writes nothing except the default catalog seed.
func (s *gigService) planPreauthorization(ctx context.Context, repo *repository.Repository, actor entity.Actor, id uuid.UUID) (*preauthPlan, error) {
	gig, err := repo.Gig.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gig == nil {
		return nil, ErrGigNotFound
	}
	if err := requireVenueOwner(ctx, s.ownership, repo, gig.VenueID, actor.UserID); err != nil {
		return nil, err
	}
	if !gig.PublishStatus.CanAdvanceTo(entity.GigStatusPreauthorized) {
		return nil, ErrGigNotDraft
	}

	if gig.JobTypeID == nil {
		return nil, ErrJobTypeRequired
	}
	jobType, err := repo.JobType.FindByID(ctx, *gig.JobTypeID)
	if err != nil {
		return nil, err
	}
	if jobType == nil {
		return nil, ErrJobTypeNotFound
	}

	hours := pricing.ElapsedHours(gig.StartTime, gig.EndTime)
	minimum := pricing.MinimumPay(jobType.MinRate(), hours)
	pay := gig.Pay()
	if !pay.IsPositive() || pay.LessThan(minimum) {
		return nil, errPayBelowMinimum(minimum.StringFixed(2))
	}

	product, err := s.catalog.ResolveInsurance(ctx, repo, gig, jobType)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrInsuranceRequired
	}
	template, err := s.catalog.ResolveContract(ctx, repo, gig, jobType)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrContractRequired
	}

	venue, err := repo.Venue.FindByID(ctx, gig.VenueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}

	insurance := entity.NewInsuranceSnapshot(product)
	result := s.settings.Calculator.Build(pricing.Input{
		Provider:         s.authorizer.Provider(),
		WorkerGross:      pay,
		InsurancePremium: insurance.Price,
		PlatformFee:      s.settings.PlatformFee,
		Currency:         gig.Currency,
		JobTypeCode:      jobType.Code,
		Hours:            hours,
		MinHourlyRate:    jobType.MinRate(),
	}, time.Now())

	return &preauthPlan{
		gig:       gig,
		venue:     venue,
		insurance: insurance,
		contract:  entity.NewContractSnapshot(template),
		pricing:   result,
	}, nil
}

// authorize calls the provider outside any transaction and records the
// outcome on the planned snapshot.
func (s *gigService) authorize(ctx context.Context, plan *preauthPlan) error {
	ctx, span := tracer.Start(ctx, "payment.preauthorize")
	defer span.End()

	provider := s.authorizer.Provider()
	preauth := &plan.pricing.Snapshot.Preauth
	span.SetAttributes(
		attribute.String("payment.provider", provider),
		attribute.Int64("payment.amount_minor", preauth.AmountMinor),
	)

	req := payment.Request{
		AmountMinor:    preauth.AmountMinor,
		Currency:       preauth.Currency,
		IdempotencyKey: utils.IdempotencyKey(plan.gig.ID.String(), plan.gig.PublicCode),
		Description:    "Gig " + plan.gig.PublicCode,
		Metadata: map[string]string{
			"gig_id":      plan.gig.ID.String(),
			"public_code": plan.gig.PublicCode,
			"venue_id":    plan.gig.VenueID.String(),
		},
		CardToken: plan.cardToken,
	}
	if plan.venue.PaymentCustomerID != nil {
		req.CustomerID = *plan.venue.PaymentCustomerID
	}

	auth, err := s.callProvider(ctx, plan.gig.ID, req)

	switch {
	case err == nil:
		id := auth.ID
		preauth.AuthorizationID = &id
		preauth.Status = auth.Status
		preauth.CaptureMode = entity.CaptureModeManual
		plan.authorized = &id
		s.metrics.PreauthOutcome(provider, "authorized")
		return nil

	case errors.Is(err, payment.ErrUnavailable):
		preauth.Status = entity.PreauthStatusSkipped
		preauth.CaptureMode = entity.CaptureModeSkipped
		s.metrics.PreauthOutcome(provider, "skipped")
		s.log.Warn("Payment provider not configured, preauthorization skipped",
			zap.String("gig_id", plan.gig.ID.String()),
		)
		return nil

	case errors.Is(err, payment.ErrPaymentMethodRequired):
		s.metrics.PreauthOutcome(provider, "payment_method_required")
		return ErrPaymentMethodRequired

	default:
		s.metrics.PreauthOutcome(provider, "failed")
		span.RecordError(err)
		s.log.Error("Payment preauthorization failed",
			zap.Error(err),
			zap.String("gig_id", plan.gig.ID.String()),
		)
		return errPreauthFailed(err)
	}
}

type preauthResult struct {
	auth *payment.Authorization
	err  error
}

// callProvider waits at most PaymentTimeout for the provider. The call itself
// keeps running detached, and a hold it places after we gave up is voided.
func (s *gigService) callProvider(ctx context.Context, gigID uuid.UUID, req payment.Request) (*payment.Authorization, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), providerCallLimit)
	done := make(chan preauthResult, 1)
	go func() {
		defer cancel()
		auth, err := s.authorizer.Preauthorize(callCtx, req)
		done <- preauthResult{auth: auth, err: err}
	}()

	timer := time.NewTimer(s.settings.PaymentTimeout)
	defer timer.Stop()

	var err error
	select {
	case res := <-done:
		return res.auth, res.err
	case <-timer.C:
		err = context.DeadlineExceeded
	case <-ctx.Done():
		err = ctx.Err()
	}

	go func() {
		res := <-done
		if res.err != nil || res.auth == nil {
			return
		}
		s.voidHold(ctx, gigID, res.auth.ID, "late")
	}()

	return nil, fmt.Errorf("payment provider did not answer in time: %w", err)
}

// compensate releases our hold after the persist step failed. A concurrent
// request that reused the idempotency key got the same authorization back,
// and that one belongs to the committed winner.
func (s *gigService) compensate(ctx context.Context, plan *preauthPlan, winnerAuthID *string) {
	if plan.authorized == nil {
		return
	}
	if winnerAuthID != nil && *winnerAuthID == *plan.authorized {
		return
	}
	s.voidHold(ctx, plan.gig.ID, *plan.authorized, "orphaned")
}

func (s *gigService) voidHold(ctx context.Context, gigID uuid.UUID, authorizationID, reason string) {
	voidCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationVoidTimeout)
	defer cancel()

	if err := s.authorizer.Void(voidCtx, authorizationID); err != nil {
		s.metrics.PreauthOutcome(s.authorizer.Provider(), "void_failed")
		s.log.Error("Failed to void "+reason+" authorization",
			zap.Error(err),
			zap.String("gig_id", gigID.String()),
			zap.String("authorization_id", authorizationID),
		)
		return
	}

	s.metrics.PreauthOutcome(s.authorizer.Provider(), "voided")
	s.log.Warn("Voided "+reason+" authorization",
		zap.String("gig_id", gigID.String()),
		zap.String("authorization_id", authorizationID),
	)
}

func (s *gigService) PublishGig(ctx context.Context, actor entity.Actor, gigID string, meta entity.ClientMeta) (*response.GigResponse, error) {
	if !actor.Is(entity.RoleVenue) {
		return nil, ErrForbiddenRole
	}
	id, err := parseGigID(gigID)
	if err != nil {
		return nil, err
	}

	var published *entity.Gig
	err = s.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		gig, err := repo.Gig.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if gig == nil {
			return ErrGigNotFound
		}
		if err := requireVenueOwner(ctx, s.ownership, repo, gig.VenueID, actor.UserID); err != nil {
			return err
		}
		if !gig.PublishStatus.CanAdvanceTo(entity.GigStatusPublished) {
			return ErrGigNotPreauthorized
		}

		now := time.Now().UTC()
		if err := repo.Gig.MarkPublished(ctx, gig.ID, now); err != nil {
			return err
		}
		gig.PublishStatus = entity.GigStatusPublished
		gig.PublishedAt = &now
		gig.UpdatedAt = now

		if err := s.audit.Log(ctx, repo, AuditEntry{
			Actor:      &actor,
			EntityType: entity.AuditEntityGig,
			EntityID:   &gig.ID,
			Action:     entity.ActionJobPublished,
			Payload:    map[string]any{"published_at": now.Format(time.RFC3339Nano)},
			Meta:       meta,
		}); err != nil {
			return err
		}

		published = gig
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(entity.AuditEntityGig), string(entity.ActionJobPublished))
	s.log.Info("Gig published", zap.String("gig_id", published.ID.String()))

	return response.NewGigResponse(published), nil
}

func (s *gigService) ListGigs(ctx context.Context, actor entity.Actor, req *request.ListGigsRequest) (*response.PaginatedResponse[*response.GigResponse], error) {
	var filter repository.GigFilter

	venueID, err := parseOptionalUUID(req.VenueID, "INVALID_VENUE_ID", "venue_id")
	if err != nil {
		return nil, err
	}
	var status *entity.GigPublishStatus
	if req.PublishStatus != nil && *req.PublishStatus != "" {
		st := entity.GigPublishStatus(*req.PublishStatus)
		if !st.Valid() {
			return nil, apperr.Invalid("INVALID_PUBLISH_STATUS", "publish_status must be draft, preauthorized or published")
		}
		status = &st
	}

	switch actor.Role {
	case entity.RoleWorker:
		published := entity.GigStatusPublished
		filter.PublishStatus = &published
	case entity.RoleVenue:
		if venueID != nil {
			if err := requireVenueOwner(ctx, s.ownership, s.repo, *venueID, actor.UserID); err != nil {
				return nil, err
			}
			filter.VenueID = venueID
		}
		owner := actor.UserID
		filter.OwnerID = &owner
		filter.PublishStatus = status
	case entity.RoleAdmin:
		filter.VenueID = venueID
		filter.PublishStatus = status
	default:
		return nil, ErrForbiddenRole
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit()
	offset := utils.CalculateOffset(page, limit)

	gigs, err := s.repo.Gig.FindAll(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	total, err := s.repo.Gig.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count gigs: %w", err)
	}

	data := make([]*response.GigResponse, 0, len(gigs))
	for _, g := range gigs {
		data = append(data, response.NewGigResponse(g))
	}

	return response.NewPaginatedResponse(data, page, limit, total), nil
}

func (s *gigService) GetGig(ctx context.Context, actor entity.Actor, gigID string) (*response.GigResponse, error) {
	id, err := parseGigID(gigID)
	if err != nil {
		return nil, err
	}

	gig, err := s.repo.Gig.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get gig: %w", err)
	}
	if gig == nil {
		return nil, ErrGigNotFound
	}

	switch actor.Role {
	case entity.RoleWorker:
		// unpublished gigs do not exist for workers
		if gig.PublishStatus != entity.GigStatusPublished {
			return nil, ErrGigNotFound
		}
	case entity.RoleVenue:
		if err := requireVenueOwner(ctx, s.ownership, s.repo, gig.VenueID, actor.UserID); err != nil {
			return nil, err
		}
	case entity.RoleAdmin:
	default:
		return nil, ErrForbiddenRole
	}

	return response.NewGigResponse(gig), nil
}
