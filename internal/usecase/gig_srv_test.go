package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/dto/request"
	"gig-booking/internal/payment"
	"gig-booking/pkg/apperr"
	"gig-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.CodeOf(err), "error: %v", err)
}

func createGigRequest(env *testEnv, pay string) *request.CreateGigRequest {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	amount := decimal.RequireFromString(pay)
	jobTypeID := env.jobType.ID.String()
	return &request.CreateGigRequest{
		VenueID:   env.venue.ID.String(),
		Title:     "Friday dinner",
		JobTypeID: &jobTypeID,
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		PayAmount: &amount,
	}
}

func TestCreateGig(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.gigs.CreateGig(context.Background(), env.owner, createGigRequest(env, "45"), entity.ClientMeta{})
	require.NoError(t, err)

	assert.Equal(t, entity.GigStatusDraft, res.PublishStatus)
	assert.Equal(t, "EUR", res.Currency)
	assert.Regexp(t, `^GIG-\d{6}$`, res.PublicCode)
	assert.Nil(t, res.PaymentSnapshot)
	assert.Nil(t, res.InsuranceSnapshot)
	assert.Nil(t, res.ContractSnapshot)
	assert.Equal(t, []entity.AuditAction{entity.ActionJobCreated}, env.auditActions())
}

func TestCreateGig_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  func(env *testEnv) entity.Actor
		mutate func(env *testEnv, req *request.CreateGigRequest)
		code   string
	}{
		{
			name:  "worker cannot create",
			actor: func(env *testEnv) entity.Actor { return env.worker },
			code:  "FORBIDDEN",
		},
		{
			name:  "admin cannot create",
			actor: func(env *testEnv) entity.Actor { return env.admin },
			code:  "FORBIDDEN",
		},
		{
			name:  "venue owned by someone else",
			actor: func(env *testEnv) entity.Actor { return env.stranger },
			code:  "NOT_VENUE_OWNER",
		},
		{
			name: "unknown venue",
			mutate: func(_ *testEnv, req *request.CreateGigRequest) {
				req.VenueID = uuid.NewString()
			},
			code: "VENUE_NOT_FOUND",
		},
		{
			name: "unknown job type",
			mutate: func(_ *testEnv, req *request.CreateGigRequest) {
				id := uuid.NewString()
				req.JobTypeID = &id
			},
			code: "JOB_TYPE_NOT_FOUND",
		},
		{
			name: "unknown insurance product",
			mutate: func(_ *testEnv, req *request.CreateGigRequest) {
				id := uuid.NewString()
				req.InsuranceProductID = &id
			},
			code: "INSURANCE_PRODUCT_NOT_FOUND",
		},
		{
			name: "negative pay",
			mutate: func(_ *testEnv, req *request.CreateGigRequest) {
				neg := decimal.NewFromInt(-1)
				req.PayAmount = &neg
			},
			code: "INVALID_PAY_AMOUNT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			actor := env.owner
			if tt.actor != nil {
				actor = tt.actor(env)
			}
			req := createGigRequest(env, "45")
			if tt.mutate != nil {
				tt.mutate(env, req)
			}

			_, err := env.gigs.CreateGig(context.Background(), actor, req, entity.ClientMeta{})

			requireCode(t, err, tt.code)
			assert.Empty(t, env.auditActions())
		})
	}
}

func TestCreateGig_RetriesPublicCodeCollision(t *testing.T) {
	env := newTestEnv(t)
	env.store.duplicateCreates = 2

	res, err := env.gigs.CreateGig(context.Background(), env.owner, createGigRequest(env, "45"), entity.ClientMeta{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.PublicCode)
	assert.Equal(t, 1, env.countAudit(entity.ActionJobCreated))
}

func TestCreateGig_GivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv(t)
	env.store.duplicateCreates = publicCodeAttempts

	_, err := env.gigs.CreateGig(context.Background(), env.owner, createGigRequest(env, "45"), entity.ClientMeta{})

	require.Error(t, err)
	assert.Empty(t, env.auditActions())
}

func TestPreauthorizeGig_BuildsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	gig := env.seedGig(4, "45")

	res, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
	require.NoError(t, err)

	assert.Equal(t, entity.GigStatusPreauthorized, res.PublishStatus)

	// 45 + 1.99 + 5 = 51.99; fee 51.99 * 2.9% + 0.30 = 1.81
	breakdown := res.PaymentSnapshot.Breakdown
	assert.True(t, breakdown.WorkerGross.Equal(decimal.NewFromInt(45)))
	assert.True(t, breakdown.InsurancePremium.Equal(decimal.RequireFromString("1.99")))
	assert.True(t, breakdown.PlatformFee.Equal(decimal.NewFromInt(5)))
	assert.True(t, breakdown.ProcessingFeeEstimated.Equal(decimal.RequireFromString("1.81")), breakdown.ProcessingFeeEstimated.String())
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("53.80")), breakdown.Total.String())
	assert.Equal(t, "v1", breakdown.PricingVersion)
	assert.Equal(t, "HORECA_WAITER_BASIC", breakdown.Inputs.JobTypeCode)

	preauth := res.PaymentSnapshot.Preauth
	assert.EqualValues(t, 5380, preauth.AmountMinor)
	require.NotNil(t, preauth.AuthorizationID)
	assert.Equal(t, "auth_1", *preauth.AuthorizationID)
	assert.Equal(t, "pending", preauth.Status)
	assert.Equal(t, entity.CaptureModeManual, preauth.CaptureMode)
	assert.Equal(t, "fake", res.PaymentSnapshot.Provider)

	require.NotNil(t, res.InsuranceSnapshot)
	assert.Equal(t, "BASIC_JOB", res.InsuranceSnapshot.Code)
	require.NotNil(t, res.ContractSnapshot)
	assert.Equal(t, "HORECA_HORECA_WAITER_BASIC_V1", res.ContractSnapshot.Code)

	require.Len(t, env.auth.requests, 1)
	req := env.auth.requests[0]
	assert.EqualValues(t, 5380, req.AmountMinor)
	assert.Equal(t, "EUR", req.Currency)
	assert.Equal(t, utils.IdempotencyKey(gig.ID.String(), gig.PublicCode), req.IdempotencyKey)
	assert.Equal(t, gig.ID.String(), req.Metadata["gig_id"])

	stored := env.gig(gig.ID)
	assert.Equal(t, entity.GigStatusPreauthorized, stored.PublishStatus)
	assert.Equal(t, 1, env.countAudit(entity.ActionJobPreauthorized))
}

func TestPreauthorizeGig_PayBelowMinimumMutatesNothing(t *testing.T) {
	env := newTestEnv(t)
	gig := env.seedGig(4, "35")

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	requireCode(t, err, "PAY_BELOW_MINIMUM")
	stored := env.gig(gig.ID)
	assert.Equal(t, entity.GigStatusDraft, stored.PublishStatus)
	assert.Nil(t, stored.PaymentSnapshot)
	assert.Nil(t, stored.InsuranceSnapshot)
	assert.Nil(t, stored.ContractSnapshot)
	assert.Zero(t, env.auth.calls())
	assert.Empty(t, env.auditActions())
}

func TestPreauthorizeGig_ZeroPayRejectedWithoutMinimum(t *testing.T) {
	env := newTestEnv(t)
	env.jobType.MinHourlyRate = nil
	gig := env.seedGig(4, "0")

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	requireCode(t, err, "PAY_BELOW_MINIMUM")
}

func TestPreauthorizeGig_CheckOrder(t *testing.T) {
	t.Run("non owner before state", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		require.NoError(t, err)

		_, err = env.gigs.PreauthorizeGig(context.Background(), env.stranger, gig.ID.String(), nil, entity.ClientMeta{})
		requireCode(t, err, "NOT_VENUE_OWNER")
	})

	t.Run("already preauthorized", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		require.NoError(t, err)

		_, err = env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		requireCode(t, err, "GIG_NOT_DRAFT")
		assert.Equal(t, 1, env.auth.calls())
	})

	t.Run("missing gig", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, uuid.NewString(), nil, entity.ClientMeta{})
		requireCode(t, err, "GIG_NOT_FOUND")
	})

	t.Run("worker role", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.worker, gig.ID.String(), nil, entity.ClientMeta{})
		requireCode(t, err, "FORBIDDEN")
	})

	t.Run("no job type", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")
		env.store.read(func(st *memState) {
			cp := *st.gigs[gig.ID]
			cp.JobTypeID = nil
			st.gigs[gig.ID] = &cp
		})
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		requireCode(t, err, "JOB_TYPE_REQUIRED")
	})
}

func TestPreauthorizeGig_PreferredInsuranceTier(t *testing.T) {
	env := newTestEnv(t)
	tier := "VENUE_JOB"
	env.jobType.DefaultInsuranceTierCode = &tier
	gig := env.seedGig(4, "45")

	res, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
	require.NoError(t, err)

	assert.Equal(t, "VENUE_JOB", res.InsuranceSnapshot.Code)
	assert.True(t, res.PaymentSnapshot.Breakdown.InsurancePremium.Equal(decimal.RequireFromString("2.99")))
}

func TestPreauthorizeGig_InactivePreassignedProduct(t *testing.T) {
	env := newTestEnv(t)
	productID := uuid.New()
	env.store.state.products[productID] = &entity.InsuranceProduct{
		Base:       entity.Base{ID: productID, CreatedAt: time.Now()},
		Code:       "RETIRED",
		PriceCents: 100,
		Currency:   "EUR",
		IsActive:   false,
	}
	gig := env.seedGig(4, "45")
	env.store.read(func(st *memState) {
		cp := *st.gigs[gig.ID]
		cp.InsuranceProductID = &productID
		st.gigs[gig.ID] = &cp
	})

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	requireCode(t, err, "INSURANCE_REQUIRED")
	assert.Zero(t, env.auth.calls())
}

func TestPreauthorizeGig_MissingContractTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.jobType.Code = "BARTENDER"
	gig := env.seedGig(4, "45")

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	requireCode(t, err, "CONTRACT_REQUIRED")
	assert.Equal(t, entity.GigStatusDraft, env.gig(gig.ID).PublishStatus)
}

func TestPreauthorizeGig_ProviderOutcomes(t *testing.T) {
	t.Run("no provider configured records skipped", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.err = payment.ErrUnavailable
		gig := env.seedGig(4, "45")

		res, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		require.NoError(t, err)

		preauth := res.PaymentSnapshot.Preauth
		assert.Nil(t, preauth.AuthorizationID)
		assert.Equal(t, entity.PreauthStatusSkipped, preauth.Status)
		assert.Equal(t, entity.CaptureModeSkipped, preauth.CaptureMode)
		assert.Equal(t, entity.GigStatusPreauthorized, env.gig(gig.ID).PublishStatus)
	})

	t.Run("payment method required persists nothing", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.err = payment.ErrPaymentMethodRequired
		gig := env.seedGig(4, "45")

		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

		requireCode(t, err, "PAYMENT_METHOD_REQUIRED")
		assert.Equal(t, entity.GigStatusDraft, env.gig(gig.ID).PublishStatus)
		assert.Zero(t, env.countAudit(entity.ActionJobPreauthorized))
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.err = errors.New("card declined")
		gig := env.seedGig(4, "45")

		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

		requireCode(t, err, "PAYMENT_PREAUTH_FAILED")
		assert.Equal(t, apperr.KindUnavailable, apperr.As(err).Kind)
		stored := env.gig(gig.ID)
		assert.Equal(t, entity.GigStatusDraft, stored.PublishStatus)
		assert.Nil(t, stored.PaymentSnapshot)
		assert.Zero(t, env.countAudit(entity.ActionJobPreauthorized))
	})

	t.Run("card token and stored customer are forwarded", func(t *testing.T) {
		env := newTestEnv(t)
		customer := "cust_test_1"
		env.venue.PaymentCustomerID = &customer
		gig := env.seedGig(4, "45")

		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(),
			&request.PreauthorizeGigRequest{CardToken: "tokn_test_1"}, entity.ClientMeta{})
		require.NoError(t, err)

		require.Len(t, env.auth.requests, 1)
		assert.Equal(t, "tokn_test_1", env.auth.requests[0].CardToken)
		assert.Equal(t, "cust_test_1", env.auth.requests[0].CustomerID)
	})
}

func TestPreauthorizeGig_FailedPersistVoidsAuthorization(t *testing.T) {
	env := newTestEnv(t)
	env.store.failAuditAction = entity.ActionJobPreauthorized
	gig := env.seedGig(4, "45")

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	require.ErrorIs(t, err, errAuditDown)
	assert.Equal(t, []string{"auth_1"}, env.auth.voided)
	stored := env.gig(gig.ID)
	assert.Equal(t, entity.GigStatusDraft, stored.PublishStatus)
	assert.Nil(t, stored.PaymentSnapshot)
}

func TestPreauthorizeGig_LateHoldIsVoided(t *testing.T) {
	env := newTestEnv(t)
	env.gigs.(*gigService).settings.PaymentTimeout = 20 * time.Millisecond
	env.auth.delay = 100 * time.Millisecond
	gig := env.seedGig(4, "45")

	_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})

	requireCode(t, err, "PAYMENT_PREAUTH_FAILED")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored := env.gig(gig.ID)
	assert.Equal(t, entity.GigStatusDraft, stored.PublishStatus)
	assert.Nil(t, stored.PaymentSnapshot)
	assert.Zero(t, env.countAudit(entity.ActionJobPreauthorized))

	// the provider answers after we gave up; its hold must not stay open
	assert.Eventually(t, func() bool {
		voided := env.auth.voidedIDs()
		return len(voided) == 1 && voided[0] == "auth_1"
	}, time.Second, 10*time.Millisecond)
}

func TestPreauthorizeGig_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	gig := env.seedGig(4, "45")

	// both requests pass the draft check before either reaches the provider
	var barrier sync.WaitGroup
	barrier.Add(2)
	env.auth.barrier = &barrier

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		}(i)
	}
	wg.Wait()

	var ok, notDraft int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.CodeOf(err) == "GIG_NOT_DRAFT":
			notDraft++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notDraft)
	assert.Equal(t, 2, env.auth.issued)
	assert.Len(t, env.auth.voided, 1)
	assert.Equal(t, 1, env.countAudit(entity.ActionJobPreauthorized))

	stored := env.gig(gig.ID)
	require.NotNil(t, stored.PaymentSnapshot.Preauth.AuthorizationID)
	assert.NotEqual(t, env.auth.voided[0], *stored.PaymentSnapshot.Preauth.AuthorizationID)
}

func TestPublishGig(t *testing.T) {
	t.Run("requires preauthorization", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")

		_, err := env.gigs.PublishGig(context.Background(), env.owner, gig.ID.String(), entity.ClientMeta{})

		requireCode(t, err, "GIG_NOT_PREAUTHORIZED")
		assert.Equal(t, apperr.KindConflict, apperr.As(err).Kind)
		stored := env.gig(gig.ID)
		assert.Equal(t, entity.GigStatusDraft, stored.PublishStatus)
		assert.Nil(t, stored.PublishedAt)
		assert.Zero(t, env.countAudit(entity.ActionJobPublished))
	})

	t.Run("publishes a preauthorized gig", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")
		_, err := env.gigs.PreauthorizeGig(context.Background(), env.owner, gig.ID.String(), nil, entity.ClientMeta{})
		require.NoError(t, err)

		res, err := env.gigs.PublishGig(context.Background(), env.owner, gig.ID.String(), entity.ClientMeta{})
		require.NoError(t, err)

		assert.Equal(t, entity.GigStatusPublished, res.PublishStatus)
		require.NotNil(t, res.PublishedAt)
		assert.Equal(t, []entity.AuditAction{
			entity.ActionJobPreauthorized,
			entity.ActionJobPublished,
		}, env.auditActions())
	})

	t.Run("cannot publish twice", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.publishedGig(t)

		_, err := env.gigs.PublishGig(context.Background(), env.owner, gig.ID.String(), entity.ClientMeta{})
		requireCode(t, err, "GIG_NOT_PREAUTHORIZED")
	})

	t.Run("non owner", func(t *testing.T) {
		env := newTestEnv(t)
		gig := env.seedGig(4, "45")

		_, err := env.gigs.PublishGig(context.Background(), env.stranger, gig.ID.String(), entity.ClientMeta{})
		requireCode(t, err, "NOT_VENUE_OWNER")
	})
}

func TestListGigs_ScopedByRole(t *testing.T) {
	env := newTestEnv(t)
	published := env.publishedGig(t)
	draft := env.seedGig(4, "45")

	otherOwner := env.stranger
	otherVenue := &entity.Venue{Base: entity.Base{ID: uuid.New()}, OwnerID: otherOwner.UserID, Name: "Other"}
	env.store.state.venues[otherVenue.ID] = otherVenue

	ctx := context.Background()
	req := &request.ListGigsRequest{PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10}}

	res, err := env.gigs.ListGigs(ctx, env.worker, req)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, published.ID.String(), res.Data[0].ID)

	res, err = env.gigs.ListGigs(ctx, env.owner, req)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.EqualValues(t, 2, res.Pagination.Total)

	res, err = env.gigs.ListGigs(ctx, otherOwner, req)
	require.NoError(t, err)
	assert.Empty(t, res.Data)

	venueID := env.venue.ID.String()
	_, err = env.gigs.ListGigs(ctx, otherOwner, &request.ListGigsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		VenueID:          &venueID,
	})
	requireCode(t, err, "NOT_VENUE_OWNER")

	status := string(entity.GigStatusDraft)
	res, err = env.gigs.ListGigs(ctx, env.admin, &request.ListGigsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		PublishStatus:    &status,
	})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, draft.ID.String(), res.Data[0].ID)
}

func TestGetGig_Visibility(t *testing.T) {
	env := newTestEnv(t)
	draft := env.seedGig(4, "45")
	ctx := context.Background()

	_, err := env.gigs.GetGig(ctx, env.worker, draft.ID.String())
	requireCode(t, err, "GIG_NOT_FOUND")

	_, err = env.gigs.GetGig(ctx, env.stranger, draft.ID.String())
	requireCode(t, err, "NOT_VENUE_OWNER")

	res, err := env.gigs.GetGig(ctx, env.owner, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, draft.PublicCode, res.PublicCode)

	_, err = env.gigs.GetGig(ctx, env.admin, draft.ID.String())
	require.NoError(t, err)

	_, err = env.gigs.GetGig(ctx, env.admin, "not-a-uuid")
	requireCode(t, err, "INVALID_GIG_ID")
}
