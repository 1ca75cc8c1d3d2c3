package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/payment"
	"gig-booking/internal/pricing"
	"gig-booking/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memState is the whole fake database. Stored entities are never mutated in
// place, so a shallow copy of the maps is a full snapshot.
type memState struct {
	venues      map[uuid.UUID]*entity.Venue
	jobTypes    map[uuid.UUID]*entity.JobType
	providers   map[uuid.UUID]*entity.InsuranceProvider
	products    map[uuid.UUID]*entity.InsuranceProduct
	templates   map[uuid.UUID]*entity.ContractTemplate
	gigs        map[uuid.UUID]*entity.Gig
	bookings    map[uuid.UUID]*entity.Booking
	audit       []*entity.AuditEvent
	cursors     map[string]entity.RelayPosition
	nextAuditID int64
}

func newMemState() *memState {
	return &memState{
		venues:    map[uuid.UUID]*entity.Venue{},
		jobTypes:  map[uuid.UUID]*entity.JobType{},
		providers: map[uuid.UUID]*entity.InsuranceProvider{},
		products:  map[uuid.UUID]*entity.InsuranceProduct{},
		templates: map[uuid.UUID]*entity.ContractTemplate{},
		gigs:      map[uuid.UUID]*entity.Gig{},
		bookings:  map[uuid.UUID]*entity.Booking{},
		cursors:   map[string]entity.RelayPosition{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		venues:      copyMap(s.venues),
		jobTypes:    copyMap(s.jobTypes),
		providers:   copyMap(s.providers),
		products:    copyMap(s.products),
		templates:   copyMap(s.templates),
		gigs:        copyMap(s.gigs),
		bookings:    copyMap(s.bookings),
		audit:       append([]*entity.AuditEvent(nil), s.audit...),
		cursors:     copyMap(s.cursors),
		nextAuditID: s.nextAuditID,
	}
}

// memStore backs every fake repository. Transactions are serialized and roll
// back by restoring the snapshot taken when they began.
type memStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memState

	// failure injection
	duplicateCreates int
	failAuditAction  entity.AuditAction

	seedLocks []string
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (s *memStore) read(fn func(st *memState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		Venue:       &memVenueRepo{s},
		JobType:     &memJobTypeRepo{s},
		Insurance:   &memInsuranceRepo{s},
		Contract:    &memContractRepo{s},
		Gig:         &memGigRepo{s},
		Booking:     &memBookingRepo{s},
		Audit:       &memAuditRepo{s},
		RelayCursor: &memCursorRepo{s},
		SeedLock:    &memSeedLockRepo{s},
	}
	repo.Tx = &memTx{store: s, repo: repo}
	return repo
}

type memTx struct {
	store *memStore
	repo  *repository.Repository
}

func (t *memTx) WithinTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	snapshot := t.store.state.clone()
	t.store.mu.Unlock()

	inner := *t.repo
	inner.Tx = joinedMemTx{repo: &inner}

	if err := fn(&inner); err != nil {
		t.store.mu.Lock()
		t.store.state = snapshot
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type joinedMemTx struct {
	repo *repository.Repository
}

func (j joinedMemTx) WithinTx(_ context.Context, fn func(repo *repository.Repository) error) error {
	return fn(j.repo)
}

type memVenueRepo struct{ s *memStore }

func (r *memVenueRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.state.venues[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

type memJobTypeRepo struct{ s *memStore }

func (r *memJobTypeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.JobType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.state.jobTypes[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

type memInsuranceRepo struct{ s *memStore }

func (r *memInsuranceRepo) CountProviders(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.providers)), nil
}

func (r *memInsuranceRepo) CreateProvider(_ context.Context, provider *entity.InsuranceProvider) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.state.providers {
		if p.Name == provider.Name {
			return p.ID, nil
		}
	}
	cp := *provider
	r.s.state.providers[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memInsuranceRepo) CreateProduct(_ context.Context, product *entity.InsuranceProduct) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.state.products {
		if p.Code == product.Code {
			return nil
		}
	}
	cp := *product
	r.s.state.products[cp.ID] = &cp
	return nil
}

func (r *memInsuranceRepo) FindProductByID(_ context.Context, id uuid.UUID) (*entity.InsuranceProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.state.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memInsuranceRepo) FindActiveProductByCode(_ context.Context, code string) (*entity.InsuranceProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.state.products {
		if p.Code == code && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memInsuranceRepo) FindCheapestActiveProduct(_ context.Context) (*entity.InsuranceProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var active []*entity.InsuranceProduct
	for _, p := range r.s.state.products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.PriceCents != b.PriceCents {
			return a.PriceCents < b.PriceCents
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	cp := *active[0]
	return &cp, nil
}

type memContractRepo struct{ s *memStore }

func (r *memContractRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.templates)), nil
}

func (r *memContractRepo) Create(_ context.Context, template *entity.ContractTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.state.templates {
		if t.Code == template.Code && t.Version == template.Version {
			return nil
		}
	}
	cp := *template
	r.s.state.templates[cp.ID] = &cp
	return nil
}

func (r *memContractRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ContractTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.state.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memContractRepo) FindActiveByCode(_ context.Context, code string) (*entity.ContractTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *entity.ContractTemplate
	for _, t := range r.s.state.templates {
		if t.Code != code || !t.Active {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

type memGigRepo struct{ s *memStore }

func (r *memGigRepo) Create(_ context.Context, gig *entity.Gig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.duplicateCreates > 0 {
		r.s.duplicateCreates--
		return fmt.Errorf("create gig %s: %w", gig.PublicCode, repository.ErrDuplicate)
	}
	for _, g := range r.s.state.gigs {
		if g.PublicCode == gig.PublicCode {
			return fmt.Errorf("create gig %s: %w", gig.PublicCode, repository.ErrDuplicate)
		}
	}
	cp := *gig
	r.s.state.gigs[cp.ID] = &cp
	return nil
}

func (r *memGigRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Gig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.state.gigs[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *memGigRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	return r.FindByID(ctx, id)
}

func (r *memGigRepo) matching(filter repository.GigFilter) []*entity.Gig {
	var out []*entity.Gig
	for _, g := range r.s.state.gigs {
		if filter.PublishStatus != nil && g.PublishStatus != *filter.PublishStatus {
			continue
		}
		if filter.VenueID != nil && g.VenueID != *filter.VenueID {
			continue
		}
		if filter.OwnerID != nil {
			v, ok := r.s.state.venues[g.VenueID]
			if !ok || v.OwnerID != *filter.OwnerID {
				continue
			}
		}
		cp := *g
		out = append(out, &cp)
	}
	return out
}

func (r *memGigRepo) FindAll(_ context.Context, filter repository.GigFilter, limit, offset int) ([]*entity.Gig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	gigs := r.matching(filter)
	byPublished := filter.PublishStatus != nil && *filter.PublishStatus == entity.GigStatusPublished
	sort.Slice(gigs, func(i, j int) bool {
		a, b := gigs[i], gigs[j]
		if byPublished && a.PublishedAt != nil && b.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		if !byPublished && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
	return page(gigs, limit, offset), nil
}

func (r *memGigRepo) CountAll(_ context.Context, filter repository.GigFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *memGigRepo) SavePreauthorization(_ context.Context, gig *entity.Gig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.state.gigs[gig.ID]
	if !ok || current.PublishStatus != entity.GigStatusDraft {
		return fmt.Errorf("gig %s is not a draft", gig.ID)
	}
	cp := *current
	cp.InsuranceProductID = gig.InsuranceProductID
	cp.InsuranceSnapshot = gig.InsuranceSnapshot.Clone()
	cp.ContractTemplateID = gig.ContractTemplateID
	cp.ContractSnapshot = gig.ContractSnapshot.Clone()
	cp.PaymentSnapshot = gig.PaymentSnapshot.Clone()
	cp.PublishStatus = gig.PublishStatus
	cp.UpdatedAt = gig.UpdatedAt
	r.s.state.gigs[gig.ID] = &cp
	return nil
}

func (r *memGigRepo) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.state.gigs[id]
	if !ok || current.PublishStatus != entity.GigStatusPreauthorized {
		return fmt.Errorf("gig %s is not preauthorized", id)
	}
	cp := *current
	cp.PublishStatus = entity.GigStatusPublished
	cp.PublishedAt = &at
	cp.UpdatedAt = at
	r.s.state.gigs[id] = &cp
	return nil
}

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *booking
	r.s.state.bookings[cp.ID] = &cp
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.state.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *memBookingRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Booking
	for _, b := range r.s.state.bookings {
		cp := *b
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})
	return page(all, limit, offset), nil
}

func (r *memBookingRepo) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.bookings)), nil
}

func (r *memBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.BookingStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.state.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	cp := *current
	cp.Status = status
	cp.UpdatedAt = at
	r.s.state.bookings[id] = &cp
	return nil
}

var errAuditDown = errors.New("audit store unavailable")

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Append(_ context.Context, event *entity.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAuditAction != "" && r.s.failAuditAction == event.Action {
		return errAuditDown
	}
	r.s.state.nextAuditID++
	event.ID = r.s.state.nextAuditID
	event.TxID = r.s.state.nextAuditID
	event.CreatedAt = time.Now().UTC()
	cp := *event
	r.s.state.audit = append(r.s.state.audit, &cp)
	return nil
}

func (r *memAuditRepo) Find(_ context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AuditEvent
	for i := len(r.s.state.audit) - 1; i >= 0; i-- {
		ev := r.s.state.audit[i]
		if filter.EntityType != nil && ev.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && (ev.EntityID == nil || *ev.EntityID != *filter.EntityID) {
			continue
		}
		if filter.ActorUserID != nil && (ev.ActorUserID == nil || *ev.ActorUserID != *filter.ActorUserID) {
			continue
		}
		if filter.Action != nil && ev.Action != *filter.Action {
			continue
		}
		cp := *ev
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// FindAfter sees every row: memTx serializes transactions, so nothing is
// ever left open while the relay reads.
func (r *memAuditRepo) FindAfter(_ context.Context, after entity.RelayPosition, limit int) ([]*entity.AuditEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AuditEvent
	for _, ev := range r.s.state.audit {
		if !after.Less(ev.Position()) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memCursorRepo struct{ s *memStore }

func (r *memCursorRepo) Lock(_ context.Context, name string) (entity.RelayPosition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.cursors[name], nil
}

func (r *memCursorRepo) Save(_ context.Context, name string, pos entity.RelayPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.cursors[name] = pos
	return nil
}

// memSeedLockRepo records lock names. memTx already serializes transactions.
type memSeedLockRepo struct{ s *memStore }

func (r *memSeedLockRepo) Lock(_ context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seedLocks = append(r.s.seedLocks, name)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// fakeAuthorizer hands out sequential authorization ids. With a barrier set,
// every call waits until all expected callers have arrived.
type fakeAuthorizer struct {
	mu       sync.Mutex
	err      error
	barrier  *sync.WaitGroup
	delay    time.Duration
	requests []payment.Request
	issued   int
	voided   []string
}

func (f *fakeAuthorizer) Provider() string { return "fake" }

func (f *fakeAuthorizer) Preauthorize(_ context.Context, req payment.Request) (*payment.Authorization, error) {
	if f.barrier != nil {
		f.barrier.Done()
		f.barrier.Wait()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	f.issued++
	return &payment.Authorization{ID: fmt.Sprintf("auth_%d", f.issued), Status: "pending"}, nil
}

func (f *fakeAuthorizer) Void(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voided = append(f.voided, id)
	return nil
}

func (f *fakeAuthorizer) voidedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.voided...)
}

func (f *fakeAuthorizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// testEnv wires the services against a seeded memStore: one venue owned by
// owner, one waiter job type at 10/h.
type testEnv struct {
	store    *memStore
	repo     *repository.Repository
	auth     *fakeAuthorizer
	audit    AuditService
	catalog  CatalogService
	gigs     GigService
	bookings BookingService

	owner    entity.Actor
	stranger entity.Actor
	worker   entity.Actor
	admin    entity.Actor
	venue    *entity.Venue
	jobType  *entity.JobType
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	repo := store.repository()
	log := zap.NewNop()
	m := metrics.New("test")

	env := &testEnv{
		store:    store,
		repo:     repo,
		auth:     &fakeAuthorizer{},
		owner:    entity.Actor{UserID: uuid.New(), Role: entity.RoleVenue},
		stranger: entity.Actor{UserID: uuid.New(), Role: entity.RoleVenue},
		worker:   entity.Actor{UserID: uuid.New(), Role: entity.RoleWorker},
		admin:    entity.Actor{UserID: uuid.New(), Role: entity.RoleAdmin},
	}

	now := time.Now().UTC()
	rate := decimal.NewFromInt(10)
	env.venue = &entity.Venue{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OwnerID: env.owner.UserID,
		Name:    "Bar Centrale",
	}
	env.jobType = &entity.JobType{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Code:          "HORECA_WAITER_BASIC",
		Name:          "Waiter (basic)",
		MinHourlyRate: &rate,
		Active:        true,
	}
	store.state.venues[env.venue.ID] = env.venue
	store.state.jobTypes[env.jobType.ID] = env.jobType

	ownership := NewVenueOwnership()
	env.audit = NewAuditService(repo, log)
	env.catalog = NewCatalogService(repo, env.audit, log)
	env.gigs = NewGigService(repo, env.catalog, ownership, env.audit, env.auth, GigSettings{
		Calculator:     pricing.DefaultCalculator(),
		PlatformFee:    pricing.DefaultPlatformFee,
		PaymentTimeout: time.Second,
	}, m, log)
	env.bookings = NewBookingService(repo, ownership, env.audit, m, log)

	return env
}

// seedGig stores a draft gig of the given length and pay directly.
func (e *testEnv) seedGig(hours int, pay string) *entity.Gig {
	now := time.Now().UTC()
	start := now.Add(24 * time.Hour).Truncate(time.Hour)
	amount := decimal.RequireFromString(pay)
	jobTypeID := e.jobType.ID
	gig := &entity.Gig{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PublicCode:    fmt.Sprintf("GIG-%06d", 100000+len(e.store.state.gigs)),
		Title:         "Saturday service",
		VenueID:       e.venue.ID,
		JobTypeID:     &jobTypeID,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(hours) * time.Hour),
		PayAmount:     &amount,
		Currency:      "EUR",
		PublishStatus: entity.GigStatusDraft,
		CreatedBy:     e.owner.UserID,
	}
	e.store.read(func(st *memState) {
		cp := *gig
		st.gigs[gig.ID] = &cp
	})
	return gig
}

// publishedGig runs a gig through preauthorize and publish.
func (e *testEnv) publishedGig(t *testing.T) *entity.Gig {
	t.Helper()
	gig := e.seedGig(4, "45")
	ctx := context.Background()
	if _, err := e.gigs.PreauthorizeGig(ctx, e.owner, gig.ID.String(), nil, entity.ClientMeta{}); err != nil {
		t.Fatalf("preauthorize: %v", err)
	}
	if _, err := e.gigs.PublishGig(ctx, e.owner, gig.ID.String(), entity.ClientMeta{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return e.gig(gig.ID)
}

func (e *testEnv) gig(id uuid.UUID) *entity.Gig {
	var out *entity.Gig
	e.store.read(func(st *memState) {
		if g, ok := st.gigs[id]; ok {
			cp := *g
			out = &cp
		}
	})
	return out
}

func (e *testEnv) auditActions() []entity.AuditAction {
	var out []entity.AuditAction
	e.store.read(func(st *memState) {
		for _, ev := range st.audit {
			out = append(out, ev.Action)
		}
	})
	return out
}

func (e *testEnv) countAudit(action entity.AuditAction) int {
	n := 0
	for _, a := range e.auditActions() {
		if a == action {
			n++
		}
	}
	return n
}

func (e *testEnv) bookingCount() int {
	n := 0
	e.store.read(func(st *memState) { n = len(st.bookings) })
	return n
}
