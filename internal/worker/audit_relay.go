// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/data/repository"
	"gig-booking/internal/dto/response"
	"gig-booking/pkg/metrics"

	"go.uber.org/zap"
)

const (
	relayCursorName      = "audit_events"
	defaultRelayInterval = 5 * time.Second
	defaultRelayBatch    = 100
)

// Publisher delivers one message and returns once the broker accepted it.
type Publisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

type RelayOptions struct {
	Interval  time.Duration
	BatchSize int
}

// AuditRelay forwards committed audit events to the broker in the order of
// the transactions that wrote them, by id within one transaction.
// Delivery is at-least-once: the cursor is saved only after the broker
// confirmed the message.
type AuditRelay struct {
	repo    *repository.Repository
	pub     Publisher
	opts    RelayOptions
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewAuditRelay(repo *repository.Repository, pub Publisher, opts RelayOptions, m *metrics.Metrics, log *zap.Logger) *AuditRelay {
	if opts.Interval <= 0 {
		opts.Interval = defaultRelayInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultRelayBatch
	}
	return &AuditRelay{
		repo:    repo,
		pub:     pub,
		opts:    opts,
		metrics: m,
		log:     log.With(zap.String("worker", "audit_relay")),
	}
}

// RoutingKey is <entity_type>.<action>, for example gig.job_published.
func RoutingKey(ev *entity.AuditEvent) string {
	return fmt.Sprintf("%s.%s", ev.EntityType, strings.ToLower(string(ev.Action)))
}

// Run relays batches until ctx is cancelled. A full batch is followed
// immediately by the next one.
func (r *AuditRelay) Run(ctx context.Context) {
	r.log.Info("Audit relay started",
		zap.Duration("interval", r.opts.Interval),
		zap.Int("batch_size", r.opts.BatchSize),
	)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		n, err := r.RelayOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("Audit relay batch failed", zap.Error(err), zap.Int("published", n))
		}
		if err == nil && n == r.opts.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			r.log.Info("Audit relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes at most one batch and returns how many events went out.
func (r *AuditRelay) RelayOnce(ctx context.Context) (int, error) {
	var published int
	var publishErr error

	err := r.repo.Tx.WithinTx(ctx, func(repo *repository.Repository) error {
		cursor, err := repo.RelayCursor.Lock(ctx, relayCursorName)
		if err != nil {
			return err
		}

		events, err := repo.Audit.FindAfter(ctx, cursor, r.opts.BatchSize)
		if err != nil {
			return err
		}

		last := cursor
		for _, ev := range events {
			msg := response.NewAuditEventResponse(ev)
			if err := r.pub.PublishJSON(ctx, RoutingKey(ev), strconv.FormatInt(ev.ID, 10), msg); err != nil {
				publishErr = fmt.Errorf("publish audit event %d: %w", ev.ID, err)
				break
			}
			last = ev.Position()
			published++
		}

		if last == cursor {
			return nil
		}
		return repo.RelayCursor.Save(ctx, relayCursorName, last)
	})
	if err != nil {
		return 0, fmt.Errorf("relay audit events: %w", err)
	}

	if published > 0 {
		r.metrics.RelayPublished(published)
		r.log.Debug("Audit events relayed", zap.Int("count", published))
	}
	return published, publishErr
}
