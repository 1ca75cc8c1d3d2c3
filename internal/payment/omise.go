package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"go.uber.org/zap"
)

const (
	ProviderOmise = "omise"

	lateReverseTimeout = 30 * time.Second
)

type omiseAuthorizer struct {
	publicKey string
	secretKey string
	log       *zap.Logger
}

// NewOmise returns an Authorizer backed by Omise uncaptured charges. Without
// keys it falls back to the disabled authorizer.
func NewOmise(publicKey, secretKey string, log *zap.Logger) (Authorizer, error) {
	if publicKey == "" || secretKey == "" {
		log.Warn("Omise keys not set, payment preauthorization disabled")
		return NewDisabled(), nil
	}

	if _, err := omise.NewClient(publicKey, secretKey); err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}

	return &omiseAuthorizer{
		publicKey: publicKey,
		secretKey: secretKey,
		log:       log.With(zap.String("payment", ProviderOmise)),
	}, nil
}

// newClient builds a client per call so that headers and context are not
// shared between concurrent requests.
func (a *omiseAuthorizer) newClient(ctx context.Context, headers map[string]string) (*omise.Client, error) {
	client, err := omise.NewClient(a.publicKey, a.secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	client.WithContext(ctx)
	client.WithCustomHeaders(headers)
	return client, nil
}

func (a *omiseAuthorizer) Provider() string { return ProviderOmise }

func (a *omiseAuthorizer) Preauthorize(ctx context.Context, req Request) (*Authorization, error) {
	if req.CardToken == "" && req.CustomerID == "" {
		return nil, ErrPaymentMethodRequired
	}

	// The charge request is not bound to ctx: once sent it may succeed on
	// the provider side, and do reverses a hold that arrives too late.
	client, err := a.newClient(context.WithoutCancel(ctx), map[string]string{"Idempotency-Key": req.IdempotencyKey})
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{"idempotency_key": req.IdempotencyKey}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	op := &operations.CreateCharge{
		Amount:      req.AmountMinor,
		Currency:    strings.ToLower(req.Currency),
		Description: req.Description,
		DontCapture: true,
		Metadata:    metadata,
	}
	if req.CardToken != "" {
		op.Card = req.CardToken
	} else {
		op.Customer = req.CustomerID
	}

	charge := &omise.Charge{}
	create := func() error { return client.Do(charge, op) }
	if err := a.do(ctx, create, func() { a.reverseLate(charge) }); err != nil {
		a.log.Error("Failed to create uncaptured charge",
			zap.Error(err),
			zap.Int64("amount", req.AmountMinor),
			zap.String("currency", req.Currency),
		)
		return nil, fmt.Errorf("omise create charge: %w", err)
	}

	if string(charge.Status) == "failed" {
		msg := "charge failed"
		if charge.FailureMessage != nil {
			msg = *charge.FailureMessage
		}
		return nil, fmt.Errorf("omise charge %s: %s", charge.ID, msg)
	}

	a.log.Info("Charge authorized",
		zap.String("charge_id", charge.ID),
		zap.String("status", string(charge.Status)),
	)

	return &Authorization{ID: charge.ID, Status: string(charge.Status)}, nil
}

func (a *omiseAuthorizer) Void(ctx context.Context, authorizationID string) error {
	if authorizationID == "" {
		return errors.New("empty authorization id")
	}

	client, err := a.newClient(ctx, nil)
	if err != nil {
		return err
	}

	charge := &omise.Charge{}
	op := &operations.ReverseCharge{ChargeID: authorizationID}
	if err := a.do(ctx, func() error { return client.Do(charge, op) }, nil); err != nil {
		a.log.Error("Failed to reverse charge", zap.Error(err), zap.String("charge_id", authorizationID))
		return fmt.Errorf("omise reverse charge %s: %w", authorizationID, err)
	}

	a.log.Info("Charge reversed", zap.String("charge_id", authorizationID))
	return nil
}

// do runs a blocking client call and gives up when ctx is done. When it gave
// up and the call still succeeds, late runs after the call returns.
func (a *omiseAuthorizer) do(ctx context.Context, call func() error, late func()) error {
	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if late != nil {
			go func() {
				if err := <-done; err == nil {
					late()
				}
			}()
		}
		return ctx.Err()
	}
}

// reverseLate releases a hold created after Preauthorize already failed.
func (a *omiseAuthorizer) reverseLate(charge *omise.Charge) {
	if charge.ID == "" || string(charge.Status) == "failed" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lateReverseTimeout)
	defer cancel()

	if err := a.Void(ctx, charge.ID); err != nil {
		return
	}
	a.log.Warn("Reversed charge created after timeout", zap.String("charge_id", charge.ID))
}
