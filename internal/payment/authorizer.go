// Package payment pre-authorizes gig charges with an external provider.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means no provider is configured. Callers record the
	// preauthorization as skipped instead of failing.
	ErrUnavailable = errors.New("payment provider unavailable")

	// ErrPaymentMethodRequired means neither a card token nor a stored
	// customer was supplied.
	ErrPaymentMethodRequired = errors.New("payment method required")
)

type Request struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string

	// CardToken takes precedence over CustomerID.
	CardToken  string
	CustomerID string
}

type Authorization struct {
	ID     string
	Status string
}

// Authorizer places and releases holds on funds. Capture is not part of it.
type Authorizer interface {
	Provider() string
	Preauthorize(ctx context.Context, req Request) (*Authorization, error)
	Void(ctx context.Context, authorizationID string) error
}

type disabled struct{}

// NewDisabled returns an Authorizer that reports ErrUnavailable.
func NewDisabled() Authorizer { return disabled{} }

func (disabled) Provider() string { return "none" }

func (disabled) Preauthorize(context.Context, Request) (*Authorization, error) {
	return nil, ErrUnavailable
}

func (disabled) Void(context.Context, string) error { return ErrUnavailable }
