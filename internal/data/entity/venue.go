package entity

import "github.com/google/uuid"

// Venue is owned by the profile service; the core only reads ownership and
// the optional payment customer reference.
type Venue struct {
	Base
	OwnerID           uuid.UUID `db:"owner_id"`
	Name              string    `db:"name"`
	PaymentCustomerID *string   `db:"payment_customer_id"`
}
