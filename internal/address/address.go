package address

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeShipping Type = "SHIPPING"
	TypeBilling  Type = "BILLING"
)

const DefaultCountry = "KR"

func (t Type) Valid() bool {
	return t == TypeShipping || t == TypeBilling
}

type Address struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	Type       Type      `json:"type"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address1   string    `json:"address1"`
	Address2   *string   `json:"address2,omitempty"`
	City       string    `json:"city"`
	State      *string   `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
