package address

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid wraps field validation failures.
var ErrInvalid = errors.New("invalid address")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (Address, error) {
	return s.repo.Get(ctx, userID, id)
}

// FindForUser returns the subset of ids owned by userID.
func (s *Service) FindForUser(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) ([]Address, error) {
	return s.repo.FindForUser(ctx, userID, ids...)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, a Address) (Address, error) {
	normalize(&a)
	if err := validate(a); err != nil {
		return Address{}, err
	}

	now := s.now().UTC()
	a.ID = uuid.New()
	a.UserID = userID
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.repo.Create(ctx, a)
}

// Patch carries the fields of a partial address update.
type Patch struct {
	Type       *Type   `json:"type"`
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Address1   *string `json:"address1"`
	Address2   *string `json:"address2"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	IsDefault  *bool   `json:"isDefault"`
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, p Patch) (Address, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Address{}, err
	}

	assign(&a.Type, p.Type)
	assign(&a.Name, p.Name)
	assign(&a.Phone, p.Phone)
	assign(&a.Address1, p.Address1)
	assign(&a.City, p.City)
	assign(&a.PostalCode, p.PostalCode)
	assign(&a.Country, p.Country)
	assign(&a.IsDefault, p.IsDefault)
	if p.Address2 != nil {
		a.Address2 = p.Address2
	}
	if p.State != nil {
		a.State = p.State
	}

	normalize(&a)
	if err := validate(a); err != nil {
		return Address{}, err
	}

	a.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if a.IsDefault {
		return ErrDefaultAddress
	}
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) SetDefault(ctx context.Context, userID, id uuid.UUID) (Address, error) {
	return s.repo.SetDefault(ctx, userID, id)
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func normalize(a *Address) {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address1 = strings.TrimSpace(a.Address1)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = DefaultCountry
	}
}

func validate(a Address) error {
	switch {
	case !a.Type.Valid():
		return fmt.Errorf("%w: type must be SHIPPING or BILLING", ErrInvalid)
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case a.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrInvalid)
	case a.Address1 == "":
		return fmt.Errorf("%w: address1 is required", ErrInvalid)
	case a.City == "":
		return fmt.Errorf("%w: city is required", ErrInvalid)
	case a.PostalCode == "":
		return fmt.Errorf("%w: postalCode is required", ErrInvalid)
	}
	return nil
}
