package product

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func randomProduct(variants int) Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := Product{
		ID:          uuid.New(),
		Name:        gofakeit.BeerName(),
		Description: gofakeit.HackerPhrase(),
		Price:       decimal.NewFromFloat(gofakeit.Price(1000, 90000)).Round(0),
		Stock:       gofakeit.Number(5, 50),
		IsActive:    true,
		Variants:    []Variant{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for range variants {
		p.Variants = append(p.Variants, Variant{
			ID:        uuid.New(),
			ProductID: p.ID,
			Name:      gofakeit.Color(),
			Price:     decimal.NewFromFloat(gofakeit.Price(1000, 90000)).Round(0),
			Stock:     gofakeit.Number(5, 50),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return p
}
