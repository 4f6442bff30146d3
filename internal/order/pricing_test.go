package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/currency"
)

func TestPricing_Quote(t *testing.T) {
	pricing := DefaultPricing()

	tests := []struct {
		name         string
		method       ShippingMethod
		subtotal     int64
		wantShipping int64
		wantTax      int64
		wantTotal    int64
	}{
		{name: "standard below threshold", method: ShippingStandard, subtotal: 40000, wantShipping: 3000, wantTax: 4000, wantTotal: 47000},
		{name: "standard at threshold is free", method: ShippingStandard, subtotal: 50000, wantShipping: 0, wantTax: 5000, wantTotal: 55000},
		{name: "standard above threshold", method: ShippingStandard, subtotal: 60000, wantShipping: 0, wantTax: 6000, wantTotal: 66000},
		{name: "express ignores threshold", method: ShippingExpress, subtotal: 60000, wantShipping: 5000, wantTax: 6000, wantTotal: 71000},
		{name: "same day", method: ShippingSameDay, subtotal: 10000, wantShipping: 8000, wantTax: 1000, wantTotal: 19000},
		{name: "unknown method is free", method: ShippingMethod("DRONE"), subtotal: 10000, wantShipping: 0, wantTax: 1000, wantTotal: 11000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := pricing.Quote(tt.method, decimal.NewFromInt(tt.subtotal))

			assert.True(t, decimal.NewFromInt(tt.wantShipping).Equal(q.Shipping), "shipping %s", q.Shipping)
			assert.True(t, decimal.NewFromInt(tt.wantTax).Equal(q.Tax), "tax %s", q.Tax)
			assert.True(t, decimal.NewFromInt(tt.wantTotal).Equal(q.Total), "total %s", q.Total)
			assert.True(t, q.Total.Equal(q.Subtotal.Add(q.Shipping).Add(q.Tax)))
		})
	}
}

func TestPricing_TaxRoundsToMinorUnit(t *testing.T) {
	krw := DefaultPricing()
	assert.Equal(t, "1235", krw.Tax(decimal.NewFromInt(12345)).String())

	usd := DefaultPricing()
	usd.Currency = currency.USD
	assert.Equal(t, "1.23", usd.Tax(decimal.RequireFromString("12.34")).String())
}
