package order

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Pricing holds the fee and tax policy applied at checkout.
type Pricing struct {
	Currency              currency.Unit
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	StandardFee           decimal.Decimal
	ExpressFee            decimal.Decimal
	SameDayFee            decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		Currency:              currency.KRW,
		TaxRate:               decimal.RequireFromString("0.1"),
		FreeShippingThreshold: decimal.NewFromInt(50000),
		StandardFee:           decimal.NewFromInt(3000),
		ExpressFee:            decimal.NewFromInt(5000),
		SameDayFee:            decimal.NewFromInt(8000),
	}
}

// Quote is the money breakdown of an order. Total = Subtotal + Shipping + Tax.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ShippingFee returns zero for an unknown method.
func (p Pricing) ShippingFee(method ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	switch method {
	case ShippingStandard:
		if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
			return decimal.Zero
		}
		return p.StandardFee
	case ShippingExpress:
		return p.ExpressFee
	case ShippingSameDay:
		return p.SameDayFee
	default:
		return decimal.Zero
	}
}

// Tax is rounded to the currency's minor unit.
func (p Pricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	scale, _ := currency.Standard.Rounding(p.Currency)
	return subtotal.Mul(p.TaxRate).Round(int32(scale))
}

func (p Pricing) Quote(method ShippingMethod, subtotal decimal.Decimal) Quote {
	q := Quote{
		Subtotal: subtotal,
		Shipping: p.ShippingFee(method, subtotal),
		Tax:      p.Tax(subtotal),
	}
	q.Total = q.Subtotal.Add(q.Shipping).Add(q.Tax)
	return q
}
