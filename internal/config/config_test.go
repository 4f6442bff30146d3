package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_ADDR", "")
	t.Setenv("ORDER_CURRENCY", "")
	t.Setenv("ORDER_TAX_RATE", "")
	t.Setenv("JWT_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "KRW", cfg.Order.Currency.String())
	assert.True(t, decimal.RequireFromString("0.1").Equal(cfg.Order.TaxRate))
	assert.True(t, decimal.NewFromInt(50000).Equal(cfg.Order.FreeShippingThreshold))
	assert.True(t, decimal.NewFromInt(3000).Equal(cfg.Order.StandardFee))
	assert.True(t, decimal.NewFromInt(5000).Equal(cfg.Order.ExpressFee))
	assert.True(t, decimal.NewFromInt(8000).Equal(cfg.Order.SameDayFee))
	assert.False(t, cfg.Order.StrictTransitions)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantError string
	}{
		{name: "unknown currency", key: "ORDER_CURRENCY", value: "XYZ1", wantError: "ORDER_CURRENCY[XYZ1]"},
		{name: "tax rate not a number", key: "ORDER_TAX_RATE", value: "ten", wantError: "ORDER_TAX_RATE"},
		{name: "negative fee", key: "ORDER_FEE_EXPRESS", value: "-1", wantError: "ORDER_FEE_EXPRESS: must not be negative"},
		{name: "bad ttl", key: "JWT_TTL", value: "forever", wantError: "JWT_TTL"},
		{name: "bad strict flag", key: "ORDER_STRICT_TRANSITIONS", value: "maybe", wantError: "ORDER_STRICT_TRANSITIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}
