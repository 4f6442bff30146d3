package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr             string
	DatabaseURL      string
	JWTSecret        string
	JWTTTL           time.Duration
	LogLevel         string
	CORSAllowOrigins string
	Order            OrderConfig
}

// OrderConfig carries the pricing policy and transition mode of the order workflow.
type OrderConfig struct {
	Currency              currency.Unit
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	StandardFee           decimal.Decimal
	ExpressFee            decimal.Decimal
	SameDayFee            decimal.Decimal
	StrictTransitions     bool
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.Addr = getenv("STOREFRONT_ADDR", ":8080")
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.LogLevel = getenv("LOG_LEVEL", "info")
	cfg.CORSAllowOrigins = getenv("CORS_ALLOW_ORIGINS", "*")

	if cfg.JWTTTL, err = time.ParseDuration(getenv("JWT_TTL", "72h")); err != nil {
		return cfg, fmt.Errorf("JWT_TTL: %w", err)
	}

	if cfg.Order, err = loadOrder(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadOrder() (OrderConfig, error) {
	var (
		oc  OrderConfig
		err error
	)

	code := getenv("ORDER_CURRENCY", "KRW")
	if oc.Currency, err = currency.ParseISO(code); err != nil {
		return oc, fmt.Errorf("ORDER_CURRENCY[%s]: %w", code, err)
	}

	amounts := []struct {
		key, def string
		dst      *decimal.Decimal
	}{
		{"ORDER_TAX_RATE", "0.1", &oc.TaxRate},
		{"ORDER_FREE_SHIPPING_THRESHOLD", "50000", &oc.FreeShippingThreshold},
		{"ORDER_FEE_STANDARD", "3000", &oc.StandardFee},
		{"ORDER_FEE_EXPRESS", "5000", &oc.ExpressFee},
		{"ORDER_FEE_SAME_DAY", "8000", &oc.SameDayFee},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(getenv(a.key, a.def))
		if err != nil {
			return oc, fmt.Errorf("%s: %w", a.key, err)
		}
		if v.IsNegative() {
			return oc, fmt.Errorf("%s: must not be negative", a.key)
		}
		*a.dst = v
	}

	if oc.StrictTransitions, err = strconv.ParseBool(getenv("ORDER_STRICT_TRANSITIONS", "false")); err != nil {
		return oc, fmt.Errorf("ORDER_STRICT_TRANSITIONS: %w", err)
	}

	return oc, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
