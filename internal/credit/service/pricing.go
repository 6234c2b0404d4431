package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultServiceCosts maps case-insensitive substrings of a service name to
// a per-use price. Checked in order so the most specific match wins; the
// operator-maintained service_prices table takes precedence over all of it.
var defaultServiceCosts = []struct {
	keyword string
	cost    decimal.Decimal
}{
	{"image", decimal.NewFromFloat(2.00)},
	{"instagram", decimal.NewFromFloat(1.00)},
	{"caption", decimal.NewFromFloat(1.00)},
	{"tweet", decimal.NewFromFloat(0.50)},
	{"blog", decimal.NewFromFloat(1.50)},
	{"chat", decimal.NewFromFloat(0.25)},
}

// fallbackServiceCost applies when neither the pricing table nor the default
// table recognizes the service name.
var fallbackServiceCost = decimal.NewFromFloat(1.00)

// ServiceCost resolves a per-use price. Lookup precedence: exact match in
// the pricing table, then the built-in substring defaults, then a fixed
// fallback. It never fails; lookup errors are logged and priced at the
// fallback so a pricing outage cannot block usage billing.
func (s *Service) ServiceCost(ctx context.Context, serviceName string) decimal.Decimal {
	name := strings.TrimSpace(serviceName)
	if name == "" {
		return fallbackServiceCost
	}

	cacheKey := strings.ToLower(name)
	if cached, ok := s.priceCache.Get(cacheKey); ok {
		return cached
	}

	cost, ok := s.lookupPrice(ctx, name)
	if !ok {
		cost = defaultCostFor(name)
	}
	s.priceCache.Set(cacheKey, cost, priceCacheTTL)
	return cost
}

func (s *Service) lookupPrice(ctx context.Context, name string) (decimal.Decimal, bool) {
	var price creditdomain.ServicePrice
	err := s.db.WithContext(ctx).
		First(&price, "service_name = ? AND is_active = ?", name, true).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("service price lookup failed, using defaults",
				zap.String("service", name), zap.Error(err))
		}
		return decimal.Zero, false
	}
	return price.CostPerUse, true
}

func defaultCostFor(name string) decimal.Decimal {
	lowered := strings.ToLower(name)
	for _, entry := range defaultServiceCosts {
		if strings.Contains(lowered, entry.keyword) {
			return entry.cost
		}
	}
	return fallbackServiceCost
}
