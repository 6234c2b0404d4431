package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	branddomain "github.com/brandforge/brandforge/internal/brand/domain"
	"github.com/brandforge/brandforge/internal/cache"
	"github.com/brandforge/brandforge/internal/clock"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	"github.com/brandforge/brandforge/internal/events"
	"github.com/brandforge/brandforge/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultHistoryLimit = 50
	usageWindow         = 30 * 24 * time.Hour
	catalogCacheTTL     = 5 * time.Minute
	priceCacheTTL       = 5 * time.Minute
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	outbox     *events.Outbox
	priceCache *cache.TTLCache[string, decimal.Decimal]
	catalog    *cache.TTLCache[string, []creditdomain.CreditPackage]
}

func NewService(p ServiceParam) creditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("credit.service"),
		genID: p.GenID,
		clock: p.Clock,

		outbox:     p.Outbox,
		priceCache: cache.NewTTLCache[string, decimal.Decimal](),
		catalog:    cache.NewTTLCache[string, []creditdomain.CreditPackage](),
	}
}

// HasSufficientCredits reports whether the brand balance covers amount.
// Failures report false so a broken lookup can never authorize an overdraft.
func (s *Service) HasSufficientCredits(ctx context.Context, brandID snowflake.ID, amount decimal.Decimal) bool {
	amount, err := coerceAmount(amount)
	if err != nil {
		return false
	}
	var brand branddomain.Brand
	if err := s.db.WithContext(ctx).First(&brand, "id = ?", brandID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("sufficiency check failed", zap.String("brand_id", brandID.String()), zap.Error(err))
		}
		return false
	}
	return brand.CreditsBalance.GreaterThanOrEqual(amount)
}

func (s *Service) Deduct(ctx context.Context, req creditdomain.DeductRequest) creditdomain.Result {
	amount, err := coerceAmount(req.Amount)
	if err != nil {
		metrics.Platform().IncDeduction("invalid")
		return creditdomain.Result{OK: false, Message: "Invalid credit amount"}
	}

	var balanceBefore decimal.Decimal
	var txn *creditdomain.CreditTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brand, err := s.lockBrand(ctx, tx, req.BrandID)
		if err != nil {
			return err
		}
		balanceBefore = brand.CreditsBalance

		// Sufficiency is rechecked under the row lock; a stale pre-check
		// result cannot overdraw the wallet.
		if brand.CreditsBalance.LessThan(amount) {
			return creditdomain.ErrInsufficientCredits
		}

		newBalance := brand.CreditsBalance.Sub(amount)
		if err := s.setBalance(ctx, tx, brand.ID, newBalance); err != nil {
			return err
		}

		description := req.Description
		if description == "" && req.ServiceUsed != "" {
			description = "Used " + req.ServiceUsed
		}
		txn = &creditdomain.CreditTransaction{
			ID:           s.genID.Generate(),
			BrandID:      brand.ID,
			Type:         creditdomain.TransactionTypeUsage,
			Amount:       amount.Neg(),
			Description:  description,
			BalanceAfter: newBalance,
			ServiceUsed:  req.ServiceUsed,
			APIRequestID: req.APIRequestID,
			CreatedAt:    s.clock.Now(),
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		return s.publishCredit(ctx, tx, txn, events.EventCreditDeducted, "")
	})

	switch {
	case err == nil:
		metrics.Platform().IncDeduction("ok")
		return creditdomain.Result{OK: true, Message: "Credits deducted successfully"}
	case errors.Is(err, creditdomain.ErrInsufficientCredits):
		// Rejected debits intentionally leave no ledger row; the counter and
		// warn log are the abuse-monitoring signal instead.
		metrics.Platform().IncDeduction("rejected")
		s.log.Warn("deduction rejected",
			zap.String("brand_id", req.BrandID.String()),
			zap.String("need", amount.StringFixed(2)),
			zap.String("have", balanceBefore.StringFixed(2)),
			zap.String("service_used", req.ServiceUsed),
		)
		return creditdomain.Result{
			OK: false,
			Message: fmt.Sprintf("Insufficient credits. Need %s, have %s",
				amount.StringFixed(2), balanceBefore.StringFixed(2)),
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.Platform().IncDeduction("brand_not_found")
		return creditdomain.Result{OK: false, Message: "Brand not found"}
	default:
		metrics.Platform().IncDeduction("error")
		s.log.Error("deduction failed", zap.String("brand_id", req.BrandID.String()), zap.Error(err))
		return creditdomain.Result{OK: false, Message: "Unable to deduct credits"}
	}
}

func (s *Service) Add(ctx context.Context, req creditdomain.AddRequest) creditdomain.Result {
	amount, err := coerceAmount(req.Amount)
	if err != nil {
		return creditdomain.Result{OK: false, Message: "Invalid credit amount"}
	}

	txType := req.Type
	if txType == "" {
		txType = creditdomain.TransactionTypePurchase
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brand, err := s.lockBrand(ctx, tx, req.BrandID)
		if err != nil {
			return err
		}

		newBalance := brand.CreditsBalance.Add(amount)
		if err := s.setBalance(ctx, tx, brand.ID, newBalance); err != nil {
			return err
		}

		txn := &creditdomain.CreditTransaction{
			ID:              s.genID.Generate(),
			BrandID:         brand.ID,
			Type:            txType,
			Amount:          amount,
			Description:     req.Description,
			BalanceAfter:    newBalance,
			PaymentIntentID: req.PaymentIntentID,
			CreatedAt:       s.clock.Now(),
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		eventType := events.EventCreditPurchased
		if txType == creditdomain.TransactionTypeRefund {
			eventType = events.EventCreditRefunded
		}
		return s.publishCredit(ctx, tx, txn, eventType, req.PaymentIntentID)
	})

	switch {
	case err == nil:
		metrics.Platform().AddCredited(string(txType), amount.InexactFloat64())
		return creditdomain.Result{OK: true, Message: "Credits added successfully"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return creditdomain.Result{OK: false, Message: "Brand not found"}
	default:
		s.log.Error("credit add failed", zap.String("brand_id", req.BrandID.String()), zap.Error(err))
		return creditdomain.Result{OK: false, Message: "Unable to add credits"}
	}
}

func (s *Service) Purchase(ctx context.Context, brandID, packageID snowflake.ID, paymentIntentID string) creditdomain.Result {
	var pkg creditdomain.CreditPackage
	err := s.db.WithContext(ctx).
		First(&pkg, "id = ? AND is_active = ?", packageID, true).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("package lookup failed", zap.String("package_id", packageID.String()), zap.Error(err))
		}
		return creditdomain.Result{OK: false, Message: "Credit package not found"}
	}

	total := pkg.TotalCredits()
	description := fmt.Sprintf("Purchased %s (%s credits)", pkg.Name, total.StringFixed(2))
	return s.Add(ctx, creditdomain.AddRequest{
		BrandID:         brandID,
		Amount:          total,
		Description:     description,
		PaymentIntentID: paymentIntentID,
		Type:            creditdomain.TransactionTypePurchase,
	})
}

// History returns the newest ledger rows first. Read failures return an
// empty slice; the ledger never surfaces faults to the request path.
func (s *Service) History(ctx context.Context, brandID snowflake.ID, limit int) []creditdomain.CreditTransaction {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var rows []creditdomain.CreditTransaction
	err := s.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		s.log.Error("history lookup failed", zap.String("brand_id", brandID.String()), zap.Error(err))
		return nil
	}
	return rows
}

func (s *Service) AvailablePackages(ctx context.Context) []creditdomain.CreditPackage {
	if cached, ok := s.catalog.Get("active"); ok {
		return cached
	}
	var packages []creditdomain.CreditPackage
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&packages).Error
	if err != nil {
		s.log.Error("package catalog lookup failed", zap.Error(err))
		return nil
	}
	s.catalog.Set("active", packages, catalogCacheTTL)
	return packages
}

// Stats folds over the full transaction history rather than trusting any
// cached counter, so its output always reconciles with the ledger.
func (s *Service) Stats(ctx context.Context, brandID snowflake.ID) creditdomain.Stats {
	stats := creditdomain.Stats{
		Balance:         decimal.Zero,
		TotalPurchased:  decimal.Zero,
		TotalUsed:       decimal.Zero,
		UsageLast30Days: decimal.Zero,
	}

	var brand branddomain.Brand
	if err := s.db.WithContext(ctx).First(&brand, "id = ?", brandID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("stats brand lookup failed", zap.String("brand_id", brandID.String()), zap.Error(err))
		}
		return stats
	}
	stats.Balance = brand.CreditsBalance

	var rows []creditdomain.CreditTransaction
	if err := s.db.WithContext(ctx).Where("brand_id = ?", brandID).Find(&rows).Error; err != nil {
		s.log.Error("stats history lookup failed", zap.String("brand_id", brandID.String()), zap.Error(err))
		return stats
	}

	windowStart := s.clock.Now().Add(-usageWindow)
	for _, row := range rows {
		stats.TransactionCount++
		switch row.Type {
		case creditdomain.TransactionTypePurchase, creditdomain.TransactionTypeBonus:
			if row.Amount.IsPositive() {
				stats.TotalPurchased = stats.TotalPurchased.Add(row.Amount)
			}
		case creditdomain.TransactionTypeUsage:
			used := row.Amount.Abs()
			stats.TotalUsed = stats.TotalUsed.Add(used)
			if row.CreatedAt.After(windowStart) {
				stats.UsageLast30Days = stats.UsageLast30Days.Add(used)
			}
		}
	}
	return stats
}

func (s *Service) lockBrand(ctx context.Context, tx *gorm.DB, brandID snowflake.ID) (*branddomain.Brand, error) {
	var brand branddomain.Brand
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&brand, "id = ?", brandID).Error
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (s *Service) setBalance(ctx context.Context, tx *gorm.DB, brandID snowflake.ID, balance decimal.Decimal) error {
	return tx.WithContext(ctx).
		Model(&branddomain.Brand{}).
		Where("id = ?", brandID).
		Updates(map[string]any{
			"credits_balance": balance,
			"updated_at":      s.clock.Now(),
		}).Error
}

func (s *Service) publishCredit(ctx context.Context, tx *gorm.DB, txn *creditdomain.CreditTransaction, eventType, dedupeKey string) error {
	if s.outbox == nil {
		return nil
	}
	payload := events.CreditPayload{
		TransactionID: txn.ID.String(),
		BrandID:       txn.BrandID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount.StringFixed(2),
		ServiceUsed:   txn.ServiceUsed,
	}
	return s.outbox.PublishTx(ctx, tx, events.Event{
		SubjectID: txn.BrandID,
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: dedupeKey,
	})
}

// coerceAmount normalizes a requested amount to two decimal places and
// rejects non-positive values.
func coerceAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, creditdomain.ErrInvalidAmount
	}
	return amount, nil
}
