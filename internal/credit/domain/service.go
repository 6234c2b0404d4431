package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Result is the uniform outcome of a ledger mutation. Business rejections
// (insufficient credits, unknown package) and internal faults both surface
// here; ledger operations never propagate errors to callers.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// DeductRequest debits a brand's wallet for one AI-service usage event.
type DeductRequest struct {
	BrandID      snowflake.ID
	Amount       decimal.Decimal
	Description  string
	ServiceUsed  string
	APIRequestID string
}

// AddRequest credits a brand's wallet.
type AddRequest struct {
	BrandID         snowflake.ID
	Amount          decimal.Decimal
	Description     string
	PaymentIntentID string
	Type            TransactionType
}

// CreditService is the only mutation path for Brand.CreditsBalance.
type CreditService interface {
	// ServiceCost resolves the per-use price of a named AI service. It never
	// fails: pricing table, then built-in defaults, then a fixed fallback.
	ServiceCost(ctx context.Context, serviceName string) decimal.Decimal

	// HasSufficientCredits reports whether the brand can cover amount.
	// Any lookup or coercion failure reports false.
	HasSufficientCredits(ctx context.Context, brandID snowflake.ID, amount decimal.Decimal) bool

	// Deduct debits the wallet and appends a usage transaction. A rejected
	// deduction writes no ledger row.
	Deduct(ctx context.Context, req DeductRequest) Result

	// Add credits the wallet and appends a transaction of req.Type
	// (purchase when unset).
	Add(ctx context.Context, req AddRequest) Result

	// Purchase resolves an active package and credits its total amount.
	Purchase(ctx context.Context, brandID, packageID snowflake.ID, paymentIntentID string) Result

	// History returns the newest transactions first, capped at limit
	// (50 when limit <= 0).
	History(ctx context.Context, brandID snowflake.ID, limit int) []CreditTransaction

	// AvailablePackages lists active packages in catalog order.
	AvailablePackages(ctx context.Context) []CreditPackage

	// Stats folds the brand's transaction history into aggregates.
	Stats(ctx context.Context, brandID snowflake.ID) Stats
}

// Service is the package alias for CreditService.
type Service = CreditService

var (
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrBrandNotFound       = errors.New("brand_not_found")
	ErrPackageNotFound     = errors.New("package_not_found")
)
