package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeUsage      TransactionType = "usage"
	TransactionTypeBonus      TransactionType = "bonus"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// CreditPackage is a catalog entry: a priced bundle of credits. Historical
// transactions reference packages by description only, so rows can be
// deactivated without breaking the ledger.
type CreditPackage struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	Name          string          `gorm:"type:text;not null"`
	CreditsAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	BonusCredits  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PriceUSD      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsActive      bool            `gorm:"not null;default:true;index"`
	SortOrder     int             `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditPackage) TableName() string { return "credit_packages" }

// TotalCredits is the purchasable amount including bonus credits.
func (p CreditPackage) TotalCredits() decimal.Decimal {
	return p.CreditsAmount.Add(p.BonusCredits)
}

// CreditTransaction is an immutable ledger entry. Amount is signed: positive
// entries credit the wallet, negative entries debit it. BalanceAfter
// snapshots the brand balance immediately after the entry for audit.
// Rows are created once and never updated or deleted.
type CreditTransaction struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	BrandID         snowflake.ID    `gorm:"not null;index"`
	Type            TransactionType `gorm:"type:text;not null;index"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Description     string          `gorm:"type:text"`
	BalanceAfter    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ServiceUsed     string          `gorm:"type:text"`
	APIRequestID    string          `gorm:"type:text;index"`
	PaymentIntentID string          `gorm:"type:text;index"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (CreditTransaction) TableName() string { return "credit_transactions" }

// ServicePrice is a per-service cost override maintained by operators. It
// takes precedence over the built-in default cost table.
type ServicePrice struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	ServiceName string          `gorm:"type:text;not null;uniqueIndex"`
	CostPerUse  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsActive    bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServicePrice) TableName() string { return "service_prices" }

// Stats aggregates a brand's ledger history. Values are folded from the
// transaction rows on every call, never read from a cached counter.
type Stats struct {
	Balance          decimal.Decimal `json:"balance"`
	TotalPurchased   decimal.Decimal `json:"total_purchased"`
	TotalUsed        decimal.Decimal `json:"total_used"`
	UsageLast30Days  decimal.Decimal `json:"usage_last_30_days"`
	TransactionCount int64           `json:"transaction_count"`
}
