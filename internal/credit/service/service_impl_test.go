package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	branddomain "github.com/brandforge/brandforge/internal/brand/domain"
	"github.com/brandforge/brandforge/internal/cache"
	"github.com/brandforge/brandforge/internal/clock"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
)

func TestDeductHappyPath(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "10")

	result := svc.Deduct(context.Background(), creditdomain.DeductRequest{
		BrandID:      brandID,
		Amount:       decimal.RequireFromString("2.50"),
		ServiceUsed:  "image_generation",
		APIRequestID: "req-1",
	})
	if !result.OK {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Message != "Credits deducted successfully" {
		t.Fatalf("unexpected message %q", result.Message)
	}

	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected balance 7.50, got %s", brand.CreditsBalance)
	}

	rows := loadTransactions(t, db, brandID)
	if len(rows) != 1 {
		t.Fatalf("expected one transaction, got %d", len(rows))
	}
	txn := rows[0]
	if txn.Type != creditdomain.TransactionTypeUsage {
		t.Fatalf("expected usage type, got %s", txn.Type)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("-2.5")) {
		t.Fatalf("expected amount -2.50, got %s", txn.Amount)
	}
	if !txn.BalanceAfter.Equal(brand.CreditsBalance) {
		t.Fatalf("balance snapshot %s does not match balance %s", txn.BalanceAfter, brand.CreditsBalance)
	}
	if txn.ServiceUsed != "image_generation" || txn.APIRequestID != "req-1" {
		t.Fatalf("attribution not recorded: %+v", txn)
	}
	if txn.Description != "Used image_generation" {
		t.Fatalf("unexpected description %q", txn.Description)
	}
}

func TestDeductInsufficientLeavesNoLedgerRow(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "2")

	result := svc.Deduct(context.Background(), creditdomain.DeductRequest{
		BrandID: brandID,
		Amount:  decimal.RequireFromString("10"),
	})
	if result.OK {
		t.Fatal("expected rejection")
	}
	if result.Message != "Insufficient credits. Need 10.00, have 2.00" {
		t.Fatalf("unexpected message %q", result.Message)
	}

	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("balance changed on rejection: %s", brand.CreditsBalance)
	}
	if rows := loadTransactions(t, db, brandID); len(rows) != 0 {
		t.Fatalf("rejected deduction wrote %d ledger rows", len(rows))
	}
}

func TestDeductBrandNotFound(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())

	result := svc.Deduct(context.Background(), creditdomain.DeductRequest{
		BrandID: snowflake.ID(99999),
		Amount:  decimal.RequireFromString("1"),
	})
	if result.OK || result.Message != "Brand not found" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDeductRejectsNonPositiveAmount(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "10")

	for _, raw := range []string{"0", "-5", "0.004"} {
		result := svc.Deduct(context.Background(), creditdomain.DeductRequest{
			BrandID: brandID,
			Amount:  decimal.RequireFromString(raw),
		})
		if result.OK || result.Message != "Invalid credit amount" {
			t.Fatalf("amount %s: unexpected result %+v", raw, result)
		}
	}

	if rows := loadTransactions(t, db, brandID); len(rows) != 0 {
		t.Fatalf("invalid amounts wrote %d ledger rows", len(rows))
	}
}

func TestDeductRollsBackWhenLedgerWriteFails(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "10")

	if err := db.Exec("DROP TABLE credit_transactions").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	result := svc.Deduct(context.Background(), creditdomain.DeductRequest{
		BrandID: brandID,
		Amount:  decimal.RequireFromString("3"),
	})
	if result.OK {
		t.Fatal("expected failure when ledger write fails")
	}
	if result.Message != "Unable to deduct credits" {
		t.Fatalf("unexpected message %q", result.Message)
	}

	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("balance update survived rollback: %s", brand.CreditsBalance)
	}
}

func TestConcurrentDeductsNeverOverdraw(t *testing.T) {
	db := setupCreditTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection serializes the transactions the way the row lock does
	// on postgres, keeping the interleaving deterministic.
	sqlDB.SetMaxOpenConns(1)

	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "10")

	const attempts = 20
	var wg sync.WaitGroup
	results := make([]creditdomain.Result, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Deduct(context.Background(), creditdomain.DeductRequest{
				BrandID:      brandID,
				Amount:       decimal.RequireFromString("1"),
				APIRequestID: fmt.Sprintf("req-%d", i),
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, r := range results {
		if r.OK {
			succeeded++
		}
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 successful deductions, got %d", succeeded)
	}

	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.Zero) {
		t.Fatalf("expected zero balance, got %s", brand.CreditsBalance)
	}
	if rows := loadTransactions(t, db, brandID); len(rows) != 10 {
		t.Fatalf("expected 10 ledger rows, got %d", len(rows))
	}
}

func TestAddDefaultsToPurchaseType(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "0")

	result := svc.Add(context.Background(), creditdomain.AddRequest{
		BrandID: brandID,
		Amount:  decimal.RequireFromString("5"),
	})
	if !result.OK || result.Message != "Credits added successfully" {
		t.Fatalf("unexpected result %+v", result)
	}

	rows := loadTransactions(t, db, brandID)
	if len(rows) != 1 || rows[0].Type != creditdomain.TransactionTypePurchase {
		t.Fatalf("expected one purchase row, got %+v", rows)
	}
	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected balance 5, got %s", brand.CreditsBalance)
	}
}

func TestPurchaseCreditsPackageTotal(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "0")
	pkgID := insertPackage(t, db, "Starter", "10", "2", true)

	result := svc.Purchase(context.Background(), brandID, pkgID, "pi_test_123")
	if !result.OK {
		t.Fatalf("purchase failed: %q", result.Message)
	}

	brand := loadBrand(t, db, brandID)
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("expected balance 12 (10 + 2 bonus), got %s", brand.CreditsBalance)
	}

	rows := loadTransactions(t, db, brandID)
	if len(rows) != 1 {
		t.Fatalf("expected one transaction, got %d", len(rows))
	}
	txn := rows[0]
	if !txn.Amount.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("expected amount 12, got %s", txn.Amount)
	}
	if txn.Description != "Purchased Starter (12.00 credits)" {
		t.Fatalf("unexpected description %q", txn.Description)
	}
	if txn.PaymentIntentID != "pi_test_123" {
		t.Fatalf("payment intent not recorded: %q", txn.PaymentIntentID)
	}
}

func TestPurchaseUnknownOrInactivePackage(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "0")
	inactiveID := insertPackage(t, db, "Retired", "10", "0", false)

	for _, pkgID := range []snowflake.ID{snowflake.ID(424242), inactiveID} {
		result := svc.Purchase(context.Background(), brandID, pkgID, "pi_test_456")
		if result.OK || result.Message != "Credit package not found" {
			t.Fatalf("package %d: unexpected result %+v", pkgID, result)
		}
	}

	if rows := loadTransactions(t, db, brandID); len(rows) != 0 {
		t.Fatalf("failed purchases wrote %d ledger rows", len(rows))
	}
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	db := setupCreditTestDB(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestCreditService(t, db, base)
	brandID := insertBrand(t, db, "100")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		svc.clock = clock.Fixed{At: base.Add(time.Duration(i) * time.Hour)}
		result := svc.Deduct(ctx, creditdomain.DeductRequest{
			BrandID:     brandID,
			Amount:      decimal.RequireFromString("1"),
			Description: fmt.Sprintf("usage %d", i),
		})
		if !result.OK {
			t.Fatalf("deduct %d failed: %q", i, result.Message)
		}
	}

	history := svc.History(ctx, brandID, 3)
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.After(history[i-1].CreatedAt) {
			t.Fatalf("history not newest-first at %d", i)
		}
	}
	if history[0].Description != "usage 4" {
		t.Fatalf("expected newest row first, got %q", history[0].Description)
	}

	all := svc.History(ctx, brandID, 0)
	if len(all) != 5 {
		t.Fatalf("default limit returned %d rows", len(all))
	}
}

func TestServiceCostPrecedence(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	ctx := context.Background()

	insertServicePrice(t, db, "image_generation", "3.75", true)
	insertServicePrice(t, db, "chat_assistant", "9.99", false)

	// Active pricing row wins over the built-in default.
	if cost := svc.ServiceCost(ctx, "image_generation"); !cost.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("expected table price 3.75, got %s", cost)
	}
	// Inactive row falls through to the keyword default.
	if cost := svc.ServiceCost(ctx, "chat_assistant"); !cost.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("expected default 0.25, got %s", cost)
	}
	// Keyword match is case-insensitive substring.
	if cost := svc.ServiceCost(ctx, "Premium-Tweet-Writer"); !cost.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected default 0.50, got %s", cost)
	}
	// Unknown names get the fixed fallback, never an error.
	if cost := svc.ServiceCost(ctx, "unheard_of"); !cost.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected fallback 1.00, got %s", cost)
	}
	if cost := svc.ServiceCost(ctx, "  "); !cost.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected fallback for blank name, got %s", cost)
	}
}

func TestStatsFoldsLedger(t *testing.T) {
	db := setupCreditTestDB(t)
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc := newTestCreditService(t, db, now)
	brandID := insertBrand(t, db, "0")
	ctx := context.Background()

	// Old usage lands outside the 30-day window.
	svc.clock = clock.Fixed{At: now.Add(-40 * 24 * time.Hour)}
	mustOK(t, svc.Add(ctx, creditdomain.AddRequest{BrandID: brandID, Amount: decimal.RequireFromString("100")}))
	mustOK(t, svc.Deduct(ctx, creditdomain.DeductRequest{BrandID: brandID, Amount: decimal.RequireFromString("10")}))

	svc.clock = clock.Fixed{At: now.Add(-time.Hour)}
	mustOK(t, svc.Deduct(ctx, creditdomain.DeductRequest{BrandID: brandID, Amount: decimal.RequireFromString("4")}))
	mustOK(t, svc.Add(ctx, creditdomain.AddRequest{
		BrandID: brandID,
		Amount:  decimal.RequireFromString("20"),
		Type:    creditdomain.TransactionTypeBonus,
	}))

	svc.clock = clock.Fixed{At: now}
	stats := svc.Stats(ctx, brandID)

	if !stats.Balance.Equal(decimal.RequireFromString("106")) {
		t.Fatalf("expected balance 106, got %s", stats.Balance)
	}
	if !stats.TotalPurchased.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("expected total purchased 120, got %s", stats.TotalPurchased)
	}
	if !stats.TotalUsed.Equal(decimal.RequireFromString("14")) {
		t.Fatalf("expected total used 14, got %s", stats.TotalUsed)
	}
	if !stats.UsageLast30Days.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("expected 30-day usage 4, got %s", stats.UsageLast30Days)
	}
	if stats.TransactionCount != 4 {
		t.Fatalf("expected 4 transactions, got %d", stats.TransactionCount)
	}
}

func TestLedgerReconciliation(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "0")
	pkgID := insertPackage(t, db, "Growth", "500", "50", true)
	ctx := context.Background()

	mustOK(t, svc.Purchase(ctx, brandID, pkgID, "pi_recon"))
	mustOK(t, svc.Deduct(ctx, creditdomain.DeductRequest{BrandID: brandID, Amount: decimal.RequireFromString("2")}))
	mustOK(t, svc.Deduct(ctx, creditdomain.DeductRequest{BrandID: brandID, Amount: decimal.RequireFromString("0.5")}))
	mustOK(t, svc.Add(ctx, creditdomain.AddRequest{
		BrandID: brandID,
		Amount:  decimal.RequireFromString("1.25"),
		Type:    creditdomain.TransactionTypeRefund,
	}))
	// A rejected debit must not disturb the ledger sum.
	if res := svc.Deduct(ctx, creditdomain.DeductRequest{BrandID: brandID, Amount: decimal.RequireFromString("100000")}); res.OK {
		t.Fatal("expected rejection")
	}

	brand := loadBrand(t, db, brandID)
	rows := loadTransactions(t, db, brandID)

	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.Amount)
	}
	if !brand.CreditsBalance.Equal(sum) {
		t.Fatalf("balance %s does not equal ledger sum %s", brand.CreditsBalance, sum)
	}
	if !brand.CreditsBalance.Equal(decimal.RequireFromString("548.75")) {
		t.Fatalf("expected balance 548.75, got %s", brand.CreditsBalance)
	}
}

func TestHasSufficientCredits(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())
	brandID := insertBrand(t, db, "5")
	ctx := context.Background()

	if !svc.HasSufficientCredits(ctx, brandID, decimal.RequireFromString("5")) {
		t.Fatal("expected sufficiency at exact balance")
	}
	if svc.HasSufficientCredits(ctx, brandID, decimal.RequireFromString("5.01")) {
		t.Fatal("expected insufficiency above balance")
	}
	if svc.HasSufficientCredits(ctx, snowflake.ID(777), decimal.RequireFromString("1")) {
		t.Fatal("expected false for missing brand")
	}
	if svc.HasSufficientCredits(ctx, brandID, decimal.Zero) {
		t.Fatal("expected false for non-positive amount")
	}
}

func TestAvailablePackagesOrderedAndActiveOnly(t *testing.T) {
	db := setupCreditTestDB(t)
	svc := newTestCreditService(t, db, time.Now().UTC())

	insertPackageWithOrder(t, db, "Scale", "1200", "200", true, 2)
	insertPackageWithOrder(t, db, "Starter", "100", "0", true, 0)
	insertPackageWithOrder(t, db, "Retired", "50", "0", false, 1)
	insertPackageWithOrder(t, db, "Growth", "500", "50", true, 1)

	packages := svc.AvailablePackages(context.Background())
	if len(packages) != 3 {
		t.Fatalf("expected 3 active packages, got %d", len(packages))
	}
	got := []string{packages[0].Name, packages[1].Name, packages[2].Name}
	want := []string{"Starter", "Growth", "Scale"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("wrong catalog order: %v", got)
	}
}

func mustOK(t *testing.T, result creditdomain.Result) {
	t.Helper()
	if !result.OK {
		t.Fatalf("operation failed: %q", result.Message)
	}
}

func newTestCreditService(t *testing.T, db *gorm.DB, at time.Time) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:         db,
		log:        zap.NewNop(),
		genID:      node,
		clock:      clock.Fixed{At: at},
		priceCache: cache.NewTTLCache[string, decimal.Decimal](),
		catalog:    cache.NewTTLCache[string, []creditdomain.CreditPackage](),
	}
}

func setupCreditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&branddomain.Brand{},
		&creditdomain.CreditPackage{},
		&creditdomain.CreditTransaction{},
		&creditdomain.ServicePrice{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture nodes are shared across calls: a fresh node per call restarts the
// sequence at zero, so two IDs generated in the same millisecond collide.
var (
	brandFixtureNode   = mustFixtureNode(2)
	packageFixtureNode = mustFixtureNode(3)
	priceFixtureNode   = mustFixtureNode(4)
)

func mustFixtureNode(n int64) *snowflake.Node {
	node, err := snowflake.NewNode(n)
	if err != nil {
		panic(err)
	}
	return node
}

func insertBrand(t *testing.T, db *gorm.DB, balance string) snowflake.ID {
	t.Helper()
	node := brandFixtureNode
	brand := branddomain.Brand{
		ID:             node.Generate(),
		OwnerID:        node.Generate(),
		Name:           "Test Brand",
		CreditsBalance: decimal.RequireFromString(balance),
	}
	if err := db.Create(&brand).Error; err != nil {
		t.Fatalf("insert brand: %v", err)
	}
	return brand.ID
}

func insertPackage(t *testing.T, db *gorm.DB, name, credits, bonus string, active bool) snowflake.ID {
	t.Helper()
	return insertPackageWithOrder(t, db, name, credits, bonus, active, 0)
}

func insertPackageWithOrder(t *testing.T, db *gorm.DB, name, credits, bonus string, active bool, order int) snowflake.ID {
	t.Helper()
	pkg := creditdomain.CreditPackage{
		ID:            packageFixtureNode.Generate(),
		Name:          name,
		CreditsAmount: decimal.RequireFromString(credits),
		BonusCredits:  decimal.RequireFromString(bonus),
		PriceUSD:      decimal.RequireFromString("10"),
		IsActive:      active,
		SortOrder:     order,
	}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("insert package: %v", err)
	}
	// gorm substitutes the default:true tag for a zero-valued bool on Create,
	// so an inactive row has to be downgraded explicitly after the insert.
	if !active {
		if err := db.Model(&pkg).UpdateColumn("is_active", false).Error; err != nil {
			t.Fatalf("deactivate package: %v", err)
		}
	}
	return pkg.ID
}

func insertServicePrice(t *testing.T, db *gorm.DB, name, cost string, active bool) {
	t.Helper()
	price := creditdomain.ServicePrice{
		ID:          priceFixtureNode.Generate(),
		ServiceName: name,
		CostPerUse:  decimal.RequireFromString(cost),
		IsActive:    active,
	}
	if err := db.Create(&price).Error; err != nil {
		t.Fatalf("insert service price: %v", err)
	}
	// See insertPackageWithOrder: Create cannot persist IsActive=false.
	if !active {
		if err := db.Model(&price).UpdateColumn("is_active", false).Error; err != nil {
			t.Fatalf("deactivate service price: %v", err)
		}
	}
}

func loadBrand(t *testing.T, db *gorm.DB, brandID snowflake.ID) branddomain.Brand {
	t.Helper()
	var brand branddomain.Brand
	if err := db.First(&brand, "id = ?", brandID).Error; err != nil {
		t.Fatalf("load brand %d: %v", brandID, err)
	}
	return brand
}

func loadTransactions(t *testing.T, db *gorm.DB, brandID snowflake.ID) []creditdomain.CreditTransaction {
	t.Helper()
	var rows []creditdomain.CreditTransaction
	err := db.Where("brand_id = ?", brandID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		t.Fatalf("load transactions for brand %d: %v", brandID, err)
	}
	return rows
}
