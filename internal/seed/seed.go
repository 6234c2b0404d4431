package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge/internal/auth/password"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	userdomain "github.com/brandforge/brandforge/internal/user/domain"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@brandforge.dev"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "BrandForge Admin"
)

type packageRow struct {
	name    string
	credits string
	bonus   string
	price   string
}

var defaultPackages = []packageRow{
	{name: "Starter", credits: "100", bonus: "0", price: "10"},
	{name: "Growth", credits: "500", bonus: "50", price: "45"},
	{name: "Scale", credits: "1200", bonus: "200", price: "100"},
}

var defaultPrices = map[string]string{
	"image_generation":   "2.00",
	"instagram_post":     "1.00",
	"caption_generation": "1.00",
	"tweet_generation":   "0.50",
	"blog_generation":    "1.50",
	"chat_assistant":     "0.25",
}

// EnsureCatalog seeds the credit package catalog and the per-service price
// table for startup bootstrap. Existing rows are left untouched.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePackagesTx(ctx, tx, node); err != nil {
			return err
		}
		return ensurePricesTx(ctx, tx, node)
	})
}

// EnsureCatalogAndAdmin seeds the catalog plus a default admin account for
// self-hosted installs.
func EnsureCatalogAndAdmin(db *gorm.DB) error {
	if err := EnsureCatalog(db); err != nil {
		return err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userdomain.User
		err := tx.WithContext(ctx).
			Where("username = ?", defaultAdminUsername).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = userdomain.User{
			ID:           node.Generate(),
			Username:     defaultAdminUsername,
			Email:        strings.ToLower(defaultAdminEmail),
			DisplayName:  defaultAdminDisplay,
			PasswordHash: hashed,
			IsAdmin:      true,
			JoinedAt:     now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensurePackagesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for i, row := range defaultPackages {
		var existing creditdomain.CreditPackage
		err := tx.WithContext(ctx).Where("name = ?", row.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		pkg := creditdomain.CreditPackage{
			ID:            node.Generate(),
			Name:          row.name,
			CreditsAmount: decimal.RequireFromString(row.credits),
			BonusCredits:  decimal.RequireFromString(row.bonus),
			PriceUSD:      decimal.RequireFromString(row.price),
			IsActive:      true,
			SortOrder:     i,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&pkg).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensurePricesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for name, cost := range defaultPrices {
		var existing creditdomain.ServicePrice
		err := tx.WithContext(ctx).Where("service_name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		price := creditdomain.ServicePrice{
			ID:          node.Generate(),
			ServiceName: name,
			CostPerUse:  decimal.RequireFromString(cost),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&price).Error; err != nil {
			return err
		}
	}
	return nil
}
