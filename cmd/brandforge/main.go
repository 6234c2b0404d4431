package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge/internal/account"
	"github.com/brandforge/brandforge/internal/clock"
	"github.com/brandforge/brandforge/internal/config"
	"github.com/brandforge/brandforge/internal/credit"
	"github.com/brandforge/brandforge/internal/events"
	"github.com/brandforge/brandforge/internal/migration"
	"github.com/brandforge/brandforge/internal/notification/email"
	"github.com/brandforge/brandforge/internal/observability/logger"
	"github.com/brandforge/brandforge/internal/observability/tracing"
	"github.com/brandforge/brandforge/internal/payment"
	"github.com/brandforge/brandforge/internal/seed"
	"github.com/brandforge/brandforge/internal/server"
	"github.com/brandforge/brandforge/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		tracing.Module,
		fx.Provide(events.NewOutbox),
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.IsProduction() {
				return seed.EnsureCatalog(conn)
			}
			return seed.EnsureCatalogAndAdmin(conn)
		}),
		email.Module,
		credit.Module,
		account.Module,
		payment.Module,
		server.Module,
	)
	app.Run()
}
