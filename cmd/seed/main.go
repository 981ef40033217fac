// Package main seeds a tenant with the default P&L configuration data:
// the canonical system expense categories, and optionally a stored copy
// of the default variable-cost and COGS configs.
package main

import (
	"context"
	"fmt"
	"os"

	"marginiq/internal/config"
	"marginiq/internal/core/tenant"
	"marginiq/internal/domain/plconfig"
	"marginiq/internal/infrastructure/storage/postgres"
	"marginiq/internal/infrastructure/storage/postgres/plconfig_repo"
	"marginiq/pkg/logger"
)

const seedActor = "seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		log.Fatal("TENANT_ID environment variable is required")
	}

	ctx := tenant.With(context.Background(), &tenant.Tenant{
		ID:   tenantID,
		Slug: os.Getenv("TENANT_SLUG"),
	})

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Infow("connected to database", "tenant_id", tenantID)

	txm := postgres.NewTxManager(pool)
	auditRepo, err := plconfig_repo.NewAuditRepo(txm)
	if err != nil {
		log.Fatalw("failed to create audit repository", "error", err)
	}

	svc := plconfig.NewService(
		plconfig_repo.NewConfigRepo(txm),
		plconfig_repo.NewProductCOGSRepo(txm),
		plconfig_repo.NewExpenseCategoryRepo(txm),
		auditRepo,
		nil,
		txm,
	)

	inserted, err := svc.SeedDefaultExpenseCategories(ctx, seedActor)
	if err != nil {
		log.Fatalw("failed to seed expense categories", "error", err)
	}
	log.Infow("expense categories seeded", "inserted", inserted)

	if os.Getenv("SEED_DEFAULT_CONFIGS") == "true" {
		if err := seedDefaultConfigs(ctx, svc, log); err != nil {
			log.Fatalw("failed to seed default configs", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDefaultConfigs materializes the built-in defaults as stored rows.
// An empty update merged against defaults stores the defaults verbatim,
// so tenants start from an explicit, versioned baseline.
func seedDefaultConfigs(ctx context.Context, svc *plconfig.Service, log *logger.Logger) error {
	opts := plconfig.UpsertOptions{Strategy: plconfig.MergeAgainstDefaults}

	if _, err := svc.UpsertVariableCostConfig(ctx, &plconfig.VariableCostConfigUpdate{}, seedActor, opts, nil); err != nil {
		return fmt.Errorf("seed variable cost config: %w", err)
	}
	log.Info("variable cost config seeded")

	if _, err := svc.UpsertCOGSConfig(ctx, &plconfig.COGSConfigUpdate{}, seedActor, opts, nil); err != nil {
		return fmt.Errorf("seed COGS config: %w", err)
	}
	log.Info("COGS config seeded")

	if _, err := svc.UpsertFormulaConfig(ctx, &plconfig.PLFormulaConfigUpdate{}, seedActor, opts, nil); err != nil {
		return fmt.Errorf("seed formula config: %w", err)
	}
	log.Info("formula config seeded")

	return nil
}
