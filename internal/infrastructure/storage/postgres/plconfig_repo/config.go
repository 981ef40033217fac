// Package plconfig_repo provides PostgreSQL implementations for the P&L
// configuration repositories. Every query is scoped by the tenant bound
// to the request context; there is no cross-tenant access path.
package plconfig_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/tenant"
	"marginiq/internal/domain/plconfig"
	"marginiq/internal/infrastructure/storage/postgres"
)

const (
	variableCostTable = "pl_variable_cost_configs"
	cogsConfigTable   = "pl_cogs_configs"
	formulaTable      = "pl_formula_configs"
)

// Compile-time check.
var _ plconfig.ConfigRepository = (*ConfigRepo)(nil)

// ConfigRepo implements plconfig.ConfigRepository over the three
// one-row-per-tenant config tables. Nested sections persist as JSONB.
type ConfigRepo struct {
	txm *postgres.TxManager
}

// NewConfigRepo creates a new config repository.
func NewConfigRepo(txm *postgres.TxManager) *ConfigRepo {
	return &ConfigRepo{txm: txm}
}

func (r *ConfigRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// --- Variable cost config ---

// GetVariableCostConfig returns the tenant row, or nil when none exists.
func (r *ConfigRepo) GetVariableCostConfig(ctx context.Context) (*plconfig.VariableCostConfig, error) {
	q := r.builder().
		Select("tenant_id", "payment_processing", "fulfillment", "shipping",
			"other_variable_costs", "version", "updated_at", "updated_by").
		From(variableCostTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg plconfig.VariableCostConfig
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variable cost config: %w", err)
	}

	return &cfg, nil
}

// SaveVariableCostConfig upserts the tenant row. With expectedVersion nil
// the write is insert-or-update with an unconditional version bump; with
// expectedVersion set it is a compare-and-swap against the stored version.
func (r *ConfigRepo) SaveVariableCostConfig(ctx context.Context, cfg *plconfig.VariableCostConfig, expectedVersion *int) (*plconfig.VariableCostConfig, error) {
	now := time.Now().UTC()
	cfg.TenantID = tenant.MustGetID(ctx)
	cfg.UpdatedAt = now

	sections := map[string]any{
		"payment_processing":   cfg.PaymentProcessing,
		"fulfillment":          cfg.Fulfillment,
		"shipping":             cfg.Shipping,
		"other_variable_costs": cfg.OtherVariableCosts,
	}

	version, err := r.saveConfigRow(ctx, variableCostTable, cfg.TenantID, sections, now, cfg.UpdatedBy, expectedVersion)
	if err != nil {
		return nil, err
	}

	cfg.Version = version
	return cfg, nil
}

// ResetVariableCostConfig deletes the tenant row, reverting future reads
// to defaults. Reports false when nothing was stored.
func (r *ConfigRepo) ResetVariableCostConfig(ctx context.Context) (bool, error) {
	return r.deleteConfigRow(ctx, variableCostTable)
}

// --- COGS config ---

// GetCOGSConfig returns the tenant row, or nil when none exists.
func (r *ConfigRepo) GetCOGSConfig(ctx context.Context) (*plconfig.COGSConfig, error) {
	q := r.builder().
		Select("tenant_id", "source", "shopify", "internal", "fallback",
			"version", "updated_at", "updated_by").
		From(cogsConfigTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg plconfig.COGSConfig
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get COGS config: %w", err)
	}

	return &cfg, nil
}

// SaveCOGSConfig upserts the tenant row (see SaveVariableCostConfig).
func (r *ConfigRepo) SaveCOGSConfig(ctx context.Context, cfg *plconfig.COGSConfig, expectedVersion *int) (*plconfig.COGSConfig, error) {
	now := time.Now().UTC()
	cfg.TenantID = tenant.MustGetID(ctx)
	cfg.UpdatedAt = now

	sections := map[string]any{
		"source":   string(cfg.Source),
		"shopify":  cfg.Shopify,
		"internal": cfg.Internal,
		"fallback": cfg.Fallback,
	}

	version, err := r.saveConfigRow(ctx, cogsConfigTable, cfg.TenantID, sections, now, cfg.UpdatedBy, expectedVersion)
	if err != nil {
		return nil, err
	}

	cfg.Version = version
	return cfg, nil
}

// ResetCOGSConfig deletes the tenant row.
func (r *ConfigRepo) ResetCOGSConfig(ctx context.Context) (bool, error) {
	return r.deleteConfigRow(ctx, cogsConfigTable)
}

// MarkShopifySynced stamps shopifyLastSyncAt inside the shopify section.
// A tenant without a stored row has nothing to stamp; that is not an error.
func (r *ConfigRepo) MarkShopifySynced(ctx context.Context, at time.Time) error {
	q := r.builder().
		Update(cogsConfigTable).
		Set("shopify", squirrel.Expr(
			"jsonb_set(COALESCE(shopify, '{}'::jsonb), '{lastSyncAt}', to_jsonb(?::timestamptz), true)", at.UTC())).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark shopify synced: %w", err)
	}
	return nil
}

// MarkCOGSImported stamps internal-mode import bookkeeping.
func (r *ConfigRepo) MarkCOGSImported(ctx context.Context, source string, at time.Time) error {
	q := r.builder().
		Update(cogsConfigTable).
		Set("internal", squirrel.Expr(
			"jsonb_set(jsonb_set(COALESCE(internal, '{}'::jsonb), '{lastImportAt}', to_jsonb(?::timestamptz), true), '{importSource}', to_jsonb(?::text), true)",
			at.UTC(), source)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark COGS imported: %w", err)
	}
	return nil
}

// --- P&L formula config ---

// GetFormulaConfig returns the tenant row, or nil when none exists.
func (r *ConfigRepo) GetFormulaConfig(ctx context.Context) (*plconfig.PLFormulaConfig, error) {
	q := r.builder().
		Select("tenant_id", "revenue", "cogs_display", "variable_costs",
			"margin", "marketing", "operating_expenses",
			"version", "updated_at", "updated_by").
		From(formulaTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg plconfig.PLFormulaConfig
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get formula config: %w", err)
	}

	return &cfg, nil
}

// SaveFormulaConfig upserts the tenant row (see SaveVariableCostConfig).
func (r *ConfigRepo) SaveFormulaConfig(ctx context.Context, cfg *plconfig.PLFormulaConfig, expectedVersion *int) (*plconfig.PLFormulaConfig, error) {
	now := time.Now().UTC()
	cfg.TenantID = tenant.MustGetID(ctx)
	cfg.UpdatedAt = now

	sections := map[string]any{
		"revenue":            cfg.Revenue,
		"cogs_display":       cfg.COGSDisplay,
		"variable_costs":     cfg.VariableCosts,
		"margin":             cfg.Margin,
		"marketing":          cfg.Marketing,
		"operating_expenses": cfg.OperatingExpenses,
	}

	version, err := r.saveConfigRow(ctx, formulaTable, cfg.TenantID, sections, now, cfg.UpdatedBy, expectedVersion)
	if err != nil {
		return nil, err
	}

	cfg.Version = version
	return cfg, nil
}

// ResetFormulaConfig deletes the tenant row.
func (r *ConfigRepo) ResetFormulaConfig(ctx context.Context) (bool, error) {
	return r.deleteConfigRow(ctx, formulaTable)
}

// --- Shared row helpers ---

// saveConfigRow writes a one-row-per-tenant config table and returns the
// stored version.
//
// Without a version check this is a single atomic INSERT ... ON CONFLICT
// DO UPDATE: concurrent writers serialize through the storage engine and
// the last write wins, with version incremented on every successful write.
// With expectedVersion the write narrows to an UPDATE guarded by the
// version column; zero rows affected means another writer got there first.
func (r *ConfigRepo) saveConfigRow(ctx context.Context, table, tenantID string, sections map[string]any, now time.Time, updatedBy string, expectedVersion *int) (int, error) {
	querier := r.txm.GetQuerier(ctx)

	if expectedVersion != nil {
		q := r.builder().
			Update(table).
			SetMap(sections).
			Set("version", squirrel.Expr("version + 1")).
			Set("updated_at", now).
			Set("updated_by", updatedBy).
			Where(squirrel.Eq{"tenant_id": tenantID}).
			Where(squirrel.Eq{"version": *expectedVersion}).
			Suffix("RETURNING version")

		sql, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build update: %w", err)
		}

		var version int
		if err := querier.QueryRow(ctx, sql, args...).Scan(&version); err != nil {
			if pgxscan.NotFound(err) {
				return 0, apperror.NewConcurrentModification(table, tenantID)
			}
			return 0, fmt.Errorf("update %s: %w", table, err)
		}
		return version, nil
	}

	cols := []string{"tenant_id"}
	vals := []any{tenantID}
	updateSet := ""
	for col, val := range sections {
		cols = append(cols, col)
		vals = append(vals, val)
	}
	cols = append(cols, "version", "updated_at", "updated_by")
	vals = append(vals, 1, now, updatedBy)

	for _, col := range cols[1:] {
		if col == "version" {
			continue
		}
		if updateSet != "" {
			updateSet += ", "
		}
		updateSet += fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}

	q := r.builder().
		Insert(table).
		Columns(cols...).
		Values(vals...).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (tenant_id) DO UPDATE SET %s, version = %s.version + 1 RETURNING version",
			updateSet, table))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert: %w", err)
	}

	var version int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", table, err)
	}
	return version, nil
}

func (r *ConfigRepo) deleteConfigRow(ctx context.Context, table string) (bool, error) {
	q := r.builder().
		Delete(table).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}

	return result.RowsAffected() > 0, nil
}
