package plconfig

import (
	"context"
	"time"
)

// ConfigRepository persists the per-tenant singleton configs. Getters
// return (nil, nil) when no row exists: absence is a valid state resolved
// via defaults by the caller, never an error.
//
// Save* performs an atomic insert-or-update on the tenant row, bumping the
// version counter unconditionally. A non-nil expectedVersion turns the
// write into a compare-and-swap that fails with CONCURRENT_MODIFICATION
// on mismatch.
type ConfigRepository interface {
	GetVariableCostConfig(ctx context.Context) (*VariableCostConfig, error)
	SaveVariableCostConfig(ctx context.Context, cfg *VariableCostConfig, expectedVersion *int) (*VariableCostConfig, error)
	ResetVariableCostConfig(ctx context.Context) (bool, error)

	GetCOGSConfig(ctx context.Context) (*COGSConfig, error)
	SaveCOGSConfig(ctx context.Context, cfg *COGSConfig, expectedVersion *int) (*COGSConfig, error)
	ResetCOGSConfig(ctx context.Context) (bool, error)

	GetFormulaConfig(ctx context.Context) (*PLFormulaConfig, error)
	SaveFormulaConfig(ctx context.Context, cfg *PLFormulaConfig, expectedVersion *int) (*PLFormulaConfig, error)
	ResetFormulaConfig(ctx context.Context) (bool, error)

	// MarkShopifySynced stamps shopifyLastSyncAt; called by the upstream
	// sync job after it finishes writing product costs.
	MarkShopifySynced(ctx context.Context, at time.Time) error

	// MarkCOGSImported stamps internal-mode import bookkeeping.
	MarkCOGSImported(ctx context.Context, source string, at time.Time) error
}

// ProductCOGSRepository persists per-(tenant, product, variant) cost rows.
// Upserts are last-write-wins on the (tenant, product, COALESCE(variant,''))
// key; there is no version check.
type ProductCOGSRepository interface {
	Upsert(ctx context.Context, entry *ProductCOGS) (*ProductCOGS, error)
	Get(ctx context.Context, productID string, variantID *string) (*ProductCOGS, error)
	List(ctx context.Context, filter ProductCOGSFilter) (Page[ProductCOGS], error)
	Delete(ctx context.Context, productID string, variantID *string) (bool, error)
}

// ExpenseCategoryRepository persists the tenant expense taxonomy.
type ExpenseCategoryRepository interface {
	List(ctx context.Context) ([]ExpenseCategory, error)
	Get(ctx context.Context, categoryID string) (*ExpenseCategory, error)
	Create(ctx context.Context, category *ExpenseCategory) error
	Update(ctx context.Context, categoryID string, patch ExpenseCategoryUpdate) (*ExpenseCategory, error)

	// Delete removes a custom category. System categories are left
	// intact: Delete reports false without touching the row.
	Delete(ctx context.Context, categoryID string) (bool, error)

	// Reorder rewrites display order to match the given id sequence.
	Reorder(ctx context.Context, orderedIDs []string) error

	// SeedDefaults idempotently installs the canonical system categories,
	// returning the number of rows actually inserted.
	SeedDefaults(ctx context.Context, categories []ExpenseCategory) (int, error)
}

// AuditRepository is the append-only configuration-change log. Record
// never mutates prior entries; Query filters by type, actor, and an
// inclusive date range with pagination.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) (Page[AuditEntry], error)
}
