package plconfig

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/tenant"
)

// --- In-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeConfigRepo struct {
	variableCost *VariableCostConfig
	cogs         *COGSConfig
	formula      *PLFormulaConfig

	shopifySyncedAt *time.Time
	importSource    string
}

func (r *fakeConfigRepo) GetVariableCostConfig(ctx context.Context) (*VariableCostConfig, error) {
	return r.variableCost, nil
}

func (r *fakeConfigRepo) SaveVariableCostConfig(ctx context.Context, cfg *VariableCostConfig, expectedVersion *int) (*VariableCostConfig, error) {
	version, err := nextVersion(versionOf(r.variableCost), expectedVersion, r.variableCost == nil)
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	cfg.UpdatedAt = time.Now().UTC()
	stored := *cfg
	r.variableCost = &stored
	return cfg, nil
}

func (r *fakeConfigRepo) ResetVariableCostConfig(ctx context.Context) (bool, error) {
	existed := r.variableCost != nil
	r.variableCost = nil
	return existed, nil
}

func (r *fakeConfigRepo) GetCOGSConfig(ctx context.Context) (*COGSConfig, error) {
	return r.cogs, nil
}

func (r *fakeConfigRepo) SaveCOGSConfig(ctx context.Context, cfg *COGSConfig, expectedVersion *int) (*COGSConfig, error) {
	version, err := nextVersion(versionOf(r.cogs), expectedVersion, r.cogs == nil)
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	cfg.UpdatedAt = time.Now().UTC()
	stored := *cfg
	r.cogs = &stored
	return cfg, nil
}

func (r *fakeConfigRepo) ResetCOGSConfig(ctx context.Context) (bool, error) {
	existed := r.cogs != nil
	r.cogs = nil
	return existed, nil
}

func (r *fakeConfigRepo) GetFormulaConfig(ctx context.Context) (*PLFormulaConfig, error) {
	return r.formula, nil
}

func (r *fakeConfigRepo) SaveFormulaConfig(ctx context.Context, cfg *PLFormulaConfig, expectedVersion *int) (*PLFormulaConfig, error) {
	version, err := nextVersion(versionOf(r.formula), expectedVersion, r.formula == nil)
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	cfg.UpdatedAt = time.Now().UTC()
	stored := *cfg
	r.formula = &stored
	return cfg, nil
}

func (r *fakeConfigRepo) ResetFormulaConfig(ctx context.Context) (bool, error) {
	existed := r.formula != nil
	r.formula = nil
	return existed, nil
}

func (r *fakeConfigRepo) MarkShopifySynced(ctx context.Context, at time.Time) error {
	r.shopifySyncedAt = &at
	return nil
}

func (r *fakeConfigRepo) MarkCOGSImported(ctx context.Context, source string, at time.Time) error {
	r.importSource = source
	return nil
}

func versionOf(v any) int {
	switch c := v.(type) {
	case *VariableCostConfig:
		if c != nil {
			return c.Version
		}
	case *COGSConfig:
		if c != nil {
			return c.Version
		}
	case *PLFormulaConfig:
		if c != nil {
			return c.Version
		}
	}
	return 0
}

func nextVersion(current int, expected *int, missing bool) (int, error) {
	if expected != nil && (missing || current != *expected) {
		return 0, apperror.NewConcurrentModification("config", "test-tenant")
	}
	return current + 1, nil
}

type fakeProductCOGSRepo struct {
	rows map[string]ProductCOGS
}

func newFakeProductCOGSRepo() *fakeProductCOGSRepo {
	return &fakeProductCOGSRepo{rows: map[string]ProductCOGS{}}
}

func cogsKey(productID string, variantID *string) string {
	v := ""
	if variantID != nil {
		v = *variantID
	}
	return productID + "\x00" + v
}

func (r *fakeProductCOGSRepo) Upsert(ctx context.Context, entry *ProductCOGS) (*ProductCOGS, error) {
	entry.UpdatedAt = time.Now().UTC()
	r.rows[cogsKey(entry.ProductID, entry.VariantID)] = *entry
	return entry, nil
}

func (r *fakeProductCOGSRepo) Get(ctx context.Context, productID string, variantID *string) (*ProductCOGS, error) {
	row, ok := r.rows[cogsKey(productID, variantID)]
	if !ok {
		return nil, apperror.NewNotFound("product COGS", productID)
	}
	return &row, nil
}

func (r *fakeProductCOGSRepo) List(ctx context.Context, filter ProductCOGSFilter) (Page[ProductCOGS], error) {
	var items []ProductCOGS
	for _, row := range r.rows {
		if filter.ProductID != "" && row.ProductID != filter.ProductID {
			continue
		}
		if filter.Search != "" && !strings.Contains(row.ProductID, filter.Search) {
			continue
		}
		items = append(items, row)
	}
	return Page[ProductCOGS]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (r *fakeProductCOGSRepo) Delete(ctx context.Context, productID string, variantID *string) (bool, error) {
	key := cogsKey(productID, variantID)
	_, ok := r.rows[key]
	delete(r.rows, key)
	return ok, nil
}

type fakeCategoryRepo struct {
	categories map[string]ExpenseCategory
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]ExpenseCategory{}}
}

func (r *fakeCategoryRepo) List(ctx context.Context) ([]ExpenseCategory, error) {
	var out []ExpenseCategory
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Get(ctx context.Context, categoryID string) (*ExpenseCategory, error) {
	c, ok := r.categories[categoryID]
	if !ok {
		return nil, apperror.NewNotFound("expense category", categoryID)
	}
	return &c, nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *ExpenseCategory) error {
	if _, exists := r.categories[category.CategoryID]; exists {
		return apperror.NewConflict("expense category already exists")
	}
	r.categories[category.CategoryID] = *category
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, categoryID string, patch ExpenseCategoryUpdate) (*ExpenseCategory, error) {
	c, ok := r.categories[categoryID]
	if !ok {
		return nil, apperror.NewNotFound("expense category", categoryID)
	}
	c = patch.ApplyTo(c)
	c.UpdatedAt = time.Now().UTC()
	r.categories[categoryID] = c
	return &c, nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, categoryID string) (bool, error) {
	c, ok := r.categories[categoryID]
	if !ok || c.IsSystem {
		return false, nil
	}
	delete(r.categories, categoryID)
	return true, nil
}

func (r *fakeCategoryRepo) Reorder(ctx context.Context, orderedIDs []string) error {
	for i, categoryID := range orderedIDs {
		if c, ok := r.categories[categoryID]; ok {
			c.DisplayOrder = i + 1
			r.categories[categoryID] = c
		}
	}
	return nil
}

func (r *fakeCategoryRepo) SeedDefaults(ctx context.Context, categories []ExpenseCategory) (int, error) {
	inserted := 0
	for _, c := range categories {
		if _, exists := r.categories[c.CategoryID]; exists {
			continue
		}
		r.categories[c.CategoryID] = c
		inserted++
	}
	return inserted, nil
}

type fakeAuditRepo struct {
	entries []AuditEntry
}

func (r *fakeAuditRepo) Record(ctx context.Context, entry *AuditEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) Query(ctx context.Context, filter AuditFilter) (Page[AuditEntry], error) {
	var items []AuditEntry
	for _, e := range r.entries {
		if filter.ConfigType != nil && e.ConfigType != *filter.ConfigType {
			continue
		}
		if filter.ChangedBy != nil && e.ChangedBy != *filter.ChangedBy {
			continue
		}
		items = append(items, e)
	}
	return Page[AuditEntry]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakeAuditRepo) last(t *testing.T) AuditEntry {
	t.Helper()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

type serviceFixture struct {
	svc        *Service
	configs    *fakeConfigRepo
	products   *fakeProductCOGSRepo
	categories *fakeCategoryRepo
	audit      *fakeAuditRepo
	ctx        context.Context
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	configs := &fakeConfigRepo{}
	products := newFakeProductCOGSRepo()
	categories := newFakeCategoryRepo()
	audit := &fakeAuditRepo{}

	return &serviceFixture{
		svc:        NewService(configs, products, categories, audit, nil, fakeTxManager{}),
		configs:    configs,
		products:   products,
		categories: categories,
		audit:      audit,
		ctx:        tenant.With(context.Background(), &tenant.Tenant{ID: "tenant-1", Slug: "acme"}),
	}
}

// --- Config upserts ---

func TestUpsertVariableCostConfig_EmptyUpdateStoresDefaults(t *testing.T) {
	f := newServiceFixture(t)

	saved, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	defaults := StandardDefaults{}.VariableCostDefaults()
	assert.Equal(t, defaults.PaymentProcessing, saved.PaymentProcessing)
	assert.Equal(t, defaults.Fulfillment, saved.Fulfillment)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, "tenant-1", saved.TenantID)
	assert.Equal(t, "user-1", saved.UpdatedBy)

	entry := f.audit.last(t)
	assert.Equal(t, AuditCreate, entry.Action)
	assert.Equal(t, ConfigTypeVariableCost, entry.ConfigType)
	assert.Nil(t, entry.OldValue)
	assert.NotNil(t, entry.NewValue)
}

func TestUpsertVariableCostConfig_MergeStrategies(t *testing.T) {
	f := newServiceFixture(t)

	// First write customizes fulfillment.
	_, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		Fulfillment: &FulfillmentConfig{
			CostModel:        CostModelPerOrder,
			PickPackFeeCents: 275,
			WeightTiers:      []WeightTier{},
		},
	}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	// A defaults-merged update touching only shipping resets fulfillment.
	saved, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		Shipping: &ShippingConfig{TrackingMethod: TrackingFlatRate, FlatRateCents: ptrI64(499)},
	}, "user-1", UpsertOptions{Strategy: MergeAgainstDefaults}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), saved.Fulfillment.PickPackFeeCents)
	assert.Equal(t, 2, saved.Version)

	// Restore, then verify current-merged updates preserve other sections.
	_, err = f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		Fulfillment: &FulfillmentConfig{
			CostModel:        CostModelPerOrder,
			PickPackFeeCents: 275,
			WeightTiers:      []WeightTier{},
		},
	}, "user-1", UpsertOptions{Strategy: MergeAgainstCurrent}, nil)
	require.NoError(t, err)

	saved, err = f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		Shipping: &ShippingConfig{TrackingMethod: TrackingActualExpense},
	}, "user-1", UpsertOptions{Strategy: MergeAgainstCurrent}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(275), saved.Fulfillment.PickPackFeeCents)

	entry := f.audit.last(t)
	assert.Equal(t, AuditUpdate, entry.Action)
	require.NotNil(t, entry.FieldChanged)
	assert.Equal(t, "shipping", *entry.FieldChanged)
}

func TestUpsertVariableCostConfig_RejectsInvalidUpdate(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		PaymentProcessing: &PaymentProcessingConfig{PercentageRate: 2.9},
	}, "user-1", UpsertOptions{}, nil)

	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.audit.entries)
}

func TestUpsertVariableCostConfig_ExpectedVersion(t *testing.T) {
	f := newServiceFixture(t)

	saved, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, saved.Version)

	stale := 7
	_, err = f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1",
		UpsertOptions{ExpectedVersion: &stale}, nil)
	assert.True(t, apperror.IsConcurrentModification(err))

	match := 1
	saved, err = f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1",
		UpsertOptions{ExpectedVersion: &match}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
}

func TestResetVariableCostConfig(t *testing.T) {
	f := newServiceFixture(t)

	// Nothing stored: reset is a no-op and no audit entry appears.
	deleted, err := f.svc.ResetVariableCostConfig(f.ctx, "user-1", nil)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, f.audit.entries)

	_, err = f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	deleted, err = f.svc.ResetVariableCostConfig(f.ctx, "user-1", nil)
	require.NoError(t, err)
	assert.True(t, deleted)

	entry := f.audit.last(t)
	assert.Equal(t, AuditReset, entry.Action)
	assert.NotNil(t, entry.OldValue)
	assert.Nil(t, entry.NewValue)

	cfg, err := f.svc.GetVariableCostConfig(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestUpsertCOGSConfig_SwitchToInternal(t *testing.T) {
	f := newServiceFixture(t)

	source := COGSSourceInternal
	saved, err := f.svc.UpsertCOGSConfig(f.ctx, &COGSConfigUpdate{Source: &source}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, COGSSourceInternal, saved.Source)
	// Omitted sections resolved from defaults.
	assert.Equal(t, FallbackZero, saved.Fallback.Behavior)

	entry := f.audit.last(t)
	assert.Equal(t, ConfigTypeCOGS, entry.ConfigType)
	require.NotNil(t, entry.FieldChanged)
	assert.Equal(t, "source", *entry.FieldChanged)
}

func TestSyncBookkeeping(t *testing.T) {
	f := newServiceFixture(t)

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.MarkShopifySynced(f.ctx, at))
	require.NotNil(t, f.configs.shopifySyncedAt)
	assert.Equal(t, at, *f.configs.shopifySyncedAt)

	require.NoError(t, f.svc.MarkCOGSImported(f.ctx, "netsuite", at))
	assert.Equal(t, "netsuite", f.configs.importSource)
}

// --- Preview ---

func TestPreviewFormula_UsesStoredConfig(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{
		Shipping: &ShippingConfig{TrackingMethod: TrackingFlatRate, FlatRateCents: ptrI64(600)},
	}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	result, err := f.svc.PreviewFormula(f.ctx, FormulaInput{OrderTotal: 100, ItemCount: 1, COGSCents: 2000})
	require.NoError(t, err)
	assert.InDelta(t, 6.00, result.ShippingCost, 1e-9)
}

func TestPreviewFormula_NoStoredConfigUsesDefaults(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.PreviewFormula(f.ctx, FormulaInput{OrderTotal: 100, ItemCount: 1})
	require.NoError(t, err)
	assert.InDelta(t, 3.20, result.PaymentProcessingFee, 1e-9)
}

// --- COGS resolution ---

func TestResolveCOGS_VariantPrecedence(t *testing.T) {
	f := newServiceFixture(t)
	variant := "var-1"

	_, err := f.svc.UpsertProductCOGS(f.ctx, &ProductCOGS{
		ProductID: "prod-1", CogsCents: 1000, Source: ProductCOGSManual,
	}, "user-1", nil)
	require.NoError(t, err)

	_, err = f.svc.UpsertProductCOGS(f.ctx, &ProductCOGS{
		ProductID: "prod-1", VariantID: &variant, CogsCents: 1500, Source: ProductCOGSManual,
	}, "user-1", nil)
	require.NoError(t, err)

	// Variant row wins for the variant.
	cogs, skip, err := f.svc.ResolveCOGS(f.ctx, "prod-1", &variant, 5000)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, int64(1500), cogs)

	// Unknown variant falls back to the product-level row.
	other := "var-2"
	cogs, _, err = f.svc.ResolveCOGS(f.ctx, "prod-1", &other, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cogs)

	// Product-level lookup ignores variant rows.
	cogs, _, err = f.svc.ResolveCOGS(f.ctx, "prod-1", nil, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cogs)
}

func TestResolveCOGS_FallbackBehaviors(t *testing.T) {
	tests := []struct {
		name     string
		fallback COGSFallbackConfig
		wantCogs int64
		wantSkip bool
	}{
		{
			name:     "zero",
			fallback: COGSFallbackConfig{Behavior: FallbackZero},
		},
		{
			name:     "skip excludes the line from the statement",
			fallback: COGSFallbackConfig{Behavior: FallbackSkipPNL},
			wantSkip: true,
		},
		{
			name:     "use_default substitutes the configured cost",
			fallback: COGSFallbackConfig{Behavior: FallbackUseDefault, DefaultCogsCents: 750},
			wantCogs: 750,
		},
		{
			name:     "percentage_of_price rounds half up",
			fallback: COGSFallbackConfig{Behavior: FallbackPercentageOfPrice, Percent: 35},
			wantCogs: 1750, // 35% of 5001 = 1750.35
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			_, err := f.svc.UpsertCOGSConfig(f.ctx, &COGSConfigUpdate{Fallback: &tt.fallback},
				"user-1", UpsertOptions{}, nil)
			require.NoError(t, err)

			cogs, skip, err := f.svc.ResolveCOGS(f.ctx, "unknown", nil, 5001)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantCogs, cogs)
		})
	}
}

func TestResolveCOGS_NoConfigDefaultsToZero(t *testing.T) {
	f := newServiceFixture(t)

	cogs, skip, err := f.svc.ResolveCOGS(f.ctx, "unknown", nil, 9999)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Zero(t, cogs)
}

// --- Product COGS ---

func TestUpsertProductCOGS_AuditActions(t *testing.T) {
	f := newServiceFixture(t)

	entry := &ProductCOGS{ProductID: "prod-1", CogsCents: 1200, Source: ProductCOGSManual}
	_, err := f.svc.UpsertProductCOGS(f.ctx, entry, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, AuditCreate, f.audit.last(t).Action)

	entry = &ProductCOGS{ProductID: "prod-1", CogsCents: 1400, Source: ProductCOGSManual}
	_, err = f.svc.UpsertProductCOGS(f.ctx, entry, "user-1", nil)
	require.NoError(t, err)

	last := f.audit.last(t)
	assert.Equal(t, AuditUpdate, last.Action)
	assert.NotNil(t, last.OldValue)
}

func TestBulkUpsertProductCOGS_PartialFailure(t *testing.T) {
	f := newServiceFixture(t)

	entries := []ProductCOGS{
		{ProductID: "prod-1", CogsCents: 100, Source: ProductCOGSCSVImport},
		{ProductID: "", CogsCents: 200, Source: ProductCOGSCSVImport},
		{ProductID: "prod-3", CogsCents: -5, Source: ProductCOGSCSVImport},
		{ProductID: "prod-4", CogsCents: 400, Source: ProductCOGSCSVImport},
	}

	result, err := f.svc.BulkUpsertProductCOGS(f.ctx, entries, "user-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 2, result.Failed[1].Index)

	// Successful rows committed despite the failures.
	page, err := f.svc.GetProductCOGS(f.ctx, ProductCOGSFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	// One summary entry for the whole batch.
	last := f.audit.last(t)
	assert.Equal(t, AuditBulkImport, last.Action)
	assert.JSONEq(t, `{"total":4,"succeeded":2,"failed":2}`, string(last.NewValue))
}

func TestDeleteProductCOGS(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.UpsertProductCOGS(f.ctx, &ProductCOGS{
		ProductID: "prod-1", CogsCents: 100, Source: ProductCOGSManual,
	}, "user-1", nil)
	require.NoError(t, err)

	deleted, err := f.svc.DeleteProductCOGS(f.ctx, "prod-1", nil, "user-1", nil)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, AuditDelete, f.audit.last(t).Action)

	deleted, err = f.svc.DeleteProductCOGS(f.ctx, "prod-1", nil, "user-1", nil)
	require.NoError(t, err)
	assert.False(t, deleted)
}

// --- Expense categories ---

func TestCreateExpenseCategory_RejectsReservedID(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateExpenseCategory(f.ctx, &ExpenseCategory{
		CategoryID:  "rent",
		Name:        "My Rent",
		ExpenseType: ExpenseFixed,
	}, "user-1", nil)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Empty(t, f.audit.entries)
}

func TestCreateExpenseCategory_CustomNeverSystem(t *testing.T) {
	f := newServiceFixture(t)

	created, err := f.svc.CreateExpenseCategory(f.ctx, &ExpenseCategory{
		CategoryID:  "shipping_supplies",
		Name:        "Shipping Supplies",
		ExpenseType: ExpenseVariable,
		IsSystem:    true, // ignored, custom categories are never system
	}, "user-1", nil)
	require.NoError(t, err)

	assert.False(t, created.IsSystem)
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.Equal(t, AuditCreate, f.audit.last(t).Action)
}

func TestDeleteExpenseCategory_SystemProtected(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SeedDefaultExpenseCategories(f.ctx, "system")
	require.NoError(t, err)
	auditCount := len(f.audit.entries)

	deleted, err := f.svc.DeleteExpenseCategory(f.ctx, "rent", "user-1", nil)
	require.NoError(t, err)
	assert.False(t, deleted)
	// No audit entry for the refused delete.
	assert.Len(t, f.audit.entries, auditCount)

	// The category is still there.
	category, err := f.categories.Get(f.ctx, "rent")
	require.NoError(t, err)
	assert.True(t, category.IsSystem)
}

func TestSeedDefaultExpenseCategories_Idempotent(t *testing.T) {
	f := newServiceFixture(t)

	inserted, err := f.svc.SeedDefaultExpenseCategories(f.ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 8, inserted)
	assert.Equal(t, AuditSeed, f.audit.last(t).Action)
	auditCount := len(f.audit.entries)

	inserted, err = f.svc.SeedDefaultExpenseCategories(f.ctx, "system")
	require.NoError(t, err)
	assert.Zero(t, inserted)
	// Nothing inserted, nothing audited.
	assert.Len(t, f.audit.entries, auditCount)
}

func TestReorderExpenseCategories(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SeedDefaultExpenseCategories(f.ctx, "system")
	require.NoError(t, err)

	err = f.svc.ReorderExpenseCategories(f.ctx, []string{"marketing", "rent", "payroll"}, "user-1", nil)
	require.NoError(t, err)

	marketing, err := f.categories.Get(f.ctx, "marketing")
	require.NoError(t, err)
	assert.Equal(t, 1, marketing.DisplayOrder)

	last := f.audit.last(t)
	assert.Equal(t, AuditReorder, last.Action)
	assert.JSONEq(t, `["marketing","rent","payroll"]`, string(last.NewValue))
}

func TestQueryAuditLog_FilterByConfigType(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.UpsertVariableCostConfig(f.ctx, &VariableCostConfigUpdate{}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)
	_, err = f.svc.UpsertCOGSConfig(f.ctx, &COGSConfigUpdate{}, "user-1", UpsertOptions{}, nil)
	require.NoError(t, err)

	configType := ConfigTypeCOGS
	page, err := f.svc.QueryAuditLog(f.ctx, AuditFilter{ConfigType: &configType})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, ConfigTypeCOGS, page.Items[0].ConfigType)
}
