package plconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/id"
	"marginiq/internal/core/tenant"
	"marginiq/internal/core/tx"
	"marginiq/pkg/logger"
)

// Service orchestrates P&L configuration: load config, merge with
// defaults, delegate to the calculator, and wrap every mutating operation
// with exactly one audit-log write. Repositories never auto-log; the
// service owns that contract.
type Service struct {
	configs     ConfigRepository
	productCOGS ProductCOGSRepository
	categories  ExpenseCategoryRepository
	audit       AuditRepository
	defaults    DefaultsProvider
	txm         tx.Manager
}

// NewService creates a new P&L configuration service.
// A nil defaults provider falls back to StandardDefaults.
func NewService(
	configs ConfigRepository,
	productCOGS ProductCOGSRepository,
	categories ExpenseCategoryRepository,
	audit AuditRepository,
	defaults DefaultsProvider,
	txm tx.Manager,
) *Service {
	if defaults == nil {
		defaults = StandardDefaults{}
	}
	return &Service{
		configs:     configs,
		productCOGS: productCOGS,
		categories:  categories,
		audit:       audit,
		defaults:    defaults,
		txm:         txm,
	}
}

// Defaults exposes the injected defaults provider.
func (s *Service) Defaults() DefaultsProvider {
	return s.defaults
}

// --- Formula preview ---

// PreviewFormula loads the tenant's variable-cost config (nil resolves to
// pure defaults) and computes the contribution-margin breakdown.
func (s *Service) PreviewFormula(ctx context.Context, input FormulaInput) (FormulaPreviewResult, error) {
	cfg, err := s.configs.GetVariableCostConfig(ctx)
	if err != nil {
		return FormulaPreviewResult{}, fmt.Errorf("load variable cost config: %w", err)
	}
	return Calculate(input, cfg.AsPartial(), s.defaults), nil
}

// ResolveCOGS looks up the cost for a line item, falling back per the
// tenant's COGS config when no row is known. Variant-specific rows take
// precedence over the product-level row. skip reports that the tenant's
// fallback policy excludes the line from P&L entirely.
func (s *Service) ResolveCOGS(ctx context.Context, productID string, variantID *string, priceCents int64) (cogsCents int64, skip bool, err error) {
	if variantID != nil {
		row, err := s.productCOGS.Get(ctx, productID, variantID)
		if err != nil && !apperror.IsNotFound(err) {
			return 0, false, err
		}
		if row != nil {
			return row.CogsCents, false, nil
		}
	}

	row, err := s.productCOGS.Get(ctx, productID, nil)
	if err != nil && !apperror.IsNotFound(err) {
		return 0, false, err
	}
	if row != nil {
		return row.CogsCents, false, nil
	}

	cfg, err := s.configs.GetCOGSConfig(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("load COGS config: %w", err)
	}
	fallback := s.defaults.COGSDefaults().Fallback
	if cfg != nil {
		fallback = cfg.Fallback
	}

	switch fallback.Behavior {
	case FallbackSkipPNL:
		return 0, true, nil
	case FallbackUseDefault:
		return fallback.DefaultCogsCents, false, nil
	case FallbackPercentageOfPrice:
		return int64(float64(priceCents)*fallback.Percent/100 + 0.5), false, nil
	default: // zero
		return 0, false, nil
	}
}

// --- Variable cost config ---

// GetVariableCostConfig returns the stored config or nil when the tenant
// has never saved one.
func (s *Service) GetVariableCostConfig(ctx context.Context) (*VariableCostConfig, error) {
	return s.configs.GetVariableCostConfig(ctx)
}

// UpsertVariableCostConfig validates and persists a partial update,
// merging omitted sections per the options' strategy, and records one
// audit entry. The write and the audit append commit atomically.
func (s *Service) UpsertVariableCostConfig(ctx context.Context, update *VariableCostConfigUpdate, actorID string, opts UpsertOptions, meta *RequestMeta) (*VariableCostConfig, error) {
	if update == nil {
		update = &VariableCostConfigUpdate{}
	}
	if err := update.Validate(ctx); err != nil {
		return nil, err
	}

	var saved *VariableCostConfig
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetVariableCostConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		merged := mergeVariableCost(update, current, s.defaults, opts.strategy())
		merged.TenantID = tenant.MustGetID(ctx)
		merged.UpdatedBy = actorID

		saved, err = s.configs.SaveVariableCostConfig(ctx, &merged, opts.ExpectedVersion)
		if err != nil {
			return err
		}

		return s.recordConfigChange(ctx, ConfigTypeVariableCost, current == nil, actorID, meta,
			variableCostFieldChanged(update), current, saved)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variable cost config saved", "version", saved.Version, "actor", actorID)
	return saved, nil
}

// ResetVariableCostConfig deletes the tenant row so future reads resolve
// to defaults. Reports false when nothing was stored.
func (s *Service) ResetVariableCostConfig(ctx context.Context, actorID string, meta *RequestMeta) (bool, error) {
	var deleted bool
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetVariableCostConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		deleted, err = s.configs.ResetVariableCostConfig(ctx)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}

		return s.recordReset(ctx, ConfigTypeVariableCost, actorID, meta, current)
	})
	return deleted, err
}

// --- COGS config ---

// GetCOGSConfig returns the stored config or nil.
func (s *Service) GetCOGSConfig(ctx context.Context) (*COGSConfig, error) {
	return s.configs.GetCOGSConfig(ctx)
}

// UpsertCOGSConfig validates and persists a partial COGS config update.
func (s *Service) UpsertCOGSConfig(ctx context.Context, update *COGSConfigUpdate, actorID string, opts UpsertOptions, meta *RequestMeta) (*COGSConfig, error) {
	if update == nil {
		update = &COGSConfigUpdate{}
	}
	if err := update.Validate(ctx); err != nil {
		return nil, err
	}

	var saved *COGSConfig
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetCOGSConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		merged := mergeCOGS(update, current, s.defaults, opts.strategy())
		merged.TenantID = tenant.MustGetID(ctx)
		merged.UpdatedBy = actorID

		saved, err = s.configs.SaveCOGSConfig(ctx, &merged, opts.ExpectedVersion)
		if err != nil {
			return err
		}

		return s.recordConfigChange(ctx, ConfigTypeCOGS, current == nil, actorID, meta,
			cogsFieldChanged(update), current, saved)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ResetCOGSConfig deletes the tenant row, reverting reads to defaults.
func (s *Service) ResetCOGSConfig(ctx context.Context, actorID string, meta *RequestMeta) (bool, error) {
	var deleted bool
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetCOGSConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		deleted, err = s.configs.ResetCOGSConfig(ctx)
		if err != nil || !deleted {
			return err
		}
		return s.recordReset(ctx, ConfigTypeCOGS, actorID, meta, current)
	})
	return deleted, err
}

// MarkShopifySynced stamps the last Shopify sync time; invoked by the
// upstream sync job after it writes product costs.
func (s *Service) MarkShopifySynced(ctx context.Context, at time.Time) error {
	return s.configs.MarkShopifySynced(ctx, at)
}

// MarkCOGSImported stamps internal-mode import bookkeeping.
func (s *Service) MarkCOGSImported(ctx context.Context, source string, at time.Time) error {
	return s.configs.MarkCOGSImported(ctx, source, at)
}

// --- P&L formula config ---

// GetFormulaConfig returns the stored statement-presentation config or nil.
func (s *Service) GetFormulaConfig(ctx context.Context) (*PLFormulaConfig, error) {
	return s.configs.GetFormulaConfig(ctx)
}

// UpsertFormulaConfig persists a partial presentation config update.
func (s *Service) UpsertFormulaConfig(ctx context.Context, update *PLFormulaConfigUpdate, actorID string, opts UpsertOptions, meta *RequestMeta) (*PLFormulaConfig, error) {
	if update == nil {
		update = &PLFormulaConfigUpdate{}
	}

	var saved *PLFormulaConfig
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetFormulaConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		merged := mergeFormula(update, current, s.defaults, opts.strategy())
		merged.TenantID = tenant.MustGetID(ctx)
		merged.UpdatedBy = actorID

		saved, err = s.configs.SaveFormulaConfig(ctx, &merged, opts.ExpectedVersion)
		if err != nil {
			return err
		}

		return s.recordConfigChange(ctx, ConfigTypePLFormula, current == nil, actorID, meta,
			formulaFieldChanged(update), current, saved)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ResetFormulaConfig deletes the tenant row, reverting reads to defaults.
func (s *Service) ResetFormulaConfig(ctx context.Context, actorID string, meta *RequestMeta) (bool, error) {
	var deleted bool
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.configs.GetFormulaConfig(ctx)
		if err != nil {
			return fmt.Errorf("load current config: %w", err)
		}

		deleted, err = s.configs.ResetFormulaConfig(ctx)
		if err != nil || !deleted {
			return err
		}
		return s.recordReset(ctx, ConfigTypePLFormula, actorID, meta, current)
	})
	return deleted, err
}

// --- Product COGS ---

// UpsertProductCOGS writes one cost row, last write wins, and records an
// audit entry with the previous value when one existed.
func (s *Service) UpsertProductCOGS(ctx context.Context, entry *ProductCOGS, actorID string, meta *RequestMeta) (*ProductCOGS, error) {
	if err := entry.Validate(ctx); err != nil {
		return nil, err
	}

	var saved *ProductCOGS
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.productCOGS.Get(ctx, entry.ProductID, entry.VariantID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		entry.TenantID = tenant.MustGetID(ctx)
		entry.UpdatedBy = actorID

		saved, err = s.productCOGS.Upsert(ctx, entry)
		if err != nil {
			return err
		}

		return s.recordConfigChange(ctx, ConfigTypeProductCOGS, prior == nil, actorID, meta,
			strPtr("cogsCents"), prior, saved)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// BulkUpsertProductCOGS imports cost rows sequentially. Each row's upsert
// is independent: a failure mid-batch leaves earlier rows committed, and
// failures are reported per row rather than aborting the batch. One
// summary audit entry covers the whole call.
func (s *Service) BulkUpsertProductCOGS(ctx context.Context, entries []ProductCOGS, actorID string, meta *RequestMeta) (BulkUpsertResult, error) {
	result := BulkUpsertResult{}
	tenantID := tenant.MustGetID(ctx)

	for i := range entries {
		entry := &entries[i]
		entry.TenantID = tenantID
		entry.UpdatedBy = actorID

		if err := entry.Validate(ctx); err != nil {
			result.Failed = append(result.Failed, BulkUpsertError{
				Index:     i,
				ProductID: entry.ProductID,
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}

		if _, err := s.productCOGS.Upsert(ctx, entry); err != nil {
			result.Failed = append(result.Failed, BulkUpsertError{
				Index:     i,
				ProductID: entry.ProductID,
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}
		result.Succeeded++
	}

	summary, err := json.Marshal(map[string]int{
		"total":     len(entries),
		"succeeded": result.Succeeded,
		"failed":    len(result.Failed),
	})
	if err != nil {
		return result, fmt.Errorf("marshal bulk summary: %w", err)
	}

	auditErr := s.audit.Record(ctx, &AuditEntry{
		ID:         id.New(),
		TenantID:   tenantID,
		ConfigType: ConfigTypeProductCOGS,
		Action:     AuditBulkImport,
		NewValue:   summary,
		ChangedBy:  actorID,
		ChangedAt:  time.Now().UTC(),
		IPAddress:  metaIP(meta),
		UserAgent:  metaUA(meta),
	})
	if auditErr != nil {
		return result, fmt.Errorf("record bulk import audit: %w", auditErr)
	}

	logger.Info(ctx, "bulk product COGS import finished",
		"total", len(entries), "succeeded", result.Succeeded, "failed", len(result.Failed))
	return result, nil
}

// GetProductCOGS lists cost rows with search and pagination.
func (s *Service) GetProductCOGS(ctx context.Context, filter ProductCOGSFilter) (Page[ProductCOGS], error) {
	return s.productCOGS.List(ctx, filter)
}

// DeleteProductCOGS removes one cost row, reporting false when absent.
func (s *Service) DeleteProductCOGS(ctx context.Context, productID string, variantID *string, actorID string, meta *RequestMeta) (bool, error) {
	var deleted bool
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.productCOGS.Get(ctx, productID, variantID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		deleted, err = s.productCOGS.Delete(ctx, productID, variantID)
		if err != nil || !deleted {
			return err
		}
		return s.recordConfigChange(ctx, ConfigTypeProductCOGS, false, actorID, meta, nil, prior, nil)
	})
	return deleted, err
}

// --- Expense categories ---

// ListExpenseCategories returns the tenant taxonomy in display order.
func (s *Service) ListExpenseCategories(ctx context.Context) ([]ExpenseCategory, error) {
	return s.categories.List(ctx)
}

// CreateExpenseCategory adds a custom category. Identifiers reserved for
// system categories are rejected.
func (s *Service) CreateExpenseCategory(ctx context.Context, category *ExpenseCategory, actorID string, meta *RequestMeta) (*ExpenseCategory, error) {
	category.IsSystem = false
	if err := category.Validate(ctx); err != nil {
		return nil, err
	}
	for _, sys := range s.defaults.SystemExpenseCategories() {
		if sys.CategoryID == category.CategoryID {
			return nil, apperror.NewConflict("category id is reserved for a system category").
				WithDetail("category_id", category.CategoryID)
		}
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		category.TenantID = tenant.MustGetID(ctx)
		now := time.Now().UTC()
		category.CreatedAt = now
		category.UpdatedAt = now

		if err := s.categories.Create(ctx, category); err != nil {
			return err
		}
		return s.recordConfigChange(ctx, ConfigTypeExpenseCategory, true, actorID, meta,
			strPtr(category.CategoryID), nil, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateExpenseCategory applies a partial field patch.
func (s *Service) UpdateExpenseCategory(ctx context.Context, categoryID string, patch ExpenseCategoryUpdate, actorID string, meta *RequestMeta) (*ExpenseCategory, error) {
	var updated *ExpenseCategory
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.categories.Get(ctx, categoryID)
		if err != nil {
			return err
		}

		var uErr error
		updated, uErr = s.categories.Update(ctx, categoryID, patch)
		if uErr != nil {
			return uErr
		}
		return s.recordConfigChange(ctx, ConfigTypeExpenseCategory, false, actorID, meta,
			strPtr(categoryID), prior, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteExpenseCategory removes a custom category. System categories are
// left intact and the call reports false without error.
func (s *Service) DeleteExpenseCategory(ctx context.Context, categoryID string, actorID string, meta *RequestMeta) (bool, error) {
	var deleted bool
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.categories.Get(ctx, categoryID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		deleted, err = s.categories.Delete(ctx, categoryID)
		if err != nil || !deleted {
			return err
		}
		return s.recordConfigChange(ctx, ConfigTypeExpenseCategory, false, actorID, meta,
			strPtr(categoryID), prior, nil)
	})
	return deleted, err
}

// ReorderExpenseCategories rewrites display order to match orderedIDs.
func (s *Service) ReorderExpenseCategories(ctx context.Context, orderedIDs []string, actorID string, meta *RequestMeta) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.categories.Reorder(ctx, orderedIDs); err != nil {
			return err
		}

		order, err := json.Marshal(orderedIDs)
		if err != nil {
			return fmt.Errorf("marshal category order: %w", err)
		}
		return s.audit.Record(ctx, &AuditEntry{
			ID:         id.New(),
			TenantID:   tenant.MustGetID(ctx),
			ConfigType: ConfigTypeExpenseCategory,
			Action:     AuditReorder,
			NewValue:   order,
			ChangedBy:  actorID,
			ChangedAt:  time.Now().UTC(),
			IPAddress:  metaIP(meta),
			UserAgent:  metaUA(meta),
		})
	})
}

// SeedDefaultExpenseCategories idempotently installs the canonical system
// categories for a new tenant. Repeat calls insert nothing.
func (s *Service) SeedDefaultExpenseCategories(ctx context.Context, actorID string) (int, error) {
	var inserted int
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		tenantID := tenant.MustGetID(ctx)
		categories := s.defaults.SystemExpenseCategories()
		now := time.Now().UTC()
		for i := range categories {
			categories[i].TenantID = tenantID
			categories[i].CreatedAt = now
			categories[i].UpdatedAt = now
		}

		var err error
		inserted, err = s.categories.SeedDefaults(ctx, categories)
		if err != nil {
			return err
		}
		if inserted == 0 {
			return nil
		}

		summary, err := json.Marshal(map[string]int{"seeded": inserted})
		if err != nil {
			return fmt.Errorf("marshal seed summary: %w", err)
		}
		return s.audit.Record(ctx, &AuditEntry{
			ID:         id.New(),
			TenantID:   tenantID,
			ConfigType: ConfigTypeExpenseCategory,
			Action:     AuditSeed,
			NewValue:   summary,
			ChangedBy:  actorID,
			ChangedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		logger.Info(ctx, "seeded default expense categories", "inserted", inserted)
	}
	return inserted, nil
}

// --- Audit ---

// QueryAuditLog returns a page of configuration-change events.
func (s *Service) QueryAuditLog(ctx context.Context, filter AuditFilter) (Page[AuditEntry], error) {
	return s.audit.Query(ctx, filter)
}

// --- Internal helpers ---

// recordConfigChange appends exactly one audit entry for a logical change.
// oldValue/newValue may be nil (creates and deletes).
func (s *Service) recordConfigChange(ctx context.Context, configType ConfigType, created bool, actorID string, meta *RequestMeta, fieldChanged *string, oldValue, newValue any) error {
	action := AuditUpdate
	if created {
		action = AuditCreate
	}
	if newValue == nil || isNilPtr(newValue) {
		action = AuditDelete
	}

	if fieldChanged == nil && action == AuditUpdate {
		fieldChanged = diffFieldChanged(oldValue, newValue)
	}

	oldJSON, err := marshalNullable(oldValue)
	if err != nil {
		return fmt.Errorf("marshal audit old value: %w", err)
	}
	newJSON, err := marshalNullable(newValue)
	if err != nil {
		return fmt.Errorf("marshal audit new value: %w", err)
	}

	return s.audit.Record(ctx, &AuditEntry{
		ID:           id.New(),
		TenantID:     tenant.MustGetID(ctx),
		ConfigType:   configType,
		Action:       action,
		FieldChanged: fieldChanged,
		OldValue:     oldJSON,
		NewValue:     newJSON,
		ChangedBy:    actorID,
		ChangedAt:    time.Now().UTC(),
		IPAddress:    metaIP(meta),
		UserAgent:    metaUA(meta),
	})
}

func (s *Service) recordReset(ctx context.Context, configType ConfigType, actorID string, meta *RequestMeta, oldValue any) error {
	oldJSON, err := marshalNullable(oldValue)
	if err != nil {
		return fmt.Errorf("marshal audit old value: %w", err)
	}
	return s.audit.Record(ctx, &AuditEntry{
		ID:         id.New(),
		TenantID:   tenant.MustGetID(ctx),
		ConfigType: configType,
		Action:     AuditReset,
		OldValue:   oldJSON,
		ChangedBy:  actorID,
		ChangedAt:  time.Now().UTC(),
		IPAddress:  metaIP(meta),
		UserAgent:  metaUA(meta),
	})
}

// variableCostFieldChanged reports the section name when the update
// targets exactly one section.
func variableCostFieldChanged(u *VariableCostConfigUpdate) *string {
	var fields []string
	if u.PaymentProcessing != nil {
		fields = append(fields, "paymentProcessing")
	}
	if u.Fulfillment != nil {
		fields = append(fields, "fulfillment")
	}
	if u.Shipping != nil {
		fields = append(fields, "shipping")
	}
	if u.OtherVariableCosts != nil {
		fields = append(fields, "otherVariableCosts")
	}
	if len(fields) == 1 {
		return &fields[0]
	}
	return nil
}

func cogsFieldChanged(u *COGSConfigUpdate) *string {
	var fields []string
	if u.Source != nil {
		fields = append(fields, "source")
	}
	if u.Shopify != nil {
		fields = append(fields, "shopify")
	}
	if u.Internal != nil {
		fields = append(fields, "internal")
	}
	if u.Fallback != nil {
		fields = append(fields, "fallback")
	}
	if len(fields) == 1 {
		return &fields[0]
	}
	return nil
}

func formulaFieldChanged(u *PLFormulaConfigUpdate) *string {
	var fields []string
	if u.Revenue != nil {
		fields = append(fields, "revenue")
	}
	if u.COGSDisplay != nil {
		fields = append(fields, "cogsDisplay")
	}
	if u.VariableCosts != nil {
		fields = append(fields, "variableCosts")
	}
	if u.Margin != nil {
		fields = append(fields, "margin")
	}
	if u.Marketing != nil {
		fields = append(fields, "marketing")
	}
	if u.OperatingExpenses != nil {
		fields = append(fields, "operatingExpenses")
	}
	if len(fields) == 1 {
		return &fields[0]
	}
	return nil
}

func marshalNullable(v any) (json.RawMessage, error) {
	if v == nil || isNilPtr(v) {
		return nil, nil
	}
	return json.Marshal(v)
}

// isNilPtr reports whether v is a typed nil pointer hiding inside an any.
func isNilPtr(v any) bool {
	switch p := v.(type) {
	case *VariableCostConfig:
		return p == nil
	case *COGSConfig:
		return p == nil
	case *PLFormulaConfig:
		return p == nil
	case *ExpenseCategory:
		return p == nil
	case *ProductCOGS:
		return p == nil
	}
	return false
}

func strPtr(s string) *string { return &s }

func metaIP(meta *RequestMeta) *string {
	if meta == nil {
		return nil
	}
	return meta.IPAddress
}

func metaUA(meta *RequestMeta) *string {
	if meta == nil {
		return nil
	}
	return meta.UserAgent
}
