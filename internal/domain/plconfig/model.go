// Package plconfig provides the tenant-scoped profit & loss configuration
// model and the contribution-margin calculation built on top of it.
//
// Every persisted entity is keyed by tenant; repositories take the tenant
// from context and never read or write across tenant boundaries.
package plconfig

import (
	"context"
	"encoding/json"
	"time"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/id"
)

// --- Enumerations ---

// CostModel selects how fulfillment cost is derived.
type CostModel string

const (
	CostModelPerOrder    CostModel = "per_order"
	CostModelPerItem     CostModel = "per_item"
	CostModelWeightBased CostModel = "weight_based"
	CostModelManual      CostModel = "manual"
)

// TrackingMethod selects how shipping cost is derived.
type TrackingMethod string

const (
	// TrackingActualExpense means shipping is tracked elsewhere and
	// contributes zero to the margin calculation.
	TrackingActualExpense    TrackingMethod = "actual_expense"
	TrackingEstimatedPercent TrackingMethod = "estimated_percentage"
	TrackingFlatRate         TrackingMethod = "flat_rate"
)

// CalculationType selects how a miscellaneous variable cost scales.
type CalculationType string

const (
	CalcPerOrder            CalculationType = "per_order"
	CalcPerItem             CalculationType = "per_item"
	CalcPercentageOfRevenue CalculationType = "percentage_of_revenue"
)

// COGSSource selects where per-product costs come from.
type COGSSource string

const (
	COGSSourceShopify  COGSSource = "shopify"
	COGSSourceInternal COGSSource = "internal"
)

// COGSFallback governs what happens when no COGS value is known for a line item.
type COGSFallback string

const (
	FallbackZero              COGSFallback = "zero"
	FallbackSkipPNL           COGSFallback = "skip_pnl"
	FallbackUseDefault        COGSFallback = "use_default"
	FallbackPercentageOfPrice COGSFallback = "percentage_of_price"
)

// ProductCOGSSource records how a product cost row was written.
type ProductCOGSSource string

const (
	ProductCOGSManual    ProductCOGSSource = "manual"
	ProductCOGSCSVImport ProductCOGSSource = "csv_import"
	ProductCOGSERPSync   ProductCOGSSource = "erp_sync"
)

// SyncFrequency controls Shopify cost-field polling cadence.
type SyncFrequency string

const (
	SyncHourly SyncFrequency = "hourly"
	SyncDaily  SyncFrequency = "daily"
	SyncWeekly SyncFrequency = "weekly"
)

// ExpenseType classifies an expense category.
type ExpenseType string

const (
	ExpenseFixed     ExpenseType = "fixed"
	ExpenseVariable  ExpenseType = "variable"
	ExpenseMarketing ExpenseType = "marketing"
)

// --- Variable cost configuration ---

// AdditionalProcessor describes a secondary payment processor that handles
// a share of transaction volume. The primary processor implicitly receives
// 100 − Σ(volumePercent) of volume.
type AdditionalProcessor struct {
	Name string `json:"name"`

	// PercentageRate is a decimal rate, e.g. 0.029 for 2.9%.
	PercentageRate float64 `json:"percentageRate"`

	FixedFeeCents int64 `json:"fixedFeeCents"`

	// VolumePercent is this processor's share of volume, 0-100.
	VolumePercent float64 `json:"volumePercent"`
}

// PaymentProcessingConfig describes payment fees.
type PaymentProcessingConfig struct {
	PrimaryProcessor string `json:"primaryProcessor"`

	// PercentageRate is a decimal rate, e.g. 0.029 for 2.9%.
	PercentageRate float64 `json:"percentageRate"`

	FixedFeeCents int64 `json:"fixedFeeCents"`

	AdditionalProcessors []AdditionalProcessor `json:"additionalProcessors"`
}

// WeightTier maps an inclusive ounce range to a fulfillment fee.
// Tiers must not overlap; the first matching tier wins.
type WeightTier struct {
	MinOunces float64 `json:"minOunces"`
	MaxOunces float64 `json:"maxOunces"`
	FeeCents  int64   `json:"feeCents"`
}

// FulfillmentConfig describes pick/pack and handling fees.
type FulfillmentConfig struct {
	CostModel            CostModel    `json:"costModel"`
	PickPackFeeCents     int64        `json:"pickPackFeeCents"`
	PickPackPerItemCents int64        `json:"pickPackPerItemCents"`
	PackagingCostCents   int64        `json:"packagingCostCents"`
	HandlingFeeCents     int64        `json:"handlingFeeCents"`
	WeightTiers          []WeightTier `json:"weightTiers"`
}

// ShippingConfig describes how shipping expense is attributed.
type ShippingConfig struct {
	TrackingMethod TrackingMethod `json:"trackingMethod"`

	// EstimatedPercent is a decimal rate of order total, used with
	// estimated_percentage tracking.
	EstimatedPercent *float64 `json:"estimatedPercent,omitempty"`

	// FlatRateCents is used with flat_rate tracking.
	FlatRateCents *int64 `json:"flatRateCents,omitempty"`
}

// OtherVariableCost is a miscellaneous per-order, per-item, or
// percentage-of-revenue cost. Only active entries participate.
type OtherVariableCost struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AmountCents int64           `json:"amountCents"`
	Calculation CalculationType `json:"calculationType"`

	// PercentageRate is a decimal rate, used with percentage_of_revenue.
	PercentageRate *float64 `json:"percentageRate,omitempty"`

	IsActive bool `json:"isActive"`
}

// VariableCostConfig is the per-tenant variable cost model. One row per
// tenant with upsert semantics: created on first write, updated thereafter.
type VariableCostConfig struct {
	TenantID           string                  `db:"tenant_id" json:"tenantId"`
	PaymentProcessing  PaymentProcessingConfig `db:"payment_processing" json:"paymentProcessing"`
	Fulfillment        FulfillmentConfig       `db:"fulfillment" json:"fulfillment"`
	Shipping           ShippingConfig          `db:"shipping" json:"shipping"`
	OtherVariableCosts []OtherVariableCost     `db:"other_variable_costs" json:"otherVariableCosts"`

	// Version increments on every upsert. It records that a change
	// happened; it is not an optimistic-concurrency token unless the
	// caller opts in via UpsertOptions.ExpectedVersion.
	Version   int       `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
}

// VariableCostConfigUpdate is a partial update. A nil section means "not
// supplied"; a supplied section replaces the base section wholesale.
type VariableCostConfigUpdate struct {
	PaymentProcessing  *PaymentProcessingConfig `json:"paymentProcessing,omitempty"`
	Fulfillment        *FulfillmentConfig       `json:"fulfillment,omitempty"`
	Shipping           *ShippingConfig          `json:"shipping,omitempty"`
	OtherVariableCosts *[]OtherVariableCost     `json:"otherVariableCosts,omitempty"`
}

// AsPartial converts a stored config to the partial shape the calculator
// accepts, with every section present.
func (c *VariableCostConfig) AsPartial() *VariableCostConfigUpdate {
	if c == nil {
		return nil
	}
	return &VariableCostConfigUpdate{
		PaymentProcessing:  &c.PaymentProcessing,
		Fulfillment:        &c.Fulfillment,
		Shipping:           &c.Shipping,
		OtherVariableCosts: &c.OtherVariableCosts,
	}
}

// --- COGS configuration ---

// ShopifySyncConfig holds Shopify cost-field synchronization bookkeeping.
// The sync job itself lives upstream; it periodically writes ProductCOGS
// rows and stamps LastSyncAt through the repository.
type ShopifySyncConfig struct {
	SyncEnabled   bool          `json:"syncEnabled"`
	SyncFrequency SyncFrequency `json:"syncFrequency"`
	CostField     string        `json:"costField"`
	LastSyncAt    *time.Time    `json:"lastSyncAt,omitempty"`
}

// InternalImportConfig holds internal-mode import bookkeeping.
type InternalImportConfig struct {
	LastImportAt *time.Time `json:"lastImportAt,omitempty"`
	ImportSource string     `json:"importSource,omitempty"`
}

// COGSFallbackConfig parameterizes behavior for line items with no known cost.
type COGSFallbackConfig struct {
	Behavior COGSFallback `json:"behavior"`

	// Percent is 0-100, used with percentage_of_price.
	Percent float64 `json:"percent"`

	// DefaultCogsCents is used with use_default.
	DefaultCogsCents int64 `json:"defaultCogsCents"`
}

// COGSConfig is the per-tenant cost-of-goods-sold sourcing model.
type COGSConfig struct {
	TenantID string               `db:"tenant_id" json:"tenantId"`
	Source   COGSSource           `db:"source" json:"source"`
	Shopify  ShopifySyncConfig    `db:"shopify" json:"shopify"`
	Internal InternalImportConfig `db:"internal" json:"internal"`
	Fallback COGSFallbackConfig   `db:"fallback" json:"fallback"`

	Version   int       `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
}

// COGSConfigUpdate is a partial update with section-wholesale semantics.
type COGSConfigUpdate struct {
	Source   *COGSSource           `json:"source,omitempty"`
	Shopify  *ShopifySyncConfig    `json:"shopify,omitempty"`
	Internal *InternalImportConfig `json:"internal,omitempty"`
	Fallback *COGSFallbackConfig   `json:"fallback,omitempty"`
}

// --- P&L formula (presentation) configuration ---

// RevenueDisplayConfig controls revenue composition on the statement.
type RevenueDisplayConfig struct {
	ShowGrossSales     bool `json:"showGrossSales"`
	ShowDiscounts      bool `json:"showDiscounts"`
	ShowRefunds        bool `json:"showRefunds"`
	ShowShippingIncome bool `json:"showShippingIncome"`
}

// COGSDisplayConfig controls how COGS lines are rendered.
type COGSDisplayConfig struct {
	Label       string `json:"label"`
	ShowPerUnit bool   `json:"showPerUnit"`
}

// VariableCostDisplayConfig controls variable-cost grouping.
type VariableCostDisplayConfig struct {
	GroupPaymentFees    bool `json:"groupPaymentFees"`
	GroupFulfillment    bool `json:"groupFulfillment"`
	ShowIndividualCosts bool `json:"showIndividualCosts"`
}

// MarginDisplayConfig controls contribution-margin presentation.
type MarginDisplayConfig struct {
	ShowContributionMargin bool `json:"showContributionMargin"`
	ShowPercentOfRevenue   bool `json:"showPercentOfRevenue"`
	HighlightNegative      bool `json:"highlightNegative"`
}

// MarketingDisplayConfig controls marketing spend breakdown.
type MarketingDisplayConfig struct {
	ShowBreakdown  bool `json:"showBreakdown"`
	GroupByChannel bool `json:"groupByChannel"`
}

// OperatingExpenseDisplayConfig controls operating-expense categorization.
type OperatingExpenseDisplayConfig struct {
	GroupByCategory bool     `json:"groupByCategory"`
	CategoryOrder   []string `json:"categoryOrder"`
	ShowInactive    bool     `json:"showInactive"`
}

// PLFormulaConfig holds presentational toggles for the P&L statement.
// It never changes the numbers the calculator produces, only how a
// downstream renderer groups and labels them.
type PLFormulaConfig struct {
	TenantID          string                        `db:"tenant_id" json:"tenantId"`
	Revenue           RevenueDisplayConfig          `db:"revenue" json:"revenue"`
	COGSDisplay       COGSDisplayConfig             `db:"cogs_display" json:"cogsDisplay"`
	VariableCosts     VariableCostDisplayConfig     `db:"variable_costs" json:"variableCosts"`
	Margin            MarginDisplayConfig           `db:"margin" json:"margin"`
	Marketing         MarketingDisplayConfig        `db:"marketing" json:"marketing"`
	OperatingExpenses OperatingExpenseDisplayConfig `db:"operating_expenses" json:"operatingExpenses"`

	Version   int       `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
}

// PLFormulaConfigUpdate is a partial update with section-wholesale semantics.
type PLFormulaConfigUpdate struct {
	Revenue           *RevenueDisplayConfig          `json:"revenue,omitempty"`
	COGSDisplay       *COGSDisplayConfig             `json:"cogsDisplay,omitempty"`
	VariableCosts     *VariableCostDisplayConfig     `json:"variableCosts,omitempty"`
	Margin            *MarginDisplayConfig           `json:"margin,omitempty"`
	Marketing         *MarketingDisplayConfig        `json:"marketing,omitempty"`
	OperatingExpenses *OperatingExpenseDisplayConfig `json:"operatingExpenses,omitempty"`
}

// --- Expense categories ---

// ExpenseCategory is a tenant-scoped taxonomy entry. System categories are
// seeded by default and cannot be deleted.
type ExpenseCategory struct {
	TenantID     string      `db:"tenant_id" json:"tenantId"`
	CategoryID   string      `db:"category_id" json:"categoryId"`
	Name         string      `db:"name" json:"name"`
	ExpenseType  ExpenseType `db:"expense_type" json:"expenseType"`
	IsSystem     bool        `db:"is_system" json:"isSystem"`
	IsActive     bool        `db:"is_active" json:"isActive"`
	DisplayOrder int         `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// ExpenseCategoryUpdate is a partial field patch.
type ExpenseCategoryUpdate struct {
	Name         *string      `json:"name,omitempty"`
	ExpenseType  *ExpenseType `json:"expenseType,omitempty"`
	IsActive     *bool        `json:"isActive,omitempty"`
	DisplayOrder *int         `json:"displayOrder,omitempty"`
}

// --- Product COGS ---

// ProductCOGS is the per-(tenant, product, variant) cost row. A variant-less
// row and variant-specific rows for the same product coexist independently.
// Rows are overwritten, not versioned: the next write with the same key wins.
type ProductCOGS struct {
	TenantID  string            `db:"tenant_id" json:"tenantId"`
	ProductID string            `db:"product_id" json:"productId"`
	VariantID *string           `db:"variant_id" json:"variantId,omitempty"`
	SKU       *string           `db:"sku" json:"sku,omitempty"`
	CogsCents int64             `db:"cogs_cents" json:"cogsCents"`
	Source    ProductCOGSSource `db:"source" json:"source"`
	UpdatedAt time.Time         `db:"updated_at" json:"updatedAt"`
	UpdatedBy string            `db:"updated_by" json:"updatedBy"`
}

// ProductCOGSFilter narrows and pages product cost listings.
type ProductCOGSFilter struct {
	// Search matches a substring of sku or product id.
	Search string

	// ProductID filters to exact product match.
	ProductID string

	Limit  int
	Offset int
}

// BulkUpsertError reports one failed row of a bulk import.
type BulkUpsertError struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Err       error  `json:"-"`
	Message   string `json:"message"`
}

// BulkUpsertResult summarizes a bulk product-COGS import. Rows commit
// independently; a failure mid-batch leaves earlier rows written.
type BulkUpsertResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    []BulkUpsertError `json:"failed"`
}

// --- Audit log ---

// ConfigType identifies which configuration an audit entry concerns.
type ConfigType string

const (
	ConfigTypeVariableCost    ConfigType = "variable_cost"
	ConfigTypeCOGS            ConfigType = "cogs"
	ConfigTypePLFormula       ConfigType = "pl_formula"
	ConfigTypeExpenseCategory ConfigType = "expense_category"
	ConfigTypeProductCOGS     ConfigType = "product_cogs"
)

// AuditAction is the kind of change recorded.
type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditDelete     AuditAction = "delete"
	AuditReset      AuditAction = "reset"
	AuditReorder    AuditAction = "reorder"
	AuditSeed       AuditAction = "seed"
	AuditBulkImport AuditAction = "bulk_import"
)

// AuditEntry is one append-only configuration-change event. Entries are
// never updated or deleted.
type AuditEntry struct {
	ID           id.ID           `db:"id" json:"id"`
	TenantID     string          `db:"tenant_id" json:"tenantId"`
	ConfigType   ConfigType      `db:"config_type" json:"configType"`
	Action       AuditAction     `db:"action" json:"action"`
	FieldChanged *string         `db:"field_changed" json:"fieldChanged,omitempty"`
	OldValue     json.RawMessage `db:"old_value" json:"oldValue,omitempty"`
	NewValue     json.RawMessage `db:"new_value" json:"newValue,omitempty"`
	ChangedBy    string          `db:"changed_by" json:"changedBy"`
	ChangedAt    time.Time       `db:"changed_at" json:"changedAt"`
	IPAddress    *string         `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent    *string         `db:"user_agent" json:"userAgent,omitempty"`
}

// AuditFilter narrows and pages audit queries. Date bounds are inclusive.
type AuditFilter struct {
	ConfigType *ConfigType
	ChangedBy  *string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// RequestMeta carries caller attribution for audit entries.
type RequestMeta struct {
	IPAddress *string
	UserAgent *string
}

// --- Pagination ---

// Page contains paginated results with a parallel total count.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Validation ---

// Validatable is implemented by configs that support self-validation.
type Validatable interface {
	Validate(ctx context.Context) error
}

func validateRate(field string, rate float64) error {
	if rate < 0 || rate > 1 {
		return apperror.NewValidation("percentage rate must be a decimal in [0, 1]").
			WithDetail("field", field).
			WithDetail("value", rate)
	}
	return nil
}

func validateCents(field string, cents int64) error {
	if cents < 0 {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", field).
			WithDetail("value", cents)
	}
	return nil
}

// Validate checks processor rates, fees, and the volume split.
// The volume invariant: Σ(additionalProcessors.volumePercent) ≤ 100, since
// the primary processor implicitly receives the remainder and the
// calculator does not clamp a negative remainder.
func (p *PaymentProcessingConfig) Validate(ctx context.Context) error {
	if err := validateRate("paymentProcessing.percentageRate", p.PercentageRate); err != nil {
		return err
	}
	if err := validateCents("paymentProcessing.fixedFeeCents", p.FixedFeeCents); err != nil {
		return err
	}

	var volumeSum float64
	for i, proc := range p.AdditionalProcessors {
		if err := validateRate("additionalProcessors.percentageRate", proc.PercentageRate); err != nil {
			return err
		}
		if err := validateCents("additionalProcessors.fixedFeeCents", proc.FixedFeeCents); err != nil {
			return err
		}
		if proc.VolumePercent < 0 || proc.VolumePercent > 100 {
			return apperror.NewValidation("volume percent must be in [0, 100]").
				WithDetail("field", "additionalProcessors.volumePercent").
				WithDetail("index", i).
				WithDetail("value", proc.VolumePercent)
		}
		volumeSum += proc.VolumePercent
	}
	if volumeSum > 100 {
		return apperror.NewValidation("additional processor volume exceeds 100%").
			WithDetail("field", "additionalProcessors").
			WithDetail("volumeSum", volumeSum)
	}

	return nil
}

// Validate checks fees, the cost model, and weight tier consistency.
func (f *FulfillmentConfig) Validate(ctx context.Context) error {
	switch f.CostModel {
	case CostModelPerOrder, CostModelPerItem, CostModelWeightBased, CostModelManual:
	default:
		return apperror.NewValidation("invalid fulfillment cost model").
			WithDetail("field", "fulfillment.costModel").
			WithDetail("value", string(f.CostModel))
	}

	for _, pair := range []struct {
		field string
		cents int64
	}{
		{"fulfillment.pickPackFeeCents", f.PickPackFeeCents},
		{"fulfillment.pickPackPerItemCents", f.PickPackPerItemCents},
		{"fulfillment.packagingCostCents", f.PackagingCostCents},
		{"fulfillment.handlingFeeCents", f.HandlingFeeCents},
	} {
		if err := validateCents(pair.field, pair.cents); err != nil {
			return err
		}
	}

	for i, tier := range f.WeightTiers {
		if tier.MinOunces < 0 || tier.MaxOunces < tier.MinOunces {
			return apperror.NewValidation("weight tier range is inverted").
				WithDetail("field", "fulfillment.weightTiers").
				WithDetail("index", i)
		}
		if err := validateCents("fulfillment.weightTiers.feeCents", tier.FeeCents); err != nil {
			return err
		}
		// Tiers must partition a non-overlapping range, otherwise
		// weight_based lookups are ambiguous.
		for j := 0; j < i; j++ {
			prev := f.WeightTiers[j]
			if tier.MinOunces < prev.MaxOunces && prev.MinOunces < tier.MaxOunces {
				return apperror.NewValidation("weight tiers overlap").
					WithDetail("field", "fulfillment.weightTiers").
					WithDetail("index", i).
					WithDetail("overlapsWith", j)
			}
		}
	}

	return nil
}

// Validate checks the tracking method and its parameters.
func (s *ShippingConfig) Validate(ctx context.Context) error {
	switch s.TrackingMethod {
	case TrackingActualExpense, TrackingEstimatedPercent, TrackingFlatRate:
	default:
		return apperror.NewValidation("invalid shipping tracking method").
			WithDetail("field", "shipping.trackingMethod").
			WithDetail("value", string(s.TrackingMethod))
	}

	if s.EstimatedPercent != nil {
		if err := validateRate("shipping.estimatedPercent", *s.EstimatedPercent); err != nil {
			return err
		}
	}
	if s.FlatRateCents != nil {
		if err := validateCents("shipping.flatRateCents", *s.FlatRateCents); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks a miscellaneous variable cost entry.
func (o *OtherVariableCost) Validate(ctx context.Context) error {
	if o.Name == "" {
		return apperror.NewValidation("variable cost name is required").
			WithDetail("field", "otherVariableCosts.name")
	}
	switch o.Calculation {
	case CalcPerOrder, CalcPerItem, CalcPercentageOfRevenue:
	default:
		return apperror.NewValidation("invalid variable cost calculation type").
			WithDetail("field", "otherVariableCosts.calculationType").
			WithDetail("value", string(o.Calculation))
	}
	if err := validateCents("otherVariableCosts.amountCents", o.AmountCents); err != nil {
		return err
	}
	if o.PercentageRate != nil {
		if err := validateRate("otherVariableCosts.percentageRate", *o.PercentageRate); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every supplied section of a partial update.
func (u *VariableCostConfigUpdate) Validate(ctx context.Context) error {
	if u.PaymentProcessing != nil {
		if err := u.PaymentProcessing.Validate(ctx); err != nil {
			return err
		}
	}
	if u.Fulfillment != nil {
		if err := u.Fulfillment.Validate(ctx); err != nil {
			return err
		}
	}
	if u.Shipping != nil {
		if err := u.Shipping.Validate(ctx); err != nil {
			return err
		}
	}
	if u.OtherVariableCosts != nil {
		for i := range *u.OtherVariableCosts {
			if err := (*u.OtherVariableCosts)[i].Validate(ctx); err != nil {
				return apperror.NewValidation("invalid variable cost entry").
					WithDetail("index", i).
					WithCause(err)
			}
		}
	}
	return nil
}

// Validate checks every supplied section of a COGS config update.
func (u *COGSConfigUpdate) Validate(ctx context.Context) error {
	if u.Source != nil {
		switch *u.Source {
		case COGSSourceShopify, COGSSourceInternal:
		default:
			return apperror.NewValidation("invalid COGS source").
				WithDetail("field", "source").
				WithDetail("value", string(*u.Source))
		}
	}
	if u.Shopify != nil {
		switch u.Shopify.SyncFrequency {
		case SyncHourly, SyncDaily, SyncWeekly:
		default:
			return apperror.NewValidation("invalid sync frequency").
				WithDetail("field", "shopify.syncFrequency").
				WithDetail("value", string(u.Shopify.SyncFrequency))
		}
	}
	if u.Fallback != nil {
		switch u.Fallback.Behavior {
		case FallbackZero, FallbackSkipPNL, FallbackUseDefault, FallbackPercentageOfPrice:
		default:
			return apperror.NewValidation("invalid COGS fallback behavior").
				WithDetail("field", "fallback.behavior").
				WithDetail("value", string(u.Fallback.Behavior))
		}
		if u.Fallback.Percent < 0 || u.Fallback.Percent > 100 {
			return apperror.NewValidation("fallback percent must be in [0, 100]").
				WithDetail("field", "fallback.percent").
				WithDetail("value", u.Fallback.Percent)
		}
		if err := validateCents("fallback.defaultCogsCents", u.Fallback.DefaultCogsCents); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks an expense category.
func (c *ExpenseCategory) Validate(ctx context.Context) error {
	if c.CategoryID == "" {
		return apperror.NewValidation("category id is required").
			WithDetail("field", "categoryId")
	}
	if c.Name == "" {
		return apperror.NewValidation("category name is required").
			WithDetail("field", "name")
	}
	switch c.ExpenseType {
	case ExpenseFixed, ExpenseVariable, ExpenseMarketing:
	default:
		return apperror.NewValidation("invalid expense type").
			WithDetail("field", "expenseType").
			WithDetail("value", string(c.ExpenseType))
	}
	return nil
}

// Validate checks a product cost row.
func (p *ProductCOGS) Validate(ctx context.Context) error {
	if p.ProductID == "" {
		return apperror.NewValidation("product id is required").
			WithDetail("field", "productId")
	}
	if err := validateCents("cogsCents", p.CogsCents); err != nil {
		return err
	}
	switch p.Source {
	case ProductCOGSManual, ProductCOGSCSVImport, ProductCOGSERPSync:
	default:
		return apperror.NewValidation("invalid product COGS source").
			WithDetail("field", "source").
			WithDetail("value", string(p.Source))
	}
	return nil
}
