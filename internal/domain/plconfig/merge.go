package plconfig

// MergeStrategy selects the base a partial update is merged onto.
//
// MergeAgainstDefaults re-derives every omitted section from the
// documented defaults, not from the previously stored row: a caller who
// updates only paymentProcessing resets a customized fulfillment section.
// It is the default strategy; MergeAgainstCurrent is the conventional
// alternative that preserves stored sections.
type MergeStrategy string

const (
	MergeAgainstDefaults MergeStrategy = "against_defaults"
	MergeAgainstCurrent  MergeStrategy = "against_current"
)

// UpsertOptions tunes config upsert behavior.
type UpsertOptions struct {
	// Strategy defaults to MergeAgainstDefaults when empty.
	Strategy MergeStrategy

	// ExpectedVersion, when set, turns the version counter into an
	// optimistic-concurrency token: the write fails with
	// CONCURRENT_MODIFICATION unless the stored row carries exactly
	// this version. Nil keeps last-write-wins.
	ExpectedVersion *int
}

func (o UpsertOptions) strategy() MergeStrategy {
	if o.Strategy == "" {
		return MergeAgainstDefaults
	}
	return o.Strategy
}

// ApplyTo overlays the supplied sections of the update onto base.
// Sections replace wholesale; omitted sections keep the base value.
func (u *VariableCostConfigUpdate) ApplyTo(base VariableCostConfig) VariableCostConfig {
	if u == nil {
		return base
	}
	if u.PaymentProcessing != nil {
		base.PaymentProcessing = *u.PaymentProcessing
	}
	if u.Fulfillment != nil {
		base.Fulfillment = *u.Fulfillment
	}
	if u.Shipping != nil {
		base.Shipping = *u.Shipping
	}
	if u.OtherVariableCosts != nil {
		base.OtherVariableCosts = *u.OtherVariableCosts
	}
	return base
}

// ApplyTo overlays the supplied sections of the update onto base.
func (u *COGSConfigUpdate) ApplyTo(base COGSConfig) COGSConfig {
	if u == nil {
		return base
	}
	if u.Source != nil {
		base.Source = *u.Source
	}
	if u.Shopify != nil {
		base.Shopify = *u.Shopify
	}
	if u.Internal != nil {
		base.Internal = *u.Internal
	}
	if u.Fallback != nil {
		base.Fallback = *u.Fallback
	}
	return base
}

// ApplyTo overlays the supplied sections of the update onto base.
func (u *PLFormulaConfigUpdate) ApplyTo(base PLFormulaConfig) PLFormulaConfig {
	if u == nil {
		return base
	}
	if u.Revenue != nil {
		base.Revenue = *u.Revenue
	}
	if u.COGSDisplay != nil {
		base.COGSDisplay = *u.COGSDisplay
	}
	if u.VariableCosts != nil {
		base.VariableCosts = *u.VariableCosts
	}
	if u.Margin != nil {
		base.Margin = *u.Margin
	}
	if u.Marketing != nil {
		base.Marketing = *u.Marketing
	}
	if u.OperatingExpenses != nil {
		base.OperatingExpenses = *u.OperatingExpenses
	}
	return base
}

// mergeVariableCost resolves the merge base per strategy and applies the update.
func mergeVariableCost(update *VariableCostConfigUpdate, current *VariableCostConfig, defaults DefaultsProvider, strategy MergeStrategy) VariableCostConfig {
	base := defaults.VariableCostDefaults()
	if strategy == MergeAgainstCurrent && current != nil {
		base = *current
	}
	return update.ApplyTo(base)
}

func mergeCOGS(update *COGSConfigUpdate, current *COGSConfig, defaults DefaultsProvider, strategy MergeStrategy) COGSConfig {
	base := defaults.COGSDefaults()
	if strategy == MergeAgainstCurrent && current != nil {
		base = *current
	}
	return update.ApplyTo(base)
}

func mergeFormula(update *PLFormulaConfigUpdate, current *PLFormulaConfig, defaults DefaultsProvider, strategy MergeStrategy) PLFormulaConfig {
	base := defaults.FormulaDefaults()
	if strategy == MergeAgainstCurrent && current != nil {
		base = *current
	}
	return update.ApplyTo(base)
}

// ApplyTo patches the supplied fields onto an expense category.
func (u *ExpenseCategoryUpdate) ApplyTo(c ExpenseCategory) ExpenseCategory {
	if u == nil {
		return c
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.ExpenseType != nil {
		c.ExpenseType = *u.ExpenseType
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.DisplayOrder != nil {
		c.DisplayOrder = *u.DisplayOrder
	}
	return c
}
