package plconfig

// DefaultsProvider supplies the documented default configuration for a
// tenant with no stored rows. It is injected rather than read from package
// globals so different environments can carry different defaults without
// mutation risk.
type DefaultsProvider interface {
	VariableCostDefaults() VariableCostConfig
	COGSDefaults() COGSConfig
	FormulaDefaults() PLFormulaConfig
	SystemExpenseCategories() []ExpenseCategory
}

// StandardDefaults is the stock DefaultsProvider. Every call returns a
// fresh value, so callers can mutate results freely.
type StandardDefaults struct{}

var _ DefaultsProvider = StandardDefaults{}

// VariableCostDefaults returns the documented variable-cost defaults:
// Shopify Payments at 2.9% + 30¢, per-order fulfillment with zero fees,
// shipping tracked as actual expense, no miscellaneous costs.
func (StandardDefaults) VariableCostDefaults() VariableCostConfig {
	return VariableCostConfig{
		PaymentProcessing: PaymentProcessingConfig{
			PrimaryProcessor:     "shopify_payments",
			PercentageRate:       0.029,
			FixedFeeCents:        30,
			AdditionalProcessors: []AdditionalProcessor{},
		},
		Fulfillment: FulfillmentConfig{
			CostModel:   CostModelPerOrder,
			WeightTiers: []WeightTier{},
		},
		Shipping: ShippingConfig{
			TrackingMethod: TrackingActualExpense,
		},
		OtherVariableCosts: []OtherVariableCost{},
	}
}

// COGSDefaults returns the documented COGS defaults: Shopify-sourced with
// daily sync of the standard cost field, missing costs treated as zero.
func (StandardDefaults) COGSDefaults() COGSConfig {
	return COGSConfig{
		Source: COGSSourceShopify,
		Shopify: ShopifySyncConfig{
			SyncEnabled:   true,
			SyncFrequency: SyncDaily,
			CostField:     "cost_per_item",
		},
		Internal: InternalImportConfig{},
		Fallback: COGSFallbackConfig{
			Behavior: FallbackZero,
		},
	}
}

// FormulaDefaults returns the documented statement-presentation defaults:
// everything visible, grouped, with negative margins highlighted.
func (StandardDefaults) FormulaDefaults() PLFormulaConfig {
	return PLFormulaConfig{
		Revenue: RevenueDisplayConfig{
			ShowGrossSales:     true,
			ShowDiscounts:      true,
			ShowRefunds:        true,
			ShowShippingIncome: true,
		},
		COGSDisplay: COGSDisplayConfig{
			Label:       "Cost of Goods Sold",
			ShowPerUnit: false,
		},
		VariableCosts: VariableCostDisplayConfig{
			GroupPaymentFees:    true,
			GroupFulfillment:    true,
			ShowIndividualCosts: false,
		},
		Margin: MarginDisplayConfig{
			ShowContributionMargin: true,
			ShowPercentOfRevenue:   true,
			HighlightNegative:      true,
		},
		Marketing: MarketingDisplayConfig{
			ShowBreakdown:  true,
			GroupByChannel: false,
		},
		OperatingExpenses: OperatingExpenseDisplayConfig{
			GroupByCategory: true,
			CategoryOrder:   []string{},
			ShowInactive:    false,
		},
	}
}

// SystemExpenseCategories returns the canonical seeded category list.
// These rows carry IsSystem=true and cannot be deleted by tenants.
func (StandardDefaults) SystemExpenseCategories() []ExpenseCategory {
	mk := func(order int, categoryID, name string, expenseType ExpenseType) ExpenseCategory {
		return ExpenseCategory{
			CategoryID:   categoryID,
			Name:         name,
			ExpenseType:  expenseType,
			IsSystem:     true,
			IsActive:     true,
			DisplayOrder: order,
		}
	}

	return []ExpenseCategory{
		mk(1, "rent", "Rent & Facilities", ExpenseFixed),
		mk(2, "payroll", "Payroll & Contractors", ExpenseFixed),
		mk(3, "software", "Software & Subscriptions", ExpenseFixed),
		mk(4, "marketing", "Marketing & Advertising", ExpenseMarketing),
		mk(5, "utilities", "Utilities", ExpenseFixed),
		mk(6, "insurance", "Insurance", ExpenseFixed),
		mk(7, "professional_services", "Professional Services", ExpenseFixed),
		mk(8, "other", "Other Operating Expenses", ExpenseVariable),
	}
}
