package plconfig

import (
	"marginiq/internal/core/types"
)

// AvgItemWeightOunces is the fixed average-weight heuristic used to
// estimate order weight for weight-based fulfillment when no actual
// weight is available. Documented assumption, not configurable.
const AvgItemWeightOunces = 12.0

// FormulaInput is the order-shaped input to the calculator.
// OrderTotal is in dollars; COGSCents in integer cents.
type FormulaInput struct {
	OrderTotal float64 `json:"orderTotal"`
	ItemCount  int     `json:"itemCount"`
	COGSCents  int64   `json:"cogsCents"`
}

// FormulaPreviewResult is the contribution-margin breakdown. All monetary
// fields are dollars; percent fields are 0-100 percentages.
type FormulaPreviewResult struct {
	Revenue   float64 `json:"revenue"`
	ItemCount int     `json:"itemCount"`

	PaymentProcessingFee float64 `json:"paymentProcessingFee"`
	FulfillmentCost      float64 `json:"fulfillmentCost"`
	PackagingCost        float64 `json:"packagingCost"`
	ShippingCost         float64 `json:"shippingCost"`
	OtherVariableCosts   float64 `json:"otherVariableCosts"`

	COGS        float64 `json:"cogs"`
	COGSPercent float64 `json:"cogsPercent"`

	TotalVariableCosts        float64 `json:"totalVariableCosts"`
	ContributionMargin        float64 `json:"contributionMargin"`
	ContributionMarginPercent float64 `json:"contributionMarginPercent"`
}

// Calculate computes the contribution-margin breakdown for an order-shaped
// input against a possibly partial variable-cost config. Pure and
// deterministic: no I/O, safe for any number of concurrent callers.
//
// Any section missing from cfg is replaced wholesale by its default from
// the provider; a nil cfg computes against pure defaults.
func Calculate(input FormulaInput, cfg *VariableCostConfigUpdate, defaults DefaultsProvider) FormulaPreviewResult {
	resolved := cfg.ApplyTo(defaults.VariableCostDefaults())

	paymentFee := paymentProcessingFee(input.OrderTotal, resolved.PaymentProcessing)
	fulfillment := fulfillmentCost(input.ItemCount, resolved.Fulfillment)
	packaging := types.CentsToDollars(resolved.Fulfillment.PackagingCostCents)
	shipping := shippingCost(input.OrderTotal, resolved.Shipping)
	other := otherVariableCosts(input.OrderTotal, input.ItemCount, resolved.OtherVariableCosts)

	cogs := types.CentsToDollars(input.COGSCents)
	totalVariable := paymentFee + fulfillment + packaging + shipping + other
	margin := input.OrderTotal - cogs - totalVariable

	var cogsPercent, marginPercent float64
	if input.OrderTotal > 0 {
		cogsPercent = cogs / input.OrderTotal * 100
		marginPercent = margin / input.OrderTotal * 100
	}

	return FormulaPreviewResult{
		ItemCount:                 input.ItemCount,
		Revenue:                   input.OrderTotal,
		PaymentProcessingFee:      paymentFee,
		FulfillmentCost:           fulfillment,
		PackagingCost:             packaging,
		ShippingCost:              shipping,
		OtherVariableCosts:        other,
		COGS:                      cogs,
		COGSPercent:               cogsPercent,
		TotalVariableCosts:        totalVariable,
		ContributionMargin:        margin,
		ContributionMarginPercent: marginPercent,
	}
}

// paymentProcessingFee computes the blended processor fee. With additional
// processors configured, the primary receives 100 − Σ(volumePercent) of
// volume; a sum above 100 yields a negative primary share and is the
// caller's validation problem, not clamped here.
func paymentProcessingFee(orderTotal float64, cfg PaymentProcessingConfig) float64 {
	if len(cfg.AdditionalProcessors) == 0 {
		return orderTotal*cfg.PercentageRate + types.CentsToDollars(cfg.FixedFeeCents)
	}

	primaryVolume := 100.0
	for _, proc := range cfg.AdditionalProcessors {
		primaryVolume -= proc.VolumePercent
	}

	fee := (orderTotal*cfg.PercentageRate + types.CentsToDollars(cfg.FixedFeeCents)) * primaryVolume / 100
	for _, proc := range cfg.AdditionalProcessors {
		fee += (orderTotal*proc.PercentageRate + types.CentsToDollars(proc.FixedFeeCents)) * proc.VolumePercent / 100
	}
	return fee
}

// fulfillmentCost computes the pick/pack portion of fulfillment.
// Packaging is flat and added separately regardless of cost model.
func fulfillmentCost(itemCount int, cfg FulfillmentConfig) float64 {
	switch cfg.CostModel {
	case CostModelPerItem:
		return types.CentsToDollars(cfg.PickPackFeeCents + cfg.HandlingFeeCents + cfg.PickPackPerItemCents*int64(itemCount))
	case CostModelWeightBased:
		estimatedOunces := float64(itemCount) * AvgItemWeightOunces
		for _, tier := range cfg.WeightTiers {
			if estimatedOunces >= tier.MinOunces && estimatedOunces <= tier.MaxOunces {
				return types.CentsToDollars(tier.FeeCents)
			}
		}
		// No matching tier: fall back to the base pick/pack fee.
		return types.CentsToDollars(cfg.PickPackFeeCents)
	case CostModelManual:
		// Manual entries are filled in by a human downstream; the
		// preview shows the base pick/pack fee.
		return types.CentsToDollars(cfg.PickPackFeeCents)
	default: // per_order
		return types.CentsToDollars(cfg.PickPackFeeCents + cfg.HandlingFeeCents)
	}
}

func shippingCost(orderTotal float64, cfg ShippingConfig) float64 {
	switch cfg.TrackingMethod {
	case TrackingEstimatedPercent:
		if cfg.EstimatedPercent == nil {
			return 0
		}
		return orderTotal * *cfg.EstimatedPercent
	case TrackingFlatRate:
		if cfg.FlatRateCents == nil {
			return 0
		}
		return types.CentsToDollars(*cfg.FlatRateCents)
	default: // actual_expense: tracked outside this system
		return 0
	}
}

func otherVariableCosts(orderTotal float64, itemCount int, costs []OtherVariableCost) float64 {
	var total float64
	for _, c := range costs {
		if !c.IsActive {
			continue
		}
		switch c.Calculation {
		case CalcPerOrder:
			total += types.CentsToDollars(c.AmountCents)
		case CalcPerItem:
			total += types.CentsToDollars(c.AmountCents) * float64(itemCount)
		case CalcPercentageOfRevenue:
			if c.PercentageRate != nil {
				total += orderTotal * *c.PercentageRate
			}
		}
	}
	return total
}
