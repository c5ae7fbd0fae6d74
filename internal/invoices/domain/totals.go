package domain

import (
	"orcamento_backend/platform/money"

	"github.com/shopspring/decimal"
)

// EffectivePrice is the custom price when one is set, otherwise the unit price.
func EffectivePrice(unitPrice decimal.Decimal, customPrice *decimal.Decimal) decimal.Decimal {
	if customPrice != nil {
		return *customPrice
	}
	return unitPrice
}

// ItemTotal is quantity times the effective price, rounded to cents.
func ItemTotal(quantity, unitPrice decimal.Decimal, customPrice *decimal.Decimal) decimal.Decimal {
	return money.Round(quantity.Mul(EffectivePrice(unitPrice, customPrice)))
}

// Totals are the derived amounts persisted on an invoice.
type Totals struct {
	TotalAmount decimal.Decimal
	FinalAmount decimal.Decimal
}

// Adjustments are the caller-supplied amounts applied on top of the item total.
type Adjustments struct {
	Discounts    decimal.Decimal
	Additions    decimal.Decimal
	Displacement decimal.Decimal
}

// ComputeTotals sums item totals and applies adjustments. The final amount
// never goes below zero.
func ComputeTotals(itemTotals []decimal.Decimal, adj Adjustments) Totals {
	sum := decimal.Zero
	for _, t := range itemTotals {
		sum = sum.Add(t)
	}
	sum = money.Round(sum)
	return Totals{TotalAmount: sum, FinalAmount: FinalAmount(sum, adj)}
}

// FinalAmount is max(0, total - discounts + additions + displacement).
func FinalAmount(total decimal.Decimal, adj Adjustments) decimal.Decimal {
	final := total.Sub(adj.Discounts).Add(adj.Additions).Add(adj.Displacement)
	if final.IsNegative() {
		return decimal.Zero
	}
	return money.Round(final)
}
