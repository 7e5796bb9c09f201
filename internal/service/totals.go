package service

import (
	"fmt"
	"math"
	"strings"

	"po-manager/internal/models"

	"github.com/shopspring/decimal"
)

// Bounds of the line_items and purchase_orders numeric columns
var (
	minUnitPrice = decimal.New(1, -2)
	maxUnitPrice = decimal.RequireFromString("99999999.9999")
	maxAmount    = decimal.RequireFromString("9999999999.99")
)

// LineItemInput is one requested order line
type LineItemInput struct {
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CalculateTotals validates the lines and prices them. Each line total is
// rounded to cents (half away from zero) before being added to the order total.
func CalculateTotals(inputs []LineItemInput) ([]models.LineItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, models.NewValidationError("items", "at least one item is required")
	}

	items := make([]models.LineItem, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		name := strings.TrimSpace(in.ItemName)
		if name == "" {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].item_name", i), "is required")
		}
		if in.Quantity < 1 {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if in.Quantity > math.MaxInt32 {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "is too large")
		}
		if in.UnitPrice.LessThan(minUnitPrice) {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must be at least 0.01")
		}
		if in.UnitPrice.GreaterThan(maxUnitPrice) {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must be at most "+maxUnitPrice.String())
		}
		// stored with four decimals; a finer price would not reproduce the line total
		if !in.UnitPrice.Equal(in.UnitPrice.Round(4)) {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must have at most 4 decimal places")
		}

		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
		if lineTotal.GreaterThan(maxAmount) {
			return nil, decimal.Zero, models.NewValidationError(fmt.Sprintf("items[%d]", i), "line total exceeds "+maxAmount.String())
		}
		items = append(items, models.LineItem{
			ItemName:   name,
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	if total.GreaterThan(maxAmount) {
		return nil, decimal.Zero, models.NewValidationError("items", "order total exceeds "+maxAmount.String())
	}
	return items, total, nil
}
