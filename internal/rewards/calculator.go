package rewards

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Table holds the immutable pricing inputs for reward computation.
// Base rates are IDR per kilogram.
type Table struct {
	BaseRates          map[enums.WasteCategory]decimal.Decimal
	QualityMultipliers map[enums.QualityGrade]decimal.Decimal
}

// DefaultTable returns the standard network pricing.
func DefaultTable() Table {
	return Table{
		BaseRates: map[enums.WasteCategory]decimal.Decimal{
			enums.WasteCategoryPlastic: decimal.NewFromInt(5000),
			enums.WasteCategoryGlass:   decimal.NewFromInt(3000),
			enums.WasteCategoryMetal:   decimal.NewFromInt(7000),
			enums.WasteCategoryPaper:   decimal.NewFromInt(2000),
			enums.WasteCategoryMixed:   decimal.NewFromInt(1000),
		},
		QualityMultipliers: map[enums.QualityGrade]decimal.Decimal{
			enums.QualityGradeA: decimal.RequireFromString("1.0"),
			enums.QualityGradeB: decimal.RequireFromString("0.8"),
			enums.QualityGradeC: decimal.RequireFromString("0.6"),
			enums.QualityGradeD: decimal.RequireFromString("0.4"),
		},
	}
}

// Validate reports whether the table covers every rated category and grade.
func (t Table) Validate() error {
	for _, category := range []enums.WasteCategory{
		enums.WasteCategoryPlastic,
		enums.WasteCategoryGlass,
		enums.WasteCategoryMetal,
		enums.WasteCategoryPaper,
		enums.WasteCategoryMixed,
	} {
		if _, ok := t.BaseRates[category]; !ok {
			return fmt.Errorf("missing base rate for category %q", category)
		}
	}
	for _, grade := range []enums.QualityGrade{
		enums.QualityGradeA,
		enums.QualityGradeB,
		enums.QualityGradeC,
		enums.QualityGradeD,
	} {
		if _, ok := t.QualityMultipliers[grade]; !ok {
			return fmt.Errorf("missing quality multiplier for grade %q", grade)
		}
	}
	return nil
}

// Amount computes the reward in whole rupiah:
// baseRate[category] × weight × qualityMultiplier[grade] × confidence/100.
// An unrated category falls back to the mixed rate; an unrated grade falls back
// to the lowest multiplier. Weight is in kilograms.
func Amount(table Table, category enums.WasteCategory, weight decimal.Decimal, grade enums.QualityGrade, confidence int) int64 {
	if weight.Sign() <= 0 {
		return 0
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	rate, ok := table.BaseRates[category]
	if !ok {
		rate = table.BaseRates[enums.WasteCategoryMixed]
	}
	multiplier, ok := table.QualityMultipliers[grade]
	if !ok {
		multiplier = table.QualityMultipliers[enums.QualityGradeLowest]
	}

	confidenceFactor := decimal.NewFromInt(int64(confidence)).Div(decimal.NewFromInt(100))

	amount := rate.Mul(weight).Mul(multiplier).Mul(confidenceFactor)
	return amount.Round(0).IntPart()
}
