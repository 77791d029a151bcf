package insight

import "itbi-insight-lab/internal/domain"

// FormulaVersion stamps every persisted document for traceability.
const FormulaVersion = "v0.1"

// DeflatorIPCA converts nominal transaction values into real values with
// base December 2024. Factor per calendar year, computed from the IBGE
// SIDRA 1737 series as IPCA_dec2024 / IPCA_decYear. Years without an
// entry use factor 1.0 (nominal value).
var DeflatorIPCA = map[int]float64{
	2020: 1.278,
	2021: 1.161,
	2022: 1.098,
	2023: 1.049,
	2024: 1.000,
}

// WindowYears maps report window sizes in months to effective years of
// annual data: 12m needs the 2 most recent years (the minimum to compute
// a trend), 24m takes 3, 36m takes 5.
var WindowYears = map[int]int{12: 2, 24: 3, 36: 5}

// WindowsMonths lists the report windows in serialization order.
var WindowsMonths = []int{12, 24, 36}

// ApplyDeflator returns a copy of records with RealValue filled in.
// Input records are never mutated; rows without a parseable year keep
// the nominal value (factor 1.0) and are dropped later at aggregation.
func ApplyDeflator(records []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(records))
	copy(out, records)
	for i := range out {
		factor := 1.0
		if out[i].Year != nil {
			if f, ok := DeflatorIPCA[*out[i].Year]; ok {
				factor = f
			}
		}
		out[i].RealValue = out[i].NominalValue * factor
	}
	return out
}
