package dataset

import (
	"fmt"
	"strings"
)

// Columns maps logical roles to the actual header names found in the
// consolidated table. Optional columns are empty strings when absent.
type Columns struct {
	Value        string
	Count        string
	Year         string
	Neighborhood string
	Street       string
	GeoTier      string
}

// Header fragments used for fuzzy detection. The municipal CSVs rename
// columns slightly from year to year, so roles are located by substring
// rather than exact schema binding.
const (
	fragmentTransactionValue = "VALOR DA TRANSA"
	fragmentAppraisalValue   = "VALOR DE AVALIA"
	fragmentCount            = "QUANTIDADE"
	fragmentYear             = "ANO"
	fragmentPayment          = "PAGAMENTO"

	headerNeighborhood = "BAIRRO"
	headerStreet       = "NOME DO LOGRADOURO"
	headerGeoTier      = "NIVEL_GEO"
)

// detectColumn returns the first header containing every fragment.
func detectColumn(headers []string, fragments ...string) string {
	for _, h := range headers {
		match := true
		for _, f := range fragments {
			if !strings.Contains(h, f) {
				match = false
				break
			}
		}
		if match {
			return h
		}
	}
	return ""
}

// exactColumn returns name if it appears verbatim among headers.
func exactColumn(headers []string, name string) string {
	for _, h := range headers {
		if h == name {
			return name
		}
	}
	return ""
}

// DetectColumns locates the value, count and year columns by substring
// match and the neighborhood/street/geo-tier columns by exact name.
// Missing required columns produce an error naming what is missing and
// listing every column actually present.
func DetectColumns(headers []string) (Columns, error) {
	cols := Columns{
		Value:        detectColumn(headers, fragmentTransactionValue),
		Count:        detectColumn(headers, fragmentCount),
		Year:         detectColumn(headers, fragmentYear, fragmentPayment),
		Neighborhood: exactColumn(headers, headerNeighborhood),
		Street:       exactColumn(headers, headerStreet),
		GeoTier:      exactColumn(headers, headerGeoTier),
	}
	if cols.Value == "" {
		cols.Value = detectColumn(headers, fragmentAppraisalValue)
	}
	if cols.Year == "" {
		cols.Year = detectColumn(headers, fragmentYear)
	}

	var missing []string
	if cols.Value == "" {
		missing = append(missing, "transaction value")
	}
	if cols.Count == "" {
		missing = append(missing, "transaction count")
	}
	if cols.Year == "" {
		missing = append(missing, "payment year")
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("required columns not found: %s (columns present: %s)",
			strings.Join(missing, ", "), strings.Join(headers, ", "))
	}
	return cols, nil
}
