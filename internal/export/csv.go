// Package export renders calculation results for people and spreadsheets.
package export

import (
	"encoding/csv"
	"io"
	"slices"

	"benefit-calculator/internal/model"
)

var header = []string{"section", "field", "value"}

// WriteCSV writes r as section,field,value rows: member data, calculation
// factors in name order, subprocess outputs, then result metadata.
func WriteCSV(w io.Writer, r model.CalculationResult) error {
	cw := csv.NewWriter(w)
	rows := [][]string{header}

	for _, kv := range r.MemberData.Fields() {
		rows = append(rows, []string{"member", kv[0], kv[1]})
	}
	names := make([]string, 0, len(r.MemberData.Factors))
	for k := range r.MemberData.Factors {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		rows = append(rows, []string{"factor", k, model.Stringify(r.MemberData.Factors[k])})
	}
	for _, kv := range r.SubProcessData.Fields() {
		rows = append(rows, []string{"result", kv[0], kv[1]})
	}
	for _, kv := range [][2]string{
		{"message", r.Message},
		{"calculationId", r.CalculationID},
		{"timestamp", r.Timestamp},
	} {
		if kv[1] != "" {
			rows = append(rows, []string{"meta", kv[0], kv[1]})
		}
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
