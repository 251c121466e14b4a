// Package scoring matches submitted parameters against the master catalog and
// computes capped and net marks.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// NormalizeName trims and lowercases a parameter name for comparison.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchParameter returns the first master entry whose name, subsubcategory,
// subcategory or category equals the submitted name after trimming and case folding.
func MatchParameter(awardType, submitted string, catalog []models.ParameterMaster) (*models.ParameterMaster, error) {
	target := NormalizeName(submitted)
	if target != "" {
		for i := range catalog {
			m := &catalog[i]
			if NormalizeName(m.Name) == target ||
				NormalizeName(m.Subsubcategory) == target ||
				NormalizeName(m.Subcategory) == target ||
				NormalizeName(m.Category) == target {
				return m, nil
			}
		}
	}
	return nil, apperrors.NewParameterNotFoundError(awardType, strings.TrimSpace(submitted))
}

// ComputeMarks returns count*perUnitMark capped at maxMarks. Negative inputs score zero.
func ComputeMarks(count, perUnitMark, maxMarks float64) float64 {
	raw := count * perUnitMark
	if raw < 0 {
		raw = 0
	}
	if maxMarks < 0 {
		maxMarks = 0
	}
	return math.Min(raw, maxMarks)
}

// Info renders the human-readable scoring rule stored with a parameter.
func Info(name string, perUnitMark, maxMarks float64) string {
	return fmt.Sprintf("1 %s = %s marks (Max %s marks)", strings.TrimSpace(name), formatMark(perUnitMark), formatMark(maxMarks))
}

func formatMark(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScoreParameters matches every submitted parameter and fills in its scoring fields.
// The first unmatched parameter aborts the whole set.
func ScoreParameters(awardType string, params []models.Parameter, catalog []models.ParameterMaster) ([]models.Parameter, error) {
	scored := make([]models.Parameter, len(params))
	for i, p := range params {
		master, err := MatchParameter(awardType, p.Name, catalog)
		if err != nil {
			return nil, err
		}
		p = p.Clone()
		p.Name = master.Name
		p.Category = master.Category
		p.Subcategory = master.Subcategory
		p.Subsubcategory = master.Subsubcategory
		p.PerUnitMark = master.PerUnitMark
		p.MaxMarks = master.MaxMarks
		p.Negative = master.Negative
		p.Marks = ComputeMarks(p.Count, master.PerUnitMark, master.MaxMarks)
		p.Info = Info(master.Name, master.PerUnitMark, master.MaxMarks)
		scored[i] = p
	}
	return scored, nil
}

// Totals is the query-time score summary of one application.
type Totals struct {
	TotalMarks         float64 `json:"totalMarks"`
	TotalNegativeMarks float64 `json:"totalNegativeMarks"`
	NetMarks           float64 `json:"netMarks"`
}

// AggregateNetMarks sums marks and deducts the ones flagged negative.
// negativeByName is keyed by NormalizeName; names absent from it fall back to
// the flag stored on the parameter at submission time.
func AggregateNetMarks(params []models.Parameter, negativeByName map[string]bool) Totals {
	var t Totals
	for _, p := range params {
		t.TotalMarks += p.Marks
		negative, ok := negativeByName[NormalizeName(p.Name)]
		if !ok {
			negative = p.Negative
		}
		if negative {
			t.TotalNegativeMarks += p.Marks
		}
	}
	t.NetMarks = t.TotalMarks - t.TotalNegativeMarks
	return t
}

// ParameterNames returns the distinct normalized names across applications, for batch lookups.
func ParameterNames(apps ...*models.Application) []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range apps {
		if a == nil {
			continue
		}
		for _, p := range a.FDS.Parameters {
			n := NormalizeName(p.Name)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}
