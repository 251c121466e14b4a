// Package query implements the role-scoped listing rules shared by every
// application view: filter parsing, search normalization, SQL predicates,
// response shaping and pagination.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// Filter is the parsed form of the list query string.
type Filter struct {
	AwardType              string
	Search                 string
	Page                   int
	Limit                  int
	IsShortlisted          bool
	IsGetWithdrawRequests  bool
	IsGetNotClarifications bool
}

// Limits bounds the page size accepted from clients.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultLimits mirrors the page=1, limit=10 default of the listing endpoints.
var DefaultLimits = Limits{DefaultLimit: 10, MaxLimit: 100}

// ParseFilter reads the list parameters from v. Malformed numbers and non-positive
// page values are validation errors; a limit above the maximum is clamped.
func ParseFilter(v url.Values, limits Limits) (Filter, error) {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = DefaultLimits.DefaultLimit
	}

	f := Filter{
		AwardType: strings.TrimSpace(v.Get("award_type")),
		Search:    strings.TrimSpace(v.Get("search")),
		Page:      1,
		Limit:     limits.DefaultLimit,
	}

	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Filter{}, apperrors.NewValidationError("page", "must be a positive integer")
		}
		f.Page = page
	}
	if raw := v.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Filter{}, apperrors.NewValidationError("limit", "must be a positive integer")
		}
		f.Limit = limit
	}
	if limits.MaxLimit > 0 && f.Limit > limits.MaxLimit {
		f.Limit = limits.MaxLimit
	}

	var err error
	if f.IsShortlisted, err = parseBool(v, "isShortlisted"); err != nil {
		return Filter{}, err
	}
	if f.IsGetWithdrawRequests, err = parseBool(v, "isGetWithdrawRequests"); err != nil {
		return Filter{}, err
	}
	if f.IsGetNotClarifications, err = parseBool(v, "isGetNotClarifications"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseBool(v url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(key, "must be true or false")
	}
	return b, nil
}

var searchNoise = regexp.MustCompile(`[\s-]+`)

// NormalizeSearch lowercases s and drops whitespace and hyphens.
func NormalizeSearch(s string) string {
	return searchNoise.ReplaceAllString(strings.ToLower(s), "")
}

// Matches applies the award type and search parts of the filter.
func (f Filter) Matches(app *models.Application) bool {
	if app == nil {
		return false
	}
	if f.AwardType != "" && !strings.EqualFold(strings.TrimSpace(app.FDS.AwardType), f.AwardType) {
		return false
	}
	if f.Search != "" {
		needle := NormalizeSearch(f.Search)
		id := strconv.FormatInt(app.ID, 10)
		if !strings.Contains(id, needle) && !strings.Contains(NormalizeSearch(app.FDS.CyclePeriod), needle) {
			return false
		}
	}
	return true
}

// Apply keeps the applications that match f, preserving order.
func (f Filter) Apply(apps []*models.Application) []*models.Application {
	out := make([]*models.Application, 0, len(apps))
	for _, a := range apps {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}
