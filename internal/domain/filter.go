package domain

import (
	"strconv"
	"strings"
	"time"
)

// FilterParams carries raw query-string values for a listing. Values that are
// empty or cannot be parsed apply no restriction.
type FilterParams struct {
	Status   string
	Year     string
	Month    string
	From     string
	To       string
	Search   string
	Category string
	Active   string
}

// ContributionFilter parses the contribution predicates
func (p FilterParams) ContributionFilter() ContributionFilter {
	var f ContributionFilter
	if st, ok := ParseContributionStatus(strings.TrimSpace(p.Status)); ok {
		f.Status = &st
	}
	year, yok := parseBoundedInt(p.Year, 1, 9999)
	month, mok := parseBoundedInt(p.Month, 1, 12)
	if yok && mok {
		f.Year, f.Month = year, month
	}
	f.DueFrom = parseDate(p.From)
	f.DueTo = parseDate(p.To)
	f.Search = strings.TrimSpace(p.Search)
	return f
}

// ExpenditureFilter parses the expenditure predicates
func (p FilterParams) ExpenditureFilter() ExpenditureFilter {
	var f ExpenditureFilter
	if c, ok := ParseCategory(strings.TrimSpace(p.Category)); ok {
		f.Category = &c
	}
	if st, ok := ParseExpenditureStatus(strings.TrimSpace(p.Status)); ok {
		f.Status = &st
	}
	f.DateFrom = parseDate(p.From)
	f.DateTo = parseDate(p.To)
	return f
}

// MemberFilter parses the member predicates
func (p FilterParams) MemberFilter() MemberFilter {
	f := MemberFilter{Search: strings.TrimSpace(p.Search)}
	if active, err := strconv.ParseBool(strings.TrimSpace(p.Active)); err == nil {
		f.Active = &active
	}
	return f
}

func parseBoundedInt(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func parseDate(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}
