package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterParams_ContributionFilter(t *testing.T) {
	f := FilterParams{
		Status: "paid",
		Year:   "2024",
		Month:  "3",
		From:   "2024-01-01",
		To:     "2024-12-31",
		Search: "  siti ",
	}.ContributionFilter()

	require.NotNil(t, f.Status)
	assert.Equal(t, StatusPaid, *f.Status)
	assert.Equal(t, 2024, f.Year)
	assert.Equal(t, 3, f.Month)
	require.NotNil(t, f.DueFrom)
	assert.Equal(t, date(2024, 1, 1), *f.DueFrom)
	require.NotNil(t, f.DueTo)
	assert.Equal(t, date(2024, 12, 31), *f.DueTo)
	assert.Equal(t, "siti", f.Search)
}

func TestFilterParams_UnrecognizedValuesAreIgnored(t *testing.T) {
	f := FilterParams{
		Status: "archived",
		Year:   "2024",
		Month:  "13",
		From:   "yesterday",
	}.ContributionFilter()

	assert.Nil(t, f.Status)
	assert.Zero(t, f.Year, "month/year apply only together")
	assert.Zero(t, f.Month)
	assert.Nil(t, f.DueFrom)
	assert.Equal(t, ContributionFilter{}, f)
}

func TestFilterParams_ExpenditureFilter(t *testing.T) {
	f := FilterParams{Category: "Events", Status: "rejected"}.ExpenditureFilter()
	require.NotNil(t, f.Category)
	assert.Equal(t, CategoryEvents, *f.Category)
	require.NotNil(t, f.Status)
	assert.Equal(t, ExpenditureRejected, *f.Status)

	f = FilterParams{Category: "events", Status: "done"}.ExpenditureFilter()
	assert.Nil(t, f.Category)
	assert.Nil(t, f.Status)
}

func TestFilterParams_MemberFilter(t *testing.T) {
	f := FilterParams{Search: "ani", Active: "false"}.MemberFilter()
	assert.Equal(t, "ani", f.Search)
	require.NotNil(t, f.Active)
	assert.False(t, *f.Active)

	f = FilterParams{Active: "sometimes"}.MemberFilter()
	assert.Nil(t, f.Active)
}
