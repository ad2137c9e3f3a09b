package mcptools

import (
	"context"
	"testing"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/appdotbuilder/member-contributions-manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestViews(t *testing.T) (*Views, *testutil.MockLedger) {
	t.Helper()
	l := testutil.NewMockLedger()
	clk := clock.NewFixed(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))

	admin := l.AddMember("Admin", "admin@example.com", domain.RoleAdmin)
	alice := l.AddMember("Alice", "alice@example.com", domain.RoleMember)
	bob := l.AddMember("Bob", "bob@example.com", domain.RoleMember)

	paid := day(2025, time.June, 3)
	l.AddContribution(alice.ID, "25.00", day(2025, time.June, 1), nil)
	l.AddContribution(bob.ID, "40.00", day(2025, time.June, 2), &paid)
	l.AddExpenditure(admin.ID, "15.00", day(2025, time.June, 4), domain.ExpenditureApproved)
	l.AddExpenditure(admin.ID, "99.00", day(2025, time.June, 5), domain.ExpenditurePending)

	aggregation := service.NewAggregationService(l.Contributions, l.Members, clk, time.UTC)
	contributions := service.NewContributionService(l.Contributions, l.Members, clk, time.UTC)
	expenditures := service.NewExpenditureService(l.Expenditures)
	return NewViews(aggregation, contributions, expenditures), l
}

func TestMonthlySummary(t *testing.T) {
	v, _ := newTestViews(t)
	ctx := context.Background()

	out, err := v.MonthlySummary(ctx, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "June 2025")
	assert.Contains(t, out, "Income:  40.00")
	assert.Contains(t, out, "Expense: 15.00")
	assert.Contains(t, out, "Net:     25.00")

	_, err = v.MonthlySummary(ctx, 2025, 13)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMonthlyTrend(t *testing.T) {
	v, _ := newTestViews(t)

	out, err := v.MonthlyTrend(context.Background(), 2025)
	require.NoError(t, err)
	assert.Contains(t, out, "Jun")
	assert.Contains(t, out, "Dec")
	assert.Contains(t, out, "25.00")

	_, err = v.MonthlyTrend(context.Background(), 1999)
	assert.ErrorIs(t, err, domain.ErrInvalidYear)
}

func TestMembersInArrears(t *testing.T) {
	v, _ := newTestViews(t)

	out, err := v.MembersInArrears(context.Background(), 10)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice <alice@example.com>")
	assert.NotContains(t, out, "Bob")
}

func TestContributions_DerivesStatus(t *testing.T) {
	v, _ := newTestViews(t)

	out, err := v.Contributions(context.Background(), domain.FilterParams{Status: "overdue"}, 15)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "Showing 1 of 1")

	out, err = v.Contributions(context.Background(), domain.FilterParams{Year: "2024", Month: "1"}, 15)
	require.NoError(t, err)
	assert.Equal(t, "No contributions found.", out)
}

func TestExpenditures_SystemScopeSeesAll(t *testing.T) {
	v, _ := newTestViews(t)

	out, err := v.Expenditures(context.Background(), domain.FilterParams{}, 15)
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 2")
	assert.Contains(t, out, "pending")
}

func TestTotalCash(t *testing.T) {
	v, _ := newTestViews(t)

	out, err := v.TotalCash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Total cash: 0.00", out)
}
