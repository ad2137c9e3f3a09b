package mcptools

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
)

// Views renders read-only ledger reports as plain text for MCP clients.
// Every view runs with the system scope.
type Views struct {
	aggregation   *service.AggregationService
	contributions *service.ContributionService
	expenditures  *service.ExpenditureService
	scope         domain.Scope
}

// NewViews creates the report views
func NewViews(aggregation *service.AggregationService, contributions *service.ContributionService, expenditures *service.ExpenditureService) *Views {
	return &Views{
		aggregation:   aggregation,
		contributions: contributions,
		expenditures:  expenditures,
		scope:         domain.SystemScope(),
	}
}

// MonthlySummary reports one month; zero year and month select the current month
func (v *Views) MonthlySummary(ctx context.Context, year, month int) (string, error) {
	var (
		s   *domain.MonthlySummary
		err error
	)
	if year == 0 && month == 0 {
		s, err = v.aggregation.CurrentMonthSummary(ctx, v.scope)
	} else {
		s, err = v.aggregation.MonthlySummary(ctx, v.scope, year, month)
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", time.Month(s.Month), s.Year)
	fmt.Fprintf(&sb, "Income:  %s\n", domain.FormatAmount(s.Income))
	fmt.Fprintf(&sb, "Expense: %s\n", domain.FormatAmount(s.Expense))
	fmt.Fprintf(&sb, "Net:     %s\n", domain.FormatAmount(s.NetFlow))
	return sb.String(), nil
}

// MonthlyTrend reports the twelve months of a year
func (v *Views) MonthlyTrend(ctx context.Context, year int) (string, error) {
	trend, err := v.aggregation.MonthlyTrend(ctx, v.scope, year)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tIncome\tExpense\tNet\t")
	for _, m := range trend.Months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			time.Month(m.Month).String()[:3],
			domain.FormatAmount(m.Income),
			domain.FormatAmount(m.Expense),
			domain.FormatAmount(m.NetFlow))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// TotalCash reports the sum of member balances
func (v *Views) TotalCash(ctx context.Context) (string, error) {
	total, err := v.aggregation.TotalCash(ctx, v.scope)
	if err != nil {
		return "", err
	}
	return "Total cash: " + domain.FormatAmount(total), nil
}

// MembersInArrears lists members with overdue contributions
func (v *Views) MembersInArrears(ctx context.Context, limit int) (string, error) {
	entries, err := v.aggregation.MembersInArrears(ctx, v.scope, limit)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No members in arrears.", nil
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s <%s>\t%d overdue\n", e.MemberName, e.MemberEmail, e.OverdueCount)
	}
	return sb.String(), nil
}

// Contributions lists contributions matching the raw filter values
func (v *Views) Contributions(ctx context.Context, params domain.FilterParams, limit int) (string, error) {
	page, err := v.contributions.ListContributions(ctx, v.scope, params.ContributionFilter(), domain.PageRequest{PageSize: int32(limit)})
	if err != nil {
		return "", err
	}
	if len(page.Data) == 0 {
		return "No contributions found.", nil
	}

	var sb strings.Builder
	for _, c := range page.Data {
		fmt.Fprintf(&sb, "#%d\t%s\t%s\t%s\t%s", c.ID, c.DueDate.Format(time.DateOnly), c.MemberName, domain.FormatAmount(c.Amount), c.Status)
		if c.PaidDate != nil {
			fmt.Fprintf(&sb, " on %s", c.PaidDate.Format(time.DateOnly))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Showing %d of %d\n", len(page.Data), page.TotalItems)
	return sb.String(), nil
}

// Expenditures lists expenditures matching the raw filter values
func (v *Views) Expenditures(ctx context.Context, params domain.FilterParams, limit int) (string, error) {
	page, err := v.expenditures.ListExpenditures(ctx, v.scope, params.ExpenditureFilter(), domain.PageRequest{PageSize: int32(limit)})
	if err != nil {
		return "", err
	}
	if len(page.Data) == 0 {
		return "No expenditures found.", nil
	}

	var sb strings.Builder
	for _, e := range page.Data {
		fmt.Fprintf(&sb, "#%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.ExpenditureDate.Format(time.DateOnly), e.Category, domain.FormatAmount(e.Amount), e.Status, e.Description)
	}
	fmt.Fprintf(&sb, "Showing %d of %d\n", len(page.Data), page.TotalItems)
	return sb.String(), nil
}
