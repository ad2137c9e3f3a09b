package service

import (
	"context"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	MinSummaryYear = 2000
	MaxSummaryYear = 2100
)

// AggregationService computes cash-flow and arrears views over the ledger.
// Income is accrual-based: a paid contribution counts toward the month it was
// due, whenever it was paid.
type AggregationService struct {
	contributionRepo domain.ContributionRepository
	memberRepo       domain.MemberRepository
	cal              calendar
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(contributionRepo domain.ContributionRepository, memberRepo domain.MemberRepository, clk clock.Clock, loc *time.Location) *AggregationService {
	return &AggregationService{
		contributionRepo: contributionRepo,
		memberRepo:       memberRepo,
		cal:              newCalendar(clk, loc),
	}
}

// MonthlySummary returns income, expense and net flow for a calendar month.
// Member scopes see only their own contribution income; expenses are organizational.
func (s *AggregationService) MonthlySummary(ctx context.Context, scope domain.Scope, year, month int) (*domain.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, domain.ErrInvalidMonth
	}
	if year < MinSummaryYear || year > MaxSummaryYear {
		return nil, domain.ErrInvalidYear
	}

	start, end := util.MonthRange(year, month)

	totals, err := s.contributionRepo.PeriodTotals(ctx, scope.ContributionOwner(), start, end)
	if err != nil {
		return nil, err
	}
	return domain.NewMonthlySummary(year, month, totals.Income, totals.Expense), nil
}

// CurrentMonthSummary returns the summary of the current ledger month
func (s *AggregationService) CurrentMonthSummary(ctx context.Context, scope domain.Scope) (*domain.MonthlySummary, error) {
	today := s.cal.today()
	return s.MonthlySummary(ctx, scope, today.Year(), int(today.Month()))
}

// MonthlyTrend returns the twelve monthly summaries of a year
func (s *AggregationService) MonthlyTrend(ctx context.Context, scope domain.Scope, year int) (*domain.MonthlyTrend, error) {
	if year < MinSummaryYear || year > MaxSummaryYear {
		return nil, domain.ErrInvalidYear
	}

	months := make([]*domain.MonthlySummary, 12)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range months {
		g.Go(func() error {
			summary, err := s.MonthlySummary(gctx, scope, year, i+1)
			if err != nil {
				return err
			}
			months[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.MonthlyTrend{Year: year, Months: months}, nil
}

// TotalCash sums member balances; a member scope sees only its own balance
func (s *AggregationService) TotalCash(ctx context.Context, scope domain.Scope) (decimal.Decimal, error) {
	return s.memberRepo.SumBalances(ctx, scope.ContributionOwner())
}

// MembersInArrears lists members with overdue contributions, most overdue first
func (s *AggregationService) MembersInArrears(ctx context.Context, scope domain.Scope, limit int) ([]*domain.ArrearsEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultArrearsLimit
	}
	if limit > domain.MaxArrearsLimit {
		limit = domain.MaxArrearsLimit
	}
	return s.contributionRepo.ListArrears(ctx, scope.ContributionOwner(), s.cal.today(), limit)
}
