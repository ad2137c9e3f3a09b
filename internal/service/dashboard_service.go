package service

import (
	"context"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService assembles the admin and member overviews
type DashboardService struct {
	aggregation      *AggregationService
	contributionRepo domain.ContributionRepository
	expenditureRepo  domain.ExpenditureRepository
	memberRepo       domain.MemberRepository
	cal              calendar
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(aggregation *AggregationService, contributionRepo domain.ContributionRepository, expenditureRepo domain.ExpenditureRepository, memberRepo domain.MemberRepository) *DashboardService {
	return &DashboardService{
		aggregation:      aggregation,
		contributionRepo: contributionRepo,
		expenditureRepo:  expenditureRepo,
		memberRepo:       memberRepo,
		cal:              aggregation.cal,
	}
}

// AdminDashboard returns the administrator overview
func (s *DashboardService) AdminDashboard(ctx context.Context, scope domain.Scope) (*domain.AdminDashboard, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	d := &domain.AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalMembers, err = s.memberRepo.CountActiveMembers(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalCash, err = s.aggregation.TotalCash(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		d.CurrentMonth, err = s.aggregation.CurrentMonthSummary(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		d.RecentContributions, err = s.contributionRepo.Recent(gctx, nil, domain.DashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentExpenditures, err = s.expenditureRepo.Recent(gctx, false, domain.DashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.MembersInArrears, err = s.aggregation.MembersInArrears(gctx, scope, domain.DefaultArrearsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	domain.RefreshAll(d.RecentContributions, s.cal.now())
	return d, nil
}

// MemberDashboard returns the overview of the calling member
func (s *DashboardService) MemberDashboard(ctx context.Context, scope domain.Scope) (*domain.MemberDashboard, error) {
	memberID := scope.CallerID()
	today := s.cal.today()
	start := today.AddDate(0, 0, 1-today.Day())
	end := start.AddDate(0, 1, 0)

	d := &domain.MemberDashboard{Balance: decimal.Zero}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Member, err = s.memberRepo.GetByID(gctx, memberID)
		return err
	})
	g.Go(func() (err error) {
		d.CurrentContribution, err = s.contributionRepo.GetByMemberDueRange(gctx, memberID, start, end)
		return err
	})
	g.Go(func() (err error) {
		d.History, err = s.contributionRepo.ListByMember(gctx, memberID, domain.DashboardHistoryLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentExpenditures, err = s.expenditureRepo.Recent(gctx, true, domain.DashboardRecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Balance = d.Member.Balance
	now := s.cal.now()
	if d.CurrentContribution != nil {
		d.CurrentContribution.Refresh(now)
	}
	domain.RefreshAll(d.History, now)
	return d, nil
}

// RecentActivity returns the newest contributions or expenditures visible to the scope
func (s *DashboardService) RecentActivity(ctx context.Context, scope domain.Scope, kind domain.ActivityKind, limit int) (*domain.Activity, error) {
	if limit <= 0 {
		limit = domain.DefaultActivityLimit
	}
	if limit > domain.MaxActivityLimit {
		limit = domain.MaxActivityLimit
	}

	activity := &domain.Activity{Kind: kind}
	switch kind {
	case domain.ActivityExpenditures:
		items, err := s.expenditureRepo.Recent(ctx, !scope.IsAdmin(), limit)
		if err != nil {
			return nil, err
		}
		activity.Expenditures = items
	default:
		activity.Kind = domain.ActivityContributions
		items, err := s.contributionRepo.Recent(ctx, scope.ContributionOwner(), limit)
		if err != nil {
			return nil, err
		}
		domain.RefreshAll(items, s.cal.now())
		activity.Contributions = items
	}
	return activity, nil
}
