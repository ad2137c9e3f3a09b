package handler

import (
	"net/http"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard and financial summary HTTP requests
type DashboardHandler struct {
	dashboardService   *service.DashboardService
	aggregationService *service.AggregationService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService, aggregationService *service.AggregationService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService:   dashboardService,
		aggregationService: aggregationService,
	}
}

// MonthlySummaryResponse represents one month of cash flow in API responses
type MonthlySummaryResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	NetFlow string `json:"netFlow"`
}

// MonthlyTrendResponse represents a year of monthly summaries
type MonthlyTrendResponse struct {
	Year   int                      `json:"year"`
	Months []MonthlySummaryResponse `json:"months"`
}

// TotalCashResponse represents the cash position
type TotalCashResponse struct {
	TotalCash string `json:"totalCash"`
}

// ArrearsResponse represents a member with overdue contributions
type ArrearsResponse struct {
	MemberID     int32  `json:"memberId"`
	MemberName   string `json:"memberName"`
	MemberEmail  string `json:"memberEmail"`
	OverdueCount int64  `json:"overdueCount"`
}

// AdminDashboardResponse represents the administrator overview
type AdminDashboardResponse struct {
	Role                string                 `json:"role"`
	TotalMembers        int64                  `json:"totalMembers"`
	TotalCash           string                 `json:"totalCash"`
	CurrentMonth        MonthlySummaryResponse `json:"currentMonth"`
	RecentContributions []ContributionResponse `json:"recentContributions"`
	RecentExpenditures  []ExpenditureResponse  `json:"recentExpenditures"`
	MembersInArrears    []ArrearsResponse      `json:"membersInArrears"`
}

// MemberDashboardResponse represents a member's overview
type MemberDashboardResponse struct {
	Role                string                 `json:"role"`
	Member              MemberResponse         `json:"member"`
	Balance             string                 `json:"balance"`
	CurrentContribution *ContributionResponse  `json:"currentContribution"`
	History             []ContributionResponse `json:"history"`
	RecentExpenditures  []ExpenditureResponse  `json:"recentExpenditures"`
}

// ActivityResponse represents a recent-activity feed
type ActivityResponse struct {
	Kind          string                 `json:"kind"`
	Contributions []ContributionResponse `json:"contributions,omitempty"`
	Expenditures  []ExpenditureResponse  `json:"expenditures,omitempty"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	scope := middleware.ScopeFromContext(c)

	if scope.IsAdmin() {
		d, err := h.dashboardService.AdminDashboard(ctx, scope)
		if err != nil {
			return handleServiceError(c, err, "get admin dashboard")
		}
		return c.JSON(http.StatusOK, AdminDashboardResponse{
			Role:                string(domain.RoleAdmin),
			TotalMembers:        d.TotalMembers,
			TotalCash:           domain.FormatAmount(d.TotalCash),
			CurrentMonth:        toMonthlySummaryResponse(d.CurrentMonth),
			RecentContributions: toContributionResponses(d.RecentContributions),
			RecentExpenditures:  toExpenditureResponses(d.RecentExpenditures),
			MembersInArrears:    toArrearsResponses(d.MembersInArrears),
		})
	}

	d, err := h.dashboardService.MemberDashboard(ctx, scope)
	if err != nil {
		return handleServiceError(c, err, "get member dashboard")
	}
	resp := MemberDashboardResponse{
		Role:               string(domain.RoleMember),
		Member:             toMemberResponse(d.Member),
		Balance:            domain.FormatAmount(d.Balance),
		History:            toContributionResponses(d.History),
		RecentExpenditures: toExpenditureResponses(d.RecentExpenditures),
	}
	if d.CurrentContribution != nil {
		current := toContributionResponse(d.CurrentContribution)
		resp.CurrentContribution = &current
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMonthlySummary handles GET /api/v1/summary/monthly?year=&month=
// Without parameters the current month is summarized.
func (h *DashboardHandler) GetMonthlySummary(c echo.Context) error {
	ctx := c.Request().Context()
	scope := middleware.ScopeFromContext(c)

	if c.QueryParam("year") == "" && c.QueryParam("month") == "" {
		summary, err := h.aggregationService.CurrentMonthSummary(ctx, scope)
		if err != nil {
			return handleServiceError(c, err, "get current month summary")
		}
		return c.JSON(http.StatusOK, toMonthlySummaryResponse(summary))
	}

	year, ok := queryInt(c, "year", 0)
	if !ok {
		return fieldError(c, "year", "Must be an integer")
	}
	month, ok := queryInt(c, "month", 0)
	if !ok {
		return fieldError(c, "month", "Must be an integer")
	}

	summary, err := h.aggregationService.MonthlySummary(ctx, scope, year, month)
	if err != nil {
		return handleServiceError(c, err, "get monthly summary")
	}
	return c.JSON(http.StatusOK, toMonthlySummaryResponse(summary))
}

// GetMonthlyTrend handles GET /api/v1/summary/trend?year=
func (h *DashboardHandler) GetMonthlyTrend(c echo.Context) error {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return fieldError(c, "year", "Must be an integer")
	}

	trend, err := h.aggregationService.MonthlyTrend(c.Request().Context(), middleware.ScopeFromContext(c), year)
	if err != nil {
		return handleServiceError(c, err, "get monthly trend")
	}

	resp := MonthlyTrendResponse{
		Year:   trend.Year,
		Months: make([]MonthlySummaryResponse, len(trend.Months)),
	}
	for i, m := range trend.Months {
		resp.Months[i] = toMonthlySummaryResponse(m)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetTotalCash handles GET /api/v1/summary/cash
func (h *DashboardHandler) GetTotalCash(c echo.Context) error {
	total, err := h.aggregationService.TotalCash(c.Request().Context(), middleware.ScopeFromContext(c))
	if err != nil {
		return handleServiceError(c, err, "get total cash")
	}
	return c.JSON(http.StatusOK, TotalCashResponse{TotalCash: domain.FormatAmount(total)})
}

// GetArrears handles GET /api/v1/arrears?limit=
func (h *DashboardHandler) GetArrears(c echo.Context) error {
	limit, ok := queryInt(c, "limit", domain.DefaultArrearsLimit)
	if !ok {
		return fieldError(c, "limit", "Must be an integer")
	}

	entries, err := h.aggregationService.MembersInArrears(c.Request().Context(), middleware.ScopeFromContext(c), limit)
	if err != nil {
		return handleServiceError(c, err, "list members in arrears")
	}
	return c.JSON(http.StatusOK, toArrearsResponses(entries))
}

// GetActivity handles GET /api/v1/activity?kind=&limit=
func (h *DashboardHandler) GetActivity(c echo.Context) error {
	kind := domain.ActivityContributions
	if raw := c.QueryParam("kind"); raw != "" {
		k, ok := domain.ParseActivityKind(raw)
		if !ok {
			return fieldError(c, "kind", "Must be one of: contributions, expenditures")
		}
		kind = k
	}
	limit, ok := queryInt(c, "limit", domain.DefaultActivityLimit)
	if !ok {
		return fieldError(c, "limit", "Must be an integer")
	}

	activity, err := h.dashboardService.RecentActivity(c.Request().Context(), middleware.ScopeFromContext(c), kind, limit)
	if err != nil {
		return handleServiceError(c, err, "get recent activity")
	}
	return c.JSON(http.StatusOK, ActivityResponse{
		Kind:          string(activity.Kind),
		Contributions: toContributionResponses(activity.Contributions),
		Expenditures:  toExpenditureResponses(activity.Expenditures),
	})
}

func toMonthlySummaryResponse(s *domain.MonthlySummary) MonthlySummaryResponse {
	return MonthlySummaryResponse{
		Year:    s.Year,
		Month:   s.Month,
		Income:  domain.FormatAmount(s.Income),
		Expense: domain.FormatAmount(s.Expense),
		NetFlow: domain.FormatAmount(s.NetFlow),
	}
}

func toArrearsResponses(entries []*domain.ArrearsEntry) []ArrearsResponse {
	out := make([]ArrearsResponse, len(entries))
	for i, e := range entries {
		out[i] = ArrearsResponse{
			MemberID:     e.MemberID,
			MemberName:   e.MemberName,
			MemberEmail:  e.MemberEmail,
			OverdueCount: e.OverdueCount,
		}
	}
	return out
}
