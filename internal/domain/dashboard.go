package domain

import "github.com/shopspring/decimal"

// MonthlySummary contains the accrual-basis cash flow of one calendar month
type MonthlySummary struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	NetFlow decimal.Decimal `json:"netFlow"`
}

// NewMonthlySummary builds a summary and its net flow
func NewMonthlySummary(year, month int, income, expense decimal.Decimal) *MonthlySummary {
	return &MonthlySummary{
		Year:    year,
		Month:   month,
		Income:  income,
		Expense: expense,
		NetFlow: income.Sub(expense),
	}
}

// PeriodTotals holds accrual income and approved expense over a date range
type PeriodTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// MonthlyTrend holds the twelve monthly summaries of a year
type MonthlyTrend struct {
	Year   int               `json:"year"`
	Months []*MonthlySummary `json:"months"`
}

// AdminDashboard is the overview shown to administrators
type AdminDashboard struct {
	TotalMembers        int64           `json:"totalMembers"`
	TotalCash           decimal.Decimal `json:"totalCash"`
	CurrentMonth        *MonthlySummary `json:"currentMonth"`
	RecentContributions []*Contribution `json:"recentContributions"`
	RecentExpenditures  []*Expenditure  `json:"recentExpenditures"`
	MembersInArrears    []*ArrearsEntry `json:"membersInArrears"`
}

// MemberDashboard is the overview shown to a regular member
type MemberDashboard struct {
	Member              *Member         `json:"member"`
	Balance             decimal.Decimal `json:"balance"`
	CurrentContribution *Contribution   `json:"currentContribution"`
	History             []*Contribution `json:"history"`
	RecentExpenditures  []*Expenditure  `json:"recentExpenditures"`
}

// Dashboard section sizes
const (
	DashboardRecentLimit  = 5
	DashboardHistoryLimit = 10
)

// ActivityKind selects the feed of RecentActivity
type ActivityKind string

const (
	ActivityContributions ActivityKind = "contributions"
	ActivityExpenditures  ActivityKind = "expenditures"
)

// ParseActivityKind returns the activity kind named by s
func ParseActivityKind(s string) (ActivityKind, bool) {
	switch k := ActivityKind(s); k {
	case ActivityContributions, ActivityExpenditures:
		return k, true
	}
	return "", false
}

// Activity is a recent-activity feed; only the slice matching Kind is set
type Activity struct {
	Kind          ActivityKind    `json:"kind"`
	Contributions []*Contribution `json:"contributions,omitempty"`
	Expenditures  []*Expenditure  `json:"expenditures,omitempty"`
}

const (
	DefaultActivityLimit = 10
	MaxActivityLimit     = 50
)
