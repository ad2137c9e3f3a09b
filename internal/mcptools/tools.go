package mcptools

import (
	"context"
	"strconv"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools adds the read-only ledger tools to the server.
func RegisterTools(s *server.MCPServer, v *Views) {
	registerMonthlySummary(s, v)
	registerMonthlyTrend(s, v)
	registerTotalCash(s, v)
	registerMembersInArrears(s, v)
	registerListContributions(s, v)
	registerListExpenditures(s, v)
}

// optionalInt renders a numeric argument for FilterParams; absent means no filter
func optionalInt(request mcp.CallToolRequest, key string) string {
	if v := mcp.ParseInt(request, key, 0); v != 0 {
		return strconv.Itoa(v)
	}
	return ""
}

func textResult(result string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func registerMonthlySummary(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("monthly_summary",
		mcp.WithDescription("Income, approved expenses and net flow of one calendar month. Income counts paid contributions by due month."),
		mcp.WithNumber("year",
			mcp.Description("Year (2000-2100). Omit together with month for the current month."),
		),
		mcp.WithNumber("month",
			mcp.Description("Month (1-12)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year := mcp.ParseInt(request, "year", 0)
		month := mcp.ParseInt(request, "month", 0)
		return textResult(v.MonthlySummary(ctx, year, month))
	})
}

func registerMonthlyTrend(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("monthly_trend",
		mcp.WithDescription("Month-by-month income, expense and net flow for a whole year."),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Year (2000-2100)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year, err := request.RequireInt("year")
		if err != nil {
			return mcp.NewToolResultError("year is required"), nil
		}
		return textResult(v.MonthlyTrend(ctx, year))
	})
}

func registerTotalCash(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("total_cash",
		mcp.WithDescription("Current cash position: the sum of all member balances."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(v.TotalCash(ctx))
	})
}

func registerMembersInArrears(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("members_in_arrears",
		mcp.WithDescription("Members with overdue contributions, most overdue first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of members (default: 10)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := mcp.ParseInt(request, "limit", domain.DefaultArrearsLimit)
		return textResult(v.MembersInArrears(ctx, limit))
	})
}

func registerListContributions(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("list_contributions",
		mcp.WithDescription("List contributions, latest due date first. Status is derived from the due and paid dates."),
		mcp.WithString("status",
			mcp.Description("Filter by status: pending, paid, overdue"),
		),
		mcp.WithNumber("year",
			mcp.Description("Due year; applies only together with month"),
		),
		mcp.WithNumber("month",
			mcp.Description("Due month (1-12)"),
		),
		mcp.WithString("search",
			mcp.Description("Member name substring (case-insensitive)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of contributions (default: 15, max: 100)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := domain.FilterParams{
			Status: mcp.ParseString(request, "status", ""),
			Year:   optionalInt(request, "year"),
			Month:  optionalInt(request, "month"),
			Search: mcp.ParseString(request, "search", ""),
		}
		limit := mcp.ParseInt(request, "limit", domain.DefaultPageSize)
		return textResult(v.Contributions(ctx, params, limit))
	})
}

func registerListExpenditures(s *server.MCPServer, v *Views) {
	tool := mcp.NewTool("list_expenditures",
		mcp.WithDescription("List expenditures, latest first."),
		mcp.WithString("category",
			mcp.Description("Filter by category: Operations, Maintenance, Events, Utilities, Supplies, Emergency, Other"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by status: approved, pending, rejected"),
		),
		mcp.WithString("from",
			mcp.Description("Earliest expenditure date (YYYY-MM-DD)"),
		),
		mcp.WithString("to",
			mcp.Description("Latest expenditure date (YYYY-MM-DD)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of expenditures (default: 15, max: 100)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := domain.FilterParams{
			Category: mcp.ParseString(request, "category", ""),
			Status:   mcp.ParseString(request, "status", ""),
			From:     mcp.ParseString(request, "from", ""),
			To:       mcp.ParseString(request, "to", ""),
		}
		limit := mcp.ParseInt(request, "limit", domain.DefaultPageSize)
		return textResult(v.Expenditures(ctx, params, limit))
	})
}
