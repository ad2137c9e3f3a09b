package main

import (
	"context"
	"fmt"
	"os"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/config"
	"github.com/appdotbuilder/member-contributions-manager/internal/mcptools"
	"github.com/appdotbuilder/member-contributions-manager/internal/repository/postgres"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// stdout carries the MCP protocol; logs go to stderr
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	memberRepo := postgres.NewMemberRepository(pool)
	contributionRepo := postgres.NewContributionRepository(pool)
	expenditureRepo := postgres.NewExpenditureRepository(pool)

	clk := clock.Real{}
	views := mcptools.NewViews(
		service.NewAggregationService(contributionRepo, memberRepo, clk, cfg.Location),
		service.NewContributionService(contributionRepo, memberRepo, clk, cfg.Location),
		service.NewExpenditureService(expenditureRepo),
	)

	s := server.NewMCPServer(
		"member-ledger",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	mcptools.RegisterTools(s, views)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
