package handler

import (
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, memberHandler *MemberHandler, contributionHandler *ContributionHandler, expenditureHandler *ExpenditureHandler, dashboardHandler *DashboardHandler, proofHandler *ProofHandler, wsHandler *WebSocketHandler) {
	// WebSocket authenticates through the token query parameter
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1 (protected)
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	admin := middleware.RequireAdmin()

	api.GET("/me", memberHandler.GetMe)

	// Dashboard and summary routes
	api.GET("/dashboard", dashboardHandler.GetDashboard)
	api.GET("/summary/monthly", dashboardHandler.GetMonthlySummary)
	api.GET("/summary/trend", dashboardHandler.GetMonthlyTrend)
	api.GET("/summary/cash", dashboardHandler.GetTotalCash)
	api.GET("/arrears", dashboardHandler.GetArrears)
	api.GET("/activity", dashboardHandler.GetActivity)

	// Contribution routes
	contributions := api.Group("/contributions")
	contributions.GET("", contributionHandler.GetContributions)
	contributions.GET("/:id", contributionHandler.GetContribution)
	contributions.POST("", contributionHandler.CreateContribution, admin)
	contributions.PUT("/:id", contributionHandler.UpdateContribution, admin)
	contributions.PATCH("/:id/pay", contributionHandler.MarkPaid, admin)
	contributions.DELETE("/:id", contributionHandler.DeleteContribution, admin)
	contributions.POST("/:id/proof", proofHandler.UploadContributionProof)
	contributions.GET("/:id/proof", proofHandler.GetContributionProof)
	api.GET("/my-contributions", contributionHandler.GetMyContributions)

	// Expenditure routes
	expenditures := api.Group("/expenditures")
	expenditures.GET("", expenditureHandler.GetExpenditures)
	expenditures.GET("/categories", expenditureHandler.GetCategories)
	expenditures.GET("/:id", expenditureHandler.GetExpenditure)
	expenditures.POST("", expenditureHandler.CreateExpenditure, admin)
	expenditures.PUT("/:id", expenditureHandler.UpdateExpenditure, admin)
	expenditures.PATCH("/:id/status", expenditureHandler.UpdateExpenditureStatus, admin)
	expenditures.DELETE("/:id", expenditureHandler.DeleteExpenditure, admin)
	expenditures.POST("/:id/proof", proofHandler.UploadExpenditureProof, admin)
	expenditures.GET("/:id/proof", proofHandler.GetExpenditureProof)

	// Member routes
	members := api.Group("/members")
	members.GET("", memberHandler.GetMembers, admin)
	members.GET("/:id", memberHandler.GetMember)
	members.POST("", memberHandler.CreateMember, admin)
	members.PUT("/:id", memberHandler.UpdateMember, admin)
	members.DELETE("/:id", memberHandler.DeleteMember, admin)
}
