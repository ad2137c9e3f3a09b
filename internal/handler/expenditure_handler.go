package handler

import (
	"net/http"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/labstack/echo/v4"
)

// ExpenditureHandler handles expenditure-related HTTP requests
type ExpenditureHandler struct {
	expenditureService *service.ExpenditureService
}

// NewExpenditureHandler creates a new ExpenditureHandler
func NewExpenditureHandler(expenditureService *service.ExpenditureService) *ExpenditureHandler {
	return &ExpenditureHandler{expenditureService: expenditureService}
}

// ExpenditureRequest represents the create/update expenditure request body
type ExpenditureRequest struct {
	Amount          string `json:"amount"`
	ExpenditureDate string `json:"expenditureDate"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Status          string `json:"status,omitempty"`
}

// UpdateExpenditureStatusRequest represents the status change request body
type UpdateExpenditureStatusRequest struct {
	Status string `json:"status"`
}

// ExpenditureResponse represents an expenditure in API responses
type ExpenditureResponse struct {
	ID              int32   `json:"id"`
	CreatedBy       int32   `json:"createdBy"`
	CreatorName     string  `json:"creatorName"`
	Amount          string  `json:"amount"`
	ExpenditureDate string  `json:"expenditureDate"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	ProofFile       *string `json:"proofFile,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ExpenditurePageResponse represents a page of expenditures
type ExpenditurePageResponse struct {
	Data       []ExpenditureResponse `json:"data"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

func parseExpenditureRequest(req ExpenditureRequest) (*service.ExpenditureInput, *ValidationError) {
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return nil, &ValidationError{Field: "amount", Message: domain.ErrInvalidAmount.Message}
	}
	date, ok := parseOptionalDate(&req.ExpenditureDate)
	if !ok {
		return nil, &ValidationError{Field: "expenditureDate", Message: "Must be in YYYY-MM-DD format"}
	}
	return &service.ExpenditureInput{
		Amount:          amount,
		ExpenditureDate: date,
		Category:        req.Category,
		Description:     req.Description,
		Status:          req.Status,
	}, nil
}

// CreateExpenditure handles POST /api/v1/expenditures
func (h *ExpenditureHandler) CreateExpenditure(c echo.Context) error {
	var req ExpenditureRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := parseExpenditureRequest(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	expenditure, err := h.expenditureService.CreateExpenditure(c.Request().Context(), middleware.ScopeFromContext(c), *input)
	if err != nil {
		return handleServiceError(c, err, "create expenditure")
	}
	return c.JSON(http.StatusCreated, toExpenditureResponse(expenditure))
}

// GetExpenditures handles GET /api/v1/expenditures
func (h *ExpenditureHandler) GetExpenditures(c echo.Context) error {
	page, err := h.expenditureService.ListExpenditures(c.Request().Context(), middleware.ScopeFromContext(c), filterParams(c).ExpenditureFilter(), pageRequest(c))
	if err != nil {
		return handleServiceError(c, err, "list expenditures")
	}

	resp := ExpenditurePageResponse{
		Data:       toExpenditureResponses(page.Data),
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		NextCursor: page.NextCursor,
	}
	return c.JSON(http.StatusOK, resp)
}

// GetExpenditure handles GET /api/v1/expenditures/:id
func (h *ExpenditureHandler) GetExpenditure(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}

	expenditure, err := h.expenditureService.GetExpenditure(c.Request().Context(), middleware.ScopeFromContext(c), id)
	if err != nil {
		return handleServiceError(c, err, "get expenditure")
	}
	return c.JSON(http.StatusOK, toExpenditureResponse(expenditure))
}

// UpdateExpenditure handles PUT /api/v1/expenditures/:id
func (h *ExpenditureHandler) UpdateExpenditure(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}

	var req ExpenditureRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := parseExpenditureRequest(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	expenditure, err := h.expenditureService.UpdateExpenditure(c.Request().Context(), middleware.ScopeFromContext(c), id, *input)
	if err != nil {
		return handleServiceError(c, err, "update expenditure")
	}
	return c.JSON(http.StatusOK, toExpenditureResponse(expenditure))
}

// UpdateExpenditureStatus handles PATCH /api/v1/expenditures/:id/status
func (h *ExpenditureHandler) UpdateExpenditureStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}

	var req UpdateExpenditureStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	expenditure, err := h.expenditureService.UpdateExpenditureStatus(c.Request().Context(), middleware.ScopeFromContext(c), id, req.Status)
	if err != nil {
		return handleServiceError(c, err, "update expenditure status")
	}
	return c.JSON(http.StatusOK, toExpenditureResponse(expenditure))
}

// DeleteExpenditure handles DELETE /api/v1/expenditures/:id
func (h *ExpenditureHandler) DeleteExpenditure(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}

	if err := h.expenditureService.DeleteExpenditure(c.Request().Context(), middleware.ScopeFromContext(c), id); err != nil {
		return handleServiceError(c, err, "delete expenditure")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetCategories handles GET /api/v1/expenditures/categories
func (h *ExpenditureHandler) GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.expenditureService.Categories())
}

func toExpenditureResponse(e *domain.Expenditure) ExpenditureResponse {
	return ExpenditureResponse{
		ID:              e.ID,
		CreatedBy:       e.CreatedBy,
		CreatorName:     e.CreatorName,
		Amount:          domain.FormatAmount(e.Amount),
		ExpenditureDate: e.ExpenditureDate.Format(time.DateOnly),
		Category:        string(e.Category),
		Description:     e.Description,
		ProofFile:       e.ProofFile,
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}

func toExpenditureResponses(es []*domain.Expenditure) []ExpenditureResponse {
	out := make([]ExpenditureResponse, len(es))
	for i, e := range es {
		out[i] = toExpenditureResponse(e)
	}
	return out
}
