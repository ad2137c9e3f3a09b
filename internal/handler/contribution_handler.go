package handler

import (
	"net/http"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ContributionHandler handles contribution-related HTTP requests
type ContributionHandler struct {
	contributionService *service.ContributionService
}

// NewContributionHandler creates a new ContributionHandler
func NewContributionHandler(contributionService *service.ContributionService) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService}
}

// ContributionRequest represents the create/update contribution request body
type ContributionRequest struct {
	MemberID     int32   `json:"memberId"`
	Amount       string  `json:"amount"`
	DueDate      string  `json:"dueDate"`
	PaidDate     *string `json:"paidDate,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	PaymentProof *string `json:"paymentProof,omitempty"`
}

// MarkPaidRequest represents the mark-paid request body
type MarkPaidRequest struct {
	PaidDate *string `json:"paidDate,omitempty"`
}

// ContributionResponse represents a contribution in API responses
type ContributionResponse struct {
	ID           int32   `json:"id"`
	MemberID     int32   `json:"memberId"`
	MemberName   string  `json:"memberName"`
	Amount       string  `json:"amount"`
	DueDate      string  `json:"dueDate"`
	PaidDate     *string `json:"paidDate"`
	Status       string  `json:"status"`
	Notes        *string `json:"notes,omitempty"`
	PaymentProof *string `json:"paymentProof,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// ContributionPageResponse represents a page of contributions
type ContributionPageResponse struct {
	Data       []ContributionResponse `json:"data"`
	PageSize   int32                  `json:"pageSize"`
	TotalItems int64                  `json:"totalItems"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

type contributionFields struct {
	amount   decimal.Decimal
	dueDate  *time.Time
	paidDate *time.Time
	status   *domain.ContributionStatus
}

// parseContributionRequest checks request formats; business rules stay in the service
func parseContributionRequest(req ContributionRequest) (*contributionFields, *ValidationError) {
	if req.MemberID <= 0 {
		return nil, &ValidationError{Field: "memberId", Message: "Member ID is required"}
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return nil, &ValidationError{Field: "amount", Message: domain.ErrInvalidAmount.Message}
	}
	dueDate, ok := parseOptionalDate(&req.DueDate)
	if !ok {
		return nil, &ValidationError{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"}
	}
	paidDate, ok := parseOptionalDate(req.PaidDate)
	if !ok {
		return nil, &ValidationError{Field: "paidDate", Message: "Must be in YYYY-MM-DD format"}
	}
	var status *domain.ContributionStatus
	if req.Status != nil && *req.Status != "" {
		st, ok := domain.ParseContributionStatus(*req.Status)
		if !ok {
			return nil, &ValidationError{Field: "status", Message: domain.ErrInvalidContribStatus.Message}
		}
		status = &st
	}
	return &contributionFields{amount: amount, dueDate: dueDate, paidDate: paidDate, status: status}, nil
}

// CreateContribution handles POST /api/v1/contributions
func (h *ContributionHandler) CreateContribution(c echo.Context) error {
	var req ContributionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	fields, verr := parseContributionRequest(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	contribution, err := h.contributionService.CreateContribution(c.Request().Context(), middleware.ScopeFromContext(c), service.CreateContributionInput{
		MemberID:     req.MemberID,
		Amount:       fields.amount,
		DueDate:      fields.dueDate,
		PaidDate:     fields.paidDate,
		Status:       fields.status,
		Notes:        req.Notes,
		PaymentProof: req.PaymentProof,
	})
	if err != nil {
		return handleServiceError(c, err, "create contribution")
	}

	return c.JSON(http.StatusCreated, toContributionResponse(contribution))
}

// GetContributions handles GET /api/v1/contributions
func (h *ContributionHandler) GetContributions(c echo.Context) error {
	page, err := h.contributionService.ListContributions(c.Request().Context(), middleware.ScopeFromContext(c), filterParams(c).ContributionFilter(), pageRequest(c))
	if err != nil {
		return handleServiceError(c, err, "list contributions")
	}
	return c.JSON(http.StatusOK, toContributionPageResponse(page))
}

// GetMyContributions handles GET /api/v1/my-contributions
func (h *ContributionHandler) GetMyContributions(c echo.Context) error {
	page, err := h.contributionService.ListOwnContributions(c.Request().Context(), middleware.ScopeFromContext(c), filterParams(c).ContributionFilter(), pageRequest(c))
	if err != nil {
		return handleServiceError(c, err, "list contributions")
	}
	return c.JSON(http.StatusOK, toContributionPageResponse(page))
}

// GetContribution handles GET /api/v1/contributions/:id
func (h *ContributionHandler) GetContribution(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	contribution, err := h.contributionService.GetContribution(c.Request().Context(), middleware.ScopeFromContext(c), id)
	if err != nil {
		return handleServiceError(c, err, "get contribution")
	}
	return c.JSON(http.StatusOK, toContributionResponse(contribution))
}

// UpdateContribution handles PUT /api/v1/contributions/:id
func (h *ContributionHandler) UpdateContribution(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	var req ContributionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	fields, verr := parseContributionRequest(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	contribution, err := h.contributionService.UpdateContribution(c.Request().Context(), middleware.ScopeFromContext(c), id, service.UpdateContributionInput{
		MemberID:     req.MemberID,
		Amount:       fields.amount,
		DueDate:      fields.dueDate,
		PaidDate:     fields.paidDate,
		Status:       fields.status,
		Notes:        req.Notes,
		PaymentProof: req.PaymentProof,
	})
	if err != nil {
		return handleServiceError(c, err, "update contribution")
	}
	return c.JSON(http.StatusOK, toContributionResponse(contribution))
}

// MarkPaid handles PATCH /api/v1/contributions/:id/pay
func (h *ContributionHandler) MarkPaid(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	var req MarkPaidRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return NewValidationError(c, "Invalid request body", nil)
		}
	}
	paidOn, ok := parseOptionalDate(req.PaidDate)
	if !ok {
		return fieldError(c, "paidDate", "Must be in YYYY-MM-DD format")
	}

	contribution, err := h.contributionService.MarkPaid(c.Request().Context(), middleware.ScopeFromContext(c), id, paidOn)
	if err != nil {
		return handleServiceError(c, err, "mark contribution paid")
	}
	return c.JSON(http.StatusOK, toContributionResponse(contribution))
}

// DeleteContribution handles DELETE /api/v1/contributions/:id
func (h *ContributionHandler) DeleteContribution(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	if err := h.contributionService.DeleteContribution(c.Request().Context(), middleware.ScopeFromContext(c), id); err != nil {
		return handleServiceError(c, err, "delete contribution")
	}
	return c.NoContent(http.StatusNoContent)
}

func toContributionResponse(c *domain.Contribution) ContributionResponse {
	return ContributionResponse{
		ID:           c.ID,
		MemberID:     c.MemberID,
		MemberName:   c.MemberName,
		Amount:       domain.FormatAmount(c.Amount),
		DueDate:      c.DueDate.Format(time.DateOnly),
		PaidDate:     formatDatePtr(c.PaidDate),
		Status:       string(c.Status),
		Notes:        c.Notes,
		PaymentProof: c.PaymentProof,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
}

func toContributionResponses(cs []*domain.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, len(cs))
	for i, c := range cs {
		out[i] = toContributionResponse(c)
	}
	return out
}

func toContributionPageResponse(p *domain.Page[*domain.Contribution]) ContributionPageResponse {
	return ContributionPageResponse{
		Data:       toContributionResponses(p.Data),
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		NextCursor: p.NextCursor,
	}
}
