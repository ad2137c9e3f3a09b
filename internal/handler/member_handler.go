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

// MemberHandler handles member-related HTTP requests
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// MemberRequest represents the create/update member request body
type MemberRequest struct {
	AuthSubject *string `json:"authSubject,omitempty"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	Balance     string  `json:"balance,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID                 int32   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              *string `json:"phone,omitempty"`
	Role               string  `json:"role"`
	IsActive           bool    `json:"isActive"`
	Balance            string  `json:"balance"`
	TotalContributions *int64  `json:"totalContributions,omitempty"`
	TotalPaid          *string `json:"totalPaid,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// MemberPageResponse represents a page of members
type MemberPageResponse struct {
	Data       []MemberResponse `json:"data"`
	PageSize   int32            `json:"pageSize"`
	TotalItems int64            `json:"totalItems"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

func (req MemberRequest) input() (service.MemberInput, *ValidationError) {
	balance := decimal.Zero
	if req.Balance != "" {
		b, err := decimal.NewFromString(req.Balance)
		if err != nil {
			return service.MemberInput{}, &ValidationError{Field: "balance", Message: "Must be a valid decimal number"}
		}
		balance = b
	}
	return service.MemberInput{
		AuthSubject: req.AuthSubject,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Balance:     balance,
		IsActive:    req.IsActive,
	}, nil
}

// GetMe handles GET /api/v1/me
func (h *MemberHandler) GetMe(c echo.Context) error {
	member, err := h.memberService.GetMe(c.Request().Context(), middleware.ScopeFromContext(c))
	if err != nil {
		return handleServiceError(c, err, "get profile")
	}
	return c.JSON(http.StatusOK, toMemberResponse(member))
}

// GetMembers handles GET /api/v1/members
func (h *MemberHandler) GetMembers(c echo.Context) error {
	page, err := h.memberService.ListMembers(c.Request().Context(), middleware.ScopeFromContext(c), filterParams(c).MemberFilter(), pageRequest(c))
	if err != nil {
		return handleServiceError(c, err, "list members")
	}

	resp := MemberPageResponse{
		Data:       make([]MemberResponse, len(page.Data)),
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		NextCursor: page.NextCursor,
	}
	for i, s := range page.Data {
		r := toMemberResponse(&s.Member)
		count := s.TotalContributions
		paid := domain.FormatAmount(s.TotalPaid)
		r.TotalContributions = &count
		r.TotalPaid = &paid
		resp.Data[i] = r
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMember handles GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	member, err := h.memberService.GetMember(c.Request().Context(), middleware.ScopeFromContext(c), id)
	if err != nil {
		return handleServiceError(c, err, "get member")
	}
	return c.JSON(http.StatusOK, toMemberResponse(member))
}

// CreateMember handles POST /api/v1/members
func (h *MemberHandler) CreateMember(c echo.Context) error {
	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.input()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	member, err := h.memberService.CreateMember(c.Request().Context(), middleware.ScopeFromContext(c), input)
	if err != nil {
		return handleServiceError(c, err, "create member")
	}
	return c.JSON(http.StatusCreated, toMemberResponse(member))
}

// UpdateMember handles PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.input()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	member, err := h.memberService.UpdateMember(c.Request().Context(), middleware.ScopeFromContext(c), id, input)
	if err != nil {
		return handleServiceError(c, err, "update member")
	}
	return c.JSON(http.StatusOK, toMemberResponse(member))
}

// DeleteMember handles DELETE /api/v1/members/:id
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	if err := h.memberService.DeleteMember(c.Request().Context(), middleware.ScopeFromContext(c), id); err != nil {
		return handleServiceError(c, err, "delete member")
	}
	return c.NoContent(http.StatusNoContent)
}

func toMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Role:      string(m.Role),
		IsActive:  m.IsActive,
		Balance:   domain.FormatAmount(m.Balance),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
}
