package handler

import (
	"io"
	"net/http"

	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProofHandler handles payment proof and receipt uploads
type ProofHandler struct {
	proofService *service.ProofService
}

// NewProofHandler creates a new ProofHandler
func NewProofHandler(proofService *service.ProofService) *ProofHandler {
	return &ProofHandler{proofService: proofService}
}

// readUpload reads the multipart "file" field, capped one byte past the size
// limit so oversized uploads still reach the size check. A nil slice means the
// error response has already been written.
func readUpload(c echo.Context) ([]byte, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return nil, "", NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxProofSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return nil, "", NewInternalError(c, "Failed to read file")
	}
	return data, file.Filename, nil
}

// UploadContributionProof handles POST /api/v1/contributions/:id/proof
func (h *ProofHandler) UploadContributionProof(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}
	if !h.proofService.IsEnabled() {
		return NewServiceUnavailableError(c, "Proof uploads are disabled (storage not configured)")
	}

	data, filename, err := readUpload(c)
	if data == nil {
		return err
	}

	contribution, err := h.proofService.AttachContributionProof(c.Request().Context(), middleware.ScopeFromContext(c), id, data, filename)
	if err != nil {
		return handleServiceError(c, err, "attach contribution proof")
	}

	log.Info().
		Int32("contribution_id", id).
		Msg("Contribution proof uploaded")

	return c.JSON(http.StatusCreated, toContributionResponse(contribution))
}

// GetContributionProof handles GET /api/v1/contributions/:id/proof
func (h *ProofHandler) GetContributionProof(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	link, err := h.proofService.ContributionProofURL(c.Request().Context(), middleware.ScopeFromContext(c), id)
	if err != nil {
		return handleServiceError(c, err, "get contribution proof")
	}
	return c.JSON(http.StatusOK, link)
}

// UploadExpenditureProof handles POST /api/v1/expenditures/:id/proof
func (h *ProofHandler) UploadExpenditureProof(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}
	if !h.proofService.IsEnabled() {
		return NewServiceUnavailableError(c, "Proof uploads are disabled (storage not configured)")
	}

	data, filename, err := readUpload(c)
	if data == nil {
		return err
	}

	expenditure, err := h.proofService.AttachExpenditureProof(c.Request().Context(), middleware.ScopeFromContext(c), id, data, filename)
	if err != nil {
		return handleServiceError(c, err, "attach expenditure proof")
	}

	log.Info().
		Int32("expenditure_id", id).
		Msg("Expenditure receipt uploaded")

	return c.JSON(http.StatusCreated, toExpenditureResponse(expenditure))
}

// GetExpenditureProof handles GET /api/v1/expenditures/:id/proof
func (h *ProofHandler) GetExpenditureProof(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expenditure ID", nil)
	}

	link, err := h.proofService.ExpenditureProofURL(c.Request().Context(), middleware.ScopeFromContext(c), id)
	if err != nil {
		return handleServiceError(c, err, "get expenditure proof")
	}
	return c.JSON(http.StatusOK, link)
}
