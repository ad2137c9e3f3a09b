package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/appdotbuilder/member-contributions-manager/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	MaxProofSize     = 5 * 1024 * 1024 // 5MB
	MaxProofWidth    = 1600
	ProofJPEGQuality = 85
	ProofURLExpiry   = 15 * time.Minute

	contributionProofPrefix = "proofs"
	expenditureProofPrefix  = "expenditures"
)

var (
	ErrProofTooLarge           = domain.NewFieldError("file", "file too large. Maximum size is 5MB")
	ErrProofInvalidFormat      = domain.NewFieldError("file", "invalid format. Supported: JPEG, PNG, PDF")
	ErrProofInvalidData        = domain.NewFieldError("file", "file content does not match its format")
	ErrProofEmpty              = domain.NewFieldError("file", "file is empty")
	ErrProofNotAttached        = errors.New("no proof attached")
	ErrProofStoreNotConfigured = errors.New("proof storage not configured")
)

// allowedProofExtensions maps accepted extensions to their content types
var allowedProofExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

var pdfMagic = []byte("%PDF-")

// ProofFile is a normalized artifact ready for storage
type ProofFile struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ProofLink is a short-lived download link for a stored proof
type ProofLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProofService stores payment proofs and expenditure receipts
type ProofService struct {
	eventSink
	store            storage.ProofStore
	contributionRepo domain.ContributionRepository
	expenditureRepo  domain.ExpenditureRepository
}

// NewProofService creates a new ProofService. store may be nil when object
// storage is not configured; uploads then fail with ErrProofStoreNotConfigured.
func NewProofService(store storage.ProofStore, contributionRepo domain.ContributionRepository, expenditureRepo domain.ExpenditureRepository) *ProofService {
	return &ProofService{
		store:            store,
		contributionRepo: contributionRepo,
		expenditureRepo:  expenditureRepo,
	}
}

// IsEnabled indicates whether uploads are supported
func (s *ProofService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// PrepareProof validates an upload and normalizes images to JPEG.
// PDFs are stored unchanged.
func PrepareProof(data []byte, filename string) (*ProofFile, error) {
	if len(data) == 0 {
		return nil, ErrProofEmpty
	}
	if len(data) > MaxProofSize {
		return nil, ErrProofTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedProofExtensions[ext]
	if !ok {
		return nil, ErrProofInvalidFormat
	}

	if contentType == "application/pdf" {
		if !bytes.HasPrefix(data, pdfMagic) {
			return nil, ErrProofInvalidData
		}
		return &ProofFile{Data: data, ContentType: contentType, Ext: ".pdf"}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrProofInvalidData
	}
	if img.Bounds().Dx() > MaxProofWidth {
		img = imaging.Resize(img, MaxProofWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ProofJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode proof image: %w", err)
	}
	return &ProofFile{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: ".jpg"}, nil
}

// AttachContributionProof uploads a payment proof. Members may attach proof
// to their own contributions only.
func (s *ProofService) AttachContributionProof(ctx context.Context, scope domain.Scope, id int32, data []byte, filename string) (*domain.Contribution, error) {
	c, err := s.contributionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanSeeContribution(c) {
		return nil, domain.ErrContributionNotFound
	}

	objectPath, err := s.upload(ctx, contributionProofPrefix, id, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.contributionRepo.SetProof(ctx, id, objectPath)
	if err != nil {
		s.discard(ctx, objectPath)
		return nil, err
	}
	s.replaced(ctx, c.PaymentProof)

	log.Info().
		Int32("contribution_id", id).
		Int32("caller_id", scope.CallerID()).
		Msg("Payment proof attached")

	s.publishEvent(events.ForMember(updated.MemberID), events.NewEvent(events.EventTypeProofAttached, events.EntityTypeContribution, updated))
	return updated, nil
}

// AttachExpenditureProof uploads a receipt for an expenditure
func (s *ProofService) AttachExpenditureProof(ctx context.Context, scope domain.Scope, id int32, data []byte, filename string) (*domain.Expenditure, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}
	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.upload(ctx, expenditureProofPrefix, id, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.expenditureRepo.SetProof(ctx, id, objectPath)
	if err != nil {
		s.discard(ctx, objectPath)
		return nil, err
	}
	s.replaced(ctx, e.ProofFile)

	log.Info().Int32("expenditure_id", id).Msg("Expenditure receipt attached")

	s.publishEvent(audienceFor(updated), events.NewEvent(events.EventTypeProofAttached, events.EntityTypeExpenditure, updated))
	return updated, nil
}

// ContributionProofURL returns a presigned link to a contribution's proof
func (s *ProofService) ContributionProofURL(ctx context.Context, scope domain.Scope, id int32) (*ProofLink, error) {
	c, err := s.contributionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanSeeContribution(c) {
		return nil, domain.ErrContributionNotFound
	}
	return s.link(ctx, c.PaymentProof)
}

// ExpenditureProofURL returns a presigned link to an expenditure's receipt.
// Members see receipts of approved expenditures only.
func (s *ProofService) ExpenditureProofURL(ctx context.Context, scope domain.Scope, id int32) (*ProofLink, error) {
	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.IsAdmin() && e.Status != domain.ExpenditureApproved {
		return nil, domain.ErrExpenditureNotFound
	}
	return s.link(ctx, e.ProofFile)
}

func (s *ProofService) upload(ctx context.Context, prefix string, id int32, data []byte, filename string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrProofStoreNotConfigured
	}
	file, err := PrepareProof(data, filename)
	if err != nil {
		return "", err
	}

	objectPath := storage.ProofObjectPath(prefix, id, file.Ext)
	if len(objectPath) > domain.MaxProofLength {
		return "", domain.ErrProofTooLong
	}
	if _, err := s.store.Upload(ctx, objectPath, bytes.NewReader(file.Data), file.ContentType, int64(len(file.Data))); err != nil {
		return "", fmt.Errorf("failed to upload proof: %w", err)
	}
	return objectPath, nil
}

func (s *ProofService) link(ctx context.Context, objectPath *string) (*ProofLink, error) {
	if objectPath == nil || *objectPath == "" {
		return nil, ErrProofNotAttached
	}
	if !s.IsEnabled() {
		return nil, ErrProofStoreNotConfigured
	}
	url, err := s.store.GeneratePresignedURL(ctx, *objectPath, ProofURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign proof url: %w", err)
	}
	return &ProofLink{URL: url, ExpiresAt: time.Now().Add(ProofURLExpiry).UTC()}, nil
}

// discard removes an object whose database write failed
func (s *ProofService) discard(ctx context.Context, objectPath string) {
	if err := s.store.Delete(ctx, objectPath); err != nil {
		log.Warn().Err(err).Str("object", objectPath).Msg("Failed to remove orphaned proof")
	}
}

// replaced removes the previous artifact after a successful replacement.
// Values not produced by this service (legacy free-text references) are left alone.
func (s *ProofService) replaced(ctx context.Context, previous *string) {
	if previous == nil {
		return
	}
	p := *previous
	if !strings.HasPrefix(p, contributionProofPrefix+"/") && !strings.HasPrefix(p, expenditureProofPrefix+"/") {
		return
	}
	s.discard(ctx, p)
}
