package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ContributionService handles the contribution ledger: recording dues, payments
// and lifecycle status
type ContributionService struct {
	eventSink
	contributionRepo domain.ContributionRepository
	memberRepo       domain.MemberRepository
	cal              calendar
}

// NewContributionService creates a new ContributionService
func NewContributionService(contributionRepo domain.ContributionRepository, memberRepo domain.MemberRepository, clk clock.Clock, loc *time.Location) *ContributionService {
	return &ContributionService{
		contributionRepo: contributionRepo,
		memberRepo:       memberRepo,
		cal:              newCalendar(clk, loc),
	}
}

// CreateContributionInput holds the input for recording a contribution
type CreateContributionInput struct {
	MemberID     int32
	Amount       decimal.Decimal
	DueDate      *time.Time
	PaidDate     *time.Time
	Status       *domain.ContributionStatus
	Notes        *string
	PaymentProof *string
}

// UpdateContributionInput holds the input for editing a contribution
type UpdateContributionInput struct {
	MemberID     int32
	Amount       decimal.Decimal
	DueDate      *time.Time
	PaidDate     *time.Time
	Status       *domain.ContributionStatus
	Notes        *string
	PaymentProof *string
}

// CreateContribution records a new contribution due from a member
func (s *ContributionService) CreateContribution(ctx context.Context, scope domain.Scope, input CreateContributionInput) (*domain.Contribution, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	today := s.cal.today()
	c, err := s.buildContribution(ctx, input.MemberID, input.Amount, input.DueDate, input.PaidDate, input.Notes, input.PaymentProof)
	if err != nil {
		return nil, err
	}
	if c.DueDate.Before(today) {
		return nil, domain.ErrDueDateInPast
	}

	c.Status = domain.DeriveStatus(*c, s.cal.now())
	if input.Status != nil && *input.Status != c.Status {
		return nil, domain.ErrStatusDateMismatch
	}

	created, err := s.contributionRepo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	created.Refresh(s.cal.now())

	log.Info().
		Int32("contribution_id", created.ID).
		Int32("member_id", created.MemberID).
		Str("due_date", util.FormatDate(created.DueDate)).
		Msg("Contribution recorded")

	s.publishEvent(events.ForMember(created.MemberID), events.NewEvent(events.EventTypeCreated, events.EntityTypeContribution, created))
	return created, nil
}

// buildContribution validates the fields shared by create and update
func (s *ContributionService) buildContribution(ctx context.Context, memberID int32, amount decimal.Decimal, dueDate, paidDate *time.Time, notes, proof *string) (*domain.Contribution, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if dueDate == nil {
		return nil, domain.ErrDueDateRequired
	}

	var paid *time.Time
	if paidDate != nil {
		p := util.CalendarDate(*paidDate)
		if p.After(s.cal.today()) {
			return nil, domain.ErrPaidDateInFuture
		}
		paid = &p
	}

	n, err := trimOptional(notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
	if err != nil {
		return nil, err
	}
	pr, err := trimOptional(proof, domain.MaxProofLength, domain.ErrProofTooLong)
	if err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberRequired
		}
		return nil, err
	}

	return &domain.Contribution{
		MemberID:     memberID,
		Amount:       amount,
		DueDate:      util.CalendarDate(*dueDate),
		PaidDate:     paid,
		Notes:        n,
		PaymentProof: pr,
	}, nil
}

// GetContribution returns a contribution visible to the scope
func (s *ContributionService) GetContribution(ctx context.Context, scope domain.Scope, id int32) (*domain.Contribution, error) {
	c, err := s.contributionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Out-of-scope rows are indistinguishable from missing ones
	if !scope.CanSeeContribution(c) {
		return nil, domain.ErrContributionNotFound
	}
	c.Refresh(s.cal.now())
	return c, nil
}

// ListContributions returns one page of the contributions visible to the scope
func (s *ContributionService) ListContributions(ctx context.Context, scope domain.Scope, filter domain.ContributionFilter, page domain.PageRequest) (*domain.Page[*domain.Contribution], error) {
	return s.list(ctx, scope.ContributionOwner(), filter, page)
}

// ListOwnContributions returns the caller's own contributions, for admins and members alike
func (s *ContributionService) ListOwnContributions(ctx context.Context, scope domain.Scope, filter domain.ContributionFilter, page domain.PageRequest) (*domain.Page[*domain.Contribution], error) {
	owner := scope.CallerID()
	return s.list(ctx, &owner, filter, page)
}

func (s *ContributionService) list(ctx context.Context, owner *int32, filter domain.ContributionFilter, page domain.PageRequest) (*domain.Page[*domain.Contribution], error) {
	result, err := s.contributionRepo.List(ctx, domain.ContributionQuery{
		OwnerID: owner,
		Filter:  filter,
		Page:    page,
		Today:   s.cal.today(),
	})
	if err != nil {
		return nil, err
	}
	domain.RefreshAll(result.Data, s.cal.now())
	return result, nil
}

// UpdateContribution edits a contribution. A recorded payment cannot be removed
// and the status always follows the dates.
func (s *ContributionService) UpdateContribution(ctx context.Context, scope domain.Scope, id int32, input UpdateContributionInput) (*domain.Contribution, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	existing, err := s.contributionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.PaidDate != nil && input.PaidDate == nil {
		return nil, domain.ErrCannotUnpay
	}

	c, err := s.buildContribution(ctx, input.MemberID, input.Amount, input.DueDate, input.PaidDate, input.Notes, input.PaymentProof)
	if err != nil {
		return nil, err
	}
	status := domain.DeriveStatus(*c, s.cal.now())
	if input.Status != nil && *input.Status != status {
		return nil, domain.ErrStatusDateMismatch
	}

	updated, err := s.contributionRepo.Update(ctx, id, &domain.UpdateContributionData{
		MemberID:     c.MemberID,
		Amount:       c.Amount,
		DueDate:      c.DueDate,
		PaidDate:     c.PaidDate,
		Status:       status,
		Notes:        c.Notes,
		PaymentProof: c.PaymentProof,
	})
	if err != nil {
		return nil, err
	}
	updated.Refresh(s.cal.now())

	log.Info().
		Int32("contribution_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("Contribution updated")

	aud := events.ForMember(updated.MemberID)
	s.publishEvent(aud, events.NewEvent(events.EventTypeUpdated, events.EntityTypeContribution, updated))
	if existing.MemberID != updated.MemberID {
		s.publishEvent(events.ForMember(existing.MemberID), events.NewEvent(events.EventTypeDeleted, events.EntityTypeContribution, events.Deleted(id)))
	}
	return updated, nil
}

// MarkPaid records payment of a contribution. paidOn defaults to today.
func (s *ContributionService) MarkPaid(ctx context.Context, scope domain.Scope, id int32, paidOn *time.Time) (*domain.Contribution, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	today := s.cal.today()
	paid := today
	if paidOn != nil {
		paid = util.CalendarDate(*paidOn)
		if paid.After(today) {
			return nil, domain.ErrPaidDateInFuture
		}
	}

	c, err := s.contributionRepo.MarkPaid(ctx, id, paid)
	if err != nil {
		return nil, err
	}
	c.Refresh(s.cal.now())

	log.Info().
		Int32("contribution_id", c.ID).
		Int32("member_id", c.MemberID).
		Str("paid_date", util.FormatDate(paid)).
		Msg("Contribution marked paid")

	s.publishEvent(events.ForMember(c.MemberID), events.NewEvent(events.EventTypePaid, events.EntityTypeContribution, c))
	return c, nil
}

// DeleteContribution removes a contribution
func (s *ContributionService) DeleteContribution(ctx context.Context, scope domain.Scope, id int32) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}

	c, err := s.contributionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.contributionRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int32("contribution_id", id).Msg("Contribution deleted")
	s.publishEvent(events.ForMember(c.MemberID), events.NewEvent(events.EventTypeDeleted, events.EntityTypeContribution, events.Deleted(id)))
	return nil
}

// trimOptional trims an optional text field; blank values become nil
func trimOptional(v *string, max int, tooLong error) (*string, error) {
	if v == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > max {
		return nil, tooLong
	}
	return &trimmed, nil
}
