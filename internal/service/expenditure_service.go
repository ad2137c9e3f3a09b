package service

import (
	"context"
	"strings"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExpenditureService handles organizational spending records
type ExpenditureService struct {
	eventSink
	expenditureRepo domain.ExpenditureRepository
}

// NewExpenditureService creates a new ExpenditureService
func NewExpenditureService(expenditureRepo domain.ExpenditureRepository) *ExpenditureService {
	return &ExpenditureService{expenditureRepo: expenditureRepo}
}

// ExpenditureInput holds the input for creating or editing an expenditure
type ExpenditureInput struct {
	Amount          decimal.Decimal
	ExpenditureDate *time.Time
	Category        string
	Description     string
	Status          string
}

// CreateExpenditure records spending on behalf of the calling administrator
func (s *ExpenditureService) CreateExpenditure(ctx context.Context, scope domain.Scope, input ExpenditureInput) (*domain.Expenditure, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	e := &domain.Expenditure{CreatedBy: scope.CallerID()}
	if err := applyExpenditureInput(e, input); err != nil {
		return nil, err
	}

	created, err := s.expenditureRepo.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("expenditure_id", created.ID).
		Str("category", string(created.Category)).
		Msg("Expenditure recorded")

	s.publishEvent(audienceFor(created), events.NewEvent(events.EventTypeCreated, events.EntityTypeExpenditure, created))
	return created, nil
}

// GetExpenditure returns an expenditure; members only see approved spending
func (s *ExpenditureService) GetExpenditure(ctx context.Context, scope domain.Scope, id int32) (*domain.Expenditure, error) {
	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.IsAdmin() && e.Status != domain.ExpenditureApproved {
		return nil, domain.ErrExpenditureNotFound
	}
	return e, nil
}

// ListExpenditures returns one page of expenditures visible to the scope
func (s *ExpenditureService) ListExpenditures(ctx context.Context, scope domain.Scope, filter domain.ExpenditureFilter, page domain.PageRequest) (*domain.Page[*domain.Expenditure], error) {
	if !scope.IsAdmin() {
		approved := domain.ExpenditureApproved
		if filter.Status != nil && *filter.Status != approved {
			return &domain.Page[*domain.Expenditure]{Data: []*domain.Expenditure{}, PageSize: page.Size()}, nil
		}
		filter.Status = &approved
	}
	return s.expenditureRepo.List(ctx, filter, page)
}

// UpdateExpenditure edits an expenditure
func (s *ExpenditureService) UpdateExpenditure(ctx context.Context, scope domain.Scope, id int32, input ExpenditureInput) (*domain.Expenditure, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := audienceFor(e)
	if err := applyExpenditureInput(e, input); err != nil {
		return nil, err
	}

	updated, err := s.expenditureRepo.Update(ctx, e)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("expenditure_id", updated.ID).Msg("Expenditure updated")
	s.publishExpenditureChange(before, updated, events.EventTypeUpdated)
	return updated, nil
}

// UpdateExpenditureStatus approves, rejects or re-opens an expenditure
func (s *ExpenditureService) UpdateExpenditureStatus(ctx context.Context, scope domain.Scope, id int32, status string) (*domain.Expenditure, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}
	st, ok := domain.ParseExpenditureStatus(strings.TrimSpace(status))
	if !ok {
		return nil, domain.ErrInvalidExpStatus
	}

	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := audienceFor(e)

	updated, err := s.expenditureRepo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("expenditure_id", id).
		Str("status", string(st)).
		Msg("Expenditure status changed")

	s.publishExpenditureChange(before, updated, events.EventTypeStatusChanged)
	return updated, nil
}

// DeleteExpenditure removes an expenditure
func (s *ExpenditureService) DeleteExpenditure(ctx context.Context, scope domain.Scope, id int32) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}

	e, err := s.expenditureRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.expenditureRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int32("expenditure_id", id).Msg("Expenditure deleted")
	s.publishEvent(audienceFor(e), events.NewEvent(events.EventTypeDeleted, events.EntityTypeExpenditure, events.Deleted(id)))
	return nil
}

// Categories lists the fixed expenditure categories
func (s *ExpenditureService) Categories() []domain.Category {
	return domain.Categories()
}

// publishExpenditureChange notifies members when an expenditure enters or
// leaves the approved (publicly visible) set
func (s *ExpenditureService) publishExpenditureChange(before events.Audience, e *domain.Expenditure, eventType events.EventType) {
	after := audienceFor(e)
	aud := after
	if before.Public && !after.Public {
		aud = before
	}
	s.publishEvent(aud, events.NewEvent(eventType, events.EntityTypeExpenditure, e))
}

// audienceFor returns everyone for approved spending, administrators otherwise
func audienceFor(e *domain.Expenditure) events.Audience {
	if e.Status == domain.ExpenditureApproved {
		return events.Everyone()
	}
	return events.AdminsOnly
}

func applyExpenditureInput(e *domain.Expenditure, input ExpenditureInput) error {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return err
	}
	if input.ExpenditureDate == nil {
		return domain.ErrExpenditureDateNeeded
	}
	category, ok := domain.ParseCategory(strings.TrimSpace(input.Category))
	if !ok {
		return domain.ErrInvalidCategory
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return domain.ErrDescriptionRequired
	}
	if len([]rune(description)) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}

	status := domain.ExpenditureApproved
	if s := strings.TrimSpace(input.Status); s != "" {
		st, ok := domain.ParseExpenditureStatus(s)
		if !ok {
			return domain.ErrInvalidExpStatus
		}
		status = st
	}

	e.Amount = input.Amount
	e.ExpenditureDate = util.CalendarDate(*input.ExpenditureDate)
	e.Category = category
	e.Description = description
	e.Status = status
	return nil
}
