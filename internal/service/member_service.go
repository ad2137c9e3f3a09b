package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MemberService handles member administration and caller resolution
type MemberService struct {
	eventSink
	memberRepo domain.MemberRepository
}

// NewMemberService creates a new MemberService
func NewMemberService(memberRepo domain.MemberRepository) *MemberService {
	return &MemberService{memberRepo: memberRepo}
}

// MemberInput holds the editable member fields
type MemberInput struct {
	AuthSubject *string
	Name        string
	Email       string
	Phone       *string
	Balance     decimal.Decimal
	IsActive    *bool
}

// ResolveCaller maps an identity provider subject to an active member
func (s *MemberService) ResolveCaller(ctx context.Context, subject string) (domain.Caller, error) {
	m, err := s.memberRepo.GetByAuthSubject(ctx, subject)
	if err != nil {
		return domain.Caller{}, err
	}
	if !m.IsActive {
		return domain.Caller{}, domain.ErrMemberInactive
	}
	return m.Caller(), nil
}

// GetMe returns the calling member
func (s *MemberService) GetMe(ctx context.Context, scope domain.Scope) (*domain.Member, error) {
	return s.memberRepo.GetByID(ctx, scope.CallerID())
}

// GetMember returns a member; members may only read themselves
func (s *MemberService) GetMember(ctx context.Context, scope domain.Scope, id int32) (*domain.Member, error) {
	if !scope.IsAdmin() && scope.CallerID() != id {
		return nil, domain.ErrMemberNotFound
	}
	return s.memberRepo.GetByID(ctx, id)
}

// ListMembers returns one page of members with contribution totals
func (s *MemberService) ListMembers(ctx context.Context, scope domain.Scope, filter domain.MemberFilter, page domain.PageRequest) (*domain.Page[*domain.MemberSummary], error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.memberRepo.List(ctx, filter, page)
}

// CreateMember registers a new member. New accounts always get the member role.
func (s *MemberService) CreateMember(ctx context.Context, scope domain.Scope, input MemberInput) (*domain.Member, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	m := &domain.Member{Role: domain.RoleMember, IsActive: true}
	if err := applyMemberInput(m, input); err != nil {
		return nil, err
	}

	created, err := s.memberRepo.Create(ctx, m)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("member_id", created.ID).Msg("Member created")
	s.publishEvent(events.ForMember(created.ID), events.NewEvent(events.EventTypeCreated, events.EntityTypeMember, created))
	return created, nil
}

// UpdateMember edits a member's profile, balance and active flag
func (s *MemberService) UpdateMember(ctx context.Context, scope domain.Scope, id int32, input MemberInput) (*domain.Member, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyMemberInput(m, input); err != nil {
		return nil, err
	}

	updated, err := s.memberRepo.Update(ctx, m)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("member_id", updated.ID).Bool("active", updated.IsActive).Msg("Member updated")
	s.publishEvent(events.ForMember(updated.ID), events.NewEvent(events.EventTypeUpdated, events.EntityTypeMember, updated))
	return updated, nil
}

// DeleteMember removes a member together with their contributions and expenditures
func (s *MemberService) DeleteMember(ctx context.Context, scope domain.Scope, id int32) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int32("member_id", id).Msg("Member deleted")
	s.publishEvent(events.AdminsOnly, events.NewEvent(events.EventTypeDeleted, events.EntityTypeMember, events.Deleted(id)))
	return nil
}

func applyMemberInput(m *domain.Member, input MemberInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.ErrNameRequired
	}
	if len([]rune(name)) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}

	email := strings.TrimSpace(input.Email)
	if !validEmail(email) {
		return domain.ErrInvalidEmail
	}

	phone, err := trimOptional(input.Phone, domain.MaxPhoneLength, domain.ErrPhoneTooLong)
	if err != nil {
		return err
	}

	if input.Balance.IsNegative() {
		return domain.ErrNegativeBalance
	}
	if err := domain.ValidateAmount(input.Balance); err != nil {
		return domain.ErrInvalidBalance
	}

	subject, err := trimOptional(input.AuthSubject, domain.MaxNameLength, domain.NewFieldError("authSubject", "identity is too long"))
	if err != nil {
		return err
	}

	m.Name = name
	m.Email = email
	m.Phone = phone
	m.Balance = input.Balance
	if subject != nil {
		m.AuthSubject = subject
	}
	if input.IsActive != nil {
		m.IsActive = *input.IsActive
	}
	return nil
}

// validEmail accepts a bare address (no display name)
func validEmail(s string) bool {
	if s == "" || len(s) > domain.MaxNameLength {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
