package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AdminSeed describes the administrator a fresh ledger starts with
type AdminSeed struct {
	AuthSubject string
	Email       string
	Name        string
}

// EnsureAdmin gives an empty ledger its first administrator. When any
// administrator exists it does nothing. Otherwise the member linked to the
// seed's subject is promoted, or a new administrator is created from the seed.
// It reports whether anything changed.
func (s *MemberService) EnsureAdmin(ctx context.Context, seed AdminSeed) (*domain.Member, bool, error) {
	admins, err := s.memberRepo.CountAdmins(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil, false, nil
	}

	existing, err := s.memberRepo.GetByAuthSubject(ctx, seed.AuthSubject)
	switch {
	case err == nil:
		existing.Role = domain.RoleAdmin
		existing.IsActive = true
		promoted, err := s.memberRepo.Update(ctx, existing)
		if err != nil {
			return nil, false, fmt.Errorf("promote admin: %w", err)
		}
		log.Info().Int32("member_id", promoted.ID).Msg("Existing member promoted to administrator")
		return promoted, true, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, fmt.Errorf("look up admin subject: %w", err)
	}

	m := &domain.Member{Role: domain.RoleAdmin, IsActive: true}
	subject := seed.AuthSubject
	if err := applyMemberInput(m, MemberInput{
		AuthSubject: &subject,
		Name:        seed.Name,
		Email:       seed.Email,
		Balance:     decimal.Zero,
	}); err != nil {
		return nil, false, err
	}

	created, err := s.memberRepo.Create(ctx, m)
	if err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	log.Info().Int32("member_id", created.ID).Str("email", created.Email).Msg("Bootstrap administrator created")
	return created, true, nil
}
