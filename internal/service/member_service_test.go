package service

import (
	"context"
	"testing"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) members() *MemberService {
	svc := NewMemberService(f.ledger.Members)
	svc.SetEventPublisher(f.publisher)
	return svc
}

func strPtr(s string) *string { return &s }

func TestMemberService_CreateMember(t *testing.T) {
	f := newFixture(noon(2024, 6, 15))

	m, err := f.members().CreateMember(context.Background(), f.adminScope(), MemberInput{
		AuthSubject: strPtr("auth0|dina"),
		Name:        " Dina ",
		Email:       "dina@example.com",
		Phone:       strPtr("0812345678"),
		Balance:     decimal.NewFromInt(10),
	})

	require.NoError(t, err)
	assert.Equal(t, "Dina", m.Name)
	assert.Equal(t, domain.RoleMember, m.Role)
	assert.True(t, m.IsActive)
	assert.Equal(t, []string{"member.created"}, f.publisher.Types())
}

func TestMemberService_CreateMember_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   MemberInput
		wantErr error
	}{
		{"blank name", MemberInput{Name: " ", Email: "x@example.com"}, domain.ErrNameRequired},
		{"bad email", MemberInput{Name: "X", Email: "not-an-email"}, domain.ErrInvalidEmail},
		{"display name email", MemberInput{Name: "X", Email: "X <x@example.com>"}, domain.ErrInvalidEmail},
		{"long phone", MemberInput{Name: "X", Email: "x@example.com", Phone: strPtr("012345678901234567890")}, domain.ErrPhoneTooLong},
		{"negative balance", MemberInput{Name: "X", Email: "x@example.com", Balance: decimal.NewFromInt(-5)}, domain.ErrNegativeBalance},
		{"balance beyond storage", MemberInput{Name: "X", Email: "x@example.com", Balance: decimal.New(1, 14)}, domain.ErrInvalidBalance},
		{"taken email", MemberInput{Name: "X", Email: "alice@example.com"}, domain.ErrMemberEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(noon(2024, 6, 15))

			_, err := f.members().CreateMember(context.Background(), f.adminScope(), tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMemberService_ResolveCaller(t *testing.T) {
	f := newFixture(noon(2024, 6, 15))
	ctx := context.Background()
	svc := f.members()

	m, err := svc.CreateMember(ctx, f.adminScope(), MemberInput{AuthSubject: strPtr("auth0|dina"), Name: "Dina", Email: "dina@example.com"})
	require.NoError(t, err)

	caller, err := svc.ResolveCaller(ctx, "auth0|dina")
	require.NoError(t, err)
	assert.Equal(t, m.ID, caller.MemberID)
	assert.Equal(t, domain.RoleMember, caller.Role)

	_, err = svc.ResolveCaller(ctx, "auth0|nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := false
	_, err = svc.UpdateMember(ctx, f.adminScope(), m.ID, MemberInput{Name: "Dina", Email: "dina@example.com", IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.ResolveCaller(ctx, "auth0|dina")
	assert.ErrorIs(t, err, domain.ErrMemberInactive)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMemberService_GetMember_Scope(t *testing.T) {
	f := newFixture(noon(2024, 6, 15))
	ctx := context.Background()
	svc := f.members()

	me, err := svc.GetMember(ctx, f.aliceScope(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)

	_, err = svc.GetMember(ctx, f.aliceScope(), f.bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ListMembers(ctx, f.aliceScope(), domain.MemberFilter{}, domain.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	me, err = svc.GetMe(ctx, f.bobScope())
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, me.ID)
}

func TestMemberService_ListMembers(t *testing.T) {
	f := newFixture(noon(2024, 6, 15))
	f.ledger.AddContribution(f.alice.ID, "10", date(2024, 5, 1), datePtr(2024, 5, 1))
	f.ledger.AddContribution(f.alice.ID, "20", date(2024, 6, 1), nil)

	page, err := f.members().ListMembers(context.Background(), f.adminScope(), domain.MemberFilter{Search: "ali"}, domain.PageRequest{})

	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(2), page.Data[0].TotalContributions)
	assert.Equal(t, "10.00", page.Data[0].TotalPaid.StringFixed(2))
}

func TestMemberService_DeleteMember_Cascades(t *testing.T) {
	f := newFixture(noon(2024, 6, 15))
	ctx := context.Background()
	f.ledger.AddContribution(f.alice.ID, "10", date(2024, 5, 1), nil)
	f.ledger.AddContribution(f.bob.ID, "10", date(2024, 5, 1), nil)
	f.ledger.AddExpenditure(f.alice.ID, "10", date(2024, 5, 1), domain.ExpenditureApproved)

	require.NoError(t, f.members().DeleteMember(ctx, f.adminScope(), f.alice.ID))

	assert.Equal(t, 1, f.ledger.ContributionCount())
	assert.Equal(t, 0, f.ledger.ExpenditureCount())
	_, err := f.ledger.Members.GetByID(ctx, f.alice.ID)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)

	err = f.members().DeleteMember(ctx, f.adminScope(), f.alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
