package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeFor_Admin(t *testing.T) {
	s := ScopeFor(Caller{MemberID: 1, Role: RoleAdmin})

	assert.True(t, s.IsAdmin())
	assert.Nil(t, s.ContributionOwner())
	assert.NoError(t, s.RequireAdmin())
	assert.True(t, s.CanSeeContribution(&Contribution{MemberID: 42}))
}

func TestScopeFor_Member(t *testing.T) {
	s := ScopeFor(Caller{MemberID: 7, Role: RoleMember})

	assert.False(t, s.IsAdmin())
	owner := s.ContributionOwner()
	require.NotNil(t, owner)
	assert.Equal(t, int32(7), *owner)

	err := s.RequireAdmin()
	assert.ErrorIs(t, err, ErrAdminRequired)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.True(t, s.CanSeeContribution(&Contribution{MemberID: 7}))
	assert.False(t, s.CanSeeContribution(&Contribution{MemberID: 8}))
}

func TestScope_ContributionOwnerIsACopy(t *testing.T) {
	s := ScopeFor(Caller{MemberID: 7, Role: RoleMember})
	*s.ContributionOwner() = 99
	assert.Equal(t, int32(7), *s.ContributionOwner())
}

func TestSystemScope(t *testing.T) {
	s := SystemScope()
	assert.True(t, s.IsAdmin())
	assert.Equal(t, int32(0), s.CallerID())
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrContributionNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrDuplicateContribution, ErrConflict))
	assert.True(t, errors.Is(ErrInvalidAmount, ErrValidation))
	assert.False(t, errors.Is(ErrInvalidAmount, ErrConflict))

	var fe *FieldError
	require.True(t, errors.As(ErrDueDateInPast, &fe))
	assert.Equal(t, "dueDate", fe.Field)
}
