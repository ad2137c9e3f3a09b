package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Member is an association member; administrators are members with the admin role
type Member struct {
	ID          int32           `json:"id"`
	AuthSubject *string         `json:"-"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone,omitempty"`
	Role        Role            `json:"role"`
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Caller returns the member as a request caller
func (m *Member) Caller() Caller {
	return Caller{MemberID: m.ID, Role: m.Role}
}

// MemberSummary annotates a member with contribution totals for listings
type MemberSummary struct {
	Member
	TotalContributions int64           `json:"totalContributions"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
}

type MemberFilter struct {
	// Search is a case-insensitive substring of name or email
	Search string
	Active *bool
}

type MemberRepository interface {
	// Create fails with ErrMemberEmailTaken on a duplicate email
	Create(ctx context.Context, m *Member) (*Member, error)
	GetByID(ctx context.Context, id int32) (*Member, error)
	GetByAuthSubject(ctx context.Context, subject string) (*Member, error)
	List(ctx context.Context, filter MemberFilter, page PageRequest) (*Page[*MemberSummary], error)
	Update(ctx context.Context, m *Member) (*Member, error)
	// Delete removes the member together with their contributions and expenditures
	Delete(ctx context.Context, id int32) error
	// SumBalances totals balances, restricted to one member when ownerID is set
	SumBalances(ctx context.Context, ownerID *int32) (decimal.Decimal, error)
	CountActiveMembers(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}
