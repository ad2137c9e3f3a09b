package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ContributionStatus string

const (
	StatusPending ContributionStatus = "pending"
	StatusPaid    ContributionStatus = "paid"
	StatusOverdue ContributionStatus = "overdue"
)

// ParseContributionStatus returns the status named by s
func ParseContributionStatus(s string) (ContributionStatus, bool) {
	switch st := ContributionStatus(s); st {
	case StatusPending, StatusPaid, StatusOverdue:
		return st, true
	}
	return "", false
}

type Contribution struct {
	ID           int32              `json:"id"`
	MemberID     int32              `json:"memberId"`
	MemberName   string             `json:"memberName,omitempty"`
	Amount       decimal.Decimal    `json:"amount"`
	DueDate      time.Time          `json:"dueDate"`
	PaidDate     *time.Time         `json:"paidDate,omitempty"`
	Status       ContributionStatus `json:"status"`
	Notes        *string            `json:"notes,omitempty"`
	PaymentProof *string            `json:"paymentProof,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// DeriveStatus computes the lifecycle status of a contribution as of an instant.
// The calendar day of asOf is taken in asOf's own location; the due date is a
// calendar date and is read as written, whatever its location.
//
// A set paid date always wins. Otherwise the contribution is overdue only once its
// due date is strictly before that day; a contribution due today is still pending.
func DeriveStatus(c Contribution, asOf time.Time) ContributionStatus {
	if c.PaidDate != nil {
		return StatusPaid
	}
	if Today(c.DueDate).Before(Today(asOf)) {
		return StatusOverdue
	}
	return StatusPending
}

// Refresh replaces the cached status with the derived one
func (c *Contribution) Refresh(asOf time.Time) {
	c.Status = DeriveStatus(*c, asOf)
}

// RefreshAll re-derives the status of every contribution
func RefreshAll(cs []*Contribution, asOf time.Time) {
	for _, c := range cs {
		c.Refresh(asOf)
	}
}

// Today returns the calendar day of t, in t's location, as midnight UTC
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ContributionFilter holds the optional predicates of a contribution listing.
// A nil or zero field applies no restriction.
type ContributionFilter struct {
	Status  *ContributionStatus
	Year    int
	Month   int
	DueFrom *time.Time
	DueTo   *time.Time
	Search  string
}

// ContributionQuery is a fully scoped listing request handed to the store
type ContributionQuery struct {
	OwnerID *int32
	Filter  ContributionFilter
	Page    PageRequest
	Today   time.Time
}

// UpdateContributionData holds the administrator-editable fields
type UpdateContributionData struct {
	MemberID     int32
	Amount       decimal.Decimal
	DueDate      time.Time
	PaidDate     *time.Time
	Status       ContributionStatus
	Notes        *string
	PaymentProof *string
}

// ArrearsEntry is a member with at least one overdue contribution
type ArrearsEntry struct {
	MemberID     int32  `json:"memberId"`
	MemberName   string `json:"memberName"`
	MemberEmail  string `json:"memberEmail"`
	OverdueCount int64  `json:"overdueCount"`
}

// Arrears listing bounds
const (
	DefaultArrearsLimit = 10
	MaxArrearsLimit     = 100
)

type ContributionRepository interface {
	// Create fails with ErrDuplicateContribution when the (member, due date) pair exists
	Create(ctx context.Context, c *Contribution) (*Contribution, error)
	GetByID(ctx context.Context, id int32) (*Contribution, error)
	List(ctx context.Context, q ContributionQuery) (*Page[*Contribution], error)
	Update(ctx context.Context, id int32, data *UpdateContributionData) (*Contribution, error)
	// MarkPaid sets the paid date and status in one step; ErrContributionAlreadyPaid if already paid
	MarkPaid(ctx context.Context, id int32, paidOn time.Time) (*Contribution, error)
	SetProof(ctx context.Context, id int32, proof string) (*Contribution, error)
	Delete(ctx context.Context, id int32) error
	// PeriodTotals sums paid contributions due in [from, to), restricted to ownerID
	// when set, and approved expenditures dated in [from, to). Both sums observe
	// the same snapshot of the ledger.
	PeriodTotals(ctx context.Context, ownerID *int32, from, to time.Time) (*PeriodTotals, error)
	// ListArrears returns members with contributions due before today and unpaid
	ListArrears(ctx context.Context, ownerID *int32, today time.Time, limit int) ([]*ArrearsEntry, error)
	// Recent returns the most recently created contributions
	Recent(ctx context.Context, ownerID *int32, limit int) ([]*Contribution, error)
	// ListByMember returns a member's contributions by due date, newest first
	ListByMember(ctx context.Context, memberID int32, limit int) ([]*Contribution, error)
	// GetByMemberDueRange returns the member's contribution due in [from, to), if any
	GetByMemberDueRange(ctx context.Context, memberID int32, from, to time.Time) (*Contribution, error)
	// MarkOverdue persists status 'overdue' on unpaid rows due before today
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}
