package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/shopspring/decimal"
)

// MockContributionRepository is a mock implementation of domain.ContributionRepository
type MockContributionRepository struct {
	l *MockLedger
	// Err, when set, is returned by every method
	Err error
	// CreateDelay widens the window between the uniqueness check and the insert
	// (the check and insert stay atomic, as with a database constraint)
	CreateDelay time.Duration
}

// Create inserts a contribution, enforcing the (member, due date) unique pair
func (r *MockContributionRepository) Create(ctx context.Context, c *domain.Contribution) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if err := r.checkRow(c, 0); err != nil {
		return nil, err
	}
	if r.CreateDelay > 0 {
		time.Sleep(r.CreateDelay)
	}

	cp := *c
	cp.ID = r.l.id()
	cp.CreatedAt = r.l.stamp()
	cp.UpdatedAt = cp.CreatedAt
	r.l.contributions[cp.ID] = &cp
	return r.l.contributionCopy(&cp), nil
}

func (r *MockContributionRepository) checkRow(c *domain.Contribution, selfID int32) error {
	if _, ok := r.l.members[c.MemberID]; !ok {
		return domain.ErrMemberRequired
	}
	if (c.Status == domain.StatusPaid) != (c.PaidDate != nil) {
		return domain.ErrStatusDateMismatch
	}
	for _, existing := range r.l.contributions {
		if existing.ID != selfID && existing.MemberID == c.MemberID && existing.DueDate.Equal(c.DueDate) {
			return domain.ErrDuplicateContribution
		}
	}
	return nil
}

// GetByID retrieves a contribution by ID
func (r *MockContributionRepository) GetByID(ctx context.Context, id int32) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	c, ok := r.l.contributions[id]
	if !ok {
		return nil, domain.ErrContributionNotFound
	}
	return r.l.contributionCopy(c), nil
}

// List returns one page of contributions, latest due date first
func (r *MockContributionRepository) List(ctx context.Context, q domain.ContributionQuery) (*domain.Page[*domain.Contribution], error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var matched []*domain.Contribution
	for _, c := range r.l.contributions {
		cp := r.l.contributionCopy(c)
		if matchesContribution(cp, q) {
			matched = append(matched, cp)
		}
	}
	sortByDueDesc(matched)

	total := int64(len(matched))
	if cur, ok := domain.DecodeCursor(q.Page.Cursor); ok {
		if due, err := util.ParseDate(cur.Key); err == nil {
			rest := matched[:0:0]
			for _, c := range matched {
				if c.DueDate.Before(due) || (c.DueDate.Equal(due) && c.ID < cur.ID) {
					rest = append(rest, c)
				}
			}
			matched = rest
		}
	}

	size := q.Page.Size()
	page := &domain.Page[*domain.Contribution]{PageSize: size, TotalItems: total, Data: matched}
	if int32(len(matched)) > size {
		page.Data = matched[:size]
		last := page.Data[size-1]
		page.NextCursor = domain.EncodeCursor(util.FormatDate(last.DueDate), last.ID)
	}
	if page.Data == nil {
		page.Data = []*domain.Contribution{}
	}
	return page, nil
}

func matchesContribution(c *domain.Contribution, q domain.ContributionQuery) bool {
	if q.OwnerID != nil && c.MemberID != *q.OwnerID {
		return false
	}
	f := q.Filter
	if f.Status != nil {
		switch *f.Status {
		case domain.StatusPaid:
			if c.PaidDate == nil {
				return false
			}
		case domain.StatusOverdue:
			if c.PaidDate != nil || !c.DueDate.Before(q.Today) {
				return false
			}
		case domain.StatusPending:
			if c.PaidDate != nil || c.DueDate.Before(q.Today) {
				return false
			}
		}
	}
	if f.Year > 0 && f.Month > 0 && !util.InMonth(c.DueDate, f.Year, f.Month) {
		return false
	}
	if f.DueFrom != nil && c.DueDate.Before(*f.DueFrom) {
		return false
	}
	if f.DueTo != nil && c.DueDate.After(*f.DueTo) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(c.MemberName), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func sortByDueDesc(cs []*domain.Contribution) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].DueDate.Equal(cs[j].DueDate) {
			return cs[i].DueDate.After(cs[j].DueDate)
		}
		return cs[i].ID > cs[j].ID
	})
}

// Update replaces editable fields; a recorded payment is never cleared
func (r *MockContributionRepository) Update(ctx context.Context, id int32, data *domain.UpdateContributionData) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	existing, ok := r.l.contributions[id]
	if !ok {
		return nil, domain.ErrContributionNotFound
	}
	if existing.PaidDate != nil && data.PaidDate == nil {
		return nil, domain.ErrCannotUnpay
	}

	next := *existing
	next.MemberID = data.MemberID
	next.Amount = data.Amount
	next.DueDate = data.DueDate
	next.PaidDate = data.PaidDate
	next.Status = data.Status
	next.Notes = data.Notes
	next.PaymentProof = data.PaymentProof
	if err := r.checkRow(&next, id); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.l.stamp()
	r.l.contributions[id] = &next
	return r.l.contributionCopy(&next), nil
}

// MarkPaid records a payment if the contribution is unpaid
func (r *MockContributionRepository) MarkPaid(ctx context.Context, id int32, paidOn time.Time) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	c, ok := r.l.contributions[id]
	if !ok {
		return nil, domain.ErrContributionNotFound
	}
	if c.PaidDate != nil {
		return nil, domain.ErrContributionAlreadyPaid
	}
	paid := paidOn
	c.PaidDate = &paid
	c.Status = domain.StatusPaid
	c.UpdatedAt = r.l.stamp()
	return r.l.contributionCopy(c), nil
}

// SetProof stores the proof object path
func (r *MockContributionRepository) SetProof(ctx context.Context, id int32, proof string) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	c, ok := r.l.contributions[id]
	if !ok {
		return nil, domain.ErrContributionNotFound
	}
	c.PaymentProof = &proof
	return r.l.contributionCopy(c), nil
}

// Delete removes a contribution
func (r *MockContributionRepository) Delete(ctx context.Context, id int32) error {
	if r.Err != nil {
		return r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, ok := r.l.contributions[id]; !ok {
		return domain.ErrContributionNotFound
	}
	delete(r.l.contributions, id)
	return nil
}

// PeriodTotals sums accrual income and approved expense under one lock
func (r *MockContributionRepository) PeriodTotals(ctx context.Context, ownerID *int32, from, to time.Time) (*domain.PeriodTotals, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	totals := &domain.PeriodTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, c := range r.l.contributions {
		if ownerID != nil && c.MemberID != *ownerID {
			continue
		}
		if c.PaidDate != nil && !c.DueDate.Before(from) && c.DueDate.Before(to) {
			totals.Income = totals.Income.Add(c.Amount)
		}
	}
	for _, e := range r.l.expenditures {
		if e.Status == domain.ExpenditureApproved && !e.ExpenditureDate.Before(from) && e.ExpenditureDate.Before(to) {
			totals.Expense = totals.Expense.Add(e.Amount)
		}
	}
	return totals, nil
}

// ListArrears ranks members by overdue count, then name, then id
func (r *MockContributionRepository) ListArrears(ctx context.Context, ownerID *int32, today time.Time, limit int) ([]*domain.ArrearsEntry, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	byMember := make(map[int32]*domain.ArrearsEntry)
	for _, c := range r.l.contributions {
		if ownerID != nil && c.MemberID != *ownerID {
			continue
		}
		if c.PaidDate != nil || !c.DueDate.Before(today) {
			continue
		}
		e, ok := byMember[c.MemberID]
		if !ok {
			m := r.l.members[c.MemberID]
			e = &domain.ArrearsEntry{MemberID: m.ID, MemberName: m.Name, MemberEmail: m.Email}
			byMember[c.MemberID] = e
		}
		e.OverdueCount++
	}

	out := make([]*domain.ArrearsEntry, 0, len(byMember))
	for _, e := range byMember {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverdueCount != out[j].OverdueCount {
			return out[i].OverdueCount > out[j].OverdueCount
		}
		if out[i].MemberName != out[j].MemberName {
			return out[i].MemberName < out[j].MemberName
		}
		return out[i].MemberID < out[j].MemberID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent returns the most recently created contributions
func (r *MockContributionRepository) Recent(ctx context.Context, ownerID *int32, limit int) ([]*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var out []*domain.Contribution
	for _, c := range r.l.contributions {
		if ownerID == nil || c.MemberID == *ownerID {
			out = append(out, r.l.contributionCopy(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByMember returns a member's contributions, latest due date first
func (r *MockContributionRepository) ListByMember(ctx context.Context, memberID int32, limit int) ([]*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var out []*domain.Contribution
	for _, c := range r.l.contributions {
		if c.MemberID == memberID {
			out = append(out, r.l.contributionCopy(c))
		}
	}
	sortByDueDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetByMemberDueRange returns the member's earliest contribution due in [from, to)
func (r *MockContributionRepository) GetByMemberDueRange(ctx context.Context, memberID int32, from, to time.Time) (*domain.Contribution, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var found *domain.Contribution
	for _, c := range r.l.contributions {
		if c.MemberID != memberID || c.DueDate.Before(from) || !c.DueDate.Before(to) {
			continue
		}
		if found == nil || c.DueDate.Before(found.DueDate) || (c.DueDate.Equal(found.DueDate) && c.ID < found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, nil
	}
	return r.l.contributionCopy(found), nil
}

// MarkOverdue persists the overdue status on unpaid rows due before today
func (r *MockContributionRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var n int64
	for _, c := range r.l.contributions {
		if c.PaidDate == nil && c.DueDate.Before(today) && c.Status != domain.StatusOverdue {
			c.Status = domain.StatusOverdue
			n++
		}
	}
	return n, nil
}

var _ domain.ContributionRepository = (*MockContributionRepository)(nil)
