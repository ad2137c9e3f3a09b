package testutil

import (
	"context"
	"sort"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
)

// MockExpenditureRepository is a mock implementation of domain.ExpenditureRepository
type MockExpenditureRepository struct {
	l *MockLedger
	// Err, when set, is returned by every method
	Err error
}

// Create creates a new expenditure
func (r *MockExpenditureRepository) Create(ctx context.Context, e *domain.Expenditure) (*domain.Expenditure, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, ok := r.l.members[e.CreatedBy]; !ok {
		return nil, domain.ErrMemberNotFound
	}
	cp := *e
	cp.ID = r.l.id()
	cp.CreatedAt = r.l.stamp()
	cp.UpdatedAt = cp.CreatedAt
	r.l.expenditures[cp.ID] = &cp
	return r.l.expenditureCopy(&cp), nil
}

// GetByID retrieves an expenditure by ID
func (r *MockExpenditureRepository) GetByID(ctx context.Context, id int32) (*domain.Expenditure, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	e, ok := r.l.expenditures[id]
	if !ok {
		return nil, domain.ErrExpenditureNotFound
	}
	return r.l.expenditureCopy(e), nil
}

// List returns one page of expenditures, latest date first
func (r *MockExpenditureRepository) List(ctx context.Context, filter domain.ExpenditureFilter, req domain.PageRequest) (*domain.Page[*domain.Expenditure], error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var matched []*domain.Expenditure
	for _, e := range r.l.expenditures {
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && e.ExpenditureDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.ExpenditureDate.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, r.l.expenditureCopy(e))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ExpenditureDate.Equal(matched[j].ExpenditureDate) {
			return matched[i].ExpenditureDate.After(matched[j].ExpenditureDate)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if cur, ok := domain.DecodeCursor(req.Cursor); ok {
		if d, err := util.ParseDate(cur.Key); err == nil {
			rest := matched[:0:0]
			for _, e := range matched {
				if e.ExpenditureDate.Before(d) || (e.ExpenditureDate.Equal(d) && e.ID < cur.ID) {
					rest = append(rest, e)
				}
			}
			matched = rest
		}
	}

	size := req.Size()
	page := &domain.Page[*domain.Expenditure]{PageSize: size, TotalItems: total, Data: matched}
	if int32(len(matched)) > size {
		page.Data = matched[:size]
		last := page.Data[size-1]
		page.NextCursor = domain.EncodeCursor(util.FormatDate(last.ExpenditureDate), last.ID)
	}
	if page.Data == nil {
		page.Data = []*domain.Expenditure{}
	}
	return page, nil
}

// Update updates an expenditure
func (r *MockExpenditureRepository) Update(ctx context.Context, e *domain.Expenditure) (*domain.Expenditure, error) {
	return r.mutate(e.ID, func(existing *domain.Expenditure) {
		existing.Amount = e.Amount
		existing.ExpenditureDate = e.ExpenditureDate
		existing.Category = e.Category
		existing.Description = e.Description
		existing.Status = e.Status
	})
}

// UpdateStatus changes the approval status
func (r *MockExpenditureRepository) UpdateStatus(ctx context.Context, id int32, status domain.ExpenditureStatus) (*domain.Expenditure, error) {
	return r.mutate(id, func(existing *domain.Expenditure) {
		existing.Status = status
	})
}

// SetProof stores the receipt object path
func (r *MockExpenditureRepository) SetProof(ctx context.Context, id int32, proof string) (*domain.Expenditure, error) {
	return r.mutate(id, func(existing *domain.Expenditure) {
		existing.ProofFile = &proof
	})
}

func (r *MockExpenditureRepository) mutate(id int32, fn func(*domain.Expenditure)) (*domain.Expenditure, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	existing, ok := r.l.expenditures[id]
	if !ok {
		return nil, domain.ErrExpenditureNotFound
	}
	fn(existing)
	existing.UpdatedAt = r.l.stamp()
	return r.l.expenditureCopy(existing), nil
}

// Delete removes an expenditure
func (r *MockExpenditureRepository) Delete(ctx context.Context, id int32) error {
	if r.Err != nil {
		return r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, ok := r.l.expenditures[id]; !ok {
		return domain.ErrExpenditureNotFound
	}
	delete(r.l.expenditures, id)
	return nil
}

// Recent returns the most recently created expenditures
func (r *MockExpenditureRepository) Recent(ctx context.Context, approvedOnly bool, limit int) ([]*domain.Expenditure, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var out []*domain.Expenditure
	for _, e := range r.l.expenditures {
		if !approvedOnly || e.Status == domain.ExpenditureApproved {
			out = append(out, r.l.expenditureCopy(e))
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

var _ domain.ExpenditureRepository = (*MockExpenditureRepository)(nil)
