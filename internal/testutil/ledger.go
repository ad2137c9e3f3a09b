package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/shopspring/decimal"
)

// MockLedger is an in-memory ledger store shared by the member, contribution and
// expenditure mocks. It enforces the same rules as the database schema: unique
// (member, due date) pairs, unique member emails, paid status iff a paid date,
// non-negative balances and cascading member deletion.
type MockLedger struct {
	mu            sync.Mutex
	members       map[int32]*domain.Member
	contributions map[int32]*domain.Contribution
	expenditures  map[int32]*domain.Expenditure
	nextID        int32
	seq           int64

	Members       *MockMemberRepository
	Contributions *MockContributionRepository
	Expenditures  *MockExpenditureRepository
}

// NewMockLedger creates an empty in-memory ledger
func NewMockLedger() *MockLedger {
	l := &MockLedger{
		members:       make(map[int32]*domain.Member),
		contributions: make(map[int32]*domain.Contribution),
		expenditures:  make(map[int32]*domain.Expenditure),
	}
	l.Members = &MockMemberRepository{l: l}
	l.Contributions = &MockContributionRepository{l: l}
	l.Expenditures = &MockExpenditureRepository{l: l}
	return l
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// stamp returns a strictly increasing timestamp so creation order is observable
func (l *MockLedger) stamp() time.Time {
	l.seq++
	return baseTime.Add(time.Duration(l.seq) * time.Second)
}

func (l *MockLedger) id() int32 {
	l.nextID++
	return l.nextID
}

// AddMember seeds a member (helper for tests)
func (l *MockLedger) AddMember(name, email string, role domain.Role) *domain.Member {
	m, err := l.Members.Create(context.Background(), &domain.Member{
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: true,
		Balance:  decimal.Zero,
	})
	if err != nil {
		panic(err)
	}
	return m
}

// AddContribution seeds a contribution without service validation (helper for tests)
func (l *MockLedger) AddContribution(memberID int32, amount string, due time.Time, paid *time.Time) *domain.Contribution {
	status := domain.StatusPending
	if paid != nil {
		status = domain.StatusPaid
	}
	c, err := l.Contributions.Create(context.Background(), &domain.Contribution{
		MemberID: memberID,
		Amount:   decimal.RequireFromString(amount),
		DueDate:  due,
		PaidDate: paid,
		Status:   status,
	})
	if err != nil {
		panic(err)
	}
	return c
}

// AddExpenditure seeds an expenditure (helper for tests)
func (l *MockLedger) AddExpenditure(createdBy int32, amount string, date time.Time, status domain.ExpenditureStatus) *domain.Expenditure {
	e, err := l.Expenditures.Create(context.Background(), &domain.Expenditure{
		CreatedBy:       createdBy,
		Amount:          decimal.RequireFromString(amount),
		ExpenditureDate: date,
		Category:        domain.CategoryOperations,
		Description:     "seeded expenditure",
		Status:          status,
	})
	if err != nil {
		panic(err)
	}
	return e
}

// ContributionCount returns the number of stored contributions
func (l *MockLedger) ContributionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.contributions)
}

// ExpenditureCount returns the number of stored expenditures
func (l *MockLedger) ExpenditureCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.expenditures)
}

// CachedStatus returns the stored (cached) status column of a contribution
func (l *MockLedger) CachedStatus(id int32) domain.ContributionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.contributions[id]; ok {
		return c.Status
	}
	return ""
}

func (l *MockLedger) contributionCopy(c *domain.Contribution) *domain.Contribution {
	cp := *c
	if m, ok := l.members[c.MemberID]; ok {
		cp.MemberName = m.Name
	}
	return &cp
}

func (l *MockLedger) expenditureCopy(e *domain.Expenditure) *domain.Expenditure {
	cp := *e
	if m, ok := l.members[e.CreatedBy]; ok {
		cp.CreatorName = m.Name
	}
	return &cp
}

// MockMemberRepository is a mock implementation of domain.MemberRepository
type MockMemberRepository struct {
	l *MockLedger
	// Err, when set, is returned by every method
	Err error
}

// Create creates a new member
func (r *MockMemberRepository) Create(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if err := r.checkUnique(m, 0); err != nil {
		return nil, err
	}
	if m.Balance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}

	cp := *m
	cp.ID = r.l.id()
	cp.CreatedAt = r.l.stamp()
	cp.UpdatedAt = cp.CreatedAt
	r.l.members[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MockMemberRepository) checkUnique(m *domain.Member, selfID int32) error {
	for _, existing := range r.l.members {
		if existing.ID == selfID {
			continue
		}
		if existing.Email == m.Email {
			return domain.ErrMemberEmailTaken
		}
		if m.AuthSubject != nil && existing.AuthSubject != nil && *existing.AuthSubject == *m.AuthSubject {
			return domain.ErrMemberSubjectTaken
		}
	}
	return nil
}

// GetByID retrieves a member by ID
func (r *MockMemberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	m, ok := r.l.members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

// GetByAuthSubject retrieves a member by identity provider subject
func (r *MockMemberRepository) GetByAuthSubject(ctx context.Context, subject string) (*domain.Member, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	for _, m := range r.l.members {
		if m.AuthSubject != nil && *m.AuthSubject == subject {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

// List returns one page of members ordered by name
func (r *MockMemberRepository) List(ctx context.Context, filter domain.MemberFilter, req domain.PageRequest) (*domain.Page[*domain.MemberSummary], error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var matched []*domain.MemberSummary
	for _, m := range r.l.members {
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Email), q) {
				continue
			}
		}
		if filter.Active != nil && m.IsActive != *filter.Active {
			continue
		}
		s := &domain.MemberSummary{Member: *m, TotalPaid: decimal.Zero}
		for _, c := range r.l.contributions {
			if c.MemberID != m.ID {
				continue
			}
			s.TotalContributions++
			if c.PaidDate != nil {
				s.TotalPaid = s.TotalPaid.Add(c.Amount)
			}
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if cur, ok := domain.DecodeCursor(req.Cursor); ok {
		rest := matched[:0:0]
		for _, s := range matched {
			if s.Name > cur.Key || (s.Name == cur.Key && s.ID > cur.ID) {
				rest = append(rest, s)
			}
		}
		matched = rest
	}

	page := &domain.Page[*domain.MemberSummary]{PageSize: req.Size(), TotalItems: total}
	page.Data = matched
	if int32(len(matched)) > req.Size() {
		page.Data = matched[:req.Size()]
		last := page.Data[len(page.Data)-1]
		page.NextCursor = domain.EncodeCursor(last.Name, last.ID)
	}
	if page.Data == nil {
		page.Data = []*domain.MemberSummary{}
	}
	return page, nil
}

// Update updates a member
func (r *MockMemberRepository) Update(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	existing, ok := r.l.members[m.ID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	if err := r.checkUnique(m, m.ID); err != nil {
		return nil, err
	}
	if m.Balance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}

	cp := *m
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = r.l.stamp()
	r.l.members[m.ID] = &cp
	out := cp
	return &out, nil
}

// Delete removes a member and cascades to their contributions and expenditures
func (r *MockMemberRepository) Delete(ctx context.Context, id int32) error {
	if r.Err != nil {
		return r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, ok := r.l.members[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.l.members, id)
	for cid, c := range r.l.contributions {
		if c.MemberID == id {
			delete(r.l.contributions, cid)
		}
	}
	for eid, e := range r.l.expenditures {
		if e.CreatedBy == id {
			delete(r.l.expenditures, eid)
		}
	}
	return nil
}

// SumBalances totals balances, optionally for one member
func (r *MockMemberRepository) SumBalances(ctx context.Context, ownerID *int32) (decimal.Decimal, error) {
	if r.Err != nil {
		return decimal.Zero, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	total := decimal.Zero
	for _, m := range r.l.members {
		if ownerID == nil || m.ID == *ownerID {
			total = total.Add(m.Balance)
		}
	}
	return total, nil
}

// CountActiveMembers counts active non-administrator members
func (r *MockMemberRepository) CountActiveMembers(ctx context.Context) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var n int64
	for _, m := range r.l.members {
		if m.Role == domain.RoleMember && m.IsActive {
			n++
		}
	}
	return n, nil
}

// CountAdmins counts administrators
func (r *MockMemberRepository) CountAdmins(ctx context.Context) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var n int64
	for _, m := range r.l.members {
		if m.Role == domain.RoleAdmin {
			n++
		}
	}
	return n, nil
}

var _ domain.MemberRepository = (*MockMemberRepository)(nil)
