package service

import (
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// noon avoids accidental day rollovers when a test clock is read in UTC
func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

type fixture struct {
	ledger    *testutil.MockLedger
	clock     *clock.Fixed
	publisher *testutil.MockPublisher
	admin     *domain.Member
	alice     *domain.Member
	bob       *domain.Member
}

func newFixture(now time.Time) *fixture {
	l := testutil.NewMockLedger()
	return &fixture{
		ledger:    l,
		clock:     clock.NewFixed(now),
		publisher: testutil.NewMockPublisher(),
		admin:     l.AddMember("Admin", "admin@example.com", domain.RoleAdmin),
		alice:     l.AddMember("Alice", "alice@example.com", domain.RoleMember),
		bob:       l.AddMember("Bob", "bob@example.com", domain.RoleMember),
	}
}

func (f *fixture) adminScope() domain.Scope { return domain.ScopeFor(f.admin.Caller()) }
func (f *fixture) aliceScope() domain.Scope { return domain.ScopeFor(f.alice.Caller()) }
func (f *fixture) bobScope() domain.Scope   { return domain.ScopeFor(f.bob.Caller()) }

func (f *fixture) contributions() *ContributionService {
	svc := NewContributionService(f.ledger.Contributions, f.ledger.Members, f.clock, time.UTC)
	svc.SetEventPublisher(f.publisher)
	return svc
}

func (f *fixture) aggregation() *AggregationService {
	return NewAggregationService(f.ledger.Contributions, f.ledger.Members, f.clock, time.UTC)
}
