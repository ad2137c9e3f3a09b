package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/appdotbuilder/member-contributions-manager/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// Handler tests run on 2025-06-15
var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

type testEnv struct {
	ledger *testutil.MockLedger
	clock  *clock.Fixed
	admin  *domain.Member
	alice  *domain.Member
	bob    *domain.Member
}

func newTestEnv() *testEnv {
	l := testutil.NewMockLedger()
	return &testEnv{
		ledger: l,
		clock:  clock.NewFixed(testNow),
		admin:  l.AddMember("Admin", "admin@example.com", domain.RoleAdmin),
		alice:  l.AddMember("Alice", "alice@example.com", domain.RoleMember),
		bob:    l.AddMember("Bob", "bob@example.com", domain.RoleMember),
	}
}

func (env *testEnv) contributionHandler() *ContributionHandler {
	return NewContributionHandler(service.NewContributionService(env.ledger.Contributions, env.ledger.Members, env.clock, time.UTC))
}

func (env *testEnv) expenditureHandler() *ExpenditureHandler {
	return NewExpenditureHandler(service.NewExpenditureService(env.ledger.Expenditures))
}

func (env *testEnv) memberHandler() *MemberHandler {
	return NewMemberHandler(service.NewMemberService(env.ledger.Members))
}

func (env *testEnv) dashboardHandler() *DashboardHandler {
	aggregation := service.NewAggregationService(env.ledger.Contributions, env.ledger.Members, env.clock, time.UTC)
	dashboards := service.NewDashboardService(aggregation, env.ledger.Contributions, env.ledger.Expenditures, env.ledger.Members)
	return NewDashboardHandler(dashboards, aggregation)
}

// newContext builds an echo context for the given caller. Path parameters are
// passed as name/value pairs.
func newContext(method, target, body string, caller *domain.Member, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if caller != nil {
		middleware.WithCaller(c, caller.Caller())
	}

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// problemField returns the field of the first validation error
func problemField(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	p := decode[ProblemDetails](t, rec)
	require.NotEmpty(t, p.Errors, rec.Body.String())
	return p.Errors[0].Field
}
