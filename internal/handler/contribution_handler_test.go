package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContribution_Success(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()

	body := fmt.Sprintf(`{"memberId": %d, "amount": "25", "dueDate": "2025-07-01", "notes": "July dues"}`, env.alice.ID)
	c, rec := newContext(http.MethodPost, "/api/v1/contributions", body, env.admin)

	require.NoError(t, h.CreateContribution(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[ContributionResponse](t, rec)
	assert.Equal(t, env.alice.ID, resp.MemberID)
	assert.Equal(t, "25.00", resp.Amount)
	assert.Equal(t, "2025-07-01", resp.DueDate)
	assert.Nil(t, resp.PaidDate)
	assert.Equal(t, "pending", resp.Status)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "July dues", *resp.Notes)
	assert.Equal(t, 1, env.ledger.ContributionCount())
}

func TestCreateContribution_Validation(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing member", `{"amount": "25.00", "dueDate": "2025-07-01"}`, "memberId"},
		{"bad amount", fmt.Sprintf(`{"memberId": %d, "amount": "abc", "dueDate": "2025-07-01"}`, env.alice.ID), "amount"},
		{"three decimals", fmt.Sprintf(`{"memberId": %d, "amount": "1.005", "dueDate": "2025-07-01"}`, env.alice.ID), "amount"},
		{"bad due date", fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "07/01/2025"}`, env.alice.ID), "dueDate"},
		{"due date in past", fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "2025-06-14"}`, env.alice.ID), "dueDate"},
		{"unknown status", fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "2025-07-01", "status": "late"}`, env.alice.ID), "status"},
		{"status contradicts dates", fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "2025-07-01", "status": "paid"}`, env.alice.ID), "status"},
		{"unknown member", `{"memberId": 999, "amount": "25.00", "dueDate": "2025-07-01"}`, "memberId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/contributions", tt.body, env.admin)

			require.NoError(t, h.CreateContribution(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, problemField(t, rec))
		})
	}
	assert.Equal(t, 0, env.ledger.ContributionCount())
}

func TestCreateContribution_Duplicate(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.July, 1), nil)

	body := fmt.Sprintf(`{"memberId": %d, "amount": "30.00", "dueDate": "2025-07-01"}`, env.alice.ID)
	c, rec := newContext(http.MethodPost, "/api/v1/contributions", body, env.admin)

	require.NoError(t, h.CreateContribution(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, env.ledger.ContributionCount())
}

func TestCreateContribution_MemberForbidden(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()

	body := fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "2025-07-01"}`, env.alice.ID)
	c, rec := newContext(http.MethodPost, "/api/v1/contributions", body, env.alice)

	require.NoError(t, h.CreateContribution(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, env.ledger.ContributionCount())
}

func TestGetContribution_DerivesOverdue(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.June, 1), nil)

	c, rec := newContext(http.MethodGet, "/api/v1/contributions/1", "", env.alice, "id", fmt.Sprint(seeded.ID))

	require.NoError(t, h.GetContribution(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "overdue", decode[ContributionResponse](t, rec).Status)
}

func TestGetContribution_OtherMemberIsNotFound(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.July, 1), nil)

	c, rec := newContext(http.MethodGet, "/api/v1/contributions/1", "", env.bob, "id", fmt.Sprint(seeded.ID))

	require.NoError(t, h.GetContribution(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContribution_InvalidID(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()

	c, rec := newContext(http.MethodGet, "/api/v1/contributions/abc", "", env.admin, "id", "abc")

	require.NoError(t, h.GetContribution(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContributions_ScopedAndFiltered(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.May, 1), nil)
	env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.June, 1), datePtr(2025, time.June, 2))
	env.ledger.AddContribution(env.bob.ID, "25.00", day(2025, time.May, 1), nil)

	t.Run("admin sees all", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/contributions", "", env.admin)
		require.NoError(t, h.GetContributions(c))
		assert.Equal(t, int64(3), decode[ContributionPageResponse](t, rec).TotalItems)
	})

	t.Run("admin filters overdue", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/contributions?status=overdue", "", env.admin)
		require.NoError(t, h.GetContributions(c))
		page := decode[ContributionPageResponse](t, rec)
		assert.Equal(t, int64(2), page.TotalItems)
		for _, item := range page.Data {
			assert.Equal(t, "overdue", item.Status)
		}
	})

	t.Run("member sees own only", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/contributions", "", env.alice)
		require.NoError(t, h.GetContributions(c))
		page := decode[ContributionPageResponse](t, rec)
		assert.Equal(t, int64(2), page.TotalItems)
		for _, item := range page.Data {
			assert.Equal(t, env.alice.ID, item.MemberID)
		}
	})

	t.Run("unparseable filter is ignored", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/contributions?status=bogus&year=x", "", env.admin)
		require.NoError(t, h.GetContributions(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(3), decode[ContributionPageResponse](t, rec).TotalItems)
	})
}

func TestGetContributions_Pagination(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	for m := time.January; m <= time.May; m++ {
		env.ledger.AddContribution(env.alice.ID, "10.00", day(2025, m, 1), nil)
	}

	c, rec := newContext(http.MethodGet, "/api/v1/contributions?pageSize=2", "", env.admin)
	require.NoError(t, h.GetContributions(c))
	first := decode[ContributionPageResponse](t, rec)
	require.Len(t, first.Data, 2)
	assert.Equal(t, "2025-05-01", first.Data[0].DueDate)
	require.NotEmpty(t, first.NextCursor)

	c, rec = newContext(http.MethodGet, "/api/v1/contributions?pageSize=2&cursor="+first.NextCursor, "", env.admin)
	require.NoError(t, h.GetContributions(c))
	second := decode[ContributionPageResponse](t, rec)
	require.Len(t, second.Data, 2)
	assert.Equal(t, "2025-03-01", second.Data[0].DueDate)
	assert.Equal(t, int64(5), second.TotalItems)
}

func TestGetMyContributions_AdminSeesOwn(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	env.ledger.AddContribution(env.admin.ID, "25.00", day(2025, time.July, 1), nil)
	env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.July, 1), nil)

	c, rec := newContext(http.MethodGet, "/api/v1/my-contributions", "", env.admin)

	require.NoError(t, h.GetMyContributions(c))
	page := decode[ContributionPageResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, env.admin.ID, page.Data[0].MemberID)
}

func TestMarkPaid_DefaultsToToday(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.June, 1), nil)

	c, rec := newContext(http.MethodPatch, "/api/v1/contributions/1/pay", "", env.admin, "id", fmt.Sprint(seeded.ID))

	require.NoError(t, h.MarkPaid(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ContributionResponse](t, rec)
	assert.Equal(t, "paid", resp.Status)
	require.NotNil(t, resp.PaidDate)
	assert.Equal(t, "2025-06-15", *resp.PaidDate)
}

func TestMarkPaid_FutureDateRejected(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.June, 1), nil)

	c, rec := newContext(http.MethodPatch, "/api/v1/contributions/1/pay", `{"paidDate": "2025-06-20"}`, env.admin, "id", fmt.Sprint(seeded.ID))

	require.NoError(t, h.MarkPaid(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "paidDate", problemField(t, rec))
}

func TestUpdateContribution_CannotUnpay(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.June, 1), datePtr(2025, time.June, 3))

	body := fmt.Sprintf(`{"memberId": %d, "amount": "25.00", "dueDate": "2025-06-01"}`, env.alice.ID)
	c, rec := newContext(http.MethodPut, "/api/v1/contributions/1", body, env.admin, "id", fmt.Sprint(seeded.ID))

	require.NoError(t, h.UpdateContribution(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", problemField(t, rec))
	assert.Equal(t, "paid", string(env.ledger.CachedStatus(seeded.ID)))
}

func TestDeleteContribution(t *testing.T) {
	env := newTestEnv()
	h := env.contributionHandler()
	seeded := env.ledger.AddContribution(env.alice.ID, "25.00", day(2025, time.July, 1), nil)

	c, rec := newContext(http.MethodDelete, "/api/v1/contributions/1", "", env.admin, "id", fmt.Sprint(seeded.ID))
	require.NoError(t, h.DeleteContribution(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.ledger.ContributionCount())

	c, rec = newContext(http.MethodDelete, "/api/v1/contributions/1", "", env.admin, "id", fmt.Sprint(seeded.ID))
	require.NoError(t, h.DeleteContribution(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
