package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contributionColumns = `c.id, c.member_id, m.name, c.amount, c.due_date, c.paid_date, c.status,
	c.notes, c.payment_proof, c.created_at, c.updated_at`

// selectContributions reads rows from a relation aliased c joined to their member
const selectContributions = `SELECT ` + contributionColumns + ` FROM %s c JOIN members m ON m.id = c.member_id`

// ContributionRepository implements domain.ContributionRepository using PostgreSQL
type ContributionRepository struct {
	pool *pgxpool.Pool
}

// NewContributionRepository creates a new ContributionRepository
func NewContributionRepository(pool *pgxpool.Pool) *ContributionRepository {
	return &ContributionRepository{pool: pool}
}

// Create inserts a contribution. The (member_id, due_date) unique constraint
// decides between concurrent creators.
func (r *ContributionRepository) Create(ctx context.Context, c *domain.Contribution) (*domain.Contribution, error) {
	amount, err := decimalToPgNumeric(c.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `WITH c AS (
		INSERT INTO contributions (member_id, amount, due_date, paid_date, status, notes, payment_proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	) ` + fmt.Sprintf(selectContributions, "c")

	row := r.pool.QueryRow(ctx, query,
		c.MemberID, amount, pgDate(c.DueDate), pgOptDate(c.PaidDate), string(c.Status), c.Notes, c.PaymentProof)
	created, err := scanContribution(row)
	if err != nil {
		return nil, mapContributionWriteError(err)
	}
	return created, nil
}

// GetByID retrieves a contribution by its ID
func (r *ContributionRepository) GetByID(ctx context.Context, id int32) (*domain.Contribution, error) {
	query := fmt.Sprintf(selectContributions, "contributions") + ` WHERE c.id = $1`
	c, err := scanContribution(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns one page of contributions ordered by due date, newest first
func (r *ContributionRepository) List(ctx context.Context, q domain.ContributionQuery) (*domain.Page[*domain.Contribution], error) {
	where := contributionWhere(q)
	pageSize := q.Page.Size()

	page := where.clone()
	if cur, ok := domain.DecodeCursor(q.Page.Cursor); ok {
		if due, err := util.ParseDate(cur.Key); err == nil {
			page.and(fmt.Sprintf("(c.due_date, c.id) < (%s, %s)", page.arg(pgDate(due)), page.arg(cur.ID)))
		}
	}
	limit := page.arg(pageSize + 1)

	countQuery := `SELECT COUNT(*) FROM contributions c JOIN members m ON m.id = c.member_id` + where.String()
	pageQuery := fmt.Sprintf(selectContributions, "contributions") + page.String() +
		` ORDER BY c.due_date DESC, c.id DESC LIMIT ` + limit

	result := &domain.Page[*domain.Contribution]{PageSize: pageSize}
	err := inSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, where.args...).Scan(&result.TotalItems); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageQuery, page.args...)
		if err != nil {
			return err
		}
		result.Data, err = collectContributions(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	if int32(len(result.Data)) > pageSize {
		result.Data = result.Data[:pageSize]
		last := result.Data[pageSize-1]
		result.NextCursor = domain.EncodeCursor(util.FormatDate(last.DueDate), last.ID)
	}
	return result, nil
}

func contributionWhere(q domain.ContributionQuery) *whereClause {
	w := &whereClause{}
	if q.OwnerID != nil {
		w.and("c.member_id = " + w.arg(*q.OwnerID))
	}

	f := q.Filter
	if f.Status != nil {
		switch *f.Status {
		case domain.StatusPaid:
			w.and("c.paid_date IS NOT NULL")
		case domain.StatusOverdue:
			w.and("c.paid_date IS NULL AND c.due_date < " + w.arg(pgDate(q.Today)))
		case domain.StatusPending:
			w.and("c.paid_date IS NULL AND c.due_date >= " + w.arg(pgDate(q.Today)))
		}
	}
	if f.Year > 0 && f.Month > 0 {
		start, end := util.MonthRange(f.Year, f.Month)
		w.and("c.due_date >= " + w.arg(pgDate(start)))
		w.and("c.due_date < " + w.arg(pgDate(end)))
	}
	if f.DueFrom != nil {
		w.and("c.due_date >= " + w.arg(pgDate(*f.DueFrom)))
	}
	if f.DueTo != nil {
		w.and("c.due_date <= " + w.arg(pgDate(*f.DueTo)))
	}
	if f.Search != "" {
		w.and("m.name ILIKE " + w.arg(containsPattern(f.Search)))
	}
	return w
}

// Update replaces the editable fields. A recorded payment is never cleared:
// the statement only matches when the row is unpaid or a paid date is supplied.
func (r *ContributionRepository) Update(ctx context.Context, id int32, data *domain.UpdateContributionData) (*domain.Contribution, error) {
	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `WITH c AS (
		UPDATE contributions
		SET member_id = $2, amount = $3, due_date = $4, paid_date = $5, status = $6,
			notes = $7, payment_proof = $8, updated_at = NOW()
		WHERE id = $1 AND (paid_date IS NULL OR $5::date IS NOT NULL)
		RETURNING *
	) ` + fmt.Sprintf(selectContributions, "c")

	row := r.pool.QueryRow(ctx, query, id, data.MemberID, amount, pgDate(data.DueDate),
		pgOptDate(data.PaidDate), string(data.Status), data.Notes, data.PaymentProof)
	updated, err := scanContribution(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapContributionWriteError(err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrCannotUnpay
}

// MarkPaid records a payment in a single conditional statement
func (r *ContributionRepository) MarkPaid(ctx context.Context, id int32, paidOn time.Time) (*domain.Contribution, error) {
	query := `WITH c AS (
		UPDATE contributions
		SET paid_date = $2, status = 'paid', updated_at = NOW()
		WHERE id = $1 AND paid_date IS NULL
		RETURNING *
	) ` + fmt.Sprintf(selectContributions, "c")

	paid, err := scanContribution(r.pool.QueryRow(ctx, query, id, pgDate(paidOn)))
	if err == nil {
		return paid, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrContributionAlreadyPaid
}

// SetProof stores the object path of an uploaded payment proof
func (r *ContributionRepository) SetProof(ctx context.Context, id int32, proof string) (*domain.Contribution, error) {
	query := `WITH c AS (
		UPDATE contributions SET payment_proof = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	) ` + fmt.Sprintf(selectContributions, "c")

	c, err := scanContribution(r.pool.QueryRow(ctx, query, id, proof))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a contribution
func (r *ContributionRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contributions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContributionNotFound
	}
	return nil
}

// PeriodTotals sums accrual income and approved expense in one read-only snapshot
func (r *ContributionRepository) PeriodTotals(ctx context.Context, ownerID *int32, from, to time.Time) (*domain.PeriodTotals, error) {
	w := &whereClause{}
	w.and("c.paid_date IS NOT NULL")
	w.and("c.due_date >= " + w.arg(pgDate(from)))
	w.and("c.due_date < " + w.arg(pgDate(to)))
	if ownerID != nil {
		w.and("c.member_id = " + w.arg(*ownerID))
	}

	var income, expense pgtype.Numeric
	err := inSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(c.amount), 0) FROM contributions c`+w.String(), w.args...).Scan(&income); err != nil {
			return fmt.Errorf("sum income: %w", err)
		}
		err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenditures
			WHERE status = 'approved' AND expenditure_date >= $1 AND expenditure_date < $2`,
			pgDate(from), pgDate(to)).Scan(&expense)
		if err != nil {
			return fmt.Errorf("sum expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &domain.PeriodTotals{
		Income:  pgNumericToDecimal(income),
		Expense: pgNumericToDecimal(expense),
	}, nil
}

// ListArrears ranks members by their number of overdue contributions
func (r *ContributionRepository) ListArrears(ctx context.Context, ownerID *int32, today time.Time, limit int) ([]*domain.ArrearsEntry, error) {
	w := &whereClause{}
	w.and("c.paid_date IS NULL")
	w.and("c.due_date < " + w.arg(pgDate(today)))
	if ownerID != nil {
		w.and("c.member_id = " + w.arg(*ownerID))
	}

	query := `SELECT m.id, m.name, m.email, COUNT(*) AS overdue_count
		FROM contributions c JOIN members m ON m.id = c.member_id` + w.String() + `
		GROUP BY m.id, m.name, m.email
		ORDER BY overdue_count DESC, m.name ASC, m.id ASC
		LIMIT ` + w.arg(limit)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.ArrearsEntry, error) {
		var e domain.ArrearsEntry
		err := row.Scan(&e.MemberID, &e.MemberName, &e.MemberEmail, &e.OverdueCount)
		return &e, err
	})
}

// Recent returns the most recently recorded contributions
func (r *ContributionRepository) Recent(ctx context.Context, ownerID *int32, limit int) ([]*domain.Contribution, error) {
	w := &whereClause{}
	if ownerID != nil {
		w.and("c.member_id = " + w.arg(*ownerID))
	}
	query := fmt.Sprintf(selectContributions, "contributions") + w.String() +
		` ORDER BY c.created_at DESC, c.id DESC LIMIT ` + w.arg(limit)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectContributions(rows)
}

// ListByMember returns a member's contributions, latest due date first
func (r *ContributionRepository) ListByMember(ctx context.Context, memberID int32, limit int) ([]*domain.Contribution, error) {
	query := fmt.Sprintf(selectContributions, "contributions") +
		` WHERE c.member_id = $1 ORDER BY c.due_date DESC, c.id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	return collectContributions(rows)
}

// GetByMemberDueRange returns the member's earliest contribution due in [from, to), or nil
func (r *ContributionRepository) GetByMemberDueRange(ctx context.Context, memberID int32, from, to time.Time) (*domain.Contribution, error) {
	query := fmt.Sprintf(selectContributions, "contributions") +
		` WHERE c.member_id = $1 AND c.due_date >= $2 AND c.due_date < $3
		ORDER BY c.due_date ASC, c.id ASC LIMIT 1`

	c, err := scanContribution(r.pool.QueryRow(ctx, query, memberID, pgDate(from), pgDate(to)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// MarkOverdue refreshes the cached status of unpaid rows past their due date
func (r *ContributionRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE contributions
		SET status = 'overdue', updated_at = NOW()
		WHERE paid_date IS NULL AND due_date < $1 AND status <> 'overdue'`, pgDate(today))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func mapContributionWriteError(err error) error {
	if name, ok := constraintViolation(err, pgUniqueViolation); ok && name == "contributions_member_due_unique" {
		return domain.ErrDuplicateContribution
	}
	if _, ok := constraintViolation(err, pgForeignKeyViolation); ok {
		return domain.ErrMemberRequired
	}
	if numericOverflow(err) {
		return domain.ErrInvalidAmount
	}
	if name, ok := constraintViolation(err, pgCheckViolation); ok {
		switch name {
		case "contributions_paid_check", "contributions_status_check":
			return domain.ErrStatusDateMismatch
		case "contributions_amount_check":
			return domain.ErrInvalidAmount
		}
	}
	return err
}

func scanContribution(row pgx.Row) (*domain.Contribution, error) {
	var (
		c        domain.Contribution
		amount   pgtype.Numeric
		dueDate  pgtype.Date
		paidDate pgtype.Date
		status   string
	)
	err := row.Scan(&c.ID, &c.MemberID, &c.MemberName, &amount, &dueDate, &paidDate, &status,
		&c.Notes, &c.PaymentProof, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Amount = pgNumericToDecimal(amount)
	c.DueDate = dueDate.Time
	c.PaidDate = pgDateToPtr(paidDate)
	c.Status = domain.ContributionStatus(status)
	return &c, nil
}

func collectContributions(rows pgx.Rows) ([]*domain.Contribution, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Contribution, error) {
		return scanContribution(row)
	})
}
