package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectExpenditures = `SELECT e.id, e.created_by, m.name, e.amount, e.expenditure_date, e.category,
	e.description, e.proof_file, e.status, e.created_at, e.updated_at
	FROM %s e JOIN members m ON m.id = e.created_by`

// ExpenditureRepository implements domain.ExpenditureRepository using PostgreSQL
type ExpenditureRepository struct {
	pool *pgxpool.Pool
}

// NewExpenditureRepository creates a new ExpenditureRepository
func NewExpenditureRepository(pool *pgxpool.Pool) *ExpenditureRepository {
	return &ExpenditureRepository{pool: pool}
}

// Create creates a new expenditure
func (r *ExpenditureRepository) Create(ctx context.Context, e *domain.Expenditure) (*domain.Expenditure, error) {
	amount, err := decimalToPgNumeric(e.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `WITH e AS (
		INSERT INTO expenditures (created_by, amount, expenditure_date, category, description, proof_file, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	) ` + fmt.Sprintf(selectExpenditures, "e")

	created, err := scanExpenditure(r.pool.QueryRow(ctx, query, e.CreatedBy, amount, pgDate(e.ExpenditureDate),
		string(e.Category), e.Description, e.ProofFile, string(e.Status)))
	if err != nil {
		if _, ok := constraintViolation(err, pgForeignKeyViolation); ok {
			return nil, domain.ErrMemberNotFound
		}
		if numericOverflow(err) {
			return nil, domain.ErrInvalidAmount
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an expenditure by ID
func (r *ExpenditureRepository) GetByID(ctx context.Context, id int32) (*domain.Expenditure, error) {
	query := fmt.Sprintf(selectExpenditures, "expenditures") + ` WHERE e.id = $1`
	e, err := scanExpenditure(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenditureNotFound
		}
		if numericOverflow(err) {
			return nil, domain.ErrInvalidAmount
		}
		return nil, err
	}
	return e, nil
}

// List returns one page of expenditures, latest expenditure date first
func (r *ExpenditureRepository) List(ctx context.Context, filter domain.ExpenditureFilter, req domain.PageRequest) (*domain.Page[*domain.Expenditure], error) {
	where := &whereClause{}
	if filter.Category != nil {
		where.and("e.category = " + where.arg(string(*filter.Category)))
	}
	if filter.Status != nil {
		where.and("e.status = " + where.arg(string(*filter.Status)))
	}
	if filter.DateFrom != nil {
		where.and("e.expenditure_date >= " + where.arg(pgDate(*filter.DateFrom)))
	}
	if filter.DateTo != nil {
		where.and("e.expenditure_date <= " + where.arg(pgDate(*filter.DateTo)))
	}

	pageSize := req.Size()
	page := where.clone()
	if cur, ok := domain.DecodeCursor(req.Cursor); ok {
		if d, err := util.ParseDate(cur.Key); err == nil {
			page.and(fmt.Sprintf("(e.expenditure_date, e.id) < (%s, %s)", page.arg(pgDate(d)), page.arg(cur.ID)))
		}
	}
	limit := page.arg(pageSize + 1)

	countQuery := `SELECT COUNT(*) FROM expenditures e` + where.String()
	pageQuery := fmt.Sprintf(selectExpenditures, "expenditures") + page.String() +
		` ORDER BY e.expenditure_date DESC, e.id DESC LIMIT ` + limit

	result := &domain.Page[*domain.Expenditure]{PageSize: pageSize}
	err := inSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, where.args...).Scan(&result.TotalItems); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageQuery, page.args...)
		if err != nil {
			return err
		}
		result.Data, err = collectExpenditures(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	if int32(len(result.Data)) > pageSize {
		result.Data = result.Data[:pageSize]
		last := result.Data[pageSize-1]
		result.NextCursor = domain.EncodeCursor(util.FormatDate(last.ExpenditureDate), last.ID)
	}
	return result, nil
}

// Update updates an expenditure's amount, date, category, description and status
func (r *ExpenditureRepository) Update(ctx context.Context, e *domain.Expenditure) (*domain.Expenditure, error) {
	amount, err := decimalToPgNumeric(e.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `WITH e AS (
		UPDATE expenditures
		SET amount = $2, expenditure_date = $3, category = $4, description = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	) ` + fmt.Sprintf(selectExpenditures, "e")

	return r.writeOne(ctx, query, e.ID, amount, pgDate(e.ExpenditureDate), string(e.Category), e.Description, string(e.Status))
}

// UpdateStatus changes the approval status of an expenditure
func (r *ExpenditureRepository) UpdateStatus(ctx context.Context, id int32, status domain.ExpenditureStatus) (*domain.Expenditure, error) {
	query := `WITH e AS (
		UPDATE expenditures SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	) ` + fmt.Sprintf(selectExpenditures, "e")

	return r.writeOne(ctx, query, id, string(status))
}

// SetProof stores the object path of an uploaded receipt
func (r *ExpenditureRepository) SetProof(ctx context.Context, id int32, proof string) (*domain.Expenditure, error) {
	query := `WITH e AS (
		UPDATE expenditures SET proof_file = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	) ` + fmt.Sprintf(selectExpenditures, "e")

	return r.writeOne(ctx, query, id, proof)
}

func (r *ExpenditureRepository) writeOne(ctx context.Context, query string, args ...any) (*domain.Expenditure, error) {
	e, err := scanExpenditure(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenditureNotFound
		}
		if numericOverflow(err) {
			return nil, domain.ErrInvalidAmount
		}
		return nil, err
	}
	return e, nil
}

// Delete removes an expenditure
func (r *ExpenditureRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenditures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenditureNotFound
	}
	return nil
}

// Recent returns the most recently recorded expenditures
func (r *ExpenditureRepository) Recent(ctx context.Context, approvedOnly bool, limit int) ([]*domain.Expenditure, error) {
	w := &whereClause{}
	if approvedOnly {
		w.and("e.status = 'approved'")
	}
	query := fmt.Sprintf(selectExpenditures, "expenditures") + w.String() +
		` ORDER BY e.created_at DESC, e.id DESC LIMIT ` + w.arg(limit)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectExpenditures(rows)
}

func scanExpenditure(row pgx.Row) (*domain.Expenditure, error) {
	var (
		e        domain.Expenditure
		amount   pgtype.Numeric
		date     pgtype.Date
		category string
		status   string
	)
	err := row.Scan(&e.ID, &e.CreatedBy, &e.CreatorName, &amount, &date, &category,
		&e.Description, &e.ProofFile, &status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.ExpenditureDate = date.Time
	e.Category = domain.Category(category)
	e.Status = domain.ExpenditureStatus(status)
	return &e, nil
}

func collectExpenditures(rows pgx.Rows) ([]*domain.Expenditure, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Expenditure, error) {
		return scanExpenditure(row)
	})
}
