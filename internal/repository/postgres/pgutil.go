package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes the repositories translate
const (
	pgUniqueViolation     = pgerrcode.UniqueViolation
	pgForeignKeyViolation = pgerrcode.ForeignKeyViolation
	pgCheckViolation      = pgerrcode.CheckViolation
	pgNumericOutOfRange   = pgerrcode.NumericValueOutOfRange
)

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func pgOptDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgDate(*t)
}

func pgDateToPtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// constraintViolation returns the violated constraint name when err is a
// PostgreSQL error with the given code
func constraintViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// numericOverflow reports whether a value did not fit its NUMERIC column
func numericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange
}

// whereClause accumulates AND-ed predicates with positional arguments
type whereClause struct {
	conds []string
	args  []any
}

// arg binds v and returns its placeholder
func (w *whereClause) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereClause) and(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// clone copies the clause so a page query can extend a shared count predicate
func (w *whereClause) clone() *whereClause {
	return &whereClause{
		conds: append([]string(nil), w.conds...),
		args:  append([]any(nil), w.args...),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// inSnapshot runs fn in a read-only REPEATABLE READ transaction so a count and
// the page it describes observe the same data
func inSnapshot(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
