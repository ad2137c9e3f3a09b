package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const memberColumns = `m.id, m.auth_subject, m.name, m.email, m.phone, m.role, m.is_active, m.balance,
	m.created_at, m.updated_at`

// MemberRepository implements domain.MemberRepository using PostgreSQL
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create creates a new member
func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	balance, err := decimalToPgNumeric(m.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	query := `INSERT INTO members AS m (auth_subject, name, email, phone, role, is_active, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + memberColumns

	created, err := scanMember(r.pool.QueryRow(ctx, query,
		m.AuthSubject, m.Name, m.Email, m.Phone, string(m.Role), m.IsActive, balance))
	if err != nil {
		return nil, mapMemberWriteError(err)
	}
	return created, nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByAuthSubject retrieves the member linked to an identity provider subject
func (r *MemberRepository) GetByAuthSubject(ctx context.Context, subject string) (*domain.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.auth_subject = $1`, subject))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns one page of members by name with their contribution totals
func (r *MemberRepository) List(ctx context.Context, filter domain.MemberFilter, req domain.PageRequest) (*domain.Page[*domain.MemberSummary], error) {
	where := &whereClause{}
	if filter.Search != "" {
		p := where.arg(containsPattern(filter.Search))
		where.and(fmt.Sprintf("(m.name ILIKE %s OR m.email ILIKE %s)", p, p))
	}
	if filter.Active != nil {
		where.and("m.is_active = " + where.arg(*filter.Active))
	}

	pageSize := req.Size()
	page := where.clone()
	if cur, ok := domain.DecodeCursor(req.Cursor); ok {
		page.and(fmt.Sprintf("(m.name, m.id) > (%s, %s)", page.arg(cur.Key), page.arg(cur.ID)))
	}
	limit := page.arg(pageSize + 1)

	countQuery := `SELECT COUNT(*) FROM members m` + where.String()
	pageQuery := `SELECT ` + memberColumns + `, COALESCE(t.total, 0), COALESCE(t.paid_total, 0)
		FROM members m
		LEFT JOIN (
			SELECT member_id, COUNT(*) AS total, SUM(amount) FILTER (WHERE paid_date IS NOT NULL) AS paid_total
			FROM contributions GROUP BY member_id
		) t ON t.member_id = m.id` + page.String() + `
		ORDER BY m.name ASC, m.id ASC LIMIT ` + limit

	result := &domain.Page[*domain.MemberSummary]{PageSize: pageSize}
	err := inSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, where.args...).Scan(&result.TotalItems); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageQuery, page.args...)
		if err != nil {
			return err
		}
		result.Data, err = pgx.CollectRows(rows, scanMemberSummary)
		return err
	})
	if err != nil {
		return nil, err
	}

	if int32(len(result.Data)) > pageSize {
		result.Data = result.Data[:pageSize]
		last := result.Data[pageSize-1]
		result.NextCursor = domain.EncodeCursor(last.Name, last.ID)
	}
	return result, nil
}

// Update updates a member's profile, role, status and balance
func (r *MemberRepository) Update(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	balance, err := decimalToPgNumeric(m.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	query := `UPDATE members AS m
		SET auth_subject = $2, name = $3, email = $4, phone = $5, role = $6, is_active = $7,
			balance = $8, updated_at = NOW()
		WHERE m.id = $1
		RETURNING ` + memberColumns

	updated, err := scanMember(r.pool.QueryRow(ctx, query,
		m.ID, m.AuthSubject, m.Name, m.Email, m.Phone, string(m.Role), m.IsActive, balance))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, mapMemberWriteError(err)
	}
	return updated, nil
}

// Delete removes a member; contributions and expenditures go with it via ON DELETE CASCADE
func (r *MemberRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

// SumBalances totals member balances
func (r *MemberRepository) SumBalances(ctx context.Context, ownerID *int32) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM members`
	var args []any
	if ownerID != nil {
		query += ` WHERE id = $1`
		args = append(args, *ownerID)
	}

	var total pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// CountActiveMembers counts active non-administrator members
func (r *MemberRepository) CountActiveMembers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE role = 'member' AND is_active`).Scan(&n)
	return n, err
}

// CountAdmins counts administrators, active or not
func (r *MemberRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE role = 'admin'`).Scan(&n)
	return n, err
}

func mapMemberWriteError(err error) error {
	if name, ok := constraintViolation(err, pgUniqueViolation); ok {
		switch name {
		case "members_email_unique":
			return domain.ErrMemberEmailTaken
		case "members_auth_subject_unique":
			return domain.ErrMemberSubjectTaken
		}
	}
	if name, ok := constraintViolation(err, pgCheckViolation); ok && strings.HasPrefix(name, "members_balance") {
		return domain.ErrNegativeBalance
	}
	if numericOverflow(err) {
		return domain.ErrInvalidBalance
	}
	return err
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		m       domain.Member
		role    string
		balance pgtype.Numeric
	)
	err := row.Scan(&m.ID, &m.AuthSubject, &m.Name, &m.Email, &m.Phone, &role, &m.IsActive, &balance,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	m.Balance = pgNumericToDecimal(balance)
	return &m, nil
}

func scanMemberSummary(row pgx.CollectableRow) (*domain.MemberSummary, error) {
	var (
		s         domain.MemberSummary
		role      string
		balance   pgtype.Numeric
		paidTotal pgtype.Numeric
	)
	err := row.Scan(&s.ID, &s.AuthSubject, &s.Name, &s.Email, &s.Phone, &role, &s.IsActive, &balance,
		&s.CreatedAt, &s.UpdatedAt, &s.TotalContributions, &paidTotal)
	if err != nil {
		return nil, err
	}
	s.Role = domain.Role(role)
	s.Balance = pgNumericToDecimal(balance)
	s.TotalPaid = pgNumericToDecimal(paidTotal)
	return &s, nil
}
