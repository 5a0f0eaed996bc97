/*
members.go - Member rows and the cached balance column

PURPOSE:
  Member CRUD plus the only four statements allowed to touch the balance
  column (credit, clamped debit, strict debit, reconciliation repair) and
  the conditional update behind the idempotent birthday bonus.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

const memberColumns = `id, pin, first_name, last_name, second_last_name, phone, birth_date, balance, last_bonus_year, created_at`

// CreateMember inserts a member row. Duplicate PINs and phones surface as
// ledger sentinels.
func (s *Store) CreateMember(ctx context.Context, m loyalty.Member) error {
	defer s.wlock()()

	var birthDate sql.NullString
	if m.BirthDate != nil {
		birthDate = sql.NullString{String: m.BirthDate.Format(dateLayout), Valid: true}
	}

	query := `
		INSERT INTO members
		(id, pin, first_name, last_name, second_last_name, phone, birth_date, balance, last_bonus_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		m.ID, m.PIN, m.FirstName, m.LastName, m.SecondLastName,
		m.Phone, birthDate, m.Balance, m.LastBonusYear, fmtTime(m.CreatedAt),
	)
	if err != nil {
		return mapMemberConflict(err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(ctx context.Context, id ledger.MemberID) (*loyalty.Member, error) {
	defer s.rlock()()
	return s.getMemberBy(ctx, "id", string(id))
}

// GetMemberByPIN retrieves a member by their kiosk PIN.
func (s *Store) GetMemberByPIN(ctx context.Context, pin string) (*loyalty.Member, error) {
	defer s.rlock()()
	return s.getMemberBy(ctx, "pin", pin)
}

// GetMemberByPhone retrieves a member by phone number.
func (s *Store) GetMemberByPhone(ctx context.Context, phone string) (*loyalty.Member, error) {
	defer s.rlock()()
	return s.getMemberBy(ctx, "phone", phone)
}

func (s *Store) getMemberBy(ctx context.Context, column, value string) (*loyalty.Member, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+column+" = ?", value)
	m, err := scanMemberRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMembers returns all members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]loyalty.Member, error) {
	defer s.rlock()()
	return s.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY last_name, first_name")
}

// Ranking returns the top members by balance.
func (s *Store) Ranking(ctx context.Context, limit int) ([]loyalty.Member, error) {
	defer s.rlock()()

	if limit <= 0 {
		limit = -1
	}
	return s.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY balance DESC, last_name LIMIT ?", limit)
}

// MembersWithBirthday returns members born on the given month and day.
func (s *Store) MembersWithBirthday(ctx context.Context, month time.Month, day int) ([]loyalty.Member, error) {
	defer s.rlock()()

	monthDay := fmt.Sprintf("%02d-%02d", month, day)
	return s.queryMembers(ctx,
		"SELECT "+memberColumns+` FROM members
		 WHERE birth_date IS NOT NULL AND strftime('%m-%d', birth_date) = ?`, monthDay)
}

// =============================================================================
// BALANCE COLUMN - the only statements that touch it
// =============================================================================

// CreditBalance adds amount to the cache and returns the new balance.
func (s *Store) CreditBalance(ctx context.Context, id ledger.MemberID, amount int64) (int64, error) {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE members SET balance = balance + ? WHERE id = ?", amount, id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ledger.ErrMemberNotFound
	}
	return s.balance(ctx, id)
}

// DebitBalanceClamped removes up to amount, flooring the cache at zero, and
// returns what was actually removed.
func (s *Store) DebitBalanceClamped(ctx context.Context, id ledger.MemberID, amount int64) (applied, newBalance int64, err error) {
	defer s.wlock()()

	before, err := s.balance(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	newBalance = before - amount
	if newBalance < 0 {
		newBalance = 0
	}
	_, err = s.q.ExecContext(ctx,
		"UPDATE members SET balance = ? WHERE id = ?", newBalance, id)
	if err != nil {
		return 0, 0, err
	}
	return before - newBalance, newBalance, nil
}

// DebitBalanceStrict removes amount only when the cache covers it. The
// guard is in the statement itself, so a racing writer cannot drive the
// balance negative between check and update.
func (s *Store) DebitBalanceStrict(ctx context.Context, id ledger.MemberID, amount int64) (int64, error) {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE members SET balance = balance - ? WHERE id = ? AND balance >= ?",
		amount, id, amount)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.balance(ctx, id); err != nil {
			return 0, err
		}
		return 0, loyalty.ErrInsufficientBalance
	}
	return s.balance(ctx, id)
}

// SetBalance overwrites the cache. Reconciliation repair only.
func (s *Store) SetBalance(ctx context.Context, id ledger.MemberID, balance int64) error {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE members SET balance = ? WHERE id = ?", balance, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

// ClaimBirthdayBonus flips last_bonus_year to year if and only if it
// differs. Exactly one concurrent caller sees a row updated; the rest get
// claimed=false and skip the grant.
func (s *Store) ClaimBirthdayBonus(ctx context.Context, id ledger.MemberID, year int) (bool, error) {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE members SET last_bonus_year = ? WHERE id = ? AND last_bonus_year <> ?",
		year, id, year)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteMember removes the member row.
func (s *Store) DeleteMember(ctx context.Context, id ledger.MemberID) error {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func (s *Store) balance(ctx context.Context, id ledger.MemberID) (int64, error) {
	var balance int64
	err := s.q.QueryRowContext(ctx,
		"SELECT balance FROM members WHERE id = ?", id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrMemberNotFound
	}
	return balance, err
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]loyalty.Member, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []loyalty.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemberRow(row *sql.Row) (*loyalty.Member, error) {
	return scanMemberFrom(row)
}

func scanMember(rows *sql.Rows) (*loyalty.Member, error) {
	return scanMemberFrom(rows)
}

func scanMemberFrom(sc rowScanner) (*loyalty.Member, error) {
	var (
		m         loyalty.Member
		birthDate sql.NullString
		createdAt string
	)
	err := sc.Scan(
		&m.ID, &m.PIN, &m.FirstName, &m.LastName, &m.SecondLastName,
		&m.Phone, &birthDate, &m.Balance, &m.LastBonusYear, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if birthDate.Valid {
		t, err := time.Parse(dateLayout, birthDate.String)
		if err == nil {
			m.BirthDate = &t
		}
	}
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}
