package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the local/dev backend, grounded on the teacher's
// SQLiteManager: single connection, WAL journal mode, and an
// idempotent in-process schema bootstrap instead of a migration tool.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) the database at path and
// ensures its schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username ON accounts(username)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			user_id INTEGER NOT NULL,
			friend_id INTEGER NOT NULL,
			accepted INTEGER NOT NULL DEFAULT 0,
			blocked INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS table_invites (
			from_user_id INTEGER NOT NULL,
			to_user_id INTEGER NOT NULL,
			table_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateUser(ctx context.Context, username, password string) (int64, error) {
	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if err := validatePassword(password); err != nil {
		return 0, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	normalized := normalizeUsername(username)

	res, err := s.db.ExecContext(ctx, `
INSERT INTO accounts (username, password_hash, balance) VALUES (?, ?, ?)
`, normalized, hash, defaultStartingBalance)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) Authenticate(ctx context.Context, username, password string) (int64, int64, error) {
	normalized := normalizeUsername(username)
	var userID, balance int64
	var hash string
	err := s.db.QueryRowContext(ctx, `
SELECT id, password_hash, balance FROM accounts WHERE username = ?
`, normalized).Scan(&userID, &hash, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrInvalidCredentials
		}
		return 0, 0, err
	}
	if !verifyPassword(hash, password) {
		return 0, 0, ErrInvalidCredentials
	}
	return userID, balance, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	p.UserID = userID
	err := s.db.QueryRowContext(ctx, `
SELECT username, balance, created_at FROM accounts WHERE id = ?
`, userID).Scan(&p.Username, &p.Balance, &p.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	return p, err
}

func (s *SQLiteStore) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + ? WHERE id = ?`, delta, userID); err != nil {
		return 0, err
	}
	var balance int64
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, tx.Commit()
}

func (s *SQLiteStore) AddFriend(ctx context.Context, userID, friendID int64) error {
	var blocked int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM friendships
WHERE ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND blocked = 1
`, userID, friendID, friendID, userID).Scan(&blocked)
	if err == nil {
		return ErrBlocked
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO friendships (user_id, friend_id, accepted) VALUES (?, ?, 0)
`, userID, friendID)
	if isSQLiteUniqueViolation(err) {
		return ErrAlreadyFriends
	}
	return err
}

func (s *SQLiteStore) AcceptFriend(ctx context.Context, userID, friendID int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE friendships SET accepted = 1 WHERE user_id = ? AND friend_id = ?
`, friendID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoSuchInvite
	}
	return nil
}

func (s *SQLiteStore) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM friendships
WHERE blocked = 0 AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
`, userID, friendID, friendID, userID)
	return err
}

func (s *SQLiteStore) BlockFriend(ctx context.Context, userID, friendID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
`, userID, friendID, friendID, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO friendships (user_id, friend_id, accepted, blocked) VALUES (?, ?, 0, 1)
`, userID, friendID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64) ([]Friend, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.id, a.username
FROM friendships f
JOIN accounts a ON a.id = CASE WHEN f.user_id = ? THEN f.friend_id ELSE f.user_id END
WHERE (f.user_id = ? OR f.friend_id = ?) AND f.accepted = 1
ORDER BY a.username
`, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.UserID, &f.Username); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InviteToTable(ctx context.Context, fromUserID, toUserID int64, tableID int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO table_invites (from_user_id, to_user_id, table_id) VALUES (?, ?, ?)
`, fromUserID, toUserID, tableID)
	return err
}

func (s *SQLiteStore) ListPendingInvites(ctx context.Context, userID int64) ([]Invite, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT from_user_id, to_user_id, table_id FROM table_invites WHERE to_user_id = ?
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invite
	for rows.Next() {
		var inv Invite
		if err := rows.Scan(&inv.FromUserID, &inv.ToUserID, &inv.TableID); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeclineInvite(ctx context.Context, userID int64, tableID int) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM table_invites WHERE to_user_id = ? AND table_id = ?
`, userID, tableID)
	return err
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, username, balance FROM accounts ORDER BY balance DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Balance); err != nil {
			return nil, err
		}
		e.Rank = rank
		out = append(out, e)
	}
	return out, rows.Err()
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
