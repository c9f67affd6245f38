// Package store persists everything outside a single hand: accounts,
// balances, the friend graph, and the leaderboard (spec.md §4.8). It
// is the one place handlers reach past the in-memory engine.
package store

import (
	"context"
	"errors"
	"time"
)

// defaultStartingBalance is credited to a freshly created account so it
// can actually sit down at a table; spec.md's own worked examples use
// 1000-chip stacks (§4.2 scenarios), so new accounts start there too.
const defaultStartingBalance = 1000

var (
	ErrUsernameTaken      = errors.New("store: username already taken")
	ErrInvalidCredentials = errors.New("store: invalid username or password")
	ErrUserNotFound       = errors.New("store: user not found")
	ErrAlreadyFriends     = errors.New("store: already friends")
	ErrNoSuchInvite       = errors.New("store: no such invite")
	ErrBlocked            = errors.New("store: blocked")
)

// Profile is the subset of an account the LOGIN/SIGNUP reply carries.
type Profile struct {
	UserID   int64
	Username string
	Balance  int64
	JoinedAt time.Time
}

// Friend is one entry of a user's friend list.
type Friend struct {
	UserID   int64
	Username string
	Online   bool
}

// Invite is a pending table invite between two users.
type Invite struct {
	FromUserID int64
	ToUserID   int64
	TableID    int
}

// LeaderboardEntry is one row of the SCOREBOARD reply.
type LeaderboardEntry struct {
	UserID   int64
	Username string
	Balance  int64
	Rank     int
}

// Store is the narrow persistence seam the handlers package talks to.
// Both the postgres and sqlite backends implement it identically;
// table.BalanceStore (just AdjustBalance) is a subset of it used
// directly by the table actor.
type Store interface {
	CreateUser(ctx context.Context, username, password string) (userID int64, err error)
	Authenticate(ctx context.Context, username, password string) (userID int64, balance int64, err error)
	GetProfile(ctx context.Context, userID int64) (Profile, error)

	// AdjustBalance applies delta (positive or negative) and returns the
	// resulting balance. Called for the buy-in debit (and its refund) on
	// join, once per seat at hand completion, and on leave — never per bet.
	AdjustBalance(ctx context.Context, userID int64, delta int64) (newBalance int64, err error)

	AddFriend(ctx context.Context, userID, friendID int64) error
	AcceptFriend(ctx context.Context, userID, friendID int64) error
	// RemoveFriend deletes any friendship edge between the pair, in
	// either direction.
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	// BlockFriend clears any existing edge and records a one-directional
	// block that AddFriend consults before creating a new request.
	BlockFriend(ctx context.Context, userID, friendID int64) error
	ListFriends(ctx context.Context, userID int64) ([]Friend, error)

	InviteToTable(ctx context.Context, fromUserID, toUserID int64, tableID int) error
	ListPendingInvites(ctx context.Context, userID int64) ([]Invite, error)
	// DeclineInvite removes a pending invite for userID at tableID,
	// whether the caller is accepting it (and about to join) or
	// declining it outright.
	DeclineInvite(ctx context.Context, userID int64, tableID int) error

	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	Close() error
}
