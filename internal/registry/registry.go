// Package registry implements the table directory (spec.md §4.3):
// dense id allocation, join/leave bookkeeping, and listing. Grounded on
// the teacher's lobby.Lobby, adapted from UUID table ids to the spec's
// "smallest unused positive integer" scheme and from the teacher's
// protobuf broadcast to the wire package's CBOR frames.
package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/coder/quartz"

	"riverhall/holdem"
	"riverhall/internal/session"
	"riverhall/internal/table"
)

var (
	ErrTableNotFound       = errors.New("registry: table not found")
	ErrTableFull           = errors.New("registry: table full")
	ErrAlreadySeated       = errors.New("registry: connection already seated")
	ErrNotSeated           = errors.New("registry: connection is not seated anywhere")
	ErrInsufficientBalance = errors.New("registry: insufficient balance for a buy-in")
)

// Summary is the listing projection for the TABLES packet.
type Summary struct {
	ID         int
	Name       string
	MaxPlayers int
	SmallBlind int64
	BigBlind   int64
	SeatedCount int
}

// Registry is the process-wide table directory. One Registry backs the
// whole server; every table lives in it for its whole lifetime.
type Registry struct {
	mu     sync.Mutex
	tables map[int]*table.Table
	names  map[int]string
	store  table.BalanceStore
	clock  quartz.Clock
}

// New builds an empty registry. store is handed to every table created
// through it, for bot-chip reclaim at hand completion. A nil store
// disables balance persistence: Join then debits nothing.
func New(store table.BalanceStore, clock quartz.Clock) *Registry {
	return &Registry{
		tables: make(map[int]*table.Table),
		names:  make(map[int]string),
		store:  store,
		clock:  clock,
	}
}

// nextIDLocked returns the smallest positive integer not currently in
// use, per spec.md §4.3.
func (r *Registry) nextIDLocked() int {
	for id := 1; ; id++ {
		if _, taken := r.tables[id]; !taken {
			return id
		}
	}
}

// Create allocates a new table with a dense id and starts its actor.
func (r *Registry) Create(name string, maxPlayers int, smallBlind, bigBlind int64) (*table.Table, error) {
	r.mu.Lock()
	id := r.nextIDLocked()
	r.mu.Unlock()

	cfg := holdem.Config{GameID: int64(id), MaxPlayers: maxPlayers, SmallBlind: smallBlind, BigBlind: bigBlind}
	t, err := table.New(id, name, cfg, r.store, r.clock, r.release)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.tables[id] = t
	r.names[id] = name
	r.mu.Unlock()
	return t, nil
}

// Find returns the table for id, if it exists.
func (r *Registry) Find(id int) (*table.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	return t, ok
}

// release is invoked by a table actor, off the registry's own
// goroutine, once its last seat has emptied; it tears the table down
// and frees the id for reuse.
func (r *Registry) release(id int) {
	r.mu.Lock()
	t, ok := r.tables[id]
	if ok {
		delete(r.tables, id)
		delete(r.names, id)
	}
	r.mu.Unlock()
	if ok {
		t.Close()
	}
}

// Join seats a connection at table id, defaulting the buy-in to
// min(50*BB, balance) per spec.md §4.3. The seat itself is picked by
// the table actor, not here: two Joins racing for the same table would
// otherwise both read the same Snapshot, compute the same "first empty
// seat", and have the loser's submit fail with a seat-taken error even
// though other seats were free. Passing Seat: -1 lets handleJoin pick
// atomically against its own up-to-date view. The buy-in is debited
// from the account's persisted balance up front and refunded if the
// seat can't actually be taken; chips earned or lost while seated
// settle back through the table's own hand-completion flush.
func (r *Registry) Join(id int, c *session.Conn, balance int64) error {
	t, ok := r.Find(id)
	if !ok {
		return ErrTableNotFound
	}
	if c.Seated() {
		return ErrAlreadySeated
	}

	buyIn := defaultBuyIn(t.Snapshot(), balance)
	if buyIn <= 0 {
		return ErrInsufficientBalance
	}

	if r.store != nil {
		newBalance, err := r.store.AdjustBalance(context.Background(), c.UserID, -buyIn)
		if err != nil {
			return err
		}
		c.SetBalance(newBalance)
	}

	if err := t.Submit(table.Event{Type: table.EventJoin, Seat: -1, PlayerID: c.UserID, Name: c.Username, BuyIn: buyIn, Conn: c}); err != nil {
		if r.store != nil {
			if refunded, rerr := r.store.AdjustBalance(context.Background(), c.UserID, buyIn); rerr == nil {
				c.SetBalance(refunded)
			}
		}
		if errors.Is(err, table.ErrTableFull) {
			return ErrTableFull
		}
		return err
	}
	return nil
}

func defaultBuyIn(view holdem.GameStateView, balance int64) int64 {
	d := 50 * view.BigBlind
	if balance < d {
		return balance
	}
	return d
}

// Leave removes a connection's seat from whatever table it holds.
func (r *Registry) Leave(c *session.Conn) error {
	if !c.Seated() {
		return ErrNotSeated
	}
	t, ok := r.Find(c.TableID)
	if !ok {
		c.ClearSeat()
		return nil
	}
	return t.Submit(table.Event{Type: table.EventLeave, Seat: c.Seat})
}

// LeaveOnDisconnect implements spec.md §4.6's disconnect handling: a
// seated connection that drops mid-hand becomes a bot instead of being
// removed outright; otherwise it leaves cleanly.
func (r *Registry) LeaveOnDisconnect(c *session.Conn) {
	if !c.Seated() {
		return
	}
	t, ok := r.Find(c.TableID)
	if !ok {
		c.ClearSeat()
		return
	}
	view := t.Snapshot()
	if view.HandInProgress {
		_ = t.Submit(table.Event{Type: table.EventConvertToBot, Seat: c.Seat})
		return
	}
	_ = t.Submit(table.Event{Type: table.EventLeave, Seat: c.Seat})
}

// List returns a stable-ordered snapshot of every live table, for the
// TABLES packet.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	ids := make([]int, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	snapshot := make(map[int]*table.Table, len(r.tables))
	for id, t := range r.tables {
		snapshot[id] = t
	}
	names := make(map[int]string, len(r.names))
	for id, n := range r.names {
		names[id] = n
	}
	r.mu.Unlock()

	sort.Ints(ids)
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		view := snapshot[id].Snapshot()
		seated := 0
		for _, s := range view.Seats {
			if s != nil {
				seated++
			}
		}
		out = append(out, Summary{
			ID:          id,
			Name:        names[id],
			MaxPlayers:  view.MaxPlayers,
			SmallBlind:  view.SmallBlind,
			BigBlind:    view.BigBlind,
			SeatedCount: seated,
		})
	}
	return out
}

// Broadcast queues raw frame bytes on every seated connection at a
// table (spec.md §4.3).
func (r *Registry) Broadcast(id int, frame []byte) {
	if t, ok := r.Find(id); ok {
		t.Broadcast(frame)
	}
}
