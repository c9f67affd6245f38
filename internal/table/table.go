// Package table wraps a holdem.Game in an actor: a single goroutine
// drains an event channel and a periodic tick, so every state
// transition — apply an action, advance a round, fill an empty seat
// with a bot — runs serially with respect to that table, matching the
// atomicity spec.md §5 requires of process_action/advance/broadcast.
// Grounded on the teacher's apps/server/internal/table.Table actor.
package table

import (
	"context"
	"time"

	"github.com/coder/quartz"

	"riverhall/holdem"
	"riverhall/internal/session"
	"riverhall/internal/wire"
)

// actionTimeout is how long a seat's turn runs before the table
// synthesizes a Check-or-Fold on its behalf (spec.md §4.6 "cancellation
// / timeouts").
const actionTimeout = 30 * time.Second

// tickInterval is how often the actor scans for an expired action
// deadline; sub-second, same cadence as the teacher's table heartbeat.
const tickInterval = 500 * time.Millisecond

// maxBotChainIterations bounds how many consecutive bot turns the actor
// will resolve inline after a human action, per spec.md §4.7's
// bot-fill policy ("a bounded loop (<=100 iterations)").
const maxBotChainIterations = 100

// EventType tags one message on a table's actor queue.
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventAction
	EventConvertToBot
	EventClose
)

// Event is one message delivered to the table actor. Response, if
// non-nil, receives the outcome before the caller's RPC-style call
// returns.
type Event struct {
	Type     EventType
	Seat     int
	PlayerID int64
	Name     string
	BuyIn    int64
	Action   holdem.Action
	// Conn is the connection taking the seat on an EventJoin, attached
	// by the actor itself so t.conns is never touched off-goroutine.
	Conn     *session.Conn
	Response chan error
}

// Table owns one holdem.Game plus the seat-to-connection wiring and
// broadcast fan-out the engine itself knows nothing about.
type Table struct {
	ID   int
	Name string

	game  *holdem.Game
	store BalanceStore

	conns [holdem.MaxSeats]*session.Conn

	// flushed is the stack size each seat was last settled against; a
	// seat's persisted balance only ever moves by the delta since this
	// baseline, never by its absolute stack.
	flushed [holdem.MaxSeats]int64

	events chan Event
	done   chan struct{}
	clock  quartz.Clock

	actionDeadline time.Time
	deadlineSeat   int

	onEmpty func(id int)
}

// BalanceStore is the narrow persistence seam a table needs: applying
// the net stack change of a seat (buy-in debit, hand-completion
// settlement, leave/bust payout) to its owner's persisted balance,
// batched at hand completion (spec.md §5: "balance mutations ...
// batched and flushed once at hand completion").
type BalanceStore interface {
	AdjustBalance(ctx context.Context, userID int64, delta int64) (newBalance int64, err error)
}

// New constructs a table actor around a fresh holdem.Game and starts its
// run loop. onEmpty is invoked once the table has no seated connections
// left, so the registry can reclaim the id.
func New(id int, name string, cfg holdem.Config, store BalanceStore, clock quartz.Clock, onEmpty func(id int)) (*Table, error) {
	g, err := holdem.NewGame(cfg)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	t := &Table{
		ID:           id,
		Name:         name,
		game:         g,
		store:        store,
		events:       make(chan Event, 64),
		done:         make(chan struct{}),
		clock:        clock,
		deadlineSeat: holdem.InvalidSeat,
		onEmpty:      onEmpty,
	}
	go t.run()
	return t, nil
}

// Config exposes the table's static configuration for listing/joining.
func (t *Table) Config() holdem.Config { return t.configSnapshot() }

func (t *Table) configSnapshot() holdem.Config {
	// holdem.Game keeps cfg unexported; the registry only ever needs the
	// derived buy-in bounds and player count, which Snapshot already carries.
	snap := t.game.Snapshot()
	return holdem.Config{
		GameID:     snap.GameID,
		MaxPlayers: snap.MaxPlayers,
		SmallBlind: snap.SmallBlind,
		BigBlind:   snap.BigBlind,
	}
}

// Snapshot returns the table's current engine state.
func (t *Table) Snapshot() holdem.GameStateView { return t.game.Snapshot() }

// Submit enqueues an event and blocks for its outcome, the same
// request/response style as the teacher's Table.
func (t *Table) Submit(e Event) error {
	e.Response = make(chan error, 1)
	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}
	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Close stops the actor loop. Idempotent via closed-channel semantics
// enforced by the caller (the registry only calls this once, when the
// last seat empties).
func (t *Table) Close() {
	close(t.done)
}

func (t *Table) run() {
	ticker := t.clock.NewTicker(tickInterval, "table-tick")
	defer ticker.Stop()

	for {
		select {
		case e := <-t.events:
			err := t.handle(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-ticker.C:
			t.onTick()
		case <-t.done:
			return
		}
	}
}

func (t *Table) handle(e Event) error {
	switch e.Type {
	case EventJoin:
		return t.handleJoin(e.Seat, e.PlayerID, e.Name, e.BuyIn, e.Conn)
	case EventLeave:
		return t.handleLeave(e.Seat)
	case EventAction:
		return t.handleAction(e.Seat, e.Action)
	case EventConvertToBot:
		return t.handleConvertToBot(e.Seat)
	case EventClose:
		return nil
	default:
		return ErrUnknownEvent
	}
}

// handleJoin seats playerID, picking the first empty seat itself when
// seat is negative. Seat assignment runs on the actor goroutine against
// the actor's own up-to-date view, so two concurrent joins submitted
// with Seat: -1 can never both resolve to the same empty seat the way
// they could if the caller picked a seat from a Snapshot taken before
// submitting.
func (t *Table) handleJoin(seat int, playerID int64, name string, buyIn int64, conn *session.Conn) error {
	if seat < 0 {
		seat = t.firstEmptySeat()
		if seat < 0 {
			return ErrTableFull
		}
	}
	if err := t.game.AddPlayer(playerID, name, seat, buyIn); err != nil {
		return err
	}
	// The buy-in was already debited from the account on join, so the
	// first flush credits the whole stack.
	t.flushed[seat] = 0
	t.conns[seat] = conn
	if conn != nil {
		conn.TableID = t.ID
		conn.Seat = seat
	}
	t.tryStartHand()
	t.armDeadline()
	t.broadcastState()
	return nil
}

func (t *Table) handleLeave(seat int) error {
	conn := t.conns[seat]
	t.flushSeat(t.game.Snapshot(), seat)
	if err := t.game.RemovePlayer(seat); err != nil {
		return err
	}
	t.flushed[seat] = 0
	t.conns[seat] = nil
	if conn != nil {
		conn.ClearSeat()
	}
	t.broadcastState()
	if t.empty() && t.onEmpty != nil {
		t.onEmpty(t.ID)
	}
	return nil
}

// tryStartHand deals a new hand whenever enough eligible seats hold
// chips and none is already running, the way a seat change or a hand's
// end should always be followed by an attempt to deal the next one
// (grounded on the teacher's Table.tryStartHand, called after sit-down
// and on every tick). game.StartHand reports ErrInProgress or
// ErrTooFewPlayers when conditions aren't met; both are expected here
// and ignored.
func (t *Table) tryStartHand() {
	_ = t.game.StartHand()
}

func (t *Table) handleAction(seat int, action holdem.Action) error {
	if err := t.game.ProcessAction(seat, action); err != nil {
		return err
	}
	t.afterAction()
	return nil
}

func (t *Table) handleConvertToBot(seat int) error {
	if err := t.game.ConvertToBot(seat); err != nil {
		return err
	}
	conn := t.conns[seat]
	t.conns[seat] = nil
	if conn != nil {
		conn.ClearSeat()
	}
	t.broadcastState()
	return nil
}

// afterAction drives the bounded bot-action chain described in spec.md
// §4.7, then re-arms the per-seat timer and flushes busted seats once
// the hand has ended, and finally broadcasts the resulting state.
func (t *Table) afterAction() {
	view := t.game.Snapshot()
	for i := 0; i < maxBotChainIterations && view.HandInProgress; i++ {
		seat := view.ActiveSeat
		if seat == holdem.InvalidSeat || seat >= len(view.Seats) || view.Seats[seat] == nil || !view.Seats[seat].IsBot {
			break
		}
		botAction := t.chooseBotAction(view, seat)
		if err := t.game.ProcessAction(seat, botAction); err != nil {
			break
		}
		view = t.game.Snapshot()
	}
	if !view.HandInProgress {
		t.settleHandCompletion(view)
	}
	t.armDeadline()
	t.broadcastState()
}

// settleHandCompletion flushes every occupied seat's net stack change
// to its owner's persisted balance, removes busted and bot-controlled
// seats, then tries to deal the next hand (spec.md §5's "batched and
// flushed once at hand completion").
func (t *Table) settleHandCompletion(view holdem.GameStateView) {
	for i := 0; i < view.MaxPlayers; i++ {
		if view.Seats[i] != nil {
			t.flushSeat(view, i)
		}
	}
	t.settleBustedSeats()
	t.reclaimBotSeats()
	t.tryStartHand()
}

// flushSeat persists the change in seat i's stack since it was last
// flushed. A bot-controlled seat settles against original_user_id, the
// account it reverts to. On a store error the baseline is left
// untouched so the same delta is retried at the next flush point,
// rather than silently lost.
func (t *Table) flushSeat(view holdem.GameStateView, seat int) {
	s := view.Seats[seat]
	if s == nil || t.store == nil {
		return
	}
	delta := s.Money - t.flushed[seat]
	if delta == 0 {
		return
	}
	owner := s.PlayerID
	if s.IsBot {
		owner = s.OriginalUserID
	}
	if _, err := t.store.AdjustBalance(context.Background(), owner, delta); err == nil {
		t.flushed[seat] = s.Money
	}
}

// chooseBotAction implements spec.md §4.7's bot policy: check if legal,
// else fold.
func (t *Table) chooseBotAction(view holdem.GameStateView, seat int) holdem.Action {
	for _, a := range t.game.AvailableActions(seat) {
		if a.Type == holdem.ActionCheck {
			return holdem.Action{Type: holdem.ActionCheck}
		}
	}
	return holdem.Action{Type: holdem.ActionFold}
}

// settleBustedSeats removes occupied zero-stack seats once a hand ends.
// Their balance was already settled to zero net change by flushSeat;
// this just clears the seat.
func (t *Table) settleBustedSeats() {
	for _, seat := range t.game.BustedSeats() {
		conn := t.conns[seat]
		t.conns[seat] = nil
		t.flushed[seat] = 0
		if conn != nil {
			conn.ClearSeat()
		}
		_ = t.game.RemovePlayer(seat)
	}
}

// reclaimBotSeats implements spec.md §4.7's closing clause: "On hand
// completion, bot seats are removed and their remaining chips are
// credited back to original_user_id via the store." flushSeat has
// already moved the seat's full remaining stack onto original_user_id's
// balance; this just drops the seat from the game.
func (t *Table) reclaimBotSeats() {
	view := t.game.Snapshot()
	for i := 0; i < view.MaxPlayers; i++ {
		s := view.Seats[i]
		if s == nil || !s.IsBot {
			continue
		}
		t.flushed[i] = 0
		_ = t.game.RemovePlayer(i)
	}
}

func (t *Table) armDeadline() {
	view := t.game.Snapshot()
	if !view.HandInProgress || view.ActiveSeat == holdem.InvalidSeat {
		t.deadlineSeat = holdem.InvalidSeat
		return
	}
	t.deadlineSeat = view.ActiveSeat
	t.actionDeadline = t.clock.Now().Add(actionTimeout)
}

// onTick synthesizes a Check-or-Fold for a stalled seat once its
// deadline has passed (spec.md §4.6).
func (t *Table) onTick() {
	if t.deadlineSeat == holdem.InvalidSeat {
		return
	}
	if t.clock.Now().Before(t.actionDeadline) {
		return
	}
	seat := t.deadlineSeat
	action := holdem.Action{Type: holdem.ActionFold}
	for _, a := range t.game.AvailableActions(seat) {
		if a.Type == holdem.ActionCheck {
			action = holdem.Action{Type: holdem.ActionCheck}
			break
		}
	}
	if err := t.game.ProcessAction(seat, action); err == nil {
		t.afterAction()
	}
}

func (t *Table) firstEmptySeat() int {
	view := t.game.Snapshot()
	for i := 0; i < view.MaxPlayers; i++ {
		if i >= len(view.Seats) || view.Seats[i] == nil {
			return i
		}
	}
	return -1
}

func (t *Table) empty() bool {
	for i := range t.conns {
		if t.conns[i] != nil {
			return false
		}
	}
	return true
}

// Broadcast queues raw frame bytes on every seated connection (spec.md
// §4.3's broadcast(table_id, bytes)).
func (t *Table) Broadcast(frame []byte) {
	for _, c := range t.conns {
		if c != nil {
			_ = c.WriteFrame(frame)
		}
	}
}

func (t *Table) broadcastState() {
	view := t.game.Snapshot()
	for seat, c := range t.conns {
		if c == nil {
			continue
		}
		var available []holdem.AvailableAction
		if view.ActiveSeat == seat {
			available = t.game.AvailableActionsView()
		}
		payload, err := wire.EncodeMap(wire.EncodeGameState(view, seat, available))
		if err != nil {
			continue
		}
		frame, err := wire.Encode(wire.TypeUpdateGameState, payload)
		if err != nil {
			continue
		}
		_ = c.WriteFrame(frame)
	}
}
