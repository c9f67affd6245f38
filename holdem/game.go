package holdem

import (
	"math/rand"
	"sync"
	"time"

	"riverhall/card"
)

// Game is a single table's poker state machine: seating, dealing,
// betting rounds, showdown and pot award. All state transitions run
// under mu, matching the teacher's per-game lock — callers (typically
// a single per-table actor goroutine) never need their own
// synchronization on top of it.
type Game struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand

	GameID int64
	HandID int64
	Seq    int64

	seats [MaxSeats]*Seat
	deck  *card.Deck

	CommunityCards []card.Card

	pots potManager

	CurrentBet         int64
	MinRaiseAmount     int64
	LastAggressorSeat  int
	PlayersActed       int
	DealerSeat         int
	ActiveSeat         int
	BettingRound       BettingRound
	HandInProgress     bool

	WinnerSeat     int
	AmountWon      int64
	WinnerHandRank int

	lastDealerSeat int
}

// NewGame constructs an empty table in the given configuration. Seats
// start EMPTY; no hand is in progress.
func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &Game{
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano() ^ cfg.GameID)),
		GameID:         cfg.GameID,
		deck:           card.NewDeck(),
		DealerSeat:     InvalidSeat,
		ActiveSeat:     InvalidSeat,
		WinnerSeat:     InvalidSeat,
		WinnerHandRank: -1,
		lastDealerSeat: InvalidSeat,
	}
	for i := 0; i < cfg.MaxPlayers; i++ {
		g.seats[i] = emptySeat(i)
	}
	for i := cfg.MaxPlayers; i < MaxSeats; i++ {
		g.seats[i] = emptySeat(i)
		g.seats[i].State = SeatSittingOut // seats beyond max_players are never playable
	}
	return g, nil
}

// AddPlayer seats a user in a free seat with the given buy-in.
// spec.md §4.2: seat must be free, buy_in must fall in
// [min_buy_in, max_buy_in].
func (g *Game) AddPlayer(playerID int64, name string, seat int, buyIn int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return ErrSeatInvalid
	}
	if g.seats[seat].occupied() {
		return ErrSeatTaken
	}
	if buyIn < g.cfg.MinBuyIn() || buyIn > g.cfg.MaxBuyIn() {
		return ErrBuyInOutOfRange
	}
	s := emptySeat(seat)
	s.PlayerID = playerID
	s.Name = name
	s.Money = buyIn
	s.State = SeatWaiting
	g.seats[seat] = s
	return nil
}

// RemovePlayer empties a seat. spec.md §4.2: seat must not already be
// EMPTY.
func (g *Game) RemovePlayer(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return ErrSeatInvalid
	}
	if !g.seats[seat].occupied() {
		return ErrSeatEmpty
	}
	g.seats[seat] = emptySeat(seat)
	if g.ActiveSeat == seat {
		g.ActiveSeat = InvalidSeat
	}
	return nil
}

// ConvertToBot flips an occupied seat to bot control, remembering the
// displaced player_id so chips can be returned to them later.
func (g *Game) ConvertToBot(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return ErrSeatInvalid
	}
	s := g.seats[seat]
	if !s.occupied() {
		return ErrSeatEmpty
	}
	s.OriginalUserID = s.PlayerID
	s.PlayerID = -1
	s.IsBot = true
	return nil
}

func (g *Game) seatedPlayers() []*Seat {
	out := make([]*Seat, 0, g.cfg.MaxPlayers)
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if g.seats[i].occupied() {
			out = append(out, g.seats[i])
		}
	}
	return out
}

// nextSeat returns the next seat index after from whose seat satisfies
// pred, wrapping around the ring. Returns InvalidSeat if none qualifies.
func (g *Game) nextSeat(from int, pred func(*Seat) bool) int {
	for step := 1; step <= g.cfg.MaxPlayers; step++ {
		idx := (from + step) % g.cfg.MaxPlayers
		s := g.seats[idx]
		if pred(s) {
			return idx
		}
	}
	return InvalidSeat
}

func notEmptyNotSittingOut(s *Seat) bool {
	return s.State != SeatEmpty && s.State != SeatSittingOut
}

func isActive(s *Seat) bool {
	return s.State == SeatActive
}

// StartHand runs lifecycle steps 1-6 of spec.md §4.2: reset, roles,
// deal, blinds, first-to-act. Returns ErrTooFewPlayers or ErrInProgress
// on precondition failure, and an *EngineFault when no seat can act
// after the big blind.
func (g *Game) StartHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.HandInProgress {
		return ErrInProgress
	}

	eligible := 0
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.State != SeatEmpty && s.State != SeatSittingOut && s.Money > 0 {
			eligible++
		}
	}
	if eligible < 2 {
		return ErrTooFewPlayers
	}

	g.resetForNewHand()
	g.setRoles()
	g.dealHoleCards()
	if err := g.postBlinds(); err != nil {
		return err
	}

	first := g.nextSeat(g.bigBlindSeat(), isActive)
	if first == InvalidSeat {
		g.HandInProgress = false
		g.ActiveSeat = InvalidSeat
		return newEngineFault("no actor after big blind")
	}
	g.ActiveSeat = first
	g.BettingRound = RoundPreflop
	g.HandInProgress = true
	return nil
}

// resetForNewHand implements lifecycle step 1.
func (g *Game) resetForNewHand() {
	g.HandID++
	g.Seq++
	g.CommunityCards = nil
	g.pots.reset()
	g.CurrentBet = 0
	g.MinRaiseAmount = g.cfg.BigBlind
	g.LastAggressorSeat = InvalidSeat
	g.PlayersActed = 0
	g.WinnerSeat = InvalidSeat
	g.WinnerHandRank = -1
	g.AmountWon = 0

	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.State == SeatEmpty || s.State == SeatSittingOut {
			continue
		}
		s.resetForNewHand()
	}

	g.deck.Reset()
	g.rng.Seed(time.Now().UnixNano() ^ g.HandID)
	g.deck.Shuffle(g.rng, defaultShuffleSwaps)
}

// setRoles implements lifecycle step 2.
func (g *Game) setRoles() {
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.State == SeatWaiting && s.Money > 0 {
			s.State = SeatActive
		}
	}

	start := g.lastDealerSeat
	if start == InvalidSeat {
		start = g.cfg.MaxPlayers - 1
	}
	dealer := g.nextSeat(start, notEmptyNotSittingOut)
	g.DealerSeat = dealer
	g.lastDealerSeat = dealer
	if dealer == InvalidSeat {
		return
	}
	g.seats[dealer].IsDealer = true

	activeCount := 0
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if isActive(g.seats[i]) {
			activeCount++
		}
	}

	// Heads-up: the dealer also posts the small blind (spec.md §4.2
	// boundary note; the teacher's selectBlindsByDealer encodes the
	// same special case for a two-active-seat ring).
	var sb, bb int
	if activeCount == 2 {
		sb = dealer
		bb = g.nextSeat(dealer, isActive)
	} else {
		sb = g.nextSeat(dealer, isActive)
		bb = g.nextSeat(sb, isActive)
	}
	if sb != InvalidSeat {
		g.seats[sb].IsSmallBlind = true
	}
	if bb != InvalidSeat {
		g.seats[bb].IsBigBlind = true
	}
}

func (g *Game) smallBlindSeat() int {
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if g.seats[i].IsSmallBlind {
			return i
		}
	}
	return InvalidSeat
}

func (g *Game) bigBlindSeat() int {
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if g.seats[i].IsBigBlind {
			return i
		}
	}
	return InvalidSeat
}

// dealHoleCards implements lifecycle step 3: two passes in increasing
// seat order, one card per seat per pass.
func (g *Game) dealHoleCards() {
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < g.cfg.MaxPlayers; i++ {
			s := g.seats[i]
			if !isActive(s) {
				continue
			}
			c, err := g.deck.Draw()
			if err != nil {
				return
			}
			s.HoleCards[pass] = c
		}
	}
}

// postBlinds implements lifecycle step 4.
func (g *Game) postBlinds() error {
	sbSeat, bbSeat := g.smallBlindSeat(), g.bigBlindSeat()
	if sbSeat == InvalidSeat || bbSeat == InvalidSeat {
		g.HandInProgress = false
		return newEngineFault("blinds not assigned")
	}
	g.seats[sbSeat].commit(g.cfg.SmallBlind)
	g.seats[bbSeat].commit(g.cfg.BigBlind)
	g.CurrentBet = g.cfg.BigBlind
	g.MinRaiseAmount = g.cfg.BigBlind
	// The big blind is treated as the opening bet for round-completion
	// purposes, same as the teacher's onPhaseStartLocked comment ("blinds
	// are treated as a bet"): otherwise a preflop call-around with no
	// raise would never satisfy the round-complete predicate.
	g.LastAggressorSeat = bbSeat
	return nil
}

// AvailableActions is a pure projection: the legal actions and their
// numeric ranges for the seat whose turn it currently is. Returns an
// empty slice if it is not seat's turn.
func (g *Game) AvailableActions(seat int) []AvailableAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.HandInProgress || seat != g.ActiveSeat {
		return nil
	}
	return g.availableActionsLocked(g.seats[seat])
}

func (g *Game) availableActionsLocked(s *Seat) []AvailableAction {
	toCall := g.CurrentBet - s.Bet
	out := []AvailableAction{{Type: ActionFold}}

	if toCall <= 0 {
		out = append(out, AvailableAction{Type: ActionCheck})
	} else {
		out = append(out, AvailableAction{Type: ActionCall})
	}

	if s.Money > 0 {
		out = append(out, AvailableAction{Type: ActionAllIn})
	}

	if g.CurrentBet == 0 {
		if s.Money >= g.cfg.BigBlind {
			out = append(out, AvailableAction{Type: ActionBet, MinTotal: g.cfg.BigBlind, MaxTotal: s.Money})
		}
	} else {
		minRaiseTo := g.CurrentBet + g.MinRaiseAmount
		maxRaiseTo := s.Money + s.Bet
		if maxRaiseTo >= minRaiseTo {
			out = append(out, AvailableAction{Type: ActionRaise, MinTotal: minRaiseTo, MaxTotal: maxRaiseTo})
		}
	}
	return out
}

// ProcessAction applies a single seat's action (spec.md §4.2 action
// table), advances turn order, and runs round/ hand advancement when the
// round completes.
func (g *Game) ProcessAction(seat int, action Action) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.HandInProgress {
		return invalidAction("no hand in progress")
	}
	if seat != g.ActiveSeat {
		return ErrNotYourTurn
	}
	s := g.seats[seat]
	if err := g.applyAction(s, action); err != nil {
		return err
	}

	g.Seq++
	g.PlayersActed++

	if g.roundComplete() {
		g.advanceRound()
	} else {
		g.ActiveSeat = g.nextSeat(seat, isActive)
	}
	return nil
}

func (g *Game) applyAction(s *Seat, action Action) error {
	toCall := g.CurrentBet - s.Bet

	switch action.Type {
	case ActionFold:
		s.fold()

	case ActionCheck:
		if toCall != 0 {
			return invalidAction("cannot check facing a bet")
		}

	case ActionCall:
		if toCall <= 0 {
			return invalidAction("nothing to call")
		}
		s.commit(toCall)

	case ActionBet:
		if g.CurrentBet != 0 {
			return invalidAction("bet not allowed, a bet is already open")
		}
		if action.Amount < g.cfg.BigBlind || action.Amount > s.Money {
			return invalidAction("bet amount out of range")
		}
		s.commit(action.Amount)
		g.CurrentBet = action.Amount
		g.MinRaiseAmount = action.Amount
		g.LastAggressorSeat = s.Seat
		g.resetActedExcept(s.Seat)

	case ActionRaise:
		if g.CurrentBet == 0 {
			return invalidAction("raise not allowed, no open bet")
		}
		if action.Amount < g.CurrentBet+g.MinRaiseAmount {
			return invalidAction("raise below minimum")
		}
		if action.Amount > s.Money+s.Bet {
			return invalidAction("raise exceeds stack")
		}
		added := action.Amount - s.Bet
		s.commit(added)
		g.MinRaiseAmount = action.Amount - g.CurrentBet
		g.CurrentBet = action.Amount
		g.LastAggressorSeat = s.Seat
		g.resetActedExcept(s.Seat)

	case ActionAllIn:
		if s.Money <= 0 {
			return invalidAction("no chips to push all-in")
		}
		amount := s.commit(s.Money)
		newBet := s.Bet
		if newBet > g.CurrentBet {
			if newBet-g.CurrentBet > g.MinRaiseAmount {
				g.MinRaiseAmount = newBet - g.CurrentBet
			}
			g.CurrentBet = newBet
			g.LastAggressorSeat = s.Seat
			g.resetActedExcept(s.Seat)
		}
		_ = amount

	default:
		return invalidAction("unrecognized action")
	}

	s.lastAction = action.Type
	s.hasActedThisRound = true
	return nil
}

// resetActedExcept marks every other ACTIVE seat as not yet having acted
// against the new bet level, since a bet/raise reopens the action.
func (g *Game) resetActedExcept(except int) {
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if i == except {
			continue
		}
		if isActive(g.seats[i]) {
			g.seats[i].hasActedThisRound = false
		}
	}
}

// roundComplete implements spec.md §4.2's round-complete predicate.
func (g *Game) roundComplete() bool {
	contesting := 0
	activeCount := 0
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.State == SeatActive || s.State == SeatAllIn {
			contesting++
		}
		if s.State == SeatActive {
			activeCount++
		}
	}
	if contesting <= 1 {
		return true
	}

	allMatched := true
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.State != SeatActive {
			continue
		}
		if s.Bet != g.CurrentBet || !s.hasActedThisRound {
			allMatched = false
			break
		}
	}
	if !allMatched {
		return false
	}
	if g.LastAggressorSeat != InvalidSeat {
		return true
	}
	return g.CurrentBet == 0 && g.PlayersActed >= activeCount
}

// advanceRound implements spec.md §4.2 step 7 (and step 8 when play
// reaches showdown).
func (g *Game) advanceRound() {
	g.pots.collectBets(g.seatedPlayers())
	g.pots.recomputeSidePots(g.seatedPlayers())

	contesting := g.eligibleSeats()
	if len(contesting) <= 1 {
		g.awardUncontested(contesting)
		return
	}

	activeCount := 0
	allInCount := 0
	for _, s := range contesting {
		if s.State == SeatActive {
			activeCount++
		} else if s.State == SeatAllIn {
			allInCount++
		}
	}

	// At most one seat can still act: nobody left to call a further bet,
	// so no more betting is possible this hand. Run the board out and
	// go straight to showdown (spec.md §4.2 step 7, end-to-end scenario
	// 4: "zero active or one active — engine auto-deals ... to showdown").
	if activeCount <= 1 && allInCount >= 1 {
		g.dealRemainingStreets()
		g.runShowdown()
		return
	}

	switch g.BettingRound {
	case RoundPreflop:
		g.deck.Draw() // burn
		c1, _ := g.deck.Draw()
		c2, _ := g.deck.Draw()
		c3, _ := g.deck.Draw()
		g.CommunityCards = append(g.CommunityCards, c1, c2, c3)
		g.BettingRound = RoundFlop
	case RoundFlop:
		g.deck.Draw()
		c, _ := g.deck.Draw()
		g.CommunityCards = append(g.CommunityCards, c)
		g.BettingRound = RoundTurn
	case RoundTurn:
		g.deck.Draw()
		c, _ := g.deck.Draw()
		g.CommunityCards = append(g.CommunityCards, c)
		g.BettingRound = RoundRiver
	case RoundRiver:
		g.runShowdown()
		return
	}

	g.CurrentBet = 0
	g.MinRaiseAmount = g.cfg.BigBlind
	g.LastAggressorSeat = InvalidSeat
	g.PlayersActed = 0
	for _, s := range g.seatedPlayers() {
		s.resetForNewRound()
	}
	g.ActiveSeat = g.nextSeat(g.DealerSeat, isActive)
	if g.ActiveSeat == InvalidSeat {
		g.runShowdown()
	}
}

func (g *Game) eligibleSeats() []*Seat {
	out := make([]*Seat, 0, g.cfg.MaxPlayers)
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		if g.seats[i].eligible() {
			out = append(out, g.seats[i])
		}
	}
	return out
}

func (g *Game) dealRemainingStreets() {
	for len(g.CommunityCards) < 5 {
		g.deck.Draw() // burn
		c, err := g.deck.Draw()
		if err != nil {
			return
		}
		g.CommunityCards = append(g.CommunityCards, c)
	}
	g.BettingRound = RoundShowdown
}

func (g *Game) awardUncontested(contesting []*Seat) {
	g.BettingRound = RoundComplete
	g.HandInProgress = false
	g.ActiveSeat = InvalidSeat
	if len(contesting) == 0 {
		return
	}
	winner := contesting[0]
	winner.Money += g.pots.mainPot.Amount
	g.WinnerSeat = winner.Seat
	g.AmountWon = g.pots.mainPot.Amount
	g.WinnerHandRank = -1
}

// runShowdown implements lifecycle step 8. Callers reach it only through
// advanceRound, which has already folded residual bets into the main
// pot, so it does not collect bets itself.
func (g *Game) runShowdown() {
	g.BettingRound = RoundShowdown

	type scored struct {
		seat *Seat
		res  *handResult
	}
	var results []scored
	for _, s := range g.eligibleSeats() {
		all := append([]card.Card{s.HoleCards[0], s.HoleCards[1]}, g.CommunityCards...)
		res := evalBest(all)
		s.evalResult = res
		results = append(results, scored{s, res})
	}

	var winner *scored
	for i := range results {
		r := &results[i]
		if r.res == nil {
			continue
		}
		if winner == nil || r.res.Rank > winner.res.Rank {
			winner = r
		}
		// ties resolved by lowest seat index: since results is built in
		// increasing seat order and we only replace on strictly greater
		// rank, the first (lowest-seat) co-holder is kept automatically.
	}

	g.BettingRound = RoundComplete
	g.HandInProgress = false
	g.ActiveSeat = InvalidSeat
	if winner == nil {
		return
	}
	winner.seat.Money += g.pots.mainPot.Amount
	g.WinnerSeat = winner.seat.Seat
	g.AmountWon = g.pots.mainPot.Amount
	g.WinnerHandRank = winner.res.Rank
}

// BustedSeats reports occupied seats with a zero stack once a hand has
// completed (spec.md §8 scenario 5). The caller — the table actor — is
// responsible for actually emptying these seats and notifying the
// displaced connection; the engine only reports them.
func (g *Game) BustedSeats() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.HandInProgress {
		return nil
	}
	var out []int
	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if s.occupied() && s.Money == 0 {
			out = append(out, i)
		}
	}
	return out
}
