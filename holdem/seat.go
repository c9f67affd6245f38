package holdem

import "riverhall/card"

// Seat is one numbered chair at a table, whether occupied or not. The
// engine keeps all MaxSeats slots allocated for the table's lifetime;
// Seat.State distinguishes "empty" from the various occupied states.
type Seat struct {
	PlayerID int64
	Name     string
	Seat     int
	State    SeatState

	Money    int64 // stack, chips not committed to the current hand
	Bet      int64 // chips committed this betting round
	TotalBet int64 // chips committed across the whole hand

	HoleCards [2]card.Card

	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool

	IsBot            bool
	OriginalUserID   int64 // player_id this seat reverts to if a bot is reclaimed
	lastAction       ActionType
	hasActedThisRound bool
	evalResult       *handResult
}

func emptySeat(idx int) *Seat {
	return &Seat{Seat: idx, State: SeatEmpty, HoleCards: [2]card.Card{card.CardInvalid, card.CardInvalid}}
}

func (s *Seat) occupied() bool {
	return s.State != SeatEmpty
}

// eligible reports whether the seat holds live cards this hand (active or
// all-in, i.e. not folded, not empty, not sitting out).
func (s *Seat) eligible() bool {
	return s.State == SeatActive || s.State == SeatAllIn
}

func (s *Seat) resetForNewHand() {
	s.Bet = 0
	s.TotalBet = 0
	s.HoleCards = [2]card.Card{card.CardInvalid, card.CardInvalid}
	s.IsDealer = false
	s.IsSmallBlind = false
	s.IsBigBlind = false
	s.lastAction = 0
	s.hasActedThisRound = false
	s.evalResult = nil
	if s.State == SeatFolded || s.State == SeatAllIn {
		s.State = SeatWaiting
	}
}

func (s *Seat) resetForNewRound() {
	s.Bet = 0
	s.hasActedThisRound = false
}

// commit moves up to amount chips from Money into Bet/TotalBet, clamping
// to the seat's stack and flipping it to all-in when the stack hits zero.
func (s *Seat) commit(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount >= s.Money {
		amount = s.Money
	}
	s.Money -= amount
	s.Bet += amount
	s.TotalBet += amount
	if s.Money == 0 {
		s.State = SeatAllIn
	}
	return amount
}

func (s *Seat) fold() {
	s.State = SeatFolded
}
