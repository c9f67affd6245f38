package holdem

import "riverhall/card"

// SeatView is the read-only wire-facing projection of one seat. Hole
// cards are supplied in already-redacted form by the caller (the codec
// decides visibility per-viewer); the engine itself has no notion of
// "viewer".
type SeatView struct {
	PlayerID       int64
	OriginalUserID int64 // the user a bot-controlled seat reverts to; 0 when IsBot is false
	Name           string
	Seat           int
	State          SeatState
	Money          int64
	Bet            int64
	TotalBet       int64
	HoleCards      [2]card.Card
	IsDealer       bool
	IsSmallBlind   bool
	IsBigBlind     bool
	IsBot          bool
}

// GameStateView is the full per-table projection described by spec.md
// §4.4's game-state encoding, independent of any particular viewer's
// hole-card redaction.
type GameStateView struct {
	GameID         int64
	HandID         int64
	Seq            int64
	MaxPlayers     int
	SmallBlind     int64
	BigBlind       int64
	MinBuyIn       int64
	MaxBuyIn       int64
	BettingRound   BettingRound
	DealerSeat     int
	ActiveSeat     int
	Seats          []*SeatView // nil entry means empty seat
	CommunityCards []card.Card
	MainPot        Pot
	SidePots       []Pot
	CurrentBet     int64
	MinRaise       int64
	HandInProgress bool
	WinnerSeat     int
	AmountWon      int64
	WinnerHandRank int
}

// Snapshot takes a consistent read of the table's state. Hole cards are
// copied unredacted; the wire codec applies per-viewer redaction when
// encoding (spec.md §4.4).
func (g *Game) Snapshot() GameStateView {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := GameStateView{
		GameID:         g.GameID,
		HandID:         g.HandID,
		Seq:            g.Seq,
		MaxPlayers:     g.cfg.MaxPlayers,
		SmallBlind:     g.cfg.SmallBlind,
		BigBlind:       g.cfg.BigBlind,
		MinBuyIn:       g.cfg.MinBuyIn(),
		MaxBuyIn:       g.cfg.MaxBuyIn(),
		BettingRound:   g.BettingRound,
		DealerSeat:     g.DealerSeat,
		ActiveSeat:     g.ActiveSeat,
		CommunityCards: append([]card.Card{}, g.CommunityCards...),
		MainPot:        g.pots.mainPot,
		SidePots:       append([]Pot{}, g.pots.sidePots...),
		CurrentBet:     g.CurrentBet,
		MinRaise:       g.MinRaiseAmount,
		HandInProgress: g.HandInProgress,
		WinnerSeat:     g.WinnerSeat,
		AmountWon:      g.AmountWon,
		WinnerHandRank: g.WinnerHandRank,
		Seats:          make([]*SeatView, g.cfg.MaxPlayers),
	}

	for i := 0; i < g.cfg.MaxPlayers; i++ {
		s := g.seats[i]
		if !s.occupied() {
			continue
		}
		v.Seats[i] = &SeatView{
			PlayerID:       s.PlayerID,
			OriginalUserID: s.OriginalUserID,
			Name:           s.Name,
			Seat:           s.Seat,
			State:          s.State,
			Money:          s.Money,
			Bet:            s.Bet,
			TotalBet:       s.TotalBet,
			HoleCards:      s.HoleCards,
			IsDealer:       s.IsDealer,
			IsSmallBlind:   s.IsSmallBlind,
			IsBigBlind:     s.IsBigBlind,
			IsBot:          s.IsBot,
		}
	}
	return v
}

// AvailableActionsView renders AvailableActions for the active seat in
// wire-ready form; callers embed it only when encoding for the viewer
// whose turn it is (spec.md §4.4).
func (g *Game) AvailableActionsView() []AvailableAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.HandInProgress || g.ActiveSeat == InvalidSeat {
		return nil
	}
	return g.availableActionsLocked(g.seats[g.ActiveSeat])
}
