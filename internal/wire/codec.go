package wire

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"riverhall/card"
	"riverhall/holdem"
)

// M is the wire payload's wire representation: a map of short string
// keys to primitive values, CBOR-encoded. Every packet type's request
// and response body is one of these (spec.md §4.4).
type M map[string]any

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("wire: bad cbor encode options: " + err.Error())
	}
	// Nested maps (e.g. the "action" sub-object) must decode as M, not
	// the library's default map[interface{}]interface{}, so handlers can
	// type-assert straight into it.
	decMode, err = cbor.DecOptions{DefaultMapType: reflect.TypeOf(M{})}.DecMode()
	if err != nil {
		panic("wire: bad cbor decode options: " + err.Error())
	}
}

// EncodeMap serializes a payload map to its wire bytes.
func EncodeMap(m M) ([]byte, error) {
	return encMode.Marshal(m)
}

// DecodeMap parses a frame's payload back into a map. Numeric values
// decode as int64/uint64/float64 depending on the CBOR major type the
// peer chose; callers use the As* helpers below to normalize.
func DecodeMap(payload []byte) (M, error) {
	var m M
	if err := decMode.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// AsInt64 normalizes a decoded numeric field to int64, defaulting to 0
// for a missing or non-numeric key.
func (m M) AsInt64(key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// AsString normalizes a decoded string field, defaulting to "".
func (m M) AsString(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// AsBool normalizes a decoded bool field, defaulting to false.
func (m M) AsBool(key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// cardWireIndex renders a card for the wire, honoring redaction: invalid
// or explicitly-hidden cards encode as -1.
func cardWireIndex(c card.Card) int {
	return c.WireIndex()
}

// EncodeGameState renders the spec.md §4.4 game-state map for a
// specific viewer. viewerSeat is the seat the connection owns, or -1 if
// the viewer is a spectator/not seated. Hole cards are redacted to -1
// unless the viewer owns the seat or the hand has reached showdown or
// completion.
// available is only populated by the caller when viewerSeat is the
// current active_seat; pass nil otherwise.
func EncodeGameState(v holdem.GameStateView, viewerSeat int, available []holdem.AvailableAction) M {
	players := make([]any, len(v.Seats))
	for i, s := range v.Seats {
		if s == nil {
			players[i] = nil
			continue
		}
		reveal := viewerSeat == s.Seat || v.BettingRound == holdem.RoundShowdown || v.BettingRound == holdem.RoundComplete
		hole := [2]int{-1, -1}
		if reveal {
			hole[0] = cardWireIndex(s.HoleCards[0])
			hole[1] = cardWireIndex(s.HoleCards[1])
		}
		players[i] = M{
			"player_id":      s.PlayerID,
			"name":           s.Name,
			"seat":           s.Seat,
			"state":          s.State.String(),
			"money":          s.Money,
			"bet":            s.Bet,
			"total_bet":      s.TotalBet,
			"hole_cards":     []int{hole[0], hole[1]},
			"is_dealer":      s.IsDealer,
			"is_small_blind": s.IsSmallBlind,
			"is_big_blind":   s.IsBigBlind,
			"is_bot":         s.IsBot,
		}
	}

	community := make([]int, len(v.CommunityCards))
	for i, c := range v.CommunityCards {
		community[i] = cardWireIndex(c)
	}

	sidePots := make([]any, len(v.SidePots))
	for i, p := range v.SidePots {
		sidePots[i] = potMap(p)
	}

	out := M{
		"game_id":         v.GameID,
		"hand_id":         v.HandID,
		"seq":             v.Seq,
		"max_players":     v.MaxPlayers,
		"small_blind":     v.SmallBlind,
		"big_blind":       v.BigBlind,
		"min_buy_in":      v.MinBuyIn,
		"max_buy_in":      v.MaxBuyIn,
		"betting_round":   v.BettingRound.String(),
		"dealer_seat":     v.DealerSeat,
		"active_seat":     v.ActiveSeat,
		"players":         players,
		"community_cards": community,
		"main_pot":        potMap(v.MainPot),
		"side_pots":       sidePots,
		"current_bet":     v.CurrentBet,
		"min_raise":       v.MinRaise,
	}
	if v.ActiveSeat == viewerSeat && v.ActiveSeat != holdem.InvalidSeat && available != nil {
		out["available_actions"] = EncodeAvailableActions(available)
	}
	return out
}

func potMap(p holdem.Pot) M {
	eligible := make([]int, len(p.EligiblePlayers))
	copy(eligible, p.EligiblePlayers)
	return M{
		"amount":           p.Amount,
		"eligible_players": eligible,
	}
}

// EncodeAvailableActions renders the legal-action list for the viewer
// whose turn it currently is (spec.md §4.4's available_actions field).
func EncodeAvailableActions(actions []holdem.AvailableAction) []any {
	out := make([]any, len(actions))
	for i, a := range actions {
		out[i] = M{
			"type":      a.Type.String(),
			"min_total": a.MinTotal,
			"max_total": a.MaxTotal,
		}
	}
	return out
}
