package holdem


// InvalidSeat marks "no seat" in fields like ActiveSeat or LastAggressorSeat.
const InvalidSeat = -1

// BettingRound is one of PREFLOP, FLOP, TURN, RIVER, SHOWDOWN, COMPLETE.
type BettingRound byte

const (
	RoundPreflop BettingRound = iota
	RoundFlop
	RoundTurn
	RoundRiver
	RoundShowdown
	RoundComplete
)

var bettingRoundNames = map[BettingRound]string{
	RoundPreflop:  "preflop",
	RoundFlop:     "flop",
	RoundTurn:     "turn",
	RoundRiver:    "river",
	RoundShowdown: "showdown",
	RoundComplete: "complete",
}

func (r BettingRound) String() string {
	if s, ok := bettingRoundNames[r]; ok {
		return s
	}
	return "unknown"
}

// SeatState is the lifecycle state of a seat slot.
type SeatState byte

const (
	SeatEmpty SeatState = iota
	SeatWaiting
	SeatActive
	SeatFolded
	SeatAllIn
	SeatSittingOut
)

var seatStateNames = map[SeatState]string{
	SeatEmpty:      "empty",
	SeatWaiting:    "waiting",
	SeatActive:     "active",
	SeatFolded:     "folded",
	SeatAllIn:      "allin",
	SeatSittingOut: "sitting_out",
}

func (s SeatState) String() string {
	if n, ok := seatStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// ActionType is the tagged action variant carried by the wire protocol.
type ActionType byte

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionAllIn
)

var actionTypeNames = map[ActionType]string{
	ActionFold:  "fold",
	ActionCheck: "check",
	ActionCall:  "call",
	ActionBet:   "bet",
	ActionRaise: "raise",
	ActionAllIn: "allin",
}

func (a ActionType) String() string {
	if s, ok := actionTypeNames[a]; ok {
		return s
	}
	return "unknown"
}

// ActionTypeFromString parses the wire's string-typed action field into
// the internal enum. The engine never operates on strings past decode.
func ActionTypeFromString(s string) (ActionType, bool) {
	for k, v := range actionTypeNames {
		if v == s {
			return k, true
		}
	}
	return 0, false
}

// Hand categories, ascending strength.
const (
	CategoryHighCard byte = iota
	CategoryPair
	CategoryTwoPair
	CategoryThreeOfAKind
	CategoryStraight
	CategoryFlush
	CategoryFullHouse
	CategoryFourOfAKind
	CategoryStraightFlush
)

// Action is a request to act, as decoded off the wire.
type Action struct {
	Type   ActionType
	Amount int64 // absolute total bet-to, for Bet/Raise; ignored otherwise
}

// AvailableAction is one legal action with its numeric range, used for
// ACTION_REQUEST prompts and the available_actions wire projection.
type AvailableAction struct {
	Type     ActionType
	MinTotal int64 // for Bet/Raise: minimum legal absolute bet-to
	MaxTotal int64 // for Bet/Raise: maximum legal absolute bet-to
}
