package holdem

import "sort"

// Pot is one pot — main or side — with its chip amount and the seats
// still eligible to win it. A main pot always exists once a hand has
// collected its first bet; side pots are recorded for wire visibility
// only (spec.md's data model admits them) — distribution always comes
// from the main pot alone.
type Pot struct {
	Amount          int64
	EligiblePlayers []int
}

// potManager accumulates a table's main pot across betting rounds and
// records the side-pot breakdown implied by unequal total contributions.
// Generalized from the teacher's potManager/calcPotsByPlayerBets, which
// operated on chair-keyed Players; here it operates on seat slots.
type potManager struct {
	mainPot  Pot
	sidePots []Pot
}

func (pm *potManager) reset() {
	pm.mainPot = Pot{}
	pm.sidePots = nil
}

// collectBets folds every seat's current-round Bet into the main pot and
// zeros it, exactly as spec.md §4.2 step 7 states: no portion of an
// uncalled bet is refunded, since distribution stays single-pot.
func (pm *potManager) collectBets(seats []*Seat) {
	for _, s := range seats {
		if !s.occupied() {
			continue
		}
		pm.mainPot.Amount += s.Bet
		s.Bet = 0
	}
	pm.mainPot.EligiblePlayers = eligibleSeatIndices(seats)
}

func eligibleSeatIndices(seats []*Seat) []int {
	out := make([]int, 0, len(seats))
	for _, s := range seats {
		if s.eligible() {
			out = append(out, s.Seat)
		}
	}
	return out
}

// recomputeSidePots recalculates the recorded side-pot breakdown from
// each seat's total-bet-this-hand, using the same tiered algorithm as
// the teacher's calcPotsByPlayerBets. Purely informational: the engine
// never distributes from these, only from pm.mainPot.
func (pm *potManager) recomputeSidePots(seats []*Seat) {
	contributors := make([]*Seat, 0, len(seats))
	for _, s := range seats {
		if s.occupied() && s.TotalBet > 0 {
			contributors = append(contributors, s)
		}
	}
	sort.Slice(contributors, func(i, j int) bool { return contributors[i].TotalBet < contributors[j].TotalBet })

	pm.sidePots = nil
	var settled int64
	for i, s := range contributors {
		tier := s.TotalBet - settled
		if tier <= 0 {
			continue
		}
		p := Pot{}
		eligible := make(map[int]bool)
		for j := i; j < len(contributors); j++ {
			other := contributors[j]
			contribution := tier
			if remain := other.TotalBet - settled; contribution > remain {
				contribution = remain
			}
			p.Amount += contribution
			if other.State != SeatFolded {
				eligible[other.Seat] = true
			}
		}
		for seat := range eligible {
			p.EligiblePlayers = append(p.EligiblePlayers, seat)
		}
		sort.Ints(p.EligiblePlayers)

		if len(pm.sidePots) > 0 {
			last := &pm.sidePots[len(pm.sidePots)-1]
			if sameEligibility(last.EligiblePlayers, p.EligiblePlayers) {
				last.Amount += p.Amount
				settled += tier
				continue
			}
		}
		if len(p.EligiblePlayers) > 1 {
			pm.sidePots = append(pm.sidePots, p)
		}
		settled += tier
	}
}

func sameEligibility(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
