package holdem

import "testing"

func TestCommit_ClampsToStackAndFlipsAllIn(t *testing.T) {
	s := emptySeat(0)
	s.State = SeatActive
	s.Money = 30

	committed := s.commit(100)
	if committed != 30 {
		t.Fatalf("expected commit to clamp to stack size 30, got %d", committed)
	}
	if s.Money != 0 {
		t.Fatalf("expected stack drained to 0, got %d", s.Money)
	}
	if s.State != SeatAllIn {
		t.Fatalf("expected state ALL_IN after draining stack, got %s", s.State)
	}
	if s.Bet != 30 || s.TotalBet != 30 {
		t.Fatalf("expected bet and total_bet both 30, got %d/%d", s.Bet, s.TotalBet)
	}
}

func TestResetForNewHand_ReturnsFoldedAndAllInSeatsToWaiting(t *testing.T) {
	for _, state := range []SeatState{SeatFolded, SeatAllIn} {
		s := emptySeat(0)
		s.State = state
		s.IsDealer = true
		s.TotalBet = 500
		s.resetForNewHand()
		if s.State != SeatWaiting {
			t.Fatalf("expected %s to reset to WAITING, got %s", state, s.State)
		}
		if s.IsDealer {
			t.Fatal("expected role flags cleared on reset")
		}
		if s.TotalBet != 0 {
			t.Fatal("expected total_bet cleared on reset")
		}
	}
}

func TestEligible_OnlyActiveAndAllIn(t *testing.T) {
	cases := map[SeatState]bool{
		SeatEmpty:      false,
		SeatWaiting:    false,
		SeatActive:     true,
		SeatFolded:     false,
		SeatAllIn:      true,
		SeatSittingOut: false,
	}
	for state, want := range cases {
		s := emptySeat(0)
		s.State = state
		if got := s.eligible(); got != want {
			t.Fatalf("state %s: eligible() = %v, want %v", state, got, want)
		}
	}
}
