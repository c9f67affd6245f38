package holdem

import "testing"

func TestConfig_BuyInBounds(t *testing.T) {
	c := Config{MaxPlayers: 6, SmallBlind: 10, BigBlind: 20}
	if c.MinBuyIn() != 400 {
		t.Fatalf("expected min buy-in 400, got %d", c.MinBuyIn())
	}
	if c.MaxBuyIn() != 2000 {
		t.Fatalf("expected max buy-in 2000, got %d", c.MaxBuyIn())
	}
	if got := c.DefaultBuyIn(5000); got != 1000 {
		t.Fatalf("expected default buy-in capped at 50xBB=1000, got %d", got)
	}
	if got := c.DefaultBuyIn(300); got != 300 {
		t.Fatalf("expected default buy-in capped at balance 300, got %d", got)
	}
}

func TestConfig_ValidateRejectsBadBlindsAndSeatCount(t *testing.T) {
	bad := []Config{
		{MaxPlayers: 0, SmallBlind: 10, BigBlind: 20},
		{MaxPlayers: 10, SmallBlind: 10, BigBlind: 20},
		{MaxPlayers: 6, SmallBlind: 0, BigBlind: 20},
		{MaxPlayers: 6, SmallBlind: 20, BigBlind: 20},
	}
	for _, c := range bad {
		if err := c.validate(); err == nil {
			t.Fatalf("expected validation error for %+v", c)
		}
	}
}
