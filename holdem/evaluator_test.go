package holdem

import (
	"testing"

	"riverhall/card"
)

func TestEvalFive_RoyalFlushBeatsLowerStraightFlush(t *testing.T) {
	royal := [5]card.Card{
		card.New(card.Spade, 14), card.New(card.Spade, 13), card.New(card.Spade, 12),
		card.New(card.Spade, 11), card.New(card.Spade, 10),
	}
	lower := [5]card.Card{
		card.New(card.Heart, 13), card.New(card.Heart, 12), card.New(card.Heart, 11),
		card.New(card.Heart, 10), card.New(card.Heart, 9),
	}
	royalCat, royalRank := evalFive(royal)
	lowerCat, lowerRank := evalFive(lower)
	if royalCat != CategoryStraightFlush || lowerCat != CategoryStraightFlush {
		t.Fatalf("expected both hands to be straight flushes, got %d and %d", royalCat, lowerCat)
	}
	if royalRank <= lowerRank {
		t.Fatalf("expected royal flush to outrank lower straight flush: %d <= %d", royalRank, lowerRank)
	}
}

func TestEvalFive_WheelStraightRanksBelowSixHighStraight(t *testing.T) {
	wheel := [5]card.Card{
		card.New(card.Spade, 14), card.New(card.Heart, 2), card.New(card.Club, 3),
		card.New(card.Diamond, 4), card.New(card.Spade, 5),
	}
	sixHigh := [5]card.Card{
		card.New(card.Spade, 2), card.New(card.Heart, 3), card.New(card.Club, 4),
		card.New(card.Diamond, 5), card.New(card.Spade, 6),
	}
	wheelCat, wheelRank := evalFive(wheel)
	sixCat, sixRank := evalFive(sixHigh)
	if wheelCat != CategoryStraight || sixCat != CategoryStraight {
		t.Fatalf("expected both hands to be straights, got %d and %d", wheelCat, sixCat)
	}
	if wheelRank >= sixRank {
		t.Fatalf("expected wheel (top=5) to rank below six-high straight (top=6): %d >= %d", wheelRank, sixRank)
	}
}

func TestEvalFive_FullHouseBeatsFlush(t *testing.T) {
	fullHouse := [5]card.Card{
		card.New(card.Spade, 9), card.New(card.Heart, 9), card.New(card.Club, 9),
		card.New(card.Diamond, 4), card.New(card.Spade, 4),
	}
	flush := [5]card.Card{
		card.New(card.Heart, 2), card.New(card.Heart, 5), card.New(card.Heart, 8),
		card.New(card.Heart, 11), card.New(card.Heart, 13),
	}
	fhCat, fhRank := evalFive(fullHouse)
	flCat, flRank := evalFive(flush)
	if fhCat != CategoryFullHouse {
		t.Fatalf("expected full house, got %d", fhCat)
	}
	if flCat != CategoryFlush {
		t.Fatalf("expected flush, got %d", flCat)
	}
	if fhRank <= flRank {
		t.Fatalf("expected full house to beat flush: %d <= %d", fhRank, flRank)
	}
}

func TestEvalFive_TwoPairUsesHigherPairAsTiebreak(t *testing.T) {
	acesAndTwos := [5]card.Card{
		card.New(card.Spade, 14), card.New(card.Heart, 14), card.New(card.Club, 2),
		card.New(card.Diamond, 2), card.New(card.Spade, 9),
	}
	kingsAndQueens := [5]card.Card{
		card.New(card.Spade, 13), card.New(card.Heart, 13), card.New(card.Club, 12),
		card.New(card.Diamond, 12), card.New(card.Spade, 9),
	}
	_, aceRank := evalFive(acesAndTwos)
	_, kingRank := evalFive(kingsAndQueens)
	if aceRank <= kingRank {
		t.Fatalf("expected aces-and-twos to beat kings-and-queens: %d <= %d", aceRank, kingRank)
	}
}

func TestEvalBest_PicksBestFiveOfSeven(t *testing.T) {
	seven := []card.Card{
		card.New(card.Spade, 14), card.New(card.Spade, 13),
		card.New(card.Spade, 12), card.New(card.Spade, 11), card.New(card.Spade, 10),
		card.New(card.Club, 2), card.New(card.Diamond, 3),
	}
	res := evalBest(seven)
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.Category != CategoryStraightFlush {
		t.Fatalf("expected best-of-seven to find the royal flush, got category %d", res.Category)
	}
}
