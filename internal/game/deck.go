// internal/game/deck.go
package game

import (
	"crypto/rand"
	"log"
	"math/big"
)

// CardDeck is a draw-without-replacement pile. Draws pick a uniformly random
// card from the remaining set (not sequential dealing); when the pile is
// exhausted the discards are swapped back in and loopCount increments.
//
// Get-out-of-jail cards are the one exception to the cycle: when kept, they
// live as a counter on the player (GameState.GTFOJailCards) rather than as a
// deck member with removal semantics, so a deck never shrinks permanently.
type CardDeck struct {
	remaining []Card
	discarded []Card
	loopCount int
}

// NewCardDeck builds a deck from the given contents. The slice is owned by
// the deck afterwards.
func NewCardDeck(cards []Card) *CardDeck {
	return &CardDeck{remaining: cards}
}

// Draw removes and returns a random card from the deck, reshuffling the
// discard pile back in first if the deck is empty.
func (d *CardDeck) Draw() Card {
	if len(d.remaining) == 0 {
		d.remaining = d.discarded
		d.discarded = nil
		d.loopCount++
		log.Printf("Deck exhausted; reshuffled %d card(s) back in (loop %d).", len(d.remaining), d.loopCount)
	}

	idx := secureIntn(len(d.remaining))
	card := d.remaining[idx]
	d.remaining = append(d.remaining[:idx], d.remaining[idx+1:]...)
	d.discarded = append(d.discarded, card)
	return card
}

// LoopCount reports how many times the deck has been reshuffled.
func (d *CardDeck) LoopCount() int {
	return d.loopCount
}

// Remaining reports how many cards are left before the next reshuffle.
func (d *CardDeck) Remaining() int {
	return len(d.remaining)
}

// Clone returns an independent copy of the deck.
func (d *CardDeck) Clone() *CardDeck {
	c := &CardDeck{
		remaining: make([]Card, len(d.remaining)),
		discarded: make([]Card, len(d.discarded)),
		loopCount: d.loopCount,
	}
	copy(c.remaining, d.remaining)
	copy(c.discarded, d.discarded)
	return c
}

// Equal compares two decks as multisets: the same cards remaining and the
// same cards discarded, order-irrelevant.
func (d *CardDeck) Equal(other *CardDeck) bool {
	return multisetEqual(d.remaining, other.remaining) && multisetEqual(d.discarded, other.discarded)
}

func multisetEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[Card]int, len(a))
	for _, c := range a {
		counts[c]++
	}
	for _, c := range b {
		counts[c]--
		if counts[c] < 0 {
			return false
		}
	}
	return true
}

// secureIntn returns a uniform random int in [0, n) from the crypto source.
func secureIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// The platform CSPRNG failing is unrecoverable programmer/host error.
		panic(err)
	}
	return int(v.Int64())
}
