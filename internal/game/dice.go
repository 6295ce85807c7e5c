// internal/game/dice.go
package game

// Roll is the outcome of throwing two dice.
type Roll struct {
	Die1, Die2 int
}

// Sum returns the combined face value, in [2, 12].
func (r Roll) Sum() int {
	return r.Die1 + r.Die2
}

// IsDouble reports whether both dice landed on the same face.
func (r Roll) IsDouble() bool {
	return r.Die1 == r.Die2
}

// Dice produces rolls and remembers the last one. The last result is reused
// by utility rent calculations triggered by cards, which must not throw a
// fresh roll.
type Dice interface {
	Roll() Roll
	LastRoll() Roll
}

// secureDice uses the crypto RNG so dice sequences stay unpredictable even
// against adversarial clients.
type secureDice struct {
	last Roll
}

// NewDice returns the production crypto-backed dice.
func NewDice() Dice {
	return &secureDice{}
}

func (d *secureDice) Roll() Roll {
	d.last = Roll{Die1: 1 + secureIntn(6), Die2: 1 + secureIntn(6)}
	return d.last
}

func (d *secureDice) LastRoll() Roll {
	return d.last
}
