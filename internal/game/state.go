// internal/game/state.go
package game

import (
	"fmt"
	"strings"

	"github.com/parlourgames/monopoly/internal/board"
)

const (
	// StartingCash is each player's bankroll at game start.
	StartingCash = 1500

	// StartingHouses and StartingHotels are the bank's building supply.
	// Building fails when the relevant pool is empty.
	StartingHouses = 32
	StartingHotels = 12

	// MaxGTFOJailCards caps how many get-out-of-jail cards a player can hold.
	MaxGTFOJailCards = 2

	// MaxTurnsInJail is how many turns a player may sit in jail before they
	// are forced to leave by card or bail.
	MaxTurnsInJail = 3
)

// GameState is the complete dynamic state of one game. The engine owns the
// single live instance and is the only writer; everything handed to players
// or viewers is a deep copy from Snapshot, so external code can never
// corrupt authoritative state.
//
// Per-square slices are indexed by board position; per-player slices by seat.
// Ownership uses -1 for unowned.
type GameState struct {
	NumPlayers    int `json:"numPlayers"`
	TurnIndicator int `json:"turnIndicator"` // seat whose turn it is; -1 before the first turn

	Ownership  []int  `json:"ownership"`
	Mortgaged  []bool `json:"mortgaged"`
	HouseCount []int  `json:"houseCount"` // 0-4 houses, 5 = hotel

	RemainingHouses int `json:"remainingHouses"`
	RemainingHotels int `json:"remainingHotels"`

	Cash                 []int  `json:"cash"`
	PlayerLocations      []int  `json:"playerLocations"`
	ConsecutiveRollCount []int  `json:"consecutiveRollCount"`
	Jailed               []bool `json:"jailed"`
	TurnsInJail          []int  `json:"turnsInJail"`
	GTFOJailCards        []int  `json:"gtfoJailCards"`
	Bankrupt             []bool `json:"bankrupt"`

	Chance         *CardDeck `json:"-"`
	CommunityChest *CardDeck `json:"-"`
}

// NewGameState builds the standard starting position for numPlayers seats.
func NewGameState(numPlayers int) *GameState {
	gs := &GameState{
		NumPlayers:           numPlayers,
		TurnIndicator:        -1,
		Ownership:            make([]int, board.Size),
		Mortgaged:            make([]bool, board.Size),
		HouseCount:           make([]int, board.Size),
		RemainingHouses:      StartingHouses,
		RemainingHotels:      StartingHotels,
		Cash:                 make([]int, numPlayers),
		PlayerLocations:      make([]int, numPlayers),
		ConsecutiveRollCount: make([]int, numPlayers),
		Jailed:               make([]bool, numPlayers),
		TurnsInJail:          make([]int, numPlayers),
		GTFOJailCards:        make([]int, numPlayers),
		Bankrupt:             make([]bool, numPlayers),
		Chance:               NewCardDeck(ChanceCards()),
		CommunityChest:       NewCardDeck(CommunityChestCards()),
	}
	for i := range gs.Ownership {
		gs.Ownership[i] = -1
	}
	for i := range gs.Cash {
		gs.Cash[i] = StartingCash
	}
	return gs
}

// Snapshot returns an independent deep copy safe to hand to external callers.
func (gs *GameState) Snapshot() *GameState {
	c := &GameState{
		NumPlayers:           gs.NumPlayers,
		TurnIndicator:        gs.TurnIndicator,
		Ownership:            append([]int(nil), gs.Ownership...),
		Mortgaged:            append([]bool(nil), gs.Mortgaged...),
		HouseCount:           append([]int(nil), gs.HouseCount...),
		RemainingHouses:      gs.RemainingHouses,
		RemainingHotels:      gs.RemainingHotels,
		Cash:                 append([]int(nil), gs.Cash...),
		PlayerLocations:      append([]int(nil), gs.PlayerLocations...),
		ConsecutiveRollCount: append([]int(nil), gs.ConsecutiveRollCount...),
		Jailed:               append([]bool(nil), gs.Jailed...),
		TurnsInJail:          append([]int(nil), gs.TurnsInJail...),
		GTFOJailCards:        append([]int(nil), gs.GTFOJailCards...),
		Bankrupt:             append([]bool(nil), gs.Bankrupt...),
		Chance:               gs.Chance.Clone(),
		CommunityChest:       gs.CommunityChest.Clone(),
	}
	return c
}

// Equal reports structural equality, with deck contents compared as multisets.
func (gs *GameState) Equal(other *GameState) bool {
	return gs.NumPlayers == other.NumPlayers &&
		gs.TurnIndicator == other.TurnIndicator &&
		intsEqual(gs.Ownership, other.Ownership) &&
		boolsEqual(gs.Mortgaged, other.Mortgaged) &&
		intsEqual(gs.HouseCount, other.HouseCount) &&
		gs.RemainingHouses == other.RemainingHouses &&
		gs.RemainingHotels == other.RemainingHotels &&
		intsEqual(gs.Cash, other.Cash) &&
		intsEqual(gs.PlayerLocations, other.PlayerLocations) &&
		intsEqual(gs.ConsecutiveRollCount, other.ConsecutiveRollCount) &&
		boolsEqual(gs.Jailed, other.Jailed) &&
		intsEqual(gs.TurnsInJail, other.TurnsInJail) &&
		intsEqual(gs.GTFOJailCards, other.GTFOJailCards) &&
		boolsEqual(gs.Bankrupt, other.Bankrupt) &&
		gs.Chance.Equal(other.Chance) &&
		gs.CommunityChest.Equal(other.CommunityChest)
}

// IsMonopoly reports whether the owner of the square at idx owns its entire
// color group. Functional and unowned squares are never monopolies.
func (gs *GameState) IsMonopoly(idx int) bool {
	owner := gs.Ownership[idx]
	if owner == -1 {
		return false
	}
	sq := board.SquareAt(idx)
	if sq.FunctionalOnly() {
		return false
	}
	for _, groupIdx := range board.IndexesOfGroup(sq.Group) {
		if gs.Ownership[groupIdx] != owner {
			return false
		}
	}
	return true
}

// RentFor computes the rent owed for landing on the square at idx, given the
// sum of the last dice roll (referenced only for utilities).
func (gs *GameState) RentFor(idx int, roll int) int {
	sq := board.SquareAt(idx)
	owner := gs.Ownership[idx]

	switch sq.Group {
	case board.Railroad:
		owned := 0
		for _, rIdx := range board.IndexesOfGroup(board.Railroad) {
			if gs.Ownership[rIdx] == owner {
				owned++
			}
		}
		return sq.BaseRent * owned

	case board.Utility:
		bothOwned := true
		for _, uIdx := range board.IndexesOfGroup(board.Utility) {
			if gs.Ownership[uIdx] != owner {
				bothOwned = false
				break
			}
		}
		if bothOwned {
			return roll * 10
		}
		return roll * 4

	default:
		if gs.IsMonopoly(idx) {
			if gs.HouseCount[idx] > 0 {
				return sq.RentByHouses[gs.HouseCount[idx]-1]
			}
			// Unimproved monopolies rent at double the base.
			return sq.BaseRent * 2
		}
		return sq.BaseRent
	}
}

// String renders a readable dump of the full state, one concern per line.
func (gs *GameState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GameState{\n")
	fmt.Fprintf(&b, "\tnumPlayers: %d\n", gs.NumPlayers)
	fmt.Fprintf(&b, "\tturnIndicator: %d\n", gs.TurnIndicator)
	fmt.Fprintf(&b, "\townership: %v\n", gs.Ownership)
	fmt.Fprintf(&b, "\tmortgaged: %v\n", gs.Mortgaged)
	fmt.Fprintf(&b, "\thouseCount: %v\n", gs.HouseCount)
	fmt.Fprintf(&b, "\tremainingHouses: %d, remainingHotels: %d\n", gs.RemainingHouses, gs.RemainingHotels)
	fmt.Fprintf(&b, "\tcash: %v\n", gs.Cash)
	fmt.Fprintf(&b, "\tplayerLocations: %v\n", gs.PlayerLocations)
	fmt.Fprintf(&b, "\tconsecutiveRollCount: %v\n", gs.ConsecutiveRollCount)
	fmt.Fprintf(&b, "\tjailed: %v, turnsInJail: %v\n", gs.Jailed, gs.TurnsInJail)
	fmt.Fprintf(&b, "\tgtfoJailCards: %v\n", gs.GTFOJailCards)
	fmt.Fprintf(&b, "\tbankrupt: %v\n", gs.Bankrupt)
	fmt.Fprintf(&b, "\tchance: %d remaining (loop %d), communityChest: %d remaining (loop %d)\n",
		gs.Chance.Remaining(), gs.Chance.LoopCount(),
		gs.CommunityChest.Remaining(), gs.CommunityChest.LoopCount())
	fmt.Fprintf(&b, "}")
	return b.String()
}

func intsEqual(a, b []int) bool {
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

func boolsEqual(a, b []bool) bool {
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
