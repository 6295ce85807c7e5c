// internal/board/board.go
package board

import "strings"

// ColorGroup identifies the set a square belongs to. FUNCTION marks squares
// with no price (GO, taxes, card draws, jail, parking).
type ColorGroup string

const (
	Brown     ColorGroup = "brown"
	LightBlue ColorGroup = "light_blue"
	Purple    ColorGroup = "purple"
	Orange    ColorGroup = "orange"
	Red       ColorGroup = "red"
	Yellow    ColorGroup = "yellow"
	Green     ColorGroup = "green"
	DarkBlue  ColorGroup = "dark_blue"
	Railroad  ColorGroup = "railroad"
	Utility   ColorGroup = "utility"
	Function  ColorGroup = "function"
)

const (
	// BailAmount is the flat cost of leaving jail by payment.
	BailAmount = 50

	// UnmortgageInterest is the multiplier applied to the mortgage value
	// when a player lifts a mortgage.
	UnmortgageInterest = 1.1
)

// Square is one board position. Squares are immutable; all dynamic data
// (ownership, mortgages, houses) lives in game.GameState, keyed by index.
type Square struct {
	Name             string
	Group            ColorGroup
	MarketPrice      int
	MortgageFraction float64
	BaseRent         int
	HouseCost        int
	HouseSellFraction float64
	// RentByHouses holds rent for 1-4 houses and a hotel, in that order.
	RentByHouses [5]int
}

// FunctionalOnly reports whether the square has no pricing (GO, taxes, etc.).
func (s Square) FunctionalOnly() bool {
	return s.Group == Function
}

// MortgageValue is the cash credited when the square is mortgaged.
func (s Square) MortgageValue() int {
	return int(float64(s.MarketPrice) * s.MortgageFraction)
}

// UnmortgageCost is the cash debited to lift a mortgage (value plus interest).
func (s Square) UnmortgageCost() int {
	return int(float64(s.MarketPrice) * s.MortgageFraction * UnmortgageInterest)
}

func colored(name string, group ColorGroup, price, baseRent, houseCost int, rents [5]int) Square {
	return Square{
		Name:              name,
		Group:             group,
		MarketPrice:       price,
		MortgageFraction:  .5,
		BaseRent:          baseRent,
		HouseCost:         houseCost,
		HouseSellFraction: .5,
		RentByHouses:      rents,
	}
}

func railroad(name string) Square {
	return Square{Name: name, Group: Railroad, MarketPrice: 200, MortgageFraction: .5, BaseRent: 50}
}

func utility(name string) Square {
	return Square{Name: name, Group: Utility, MarketPrice: 150, MortgageFraction: .5}
}

func functional(name string) Square {
	return Square{Name: name, Group: Function}
}

// Squares is the fixed US-standard board, in play order. Index 0 is GO.
// Read-only by convention; nothing outside this package may mutate it.
var Squares = [40]Square{
	functional("GO"),
	colored("Mediterranean Avenue", Brown, 60, 2, 50, [5]int{10, 30, 90, 160, 250}),
	functional("Community Chest"),
	colored("Baltic Avenue", Brown, 60, 4, 50, [5]int{20, 60, 180, 320, 450}),
	functional("Income Tax"),
	railroad("Reading Railroad"),
	colored("Oriental Avenue", LightBlue, 100, 6, 50, [5]int{30, 90, 270, 400, 550}),
	functional("Chance"),
	colored("Vermont Avenue", LightBlue, 100, 6, 50, [5]int{30, 90, 270, 400, 550}),
	colored("Connecticut Avenue", LightBlue, 120, 8, 50, [5]int{40, 100, 300, 450, 600}),
	functional("Jail"),
	colored("St. Charles Place", Purple, 140, 10, 100, [5]int{50, 150, 450, 625, 750}),
	utility("Electric Company"),
	colored("States Avenue", Purple, 140, 10, 100, [5]int{50, 150, 450, 625, 750}),
	colored("Virginia Avenue", Purple, 160, 12, 100, [5]int{60, 180, 500, 700, 900}),
	railroad("Pennsylvania Railroad"),
	colored("St. James Place", Orange, 180, 14, 100, [5]int{70, 200, 550, 750, 950}),
	functional("Community Chest"),
	colored("Tennessee Avenue", Orange, 180, 14, 100, [5]int{70, 200, 550, 750, 950}),
	colored("New York Avenue", Orange, 200, 16, 100, [5]int{80, 220, 600, 800, 1000}),
	functional("Free Parking"),
	colored("Kentucky Avenue", Red, 220, 18, 150, [5]int{90, 250, 700, 875, 1050}),
	functional("Chance"),
	colored("Indiana Avenue", Red, 220, 18, 150, [5]int{90, 250, 700, 875, 1050}),
	colored("Illinois Avenue", Red, 240, 20, 150, [5]int{100, 300, 750, 925, 1100}),
	railroad("B & O Railroad"),
	colored("Atlantic Avenue", Yellow, 260, 22, 150, [5]int{110, 330, 800, 975, 1150}),
	colored("Ventnor Avenue", Yellow, 260, 22, 150, [5]int{110, 330, 800, 975, 1150}),
	utility("Water Works"),
	colored("Marvin Gardens", Yellow, 280, 24, 150, [5]int{120, 360, 850, 1025, 1200}),
	functional("Go To Jail"),
	colored("Pacific Avenue", Green, 300, 26, 200, [5]int{130, 390, 900, 1100, 1275}),
	colored("North Carolina Avenue", Green, 300, 26, 200, [5]int{130, 390, 900, 1100, 1275}),
	functional("Community Chest"),
	colored("Pennsylvania Avenue", Green, 320, 28, 200, [5]int{150, 450, 1000, 1200, 1400}),
	railroad("Short Line"),
	functional("Chance"),
	colored("Park Place", DarkBlue, 350, 35, 200, [5]int{175, 500, 1100, 1300, 1500}),
	functional("Luxury Tax"),
	colored("Boardwalk", DarkBlue, 400, 50, 200, [5]int{200, 600, 1400, 1700, 2000}),
}

// Size is the number of board squares.
const Size = len(Squares)

// SquareAt returns the square at index i. Panics on out-of-range input;
// callers index with values already reduced modulo Size.
func SquareAt(i int) Square {
	return Squares[i]
}

// IndexOf returns the index of the first square whose name matches
// (case-insensitive), or -1 if no square has that name.
func IndexOf(name string) int {
	for i := range Squares {
		if strings.EqualFold(Squares[i].Name, name) {
			return i
		}
	}
	return -1
}

// IndexesOfGroup returns the indexes of every square in the given group,
// in board order.
func IndexesOfGroup(group ColorGroup) []int {
	var idxs []int
	for i := range Squares {
		if Squares[i].Group == group {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// NextOfGroup returns the index of the first square of the given group at or
// after `from` (wrapping), or -1 if the group does not exist. Used by the
// "advance to nearest railroad/utility" cards.
func NextOfGroup(from int, group ColorGroup) int {
	for i := 0; i < Size; i++ {
		idx := (from + i) % Size
		if Squares[idx].Group == group {
			return idx
		}
	}
	return -1
}
