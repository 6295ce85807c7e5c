// internal/game/trade.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/parlourgames/monopoly/internal/board"
)

// TradeStatus tracks the lifecycle of an offer.
type TradeStatus int

const (
	TradePitched TradeStatus = iota
	TradeRejected
	TradeAccepted
)

// TradeSide is one half of a bilateral exchange: what that party gives up.
type TradeSide struct {
	Cash            int   `json:"cash"`
	PropertyIndexes []int `json:"propertyIndexes"`
	GTFOJailCards   int   `json:"gtfoJailCards"`
}

func (s TradeSide) clone() TradeSide {
	return TradeSide{
		Cash:            s.Cash,
		PropertyIndexes: append([]int(nil), s.PropertyIndexes...),
		GTFOJailCards:   s.GTFOJailCards,
	}
}

// Trade is a proposed exchange from the pitcher to the catcher. Both sides
// are clamped server-side before the catcher ever sees the offer, so a
// malicious pitcher cannot offer assets either party does not hold.
type Trade struct {
	PitcherIndex int `json:"pitcherIndex"`
	CatcherIndex int `json:"catcherIndex"`

	Pitcher TradeSide `json:"pitcher"`
	Catcher TradeSide `json:"catcher"`

	Status TradeStatus `json:"status"`
	// History holds prior revisions of the offer, oldest first.
	History []*Trade `json:"-"`
}

// NewTrade constructs an offer between two seats.
func NewTrade(pitcherIndex, catcherIndex int, pitcher, catcher TradeSide) *Trade {
	return &Trade{
		PitcherIndex: pitcherIndex,
		CatcherIndex: catcherIndex,
		Pitcher:      pitcher,
		Catcher:      catcher,
		Status:       TradePitched,
	}
}

// Counter replaces one side's terms, optionally recording the previous
// revision in the history for audit.
func (t *Trade) Counter(pitcher bool, side TradeSide, recordCounter bool) {
	if recordCounter {
		prev := &Trade{
			PitcherIndex: t.PitcherIndex,
			CatcherIndex: t.CatcherIndex,
			Pitcher:      t.Pitcher.clone(),
			Catcher:      t.Catcher.clone(),
			Status:       t.Status,
		}
		t.History = append(t.History, prev)
	}
	if pitcher {
		t.Pitcher = side
	} else {
		t.Catcher = side
	}
}

// clampSide filters a side's terms down to what its owner can actually give:
// cash within [0, available], cards within [0, held], and only properties
// the owner holds with no buildings on them.
func clampSide(side TradeSide, ownerIndex int, gs *GameState) TradeSide {
	out := TradeSide{Cash: side.Cash, GTFOJailCards: side.GTFOJailCards}

	if out.Cash < 0 {
		out.Cash = 0
	} else if out.Cash > gs.Cash[ownerIndex] {
		out.Cash = gs.Cash[ownerIndex]
	}

	if out.GTFOJailCards < 0 {
		out.GTFOJailCards = 0
	} else if out.GTFOJailCards > gs.GTFOJailCards[ownerIndex] {
		out.GTFOJailCards = gs.GTFOJailCards[ownerIndex]
	}

	for _, pIdx := range side.PropertyIndexes {
		if pIdx < 0 || pIdx >= board.Size {
			continue
		}
		if gs.Ownership[pIdx] != ownerIndex || gs.HouseCount[pIdx] > 0 {
			continue
		}
		out.PropertyIndexes = append(out.PropertyIndexes, pIdx)
	}
	return out
}

// String renders the offer from the pitcher's point of view.
func (t *Trade) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %d\nTo: %d\n", t.PitcherIndex, t.CatcherIndex)
	fmt.Fprintf(&b, "\nOffering:\n%s", t.Pitcher.render())
	fmt.Fprintf(&b, "\nReceiving:\n%s", t.Catcher.render())
	return b.String()
}

func (s TradeSide) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "$%d\n%dx GTFO Jail Cards\nProperties: {", s.Cash, s.GTFOJailCards)
	names := make([]string, 0, len(s.PropertyIndexes))
	for _, pIdx := range s.PropertyIndexes {
		if pIdx >= 0 && pIdx < board.Size {
			names = append(names, board.SquareAt(pIdx).Name)
		}
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("}\n")
	return b.String()
}

// ParseTradeLine decodes the pipe-delimited trade format:
//
//	pitcherIdx|catcherIdx|pitcherCash|pitcherCards|pitcherProps|catcherCash|catcherCards|catcherProps
//
// where the props fields are comma-separated square indexes (empty allowed).
// Example: "0|1|500|1|39|0|0|1,3" offers $500, one jail card, and Boardwalk
// for Mediterranean and Baltic Avenue.
func ParseTradeLine(line string) (*Trade, error) {
	args := strings.Split(strings.TrimSpace(line), "|")
	if len(args) != 8 {
		return nil, fmt.Errorf("trade line has %d fields, want 8", len(args))
	}

	ints := make([]int, 6)
	for i, argIdx := range []int{0, 1, 2, 3, 5, 6} {
		v, err := strconv.Atoi(strings.TrimSpace(args[argIdx]))
		if err != nil {
			return nil, fmt.Errorf("trade line field %d: %w", argIdx, err)
		}
		ints[i] = v
	}

	pitcherProps, err := parsePropList(args[4])
	if err != nil {
		return nil, err
	}
	catcherProps, err := parsePropList(args[7])
	if err != nil {
		return nil, err
	}

	return NewTrade(ints[0], ints[1],
		TradeSide{Cash: ints[2], GTFOJailCards: ints[3], PropertyIndexes: pitcherProps},
		TradeSide{Cash: ints[4], GTFOJailCards: ints[5], PropertyIndexes: catcherProps},
	), nil
}

// EncodeTradeLine is the inverse of ParseTradeLine.
func (t *Trade) EncodeTradeLine() string {
	return strings.Join([]string{
		strconv.Itoa(t.PitcherIndex),
		strconv.Itoa(t.CatcherIndex),
		strconv.Itoa(t.Pitcher.Cash),
		strconv.Itoa(t.Pitcher.GTFOJailCards),
		encodePropList(t.Pitcher.PropertyIndexes),
		strconv.Itoa(t.Catcher.Cash),
		strconv.Itoa(t.Catcher.GTFOJailCards),
		encodePropList(t.Catcher.PropertyIndexes),
	}, "|")
}

func parsePropList(field string) ([]int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	parts := strings.Split(field, ",")
	props := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("trade property list: %w", err)
		}
		props = append(props, v)
	}
	return props, nil
}

func encodePropList(props []int) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
