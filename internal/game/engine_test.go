package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parlourgames/monopoly/internal/board"
	"github.com/parlourgames/monopoly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDice replays a fixed roll sequence, cycling when exhausted.
type fakeDice struct {
	rolls []Roll
	i     int
	last  Roll
}

func (d *fakeDice) Roll() Roll {
	r := d.rolls[d.i%len(d.rolls)]
	d.i++
	d.last = r
	return r
}

func (d *fakeDice) LastRoll() Roll { return d.last }

// passiveDecider plays the least committal legal answer at every prompt:
// end phases, decline purchases, concede auctions, reject trades.
func passiveDecider() Decider {
	return DeciderFunc(func(p Prompt) (Action, ActionContext) {
		switch {
		case p.LegalActions.Contains(ActionEndTurn):
			return ActionEndTurn, ActionContext{}
		case p.LegalActions.Contains(ActionMoveThrowDice):
			return ActionMoveThrowDice, ActionContext{}
		case p.LegalActions.Contains(ActionPropertyBuyOrAuction):
			return ActionPropertyBuyOrAuction, ActionContext{Flag: false}
		case p.LegalActions.Contains(ActionAuctionBid):
			return ActionAuctionBid, ActionContext{Amount: -1}
		case p.LegalActions.Contains(ActionTradeRespond):
			return ActionTradeRespond, ActionContext{Flag: false}
		case p.LegalActions.Contains(ActionJailPayBail):
			return ActionJailPayBail, ActionContext{}
		default:
			return ActionDeclareBankruptcy, ActionContext{}
		}
	})
}

// rollerDecider always rolls when a throw is available.
func rollerDecider() Decider {
	return DeciderFunc(func(p Prompt) (Action, ActionContext) {
		switch {
		case p.LegalActions.Contains(ActionJailThrowDice):
			return ActionJailThrowDice, ActionContext{}
		case p.LegalActions.Contains(ActionMoveThrowDice):
			return ActionMoveThrowDice, ActionContext{}
		default:
			return ActionEndTurn, ActionContext{}
		}
	})
}

// newTestEngine builds a started engine with synchronous deciders and no
// decision deadline.
func newTestEngine(t *testing.T, dice Dice, deciders ...Decider) *Engine {
	t.Helper()
	e := NewEngine()
	e.HouseRules.DecideTimeoutSec = 0
	if dice != nil {
		e.SetDice(dice)
	}
	for i, d := range deciders {
		e.AddPlayer(&models.Player{Name: fmt.Sprintf("player-%d", i)}, d)
	}
	e.Start()
	require.NotNil(t, e.state)
	return e
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	e := NewEngine()
	e.AddPlayer(&models.Player{Name: "solo"}, passiveDecider())
	e.Start()
	assert.Nil(t, e.state)
}

func TestAddPlayerAssignsSeatsAndTokens(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())

	require.Len(t, e.Players(), 2)
	assert.Equal(t, 0, e.Players()[0].Index)
	assert.Equal(t, 1, e.Players()[1].Index)
	assert.NotEqual(t, uuid.Nil, e.Players()[0].Token)
	assert.NotEqual(t, e.Players()[0].Token, e.Players()[1].Token)

	// Joining after start is refused.
	e.AddPlayer(&models.Player{Name: "late"}, passiveDecider())
	assert.Len(t, e.Players(), 2)
}

func TestForcedMoveBuyAndRent(t *testing.T) {
	buyer := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		switch {
		case p.LegalActions.Contains(ActionPropertyBuyOrAuction):
			return ActionPropertyBuyOrAuction, ActionContext{Flag: true}
		case p.LegalActions.Contains(ActionMoveThrowDice):
			return ActionMoveThrowDice, ActionContext{}
		default:
			return ActionEndTurn, ActionContext{}
		}
	})
	dice := &fakeDice{rolls: []Roll{{1, 2}}}
	e := newTestEngine(t, dice, buyer, rollerDecider())
	gs := e.state

	// Seat 0's turn: roll 3, land on Baltic Avenue, buy it.
	e.processTurn()
	assert.Equal(t, 0, gs.TurnIndicator)
	assert.Equal(t, 3, gs.PlayerLocations[0])
	assert.Equal(t, 0, gs.Ownership[3])
	assert.Equal(t, 1440, gs.Cash[0])

	// Seat 1 lands on the same square and owes base rent (no monopoly).
	e.processTurn()
	assert.Equal(t, 1, gs.TurnIndicator)
	assert.Equal(t, 3, gs.PlayerLocations[1])
	assert.Equal(t, 1496, gs.Cash[1])
	assert.Equal(t, 1444, gs.Cash[0])
}

func TestTripleDoublesSendPlayerToJail(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{5, 5}}}
	e := newTestEngine(t, dice, rollerDecider(), rollerDecider())
	gs := e.state

	// Rolls 10, 10, 10: visits Jail and Free Parking, then the third double
	// sends the token to Jail without moving.
	e.processTurn()
	assert.True(t, gs.Jailed[0])
	assert.Equal(t, board.IndexOf("Jail"), gs.PlayerLocations[0])
	assert.Equal(t, StartingCash, gs.Cash[0])
}

func TestJailRollDoublesFreesAndMoves(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{5, 5}}}
	e := newTestEngine(t, dice, rollerDecider(), rollerDecider())
	gs := e.state
	gs.Jailed[0] = true
	gs.PlayerLocations[0] = board.IndexOf("Jail")

	e.processTurn()
	assert.False(t, gs.Jailed[0])
	assert.Equal(t, 20, gs.PlayerLocations[0]) // Free Parking
	assert.Equal(t, StartingCash, gs.Cash[0])
	assert.Zero(t, gs.TurnsInJail[0])
}

func TestJailFailedRollCountsTurn(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{1, 2}}}
	e := newTestEngine(t, dice, rollerDecider(), rollerDecider())
	gs := e.state
	gs.Jailed[0] = true
	gs.PlayerLocations[0] = board.IndexOf("Jail")

	e.processTurn()
	assert.True(t, gs.Jailed[0])
	assert.Equal(t, 1, gs.TurnsInJail[0])
	assert.Equal(t, board.IndexOf("Jail"), gs.PlayerLocations[0])
	assert.Equal(t, StartingCash, gs.Cash[0])
}

func TestJailThirdFailedRollPrefersCard(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{1, 2}}}
	e := newTestEngine(t, dice, rollerDecider(), rollerDecider())
	gs := e.state
	gs.Jailed[0] = true
	gs.PlayerLocations[0] = board.IndexOf("Jail")
	gs.TurnIndicator = 0
	gs.ConsecutiveRollCount[0] = 2
	gs.GTFOJailCards[0] = 1
	e.legal = legalActionsFor(flowJailStart, nil, nil)

	e.RequestAction(ActionJailThrowDice, e.players[0].Token, ActionContext{})
	assert.False(t, gs.Jailed[0])
	assert.Zero(t, gs.GTFOJailCards[0])
	assert.Equal(t, StartingCash, gs.Cash[0]) // card exit is free
	assert.Equal(t, board.IndexOf("Jail"), gs.PlayerLocations[0])
	assert.Zero(t, gs.ConsecutiveRollCount[0])
}

func TestJailThirdFailedRollChargesBailWithoutCard(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{1, 2}}}
	e := newTestEngine(t, dice, rollerDecider(), rollerDecider())
	gs := e.state
	gs.Jailed[0] = true
	gs.PlayerLocations[0] = board.IndexOf("Jail")
	gs.TurnIndicator = 0
	gs.ConsecutiveRollCount[0] = 2
	e.legal = legalActionsFor(flowJailStart, nil, nil)

	e.RequestAction(ActionJailThrowDice, e.players[0].Token, ActionContext{})
	assert.False(t, gs.Jailed[0])
	assert.Equal(t, StartingCash-board.BailAmount, gs.Cash[0])
}

func TestJailPayBailMovesAfterRelease(t *testing.T) {
	bailer := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		switch {
		case p.LegalActions.Contains(ActionJailPayBail):
			return ActionJailPayBail, ActionContext{}
		case p.LegalActions.Contains(ActionMoveThrowDice):
			return ActionMoveThrowDice, ActionContext{}
		default:
			return ActionEndTurn, ActionContext{}
		}
	})
	dice := &fakeDice{rolls: []Roll{{1, 2}}}
	e := newTestEngine(t, dice, bailer, rollerDecider())
	gs := e.state
	gs.Jailed[0] = true
	gs.PlayerLocations[0] = board.IndexOf("Jail")
	gs.Ownership[13] = 0 // lands on own property; no follow-up prompt

	e.processTurn()
	assert.False(t, gs.Jailed[0])
	assert.Equal(t, 13, gs.PlayerLocations[0])
	assert.Equal(t, StartingCash-board.BailAmount, gs.Cash[0])
	assert.Zero(t, gs.TurnsInJail[0])
}

func TestGoCreditOnlyOnForwardWrap(t *testing.T) {
	e := newTestEngine(t, &fakeDice{rolls: []Roll{{1, 2}}}, passiveDecider(), passiveDecider())
	gs := e.state

	// Forward wrap over GO pays 200.
	gs.PlayerLocations[0] = 36
	e.moveToken(0, 4, 1.0)
	assert.Equal(t, 0, gs.PlayerLocations[0])
	assert.Equal(t, 1700, gs.Cash[0])

	// A full lap pays even when the landing index does not decrease.
	e.moveToken(0, board.Size, 1.0)
	assert.Equal(t, 0, gs.PlayerLocations[0])
	assert.Equal(t, 1900, gs.Cash[0])

	// Backward wrap does not pay.
	gs.PlayerLocations[0] = 2
	gs.Ownership[39] = 0
	e.moveToken(0, -3, 1.0)
	assert.Equal(t, 39, gs.PlayerLocations[0])
	assert.Equal(t, 1900, gs.Cash[0])
}

func TestAuctionHighBidderWins(t *testing.T) {
	bidder := func(amount int) Decider {
		return DeciderFunc(func(p Prompt) (Action, ActionContext) {
			return ActionAuctionBid, ActionContext{Amount: amount}
		})
	}
	e := newTestEngine(t, nil, bidder(100), bidder(50))
	gs := e.state

	e.auctionProperty(0, 39)
	assert.Equal(t, 0, gs.Ownership[39])
	assert.Equal(t, 1400, gs.Cash[0])
	assert.Equal(t, StartingCash, gs.Cash[1])
	assert.Equal(t, -1, e.auctionIndex)
	assert.Nil(t, e.auctionBids)
}

func TestAuctionLoneBidderPaysFloor(t *testing.T) {
	conceder := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		return ActionAuctionBid, ActionContext{Amount: -1}
	})
	e := newTestEngine(t, nil, conceder, nil)
	gs := e.state

	// Seat 0 concedes immediately; seat 1 never raises but takes the square
	// at the floor price.
	e.auctionProperty(0, 3)
	assert.Equal(t, 1, gs.Ownership[3])
	assert.Equal(t, StartingCash-StartingBid, gs.Cash[1])
	assert.Equal(t, StartingCash, gs.Cash[0])
}

func TestAuctionExcludesBankruptSeats(t *testing.T) {
	conceder := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		return ActionAuctionBid, ActionContext{Amount: -1}
	})
	e := newTestEngine(t, nil, conceder, conceder, conceder)
	gs := e.state
	gs.Bankrupt[2] = true

	// Seat 2 never enters the bidding, so once seat 0 concedes, seat 1 is
	// the lone remaining bidder and takes the square at the floor. Without
	// the exclusion, seat 2's untouched floor bid would win the square.
	e.auctionProperty(0, 39)
	assert.Equal(t, 1, gs.Ownership[39])
	assert.Equal(t, StartingCash-StartingBid, gs.Cash[1])
	assert.Equal(t, StartingCash, gs.Cash[2])
}

func TestRaiseFundsByMortgageCoversDebt(t *testing.T) {
	mortgager := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		if p.LegalActions.Contains(ActionPropertyMortgage) && !p.State.Mortgaged[39] {
			return ActionPropertyMortgage, ActionContext{PropertyIndex: 39}
		}
		return ActionDeclareBankruptcy, ActionContext{}
	})
	e := newTestEngine(t, nil, mortgager, passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Cash[0] = 10
	gs.Ownership[39] = 0

	ok := e.decrementCash(0, 100)
	assert.True(t, ok)
	assert.True(t, gs.Mortgaged[39])
	assert.Equal(t, 110, gs.Cash[0]) // 10 + 200 mortgage - 100 debt
	assert.False(t, gs.Bankrupt[0])
}

func TestInsolvencyForcesBankruptcy(t *testing.T) {
	quitter := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		return ActionDeclareBankruptcy, ActionContext{}
	})
	e := newTestEngine(t, nil, quitter, passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Cash[0] = 10
	gs.Ownership[3] = 0

	ok := e.decrementCash(0, 100)
	assert.False(t, ok)
	assert.True(t, gs.Bankrupt[0])
	assert.Equal(t, -1, gs.Ownership[3])
}

func TestBankruptcyReturnsBuildingsToBank(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.Ownership[1] = 0
	gs.HouseCount[1] = 5 // hotel
	gs.Ownership[3] = 0
	gs.HouseCount[3] = 2
	gs.Ownership[5] = 0
	gs.Mortgaged[5] = true
	gs.RemainingHouses = 26
	gs.RemainingHotels = 11

	var messages []string
	e.OutputFn = func(seat int, msg string) { messages = append(messages, msg) }

	e.bankruptPlayer(0)

	assert.True(t, gs.Bankrupt[0])
	for _, idx := range []int{1, 3, 5} {
		assert.Equal(t, -1, gs.Ownership[idx])
		assert.False(t, gs.Mortgaged[idx])
		assert.Zero(t, gs.HouseCount[idx])
	}
	assert.Equal(t, 28, gs.RemainingHouses)
	assert.Equal(t, 12, gs.RemainingHotels)
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "bankrupted")
}

func TestTradeOfferClampedAndAccepted(t *testing.T) {
	accepter := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		if p.LegalActions.Contains(ActionTradeRespond) {
			return ActionTradeRespond, ActionContext{Flag: true}
		}
		return ActionEndTurn, ActionContext{}
	})
	e := newTestEngine(t, nil, passiveDecider(), accepter)
	gs := e.state
	gs.TurnIndicator = 0
	gs.GTFOJailCards[0] = 1
	gs.Ownership[39] = 0
	gs.Ownership[1] = 1
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)

	// The pitcher overstates their jail cards; the clamp trims it to 1.
	trade := NewTrade(0, 1,
		TradeSide{Cash: 300, GTFOJailCards: 5, PropertyIndexes: []int{39}},
		TradeSide{PropertyIndexes: []int{1}},
	)
	e.RequestAction(ActionTradeOffer, e.players[0].Token, ActionContext{Trade: trade})

	assert.Equal(t, TradeAccepted, trade.Status)
	assert.Equal(t, 1200, gs.Cash[0])
	assert.Equal(t, 1800, gs.Cash[1])
	assert.Equal(t, 1, gs.Ownership[39])
	assert.Equal(t, 0, gs.Ownership[1])
	assert.Zero(t, gs.GTFOJailCards[0])
	assert.Equal(t, 1, gs.GTFOJailCards[1])
	assert.Nil(t, e.currentTrade)
}

func TestTradeRespectsJailCardCap(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.GTFOJailCards[0] = 2
	gs.GTFOJailCards[1] = 2

	// The catcher already holds the maximum; the pitcher's cards stay put.
	trade := NewTrade(0, 1, TradeSide{GTFOJailCards: 2}, TradeSide{})
	e.acceptTrade(trade)
	assert.Equal(t, MaxGTFOJailCards, gs.GTFOJailCards[1])
	assert.Equal(t, 2, gs.GTFOJailCards[0])

	// With one card of room, only one of the two offered transfers.
	gs.GTFOJailCards[1] = 1
	e.acceptTrade(NewTrade(0, 1, TradeSide{GTFOJailCards: 2}, TradeSide{}))
	assert.Equal(t, MaxGTFOJailCards, gs.GTFOJailCards[1])
	assert.Equal(t, 1, gs.GTFOJailCards[0])
}

func TestTradeRejectedLeavesStateUntouched(t *testing.T) {
	rejecter := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		return ActionTradeRespond, ActionContext{Flag: false}
	})
	e := newTestEngine(t, nil, passiveDecider(), rejecter)
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[39] = 0
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	before := gs.Snapshot()

	trade := NewTrade(0, 1, TradeSide{Cash: 300, PropertyIndexes: []int{39}}, TradeSide{})
	e.RequestAction(ActionTradeOffer, e.players[0].Token, ActionContext{Trade: trade})

	assert.Equal(t, TradeRejected, trade.Status)
	assert.True(t, gs.Equal(before))
}

func TestMalformedTradeIgnored(t *testing.T) {
	catcherCalls := 0
	counter := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		catcherCalls++
		return ActionTradeRespond, ActionContext{Flag: true}
	})
	e := newTestEngine(t, nil, passiveDecider(), counter)
	e.state.TurnIndicator = 0
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)

	// Self-trade.
	trade := NewTrade(0, 0, TradeSide{Cash: 100}, TradeSide{})
	e.RequestAction(ActionTradeOffer, e.players[0].Token, ActionContext{Trade: trade})
	assert.Zero(t, catcherCalls)

	// Missing descriptor.
	e.RequestAction(ActionTradeOffer, e.players[0].Token, ActionContext{})
	assert.Zero(t, catcherCalls)
}

func TestCardChairmanPaysEachSolventPlayer(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider(), passiveDecider())
	gs := e.state

	e.performCardAction(0, CardPay50EachPlayer)
	assert.Equal(t, 1400, gs.Cash[0])
	assert.Equal(t, 1550, gs.Cash[1])
	assert.Equal(t, 1550, gs.Cash[2])
}

func TestCardChairmanSkipsBankruptSeats(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider(), passiveDecider())
	gs := e.state
	gs.Bankrupt[2] = true

	e.performCardAction(0, CardPay50EachPlayer)
	assert.Equal(t, 1450, gs.Cash[0])
	assert.Equal(t, 1550, gs.Cash[1])
	assert.Equal(t, StartingCash, gs.Cash[2])
}

func TestCardBirthdayCollectsFromSolventPlayers(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider(), passiveDecider())
	gs := e.state
	gs.Bankrupt[2] = true

	e.performCardAction(0, CardCollect50EachPlayer)
	assert.Equal(t, 1550, gs.Cash[0])
	assert.Equal(t, 1450, gs.Cash[1])
	assert.Equal(t, StartingCash, gs.Cash[2])
}

func TestCardBirthdayDebtorMortgagesOffTurn(t *testing.T) {
	mortgager := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		if p.LegalActions.Contains(ActionPropertyMortgage) && !p.State.Mortgaged[39] {
			return ActionPropertyMortgage, ActionContext{PropertyIndex: 39}
		}
		return ActionDeclareBankruptcy, ActionContext{}
	})
	e := newTestEngine(t, nil, passiveDecider(), mortgager)
	gs := e.state
	gs.TurnIndicator = 0
	gs.Cash[1] = 40
	gs.Ownership[39] = 1

	// The gift is charged on seat 0's turn, so seat 1 raises the funds by
	// mortgaging while off-turn.
	e.performCardAction(0, CardCollect50EachPlayer)
	assert.False(t, gs.Bankrupt[1])
	assert.True(t, gs.Mortgaged[39])
	assert.Equal(t, 40+200-50, gs.Cash[1])
	assert.Equal(t, StartingCash+50, gs.Cash[0])
}

func TestCardGetOutOfJailCapped(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state

	e.performCardAction(0, CardGetOutOfJail)
	assert.Equal(t, 1, gs.GTFOJailCards[0])
	e.performCardAction(0, CardGetOutOfJail2)
	assert.Equal(t, MaxGTFOJailCards, gs.GTFOJailCards[0])
	e.performCardAction(0, CardGetOutOfJail)
	assert.Equal(t, MaxGTFOJailCards, gs.GTFOJailCards[0])
}

func TestCardNearestRailroadDoublesRent(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.PlayerLocations[0] = 4
	gs.Ownership[5] = 1 // Reading Railroad, single railroad: base rent 50

	e.performCardAction(0, CardAdvanceToNearestRailroad)
	assert.Equal(t, 5, gs.PlayerLocations[0])
	assert.Equal(t, 1400, gs.Cash[0])
	assert.Equal(t, 1600, gs.Cash[1])
}

func TestCardNearestUtilityChargesTenTimesRoll(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{3, 4}}}
	e := newTestEngine(t, dice, passiveDecider(), passiveDecider(), passiveDecider())
	gs := e.state
	e.dice.Roll() // the throw that started the move
	gs.PlayerLocations[0] = 7
	gs.Ownership[12] = 1
	gs.Ownership[28] = 2

	// Split ownership: base utility rent is 4x the roll; the card bumps the
	// charge to 10x via the 2.5 multiplier.
	e.performCardAction(0, CardAdvanceToNearestUtility)
	assert.Equal(t, 12, gs.PlayerLocations[0])
	assert.Equal(t, StartingCash-70, gs.Cash[0])
	assert.Equal(t, StartingCash+70, gs.Cash[1])
}

func TestCardRepairsAssessment(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.Ownership[1] = 0
	gs.HouseCount[1] = 5 // hotel
	gs.Ownership[3] = 0
	gs.HouseCount[3] = 2

	assert.Equal(t, 150, e.repairsCost(0, 25, 100))
	assert.Equal(t, 195, e.repairsCost(0, 40, 115))

	e.performCardAction(0, CardGeneralRepairs)
	assert.Equal(t, 1350, gs.Cash[0])
}

func TestCardRetreatThreeSpaces(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.PlayerLocations[0] = 7

	// Back three from Chance is Income Tax.
	e.performCardAction(0, CardRetreat3Spaces)
	assert.Equal(t, 4, gs.PlayerLocations[0])
	assert.Equal(t, 1300, gs.Cash[0])
}

func TestPayRentUtilityUsesLastRoll(t *testing.T) {
	dice := &fakeDice{rolls: []Roll{{4, 5}}}
	e := newTestEngine(t, dice, passiveDecider(), passiveDecider())
	gs := e.state
	gs.Ownership[12] = 1
	gs.Ownership[28] = 1
	e.dice.Roll()

	e.payRent(12, 0, 1, 1.0)
	assert.Equal(t, StartingCash-90, gs.Cash[0])
	assert.Equal(t, StartingCash+90, gs.Cash[1])
}

func TestHouseBuildEvenlyAcrossSet(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 0
	gs.Ownership[3] = 0
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	tok := e.players[0].Token

	e.RequestAction(ActionHouseBuild, tok, ActionContext{PropertyIndex: 1})
	assert.Equal(t, 1, gs.HouseCount[1])
	assert.Equal(t, 1450, gs.Cash[0])
	assert.Equal(t, StartingHouses-1, gs.RemainingHouses)

	// A second house on the same square before the set catches up is uneven.
	e.RequestAction(ActionHouseBuild, tok, ActionContext{PropertyIndex: 1})
	assert.Equal(t, 1, gs.HouseCount[1])
	assert.Equal(t, 1450, gs.Cash[0])

	e.RequestAction(ActionHouseBuild, tok, ActionContext{PropertyIndex: 3})
	assert.Equal(t, 1, gs.HouseCount[3])
	assert.Equal(t, 1400, gs.Cash[0])
}

func TestHouseBuildRejectsPartialSetAndUnbuildableSquares(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[6] = 0 // Oriental only, light blue incomplete
	gs.Ownership[5] = 0 // a railroad
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	tok := e.players[0].Token

	e.RequestAction(ActionHouseBuild, tok, ActionContext{PropertyIndex: 6})
	assert.Zero(t, gs.HouseCount[6])

	e.RequestAction(ActionHouseBuild, tok, ActionContext{PropertyIndex: 5})
	assert.Zero(t, gs.HouseCount[5])
	assert.Equal(t, StartingCash, gs.Cash[0])
}

func TestHotelPurchaseSwapsHousesForHotel(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 0
	gs.Ownership[3] = 0
	gs.HouseCount[1] = 4
	gs.HouseCount[3] = 4
	gs.RemainingHouses = 24
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)

	e.RequestAction(ActionHouseBuild, e.players[0].Token, ActionContext{PropertyIndex: 1})
	assert.Equal(t, 5, gs.HouseCount[1])
	assert.Equal(t, 28, gs.RemainingHouses) // four houses return to the bank
	assert.Equal(t, StartingHotels-1, gs.RemainingHotels)
	assert.Equal(t, 1450, gs.Cash[0])
}

func TestHouseSellHalvesCostAndKeepsSetsEven(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 0
	gs.Ownership[3] = 0
	gs.HouseCount[1] = 5
	gs.HouseCount[3] = 4
	gs.RemainingHouses = 20
	gs.RemainingHotels = 11
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	tok := e.players[0].Token

	// Selling the hotel takes four houses back out of the bank pool.
	e.RequestAction(ActionHouseSell, tok, ActionContext{PropertyIndex: 1})
	assert.Equal(t, 4, gs.HouseCount[1])
	assert.Equal(t, 16, gs.RemainingHouses)
	assert.Equal(t, 12, gs.RemainingHotels)
	assert.Equal(t, 1525, gs.Cash[0]) // half of the 50 build cost

	e.RequestAction(ActionHouseSell, tok, ActionContext{PropertyIndex: 3})
	assert.Equal(t, 3, gs.HouseCount[3])

	// Selling further on the lower square would go uneven.
	e.RequestAction(ActionHouseSell, tok, ActionContext{PropertyIndex: 3})
	assert.Equal(t, 3, gs.HouseCount[3])
}

func TestHotelSellBlockedWhenHousePoolShort(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 0
	gs.Ownership[3] = 0
	gs.HouseCount[1] = 5
	gs.HouseCount[3] = 5
	gs.RemainingHouses = 3
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)

	e.RequestAction(ActionHouseSell, e.players[0].Token, ActionContext{PropertyIndex: 1})
	assert.Equal(t, 5, gs.HouseCount[1])
	assert.Equal(t, StartingCash, gs.Cash[0])
}

func TestMortgageLifecycle(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 0
	gs.Ownership[3] = 0
	gs.HouseCount[1] = 1
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	tok := e.players[0].Token

	// Built-up squares cannot be mortgaged.
	e.RequestAction(ActionPropertyMortgage, tok, ActionContext{PropertyIndex: 1})
	assert.False(t, gs.Mortgaged[1])

	e.RequestAction(ActionPropertyMortgage, tok, ActionContext{PropertyIndex: 3})
	assert.True(t, gs.Mortgaged[3])
	assert.Equal(t, 1530, gs.Cash[0])

	// Unmortgaging needs the full cost (33) on hand.
	gs.Cash[0] = 10
	e.RequestAction(ActionPropertyUnmortgage, tok, ActionContext{PropertyIndex: 3})
	assert.True(t, gs.Mortgaged[3])
	assert.Equal(t, 10, gs.Cash[0])

	gs.Cash[0] = 100
	e.RequestAction(ActionPropertyUnmortgage, tok, ActionContext{PropertyIndex: 3})
	assert.False(t, gs.Mortgaged[3])
	assert.Equal(t, 67, gs.Cash[0])
}

func TestMortgageAndHouseSellHaveNoTurnRequirement(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.TurnIndicator = 0
	gs.Ownership[1] = 1
	gs.Ownership[3] = 1
	gs.HouseCount[1] = 1
	gs.HouseCount[3] = 1
	gs.Ownership[39] = 1
	e.legal = legalActionsFor(flowRaiseFunds, nil, nil)
	tok := e.players[1].Token

	e.RequestAction(ActionPropertyMortgage, tok, ActionContext{PropertyIndex: 39})
	assert.True(t, gs.Mortgaged[39])
	assert.Equal(t, StartingCash+200, gs.Cash[1])

	e.RequestAction(ActionHouseSell, tok, ActionContext{PropertyIndex: 3})
	assert.Equal(t, 0, gs.HouseCount[3])
	assert.Equal(t, StartingHouses+1, gs.RemainingHouses)
	assert.Equal(t, StartingCash+200+25, gs.Cash[1])
}

func TestIllegalActionRepromptsSameSeat(t *testing.T) {
	calls := 0
	d := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		calls++
		return ActionEndTurn, ActionContext{}
	})
	e := newTestEngine(t, nil, d, passiveDecider())
	e.state.TurnIndicator = 0
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)

	e.RequestAction(ActionMoveThrowDice, e.players[0].Token, ActionContext{})
	assert.Equal(t, 1, calls)
	assert.True(t, e.endTurnFlag)
}

func TestUnknownTokenIgnored(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	before := e.state.Snapshot()

	e.RequestAction(ActionEndTurn, uuid.New(), ActionContext{})
	assert.False(t, e.endTurnFlag)
	assert.True(t, e.state.Equal(before))
}

func TestDepthLimitDropsActions(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	e.legal = legalActionsFor(flowOptionalActions, nil, nil)
	e.depth = MaxDepth

	e.RequestAction(ActionEndTurn, e.players[0].Token, ActionContext{})
	assert.False(t, e.endTurnFlag)
}

func TestDecideTimeoutSubstitutesDefault(t *testing.T) {
	slow := DeciderFunc(func(p Prompt) (Action, ActionContext) {
		time.Sleep(200 * time.Millisecond)
		return ActionAuctionBid, ActionContext{Amount: 500}
	})
	e := newTestEngine(t, nil, slow, passiveDecider())
	e.DecideTimeout = 10 * time.Millisecond

	a, actx := e.decide(flowAuction, 0, "bid", NewActionSet(ActionAuctionBid))
	assert.Equal(t, ActionAuctionBid, a)
	assert.Equal(t, -1, actx.Amount)
}

func TestGameEndsAtTurnCapAndPicksRichest(t *testing.T) {
	e := newTestEngine(t, &fakeDice{rolls: []Roll{{1, 2}}}, passiveDecider(), passiveDecider())
	e.state.Cash[1] = 2000
	e.state.TurnIndicator = 1 // next processTurn closes the round
	e.currentTurn = MaxTurns

	var gotWinner int
	var gotState *GameState
	e.OnGameEnd = func(id uuid.UUID, winner int, st *GameState) {
		gotWinner, gotState = winner, st
	}

	e.Run()

	assert.True(t, e.gameOver)
	assert.Equal(t, 1, gotWinner)
	require.NotNil(t, gotState)
	assert.Equal(t, 2000, gotState.Cash[1])
}

func TestNetWorthValuesHoldings(t *testing.T) {
	e := newTestEngine(t, nil, passiveDecider(), passiveDecider())
	gs := e.state
	gs.Ownership[39] = 0 // Boardwalk, market 400
	gs.Ownership[1] = 0  // Mediterranean, mortgaged: counts at 30
	gs.Mortgaged[1] = true
	gs.HouseCount[39] = 2 // two houses at 200 each

	assert.Equal(t, StartingCash+400+30+400, e.netWorth(0))
	assert.Equal(t, StartingCash, e.netWorth(1))
}
