// internal/game/engine.go
package game

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parlourgames/monopoly/internal/board"
	"github.com/parlourgames/monopoly/internal/cache"
	"github.com/parlourgames/monopoly/internal/database"
	"github.com/parlourgames/monopoly/internal/models"
)

const (
	// MaxTurns is the global turn cap; the game ends once every seat has had
	// this many turns.
	MaxTurns = 100

	// MaxActions bounds each optional-action phase and each insolvency loop.
	MaxActions = 10

	// MaxDepth bounds re-entrant action processing (an action that prompts a
	// decision whose action prompts another decision, and so on).
	MaxDepth = 20

	// StartingBid is the auction floor; bids below it are treated as
	// concessions.
	StartingBid = 10

	// PromptDefault is the generic decision prompt.
	PromptDefault = "What action would you like to perform?"
)

// OnGameEndFunc receives the final result when a game finishes.
type OnGameEndFunc func(gameID uuid.UUID, winnerSeat int, finalState *GameState)

// Prompt is everything a decision provider gets when the engine needs an
// answer: who is being asked, what they may do, why, and a snapshot of the
// full game state. The snapshot is the provider's to keep; mutating it has no
// effect on the live game.
type Prompt struct {
	PlayerIndex  int
	Message      string
	LegalActions ActionSet
	State        *GameState
}

// Decider answers prompts for one seat. Decide is called synchronously from
// inside the turn loop; it must not call back into the engine.
type Decider interface {
	Decide(p Prompt) (Action, ActionContext)
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(p Prompt) (Action, ActionContext)

// Decide implements Decider.
func (f DeciderFunc) Decide(p Prompt) (Action, ActionContext) {
	return f(p)
}

// Jail exit contexts for freePlayer.
const (
	jailExitRoll = iota
	jailExitBail
	jailExitCard
)

// Engine holds the entire state for a single game instance in memory and
// drives the turn loop. All gameplay is single-threaded: Run owns the
// mutex for the duration of each turn, and every player decision happens
// synchronously inside it via the seat's Decider.
type Engine struct {
	ID uuid.UUID

	Mu sync.Mutex

	state    *GameState
	players  []*models.Player
	deciders []Decider
	dice     Dice

	gameOver    bool
	endTurnFlag bool
	currentTurn int
	depth       int

	legal ActionSet

	// Auction sub-routine state. auctionIndex is -1 when no auction runs.
	auctionIndex int
	auctionBids  []int

	currentTrade *Trade

	actionIndex int

	HouseRules HouseRules

	// DecideTimeout bounds each Decide call. Zero means wait forever.
	DecideTimeout time.Duration

	// OutputFn delivers informational text to a single seat. If nil, output
	// is dropped.
	OutputFn func(seat int, msg string)

	// OnGameEnd is invoked once when the game finishes.
	OnGameEnd OnGameEndFunc
}

// NewEngine builds an empty instance. Add players, then call Start and Run.
func NewEngine() *Engine {
	id, _ := uuid.NewRandom()
	return &Engine{
		ID:           id,
		dice:         NewDice(),
		auctionIndex: -1,
		HouseRules:   DefaultHouseRules(),
	}
}

// SetDice swaps the dice implementation. Useful before Start for
// deterministic play; never call it mid-game.
func (e *Engine) SetDice(d Dice) {
	e.dice = d
}

// AddPlayer seats a player with their decision provider. Seats are assigned
// in join order. Must be called before Start.
func (e *Engine) AddPlayer(p *models.Player, d Decider) {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	if e.state != nil {
		log.Printf("Game %s: player %s cannot join after start", e.ID, p.Name)
		return
	}
	p.Index = len(e.players)
	if p.Token == uuid.Nil {
		p.Token, _ = uuid.NewRandom()
	}
	e.players = append(e.players, p)
	e.deciders = append(e.deciders, d)
	log.Printf("Game %s: player %s seated at index %d", e.ID, p.Name, p.Index)
}

// Start initializes game state for the seated players.
func (e *Engine) Start() {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	if e.state != nil {
		return
	}
	if len(e.players) < 2 {
		log.Printf("Game %s: refusing to start with %d player(s)", e.ID, len(e.players))
		return
	}
	e.state = NewGameState(len(e.players))
	e.legal = legalActionsFor(flowTurnStart, nil, nil)
	if e.DecideTimeout == 0 && e.HouseRules.DecideTimeoutSec > 0 {
		e.DecideTimeout = time.Duration(e.HouseRules.DecideTimeoutSec) * time.Second
	}
	e.persistInitialGameState()
	log.Printf("Game %s: started with %d players", e.ID, len(e.players))
}

// Run drives turns until the game ends. Blocks the calling goroutine; the
// decision providers are invoked synchronously from inside it.
func (e *Engine) Run() {
	for {
		e.Mu.Lock()
		if e.state == nil || e.gameOver {
			e.Mu.Unlock()
			return
		}
		e.depth = 0
		e.processTurn()
		e.Mu.Unlock()
	}
}

// GetGameState returns a deep copy of the current state, or nil before Start.
// Safe to call from other goroutines; blocks while a turn is in progress.
func (e *Engine) GetGameState() *GameState {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	if e.state == nil {
		return nil
	}
	return e.state.Snapshot()
}

// Players returns the seated players.
func (e *Engine) Players() []*models.Player {
	return e.players
}

// processTurn advances to the next seat and runs their full turn: pre-move
// actions, the move (or jail resolution), then post-move actions.
// Assumes lock is held.
func (e *Engine) processTurn() {
	gs := e.state

	// A full round has passed once the last seat finishes.
	if gs.TurnIndicator == len(e.players)-1 {
		e.currentTurn++
	}

	// Reset the doubles streak of the seat whose turn just ended.
	if gs.TurnIndicator != -1 {
		gs.ConsecutiveRollCount[gs.TurnIndicator] = 0
	}

	gs.TurnIndicator = (gs.TurnIndicator + 1) % len(e.players)

	e.legal = legalActionsFor(flowTurnStart, nil, nil)

	if e.isGameOver() {
		e.endGame()
		return
	}

	seat := gs.TurnIndicator
	if gs.Bankrupt[seat] {
		return
	}

	e.logAction(seat, "turn_start", map[string]interface{}{"turn": e.currentTurn})

	// Pre-move actions.
	consecutiveActions := 0
	for !e.endTurnFlag && consecutiveActions < MaxActions {
		prompt := "Would you like to perform actions before moving?" +
			"\nInput end_turn when finished."
		e.signalTurn(flowOptionalActions, seat, prompt)
		consecutiveActions++
	}
	e.endTurnFlag = false
	consecutiveActions = 0

	// The move itself: jail resolution or a forced dice throw.
	if gs.Jailed[seat] {
		if gs.TurnsInJail[seat] < MaxTurnsInJail {
			e.signalTurn(flowJailStart, seat, "YOU ARE IN JAIL!\nIt's your turn! "+PromptDefault)
		} else {
			e.signalTurn(flowJailForcedExit, seat, "YOU ARE IN JAIL!\nIt's your turn! "+PromptDefault+"\nYou must leave Jail this turn.")
		}

		if gs.Jailed[seat] {
			gs.TurnsInJail[seat]++
		} else {
			gs.TurnsInJail[seat] = 0
		}
	} else {
		e.signalTurn(flowForcedMove, seat, "It's your turn! "+PromptDefault)
	}

	// Post-move actions.
	for !e.endTurnFlag && consecutiveActions < MaxActions {
		prompt := "Would you like to perform actions before ending your turn?" +
			"\nInput end_turn when finished."
		e.signalTurn(flowOptionalActions, seat, prompt)
		consecutiveActions++
	}
	e.endTurnFlag = false
}

// isGameOver reports whether the turn cap was reached or at most one solvent
// player remains. Assumes lock is held.
func (e *Engine) isGameOver() bool {
	return e.currentTurn > MaxTurns || e.solventCount() <= 1
}

func (e *Engine) solventCount() int {
	n := 0
	for _, b := range e.state.Bankrupt {
		if !b {
			n++
		}
	}
	return n
}

// netWorth values a seat as cash plus property holdings: market price for
// unmortgaged squares (mortgage value for mortgaged ones) and build cost for
// houses. Used only to pick a winner at the turn cap.
func (e *Engine) netWorth(seat int) int {
	gs := e.state
	worth := gs.Cash[seat]
	for i := range board.Squares {
		if gs.Ownership[i] != seat {
			continue
		}
		sq := board.SquareAt(i)
		if gs.Mortgaged[i] {
			worth += sq.MortgageValue()
		} else {
			worth += sq.MarketPrice
		}
		worth += gs.HouseCount[i] * sq.HouseCost
	}
	return worth
}

// endGame finalizes the game: picks the winner (richest solvent seat),
// persists the result, and fires the end callback. Assumes lock is held.
func (e *Engine) endGame() {
	e.gameOver = true

	winner := -1
	best := -1
	for seat := range e.players {
		if e.state.Bankrupt[seat] {
			continue
		}
		if w := e.netWorth(seat); w > best {
			best = w
			winner = seat
		}
	}

	if winner >= 0 {
		log.Printf("Game %s: over after %d turn(s); %s wins with net worth %d",
			e.ID, e.currentTurn, e.players[winner].Name, best)
	} else {
		log.Printf("Game %s: over after %d turn(s); no solvent players remain", e.ID, e.currentTurn)
	}

	e.logAction(-1, "game_end", map[string]interface{}{"winnerSeat": winner, "turns": e.currentTurn})
	e.persistFinalGameState(winner)

	if e.OnGameEnd != nil {
		e.OnGameEnd(e.ID, winner, e.state.Snapshot())
	}
}

// signalTurn asks a seat for a decision and feeds the answer back through
// RequestAction. The legal set is swapped to the flow's set for the duration
// of the exchange and restored afterwards. Assumes lock is held.
func (e *Engine) signalTurn(flow signalFlow, seat int, prompt string) {
	e.signalTurnNixed(flow, nil, seat, prompt)
}

func (e *Engine) signalTurnNixed(flow signalFlow, nixed ActionSet, seat int, prompt string) {
	legal := legalActionsFor(flow, e.legal, nixed)
	saved := e.legal
	e.legal = legal

	action, actx := e.decide(flow, seat, prompt, legal)
	e.RequestAction(action, e.players[seat].Token, actx)

	e.legal = saved
}

// decide runs the seat's Decider, substituting the flow default when the
// provider is missing or exceeds DecideTimeout. Assumes lock is held.
func (e *Engine) decide(flow signalFlow, seat int, msg string, legal ActionSet) (Action, ActionContext) {
	d := e.deciders[seat]
	if d == nil {
		return defaultActionFor(flow)
	}

	p := Prompt{
		PlayerIndex:  seat,
		Message:      msg,
		LegalActions: legal.Clone(),
		State:        e.state.Snapshot(),
	}

	if e.DecideTimeout <= 0 {
		return d.Decide(p)
	}

	type answer struct {
		action Action
		actx   ActionContext
	}
	ch := make(chan answer, 1)
	go func() {
		a, actx := d.Decide(p)
		ch <- answer{a, actx}
	}()

	select {
	case ans := <-ch:
		return ans.action, ans.actx
	case <-time.After(e.DecideTimeout):
		a, actx := defaultActionFor(flow)
		log.Printf("Game %s: seat %d timed out; substituting %s", e.ID, seat, a)
		return a, actx
	}
}

// RequestAction performs one requested action after validating depth,
// authentication, solvency, legality, and the action's own preconditions.
// NOTE: Lock is assumed to be HELD by the caller; the turn loop calls this
// re-entrantly through signalTurn.
func (e *Engine) RequestAction(action Action, token uuid.UUID, actx ActionContext) {
	if e.depth == MaxDepth {
		return
	}
	e.depth++

	gs := e.state

	seat := e.seatOf(token)
	if seat == -1 {
		log.Printf("Game %s: action %s with unknown token. Ignoring.", e.ID, action)
		return
	}

	// Bankrupt seats are ignored silently.
	if gs.Bankrupt[seat] {
		return
	}

	if !e.legal.Contains(action) {
		log.Printf("Game %s: seat %d requested illegal action %s. Re-prompting.", e.ID, seat, action)
		e.signalTurn(flowCurrent, seat, "Action not allowed, try again.")
		return
	}

	isPlayerTurn := gs.TurnIndicator == seat

	e.logAction(seat, string(action), map[string]interface{}{
		"propertyIndex": actx.PropertyIndex,
		"amount":        actx.Amount,
		"flag":          actx.Flag,
	})

	switch action {

	case ActionMoveThrowDice:
		if !isPlayerTurn || gs.Jailed[seat] {
			break
		}

		roll := e.dice.Roll()
		gs.ConsecutiveRollCount[seat]++

		allowAdditionalMove := false
		if roll.IsDouble() {
			if gs.ConsecutiveRollCount[seat] >= 3 {
				// Three doubles in a row; straight to jail, no move.
				e.output(seat, "Three doubles in a row! Go to Jail.")
				e.jailPlayer(seat)
				break
			}
			allowAdditionalMove = true
		}

		e.moveToken(seat, roll.Sum(), 1.0)

		if allowAdditionalMove && !gs.Jailed[seat] && !gs.Bankrupt[seat] {
			e.signalTurn(flowForcedMove, seat,
				"You rolled doubles!\n"+PromptDefault)
		}

	case ActionTradeOffer:
		if !isPlayerTurn {
			break
		}
		t := actx.Trade
		if t == nil || t.PitcherIndex != seat ||
			t.CatcherIndex < 0 || t.CatcherIndex >= gs.NumPlayers ||
			t.CatcherIndex == seat || gs.Bankrupt[t.CatcherIndex] {
			log.Printf("Game %s: seat %d pitched a malformed trade. Ignoring.", e.ID, seat)
			break
		}

		// Clamp both sides to what each party actually holds.
		t.Counter(true, clampSide(t.Pitcher, seat, gs), e.HouseRules.RecordTradeHistory)
		t.Counter(false, clampSide(t.Catcher, t.CatcherIndex, gs), e.HouseRules.RecordTradeHistory)

		e.currentTrade = t
		e.signalTurn(flowTradeResponse, t.CatcherIndex,
			"You've received a trade from "+e.players[seat].Name+"! Details below:\n"+t.String())
		e.currentTrade = nil

	case ActionTradeRespond:
		t := e.currentTrade
		if t == nil || t.CatcherIndex != seat {
			break
		}
		if actx.Flag {
			t.Status = TradeAccepted
			e.acceptTrade(t)
		} else {
			t.Status = TradeRejected
		}

	case ActionPropertyBuyOrAuction:
		propertyIndex := gs.PlayerLocations[seat]
		if !isPlayerTurn || gs.Ownership[propertyIndex] != -1 {
			break
		}
		sq := board.SquareAt(propertyIndex)
		if actx.Flag && gs.Cash[seat] >= sq.MarketPrice {
			e.buyProperty(seat, propertyIndex, sq.MarketPrice)
		} else {
			e.auctionProperty(seat, propertyIndex)
		}

	case ActionPropertyMortgage:
		propertyIndex := actx.PropertyIndex
		if propertyIndex < 0 || propertyIndex >= board.Size {
			break
		}
		// Mortgaging is allowed off-turn, notably while raising funds for a
		// debt incurred on someone else's turn.
		if gs.Ownership[propertyIndex] != seat ||
			gs.Mortgaged[propertyIndex] ||
			gs.HouseCount[propertyIndex] > 0 {
			break
		}
		e.mortgageProperty(propertyIndex)

	case ActionPropertyUnmortgage:
		propertyIndex := actx.PropertyIndex
		if propertyIndex < 0 || propertyIndex >= board.Size {
			break
		}
		if gs.Ownership[propertyIndex] != seat ||
			!gs.Mortgaged[propertyIndex] ||
			gs.Cash[seat] < board.SquareAt(propertyIndex).UnmortgageCost() {
			break
		}
		e.unmortgageProperty(propertyIndex)

	case ActionAuctionBid:
		if e.auctionIndex == -1 || gs.Ownership[e.auctionIndex] != -1 {
			break
		}
		bid := actx.Amount
		if bid > gs.Cash[seat] || gs.Bankrupt[seat] {
			bid = -1
		}
		e.auctionBids[seat] = bid

	case ActionHouseBuild:
		propertyIndex := actx.PropertyIndex
		if propertyIndex < 0 || propertyIndex >= board.Size {
			break
		}
		sq := board.SquareAt(propertyIndex)
		isBuyingHotel := gs.HouseCount[propertyIndex] == 4

		if !isPlayerTurn ||
			gs.Ownership[propertyIndex] != seat ||
			sq.HouseCost == 0 || // railroads, utilities, functional squares
			gs.HouseCount[propertyIndex] >= 5 ||
			(gs.RemainingHouses <= 0 && !isBuyingHotel) ||
			(gs.RemainingHotels <= 0 && isBuyingHotel) ||
			gs.Cash[seat] < sq.HouseCost ||
			gs.Mortgaged[propertyIndex] {
			break
		}

		// Must own the full set and build evenly across it.
		ok := true
		for _, setIdx := range board.IndexesOfGroup(sq.Group) {
			if gs.Ownership[setIdx] != seat || gs.HouseCount[propertyIndex] > gs.HouseCount[setIdx] {
				ok = false
				break
			}
		}
		if !ok {
			break
		}

		e.buyHouse(propertyIndex, isBuyingHotel)

	case ActionHouseSell:
		propertyIndex := actx.PropertyIndex
		if propertyIndex < 0 || propertyIndex >= board.Size {
			break
		}
		sq := board.SquareAt(propertyIndex)
		isSellingHotel := gs.HouseCount[propertyIndex] == 5

		// Selling, like mortgaging, has no turn requirement.
		if gs.Ownership[propertyIndex] != seat ||
			gs.HouseCount[propertyIndex] <= 0 ||
			gs.Mortgaged[propertyIndex] ||
			(gs.RemainingHouses < 4 && isSellingHotel) {
			break
		}

		// Must sell evenly across the set.
		ok := true
		for _, setIdx := range board.IndexesOfGroup(sq.Group) {
			if gs.HouseCount[propertyIndex] < gs.HouseCount[setIdx] {
				ok = false
				break
			}
		}
		if !ok {
			break
		}

		e.sellHouse(propertyIndex, isSellingHotel)

	case ActionJailThrowDice:
		if !isPlayerTurn || !gs.Jailed[seat] {
			break
		}

		roll := e.dice.Roll()
		gs.ConsecutiveRollCount[seat]++

		if roll.IsDouble() {
			gs.ConsecutiveRollCount[seat] = 0
			e.freePlayer(seat, jailExitRoll)
			e.moveToken(seat, roll.Sum(), 1.0)
		} else if gs.ConsecutiveRollCount[seat] >= 3 {
			gs.ConsecutiveRollCount[seat] = 0
			// Card first if they hold one, bail otherwise.
			if gs.GTFOJailCards[seat] > 0 {
				e.freePlayer(seat, jailExitCard)
			} else {
				e.freePlayer(seat, jailExitBail)
			}
		}

	case ActionJailPayBail:
		if !isPlayerTurn || !gs.Jailed[seat] {
			break
		}
		// Voluntary bail needs cash on hand. The forced exit at the jail
		// turn limit charges regardless, which can cascade into the
		// insolvency loop.
		if gs.TurnsInJail[seat] < MaxTurnsInJail && gs.Cash[seat] < board.BailAmount {
			break
		}
		e.freePlayer(seat, jailExitBail)
		e.signalTurn(flowForcedMove, seat, PromptDefault)

	case ActionJailUseCard:
		if !isPlayerTurn || !gs.Jailed[seat] || gs.GTFOJailCards[seat] <= 0 {
			break
		}
		e.freePlayer(seat, jailExitCard)
		e.signalTurn(flowForcedMove, seat, PromptDefault)

	case ActionDeclareBankruptcy:
		if !isPlayerTurn {
			break
		}
		e.bankruptPlayer(seat)
		e.endTurnFlag = true

	case ActionEndTurn:
		e.endTurnFlag = true

	default:
		log.Printf("Game %s: unknown action %s from seat %d. Ignoring.", e.ID, action, seat)
	}
}

// moveToken moves a seat forwards (positive spaces) or backwards (negative).
// Must not be called for jailed seats. Assumes lock is held.
func (e *Engine) moveToken(seat, spaces int, rentMultiplier float64) {
	if spaces >= 0 {
		e.moveTokenForwards(seat, spaces, rentMultiplier)
	} else {
		e.moveTokenBackwards(seat, -spaces, rentMultiplier)
	}
}

// moveTokenForwards credits GO when the token passes or lands on it. Only
// forward movement earns the GO credit.
func (e *Engine) moveTokenForwards(seat, spaces int, rentMultiplier float64) {
	gs := e.state
	current := gs.PlayerLocations[seat]
	landing := (current + spaces) % board.Size
	gs.PlayerLocations[seat] = landing
	if landing < current || spaces >= board.Size {
		e.incrementCash(seat, 200)
	}
	e.handleMoveLanding(seat, landing, rentMultiplier)
}

func (e *Engine) moveTokenBackwards(seat, spaces int, rentMultiplier float64) {
	gs := e.state
	current := gs.PlayerLocations[seat]
	landing := (current - spaces + board.Size) % board.Size
	gs.PlayerLocations[seat] = landing
	e.handleMoveLanding(seat, landing, rentMultiplier)
}

// handleMoveLanding resolves the consequences of arriving on a square.
// Assumes lock is held.
func (e *Engine) handleMoveLanding(seat, landing int, rentMultiplier float64) {
	gs := e.state
	sq := board.SquareAt(landing)

	if sq.FunctionalOnly() {
		switch sq.Name {
		case "GO":
			// Credit already applied during the move.
		case "Chance":
			e.performCardAction(seat, gs.Chance.Draw())
		case "Community Chest":
			e.performCardAction(seat, gs.CommunityChest.Draw())
		case "Income Tax":
			e.incrementCash(seat, -200)
		case "Luxury Tax":
			e.incrementCash(seat, -75)
		case "Jail":
			e.output(seat, "Just visiting!")
		case "Go To Jail":
			e.jailPlayer(seat)
		case "Free Parking":
			// Do nothing. Too bad!
		}
		return
	}

	owner := gs.Ownership[landing]
	if owner == -1 {
		e.signalTurn(flowPropertyDecision, seat, "Buy / auction "+sq.Name)
	} else if owner != seat {
		e.payRent(landing, seat, owner, rentMultiplier)
	}
}

// performCardAction applies the drawn card's effect. Assumes lock is held.
func (e *Engine) performCardAction(seat int, card Card) {
	gs := e.state
	e.output(seat, card.FullName()+"\n"+card.Description())

	// distanceTo computes the forward distance from the seat's position.
	distanceTo := func(target int) int {
		return (target - gs.PlayerLocations[seat] + board.Size) % board.Size
	}

	switch card {

	case CardAdvanceToBoardwalk:
		e.moveToken(seat, distanceTo(board.IndexOf("Boardwalk")), 1.0)
	case CardAdvanceToGo, CardAdvanceToGo2:
		e.moveToken(seat, distanceTo(board.IndexOf("GO")), 1.0)
	case CardAdvanceToIllinois:
		e.moveToken(seat, distanceTo(board.IndexOf("Illinois Avenue")), 1.0)
	case CardAdvanceToStCharles:
		e.moveToken(seat, distanceTo(board.IndexOf("St. Charles Place")), 1.0)
	case CardAdvanceToReadingRailroad:
		e.moveToken(seat, distanceTo(board.IndexOf("Reading Railroad")), 1.0)

	case CardAdvanceToNearestRailroad, CardAdvanceToNearestRailroad2:
		// Double rent while moved by this card.
		railroadIndex := board.NextOfGroup(gs.PlayerLocations[seat], board.Railroad)
		e.moveToken(seat, distanceTo(railroadIndex), 2.0)

	case CardAdvanceToNearestUtility:
		utilityIndex := board.NextOfGroup((gs.PlayerLocations[seat]+1)%board.Size, board.Utility)
		otherUtilityIndex := board.NextOfGroup((utilityIndex+1)%board.Size, board.Utility)

		// The card charges 10x the roll on an owned utility. A shared owner
		// already pays 10x, so the 2.5x (10/4) bump only applies when the
		// utilities have different owners.
		multiplier := 2.5
		if gs.Ownership[utilityIndex] == gs.Ownership[otherUtilityIndex] {
			multiplier = 1.0
		}
		e.moveToken(seat, distanceTo(utilityIndex), multiplier)

	case CardRetreat3Spaces:
		e.moveToken(seat, -3, 1.0)

	case CardGoToJail, CardGoToJail2:
		e.jailPlayer(seat)

	case CardGetOutOfJail, CardGetOutOfJail2:
		if gs.GTFOJailCards[seat] < MaxGTFOJailCards {
			gs.GTFOJailCards[seat]++
		}

	case CardGeneralRepairs:
		e.incrementCash(seat, -e.repairsCost(seat, 25, 100))
	case CardStreetRepairs:
		e.incrementCash(seat, -e.repairsCost(seat, 40, 115))

	case CardPay50EachPlayer:
		// Charge the full sum first, then distribute.
		others := 0
		for i := range e.players {
			if i != seat && !gs.Bankrupt[i] {
				others++
			}
		}
		e.incrementCash(seat, -50*others)
		for i := range e.players {
			if i == seat || gs.Bankrupt[i] {
				continue
			}
			e.incrementCash(i, 50)
		}

	case CardCollect50EachPlayer:
		// Collect from whoever can actually pay.
		payers := 0
		for i := range e.players {
			if i == seat || gs.Bankrupt[i] {
				continue
			}
			if e.incrementCash(i, -50) {
				payers++
			}
		}
		e.incrementCash(seat, 50*payers)

	case CardCollect10:
		e.incrementCash(seat, 10)
	case CardCollect20:
		e.incrementCash(seat, 20)
	case CardCollect25:
		e.incrementCash(seat, 25)
	case CardCollect50, CardCollect50Stock:
		e.incrementCash(seat, 50)
	case CardCollect100, CardCollect100Insurance, CardCollect100Inherit:
		e.incrementCash(seat, 100)
	case CardCollect150:
		e.incrementCash(seat, 150)
	case CardCollect200:
		e.incrementCash(seat, 200)

	case CardPay15:
		e.incrementCash(seat, -15)
	case CardPay50, CardPay50School:
		e.incrementCash(seat, -50)
	case CardPay100:
		e.incrementCash(seat, -100)
	}
}

// acceptTrade executes a finalized trade, both sides having been clamped at
// offer time. Assumes lock is held.
func (e *Engine) acceptTrade(t *Trade) {
	gs := e.state
	pitcher, catcher := t.PitcherIndex, t.CatcherIndex

	e.incrementCash(pitcher, t.Catcher.Cash)
	e.incrementCash(catcher, -t.Catcher.Cash)
	e.incrementCash(catcher, t.Pitcher.Cash)
	e.incrementCash(pitcher, -t.Pitcher.Cash)

	// Nobody holds more than MaxGTFOJailCards; cards that would push the
	// recipient over the cap stay with the giver.
	pitcherGives := t.Pitcher.GTFOJailCards
	if room := MaxGTFOJailCards - (gs.GTFOJailCards[catcher] - t.Catcher.GTFOJailCards); pitcherGives > room {
		pitcherGives = room
	}
	catcherGives := t.Catcher.GTFOJailCards
	if room := MaxGTFOJailCards - (gs.GTFOJailCards[pitcher] - pitcherGives); catcherGives > room {
		catcherGives = room
	}
	gs.GTFOJailCards[pitcher] += catcherGives - pitcherGives
	gs.GTFOJailCards[catcher] += pitcherGives - catcherGives

	for _, propIndex := range t.Pitcher.PropertyIndexes {
		gs.Ownership[propIndex] = catcher
	}
	for _, propIndex := range t.Catcher.PropertyIndexes {
		gs.Ownership[propIndex] = pitcher
	}

	log.Printf("Game %s: trade accepted between seats %d and %d", e.ID, pitcher, catcher)
}

// buyProperty transfers the square at a given price. Preconditions are the
// caller's responsibility. Assumes lock is held.
func (e *Engine) buyProperty(seat, propertyIndex, price int) {
	e.incrementCash(seat, -price)
	e.state.Ownership[propertyIndex] = seat
	log.Printf("Game %s: seat %d bought %s for %d", e.ID, seat, board.SquareAt(propertyIndex).Name, price)
}

// auctionProperty runs the auction sub-routine: round-robin bidding starting
// with the seat who declined to buy, -1 to concede, until one bidder remains
// or a full round passes without the top bid rising. If no valid bid at or
// above the floor survives, the square stays unowned. Assumes lock is held.
func (e *Engine) auctionProperty(starter, propertyIndex int) {
	gs := e.state
	sq := board.SquareAt(propertyIndex)

	e.auctionIndex = propertyIndex
	e.auctionBids = make([]int, gs.NumPlayers)
	for i := range e.auctionBids {
		// Bankrupt seats never enter the bidding.
		if gs.Bankrupt[i] {
			e.auctionBids[i] = -1
		} else {
			e.auctionBids[i] = StartingBid
		}
	}

	bidding := true
	for bidding {
		roundStartMax := maxBid(e.auctionBids)

		for i := 0; i < gs.NumPlayers && bidding; i++ {
			seat := (starter + i) % gs.NumPlayers

			if e.auctionBids[seat] < 0 {
				continue
			}

			remaining := 0
			for _, bid := range e.auctionBids {
				if bid >= 0 {
					remaining++
				}
			}
			if remaining < 2 {
				bidding = false
				break
			}

			highest := maxBid(e.auctionBids)
			prompt := "What is your bid on " + sq.Name + "?" +
				"\nBid -1 to concede." +
				"\nCurrent maximum bid: " + strconv.Itoa(highest)
			e.signalTurn(flowAuction, seat, prompt)

			// Bids under the floor or under the running maximum are
			// concessions.
			if e.auctionBids[seat] < StartingBid || e.auctionBids[seat] < highest {
				e.auctionBids[seat] = -1
			}
		}

		// A full round without the top bid rising means the remaining
		// bidders are deadlocked; stop rather than loop forever.
		if bidding && maxBid(e.auctionBids) == roundStartMax {
			bidding = false
		}
	}

	price := -1
	winner := -1
	for seat, bid := range e.auctionBids {
		if bid > -1 && bid > price {
			price = bid
			winner = seat
		}
	}

	if winner >= 0 && price >= StartingBid && !gs.Bankrupt[winner] {
		e.buyProperty(winner, propertyIndex, price)
	} else {
		log.Printf("Game %s: no valid bids on %s; it stays unowned", e.ID, sq.Name)
	}

	e.auctionBids = nil
	e.auctionIndex = -1
}

func maxBid(bids []int) int {
	m := bids[0]
	for _, b := range bids[1:] {
		if b > m {
			m = b
		}
	}
	return m
}

// mortgageProperty credits the owner with the mortgage value.
// Pre-req: passed all checks. Assumes lock is held.
func (e *Engine) mortgageProperty(propertyIndex int) {
	gs := e.state
	seat := gs.Ownership[propertyIndex]
	gs.Mortgaged[propertyIndex] = true
	e.incrementCash(seat, board.SquareAt(propertyIndex).MortgageValue())
}

// unmortgageProperty debits the owner the mortgage value plus interest.
// Pre-req: passed all checks. Assumes lock is held.
func (e *Engine) unmortgageProperty(propertyIndex int) {
	gs := e.state
	seat := gs.Ownership[propertyIndex]
	gs.Mortgaged[propertyIndex] = false
	e.incrementCash(seat, -board.SquareAt(propertyIndex).UnmortgageCost())
}

// buyHouse adds a building. A hotel purchase returns the square's four houses
// to the bank and takes one hotel, atomically. Pre-req: passed all checks.
// Assumes lock is held.
func (e *Engine) buyHouse(propertyIndex int, hotel bool) {
	gs := e.state
	seat := gs.Ownership[propertyIndex]

	gs.HouseCount[propertyIndex]++
	if hotel {
		gs.RemainingHouses += 4
		gs.RemainingHotels--
	} else {
		gs.RemainingHouses--
	}

	e.incrementCash(seat, -board.SquareAt(propertyIndex).HouseCost)
}

// sellHouse removes a building at the sell fraction of build cost. Selling a
// hotel takes four houses back out of the bank pool. Pre-req: passed all
// checks. Assumes lock is held.
func (e *Engine) sellHouse(propertyIndex int, hotel bool) {
	gs := e.state
	seat := gs.Ownership[propertyIndex]

	gs.HouseCount[propertyIndex]--
	if hotel {
		gs.RemainingHouses -= 4
		gs.RemainingHotels++
	} else {
		gs.RemainingHouses++
	}

	sq := board.SquareAt(propertyIndex)
	e.incrementCash(seat, int(float64(sq.HouseCost)*sq.HouseSellFraction))
}

// cannotPay runs the insolvency loop: the seat gets up to MaxActions chances
// to raise the owed amount by mortgaging, selling, or trading. If they manage
// it, the charge is applied and the dispute is resolved; otherwise they are
// forced into bankruptcy. Assumes lock is held.
func (e *Engine) cannotPay(seat, amount int) bool {
	gs := e.state

	for i := MaxActions; i > 0; i-- {
		prompt := "You need to make up the funds to pay $" + strconv.Itoa(amount) + "." +
			"\nYou have " + strconv.Itoa(i) + " action(s) remaining."
		e.signalTurn(flowRaiseFunds, seat, prompt)
		if gs.Cash[seat] >= amount {
			gs.Cash[seat] -= amount
			return true
		}
		if gs.Bankrupt[seat] {
			break
		}
	}

	if !gs.Bankrupt[seat] {
		e.bankruptPlayer(seat)
	}
	return false
}

// payRent transfers rent from the lander to the owner. The last dice roll is
// referenced (not re-thrown) so card teleports onto utilities charge against
// the throw that started the move. Assumes lock is held.
func (e *Engine) payRent(propertyIndex, seat, owner int, rentMultiplier float64) {
	rent := int(float64(e.state.RentFor(propertyIndex, e.dice.LastRoll().Sum())) * rentMultiplier)
	e.incrementCash(seat, -rent)
	e.incrementCash(owner, rent)
}

// incrementCash adjusts a seat's cash. Negative amounts route through
// decrementCash, which may trigger the insolvency loop; the return value is
// false only if the seat went bankrupt instead of paying.
func (e *Engine) incrementCash(seat, amount int) bool {
	if amount < 0 {
		return e.decrementCash(seat, -amount)
	}
	e.state.Cash[seat] += amount
	return true
}

func (e *Engine) decrementCash(seat, amount int) bool {
	if amount > e.state.Cash[seat] {
		return e.cannotPay(seat, amount)
	}
	e.state.Cash[seat] -= amount
	return true
}

// jailPlayer moves the seat to the Jail square and sets the jailed flag.
// Assumes lock is held.
func (e *Engine) jailPlayer(seat int) {
	gs := e.state
	gs.Jailed[seat] = true
	gs.PlayerLocations[seat] = board.IndexOf("Jail")
	log.Printf("Game %s: seat %d jailed", e.ID, seat)
}

// freePlayer releases a seat from jail. Bail exits charge BailAmount (which
// can itself cascade into the insolvency loop when forced); card exits spend
// a held card. Assumes lock is held.
func (e *Engine) freePlayer(seat, context int) {
	switch context {
	case jailExitBail:
		e.incrementCash(seat, -board.BailAmount)
	case jailExitCard:
		e.state.GTFOJailCards[seat]--
	}
	e.state.Jailed[seat] = false
}

// bankruptPlayer marks the seat bankrupt and reverts their holdings to the
// bank: squares become unowned and unmortgaged, and buildings return to the
// supply pools. Bankrupt seats are skipped for the rest of the game and
// cannot win. Assumes lock is held.
func (e *Engine) bankruptPlayer(seat int) {
	gs := e.state
	gs.Bankrupt[seat] = true
	for i := range board.Squares {
		if gs.Ownership[i] != seat {
			continue
		}
		gs.Ownership[i] = -1
		gs.Mortgaged[i] = false
		if gs.HouseCount[i] == 5 {
			gs.RemainingHotels++
		} else {
			gs.RemainingHouses += gs.HouseCount[i]
		}
		gs.HouseCount[i] = 0
	}
	e.output(seat, e.players[seat].Name+" bankrupted!!")
	log.Printf("Game %s: seat %d (%s) bankrupted", e.ID, seat, e.players[seat].Name)
	e.logAction(seat, "bankruptcy", nil)
}

// repairsCost totals the repairs assessment over the seat's buildings:
// hotelCost per hotel, houseCost per house otherwise.
func (e *Engine) repairsCost(seat, houseCost, hotelCost int) int {
	gs := e.state
	owed := 0
	for i := range gs.HouseCount {
		if gs.HouseCount[i] == 0 || gs.Ownership[i] != seat {
			continue
		}
		if gs.HouseCount[i] == 5 {
			owed += hotelCost
		} else {
			owed += houseCost * gs.HouseCount[i]
		}
	}
	return owed
}

func (e *Engine) seatOf(token uuid.UUID) int {
	for i, p := range e.players {
		if p.Token == token {
			return i
		}
	}
	return -1
}

func (e *Engine) output(seat int, msg string) {
	if e.OutputFn != nil {
		e.OutputFn(seat, msg)
	}
}

// logAction sends the action details to the historian service via Redis.
// Assumes lock is held by caller.
func (e *Engine) logAction(seat int, actionType string, payload map[string]interface{}) {
	e.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        e.ID,
		ActionIndex:   e.actionIndex,
		ActorSeat:     seat,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cache.Rdb == nil {
			return
		}
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("Error publishing game action %d to Redis for game %s: %v", rec.ActionIndex, e.ID, err)
		}
	}(record)
}

// persistInitialGameState saves the opening position so a replay can
// reconstruct the game from its action log. Assumes lock is held.
func (e *Engine) persistInitialGameState() {
	names := make([]string, len(e.players))
	for i, p := range e.players {
		names[i] = p.Name
	}
	snap := map[string]interface{}{
		"players": names,
		"state":   e.state.Snapshot(),
	}
	go database.UpsertInitialGameState(e.ID, snap)
}

// persistFinalGameState saves the outcome. Assumes lock is held.
func (e *Engine) persistFinalGameState(winner int) {
	snap := map[string]interface{}{
		"winnerSeat": winner,
		"turns":      e.currentTurn,
		"state":      e.state.Snapshot(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StoreFinalGameStateInDB(ctx, e.ID, snap); err != nil {
			log.Printf("Error storing final game state for game %s: %v", e.ID, err)
		}
	}()
}
