// internal/game/actions.go
package game

// Action is one player-requestable move. The engine accepts or rejects each
// request against the legal set for the current decision point.
type Action string

const (
	ActionMoveThrowDice        Action = "move_throw_dice"
	ActionTradeOffer           Action = "trade_offer"
	ActionTradeRespond         Action = "trade_respond"
	ActionPropertyBuyOrAuction Action = "property_buy_or_auction"
	ActionPropertyMortgage     Action = "property_mortgage"
	ActionPropertyUnmortgage   Action = "property_unmortgage"
	ActionAuctionBid           Action = "auction_bid"
	ActionHouseBuild           Action = "house_build"
	ActionHouseSell            Action = "house_sell"
	ActionJailThrowDice        Action = "jail_throw_dice"
	ActionJailPayBail          Action = "jail_pay_bail"
	ActionJailUseCard          Action = "jail_use_card"
	ActionEndTurn              Action = "end_turn"
	ActionDeclareBankruptcy    Action = "declare_bankruptcy"
)

// ActionContext carries the action-specific payload of a request. Only the
// fields relevant to the requested action are read.
type ActionContext struct {
	// PropertyIndex targets a board square (mortgage, build, sell).
	PropertyIndex int `json:"propertyIndex"`
	// Amount is an auction bid; -1 concedes.
	Amount int `json:"amount"`
	// Flag is the boolean answer: buy vs. auction, accept vs. reject.
	Flag bool `json:"flag"`
	// Trade is the offer descriptor for trade_offer requests.
	Trade *Trade `json:"trade,omitempty"`
}

// ActionSet is the set of currently legal actions at a decision point.
type ActionSet map[Action]bool

// NewActionSet builds a set from the listed actions.
func NewActionSet(actions ...Action) ActionSet {
	s := make(ActionSet, len(actions))
	for _, a := range actions {
		s[a] = true
	}
	return s
}

// Contains reports membership.
func (s ActionSet) Contains(a Action) bool {
	return s[a]
}

// Clone returns an independent copy.
func (s ActionSet) Clone() ActionSet {
	c := make(ActionSet, len(s))
	for a := range s {
		c[a] = true
	}
	return c
}

// signalFlow identifies where in the turn logic a player is being signaled
// from; each flow maps to a fixed default legal set.
type signalFlow int

const (
	flowTurnStart    signalFlow = iota // pre-move optional actions, no END_TURN escape yet
	flowPropertyDecision                // landed on an unowned priced square
	flowOptionalActions                 // pre/post-move action phases
	flowJailStart                       // jailed turn, all exits available
	flowRaiseFunds                      // insolvency resolution
	flowAuction                         // auction bidding
	flowJailForcedExit                  // jail turn limit reached
	flowForcedMove                      // must roll move dice
	flowTradeResponse                   // answering a pitched trade
	flowCurrent                         // keep the current legal set
)

// legalActionsFor returns the default legal set for a flow, minus any nixed
// actions.
func legalActionsFor(flow signalFlow, current ActionSet, nixed ActionSet) ActionSet {
	var s ActionSet
	switch flow {
	case flowTurnStart:
		s = NewActionSet(ActionMoveThrowDice, ActionTradeOffer, ActionPropertyMortgage,
			ActionPropertyUnmortgage, ActionHouseBuild, ActionHouseSell)
	case flowPropertyDecision:
		s = NewActionSet(ActionPropertyBuyOrAuction)
	case flowOptionalActions:
		s = NewActionSet(ActionTradeOffer, ActionPropertyMortgage, ActionPropertyUnmortgage,
			ActionHouseBuild, ActionHouseSell, ActionEndTurn)
	case flowJailStart:
		s = NewActionSet(ActionJailThrowDice, ActionJailPayBail, ActionJailUseCard)
	case flowRaiseFunds:
		s = NewActionSet(ActionTradeOffer, ActionTradeRespond, ActionPropertyMortgage,
			ActionHouseSell, ActionDeclareBankruptcy)
	case flowAuction:
		s = NewActionSet(ActionAuctionBid)
	case flowJailForcedExit:
		s = NewActionSet(ActionJailPayBail, ActionJailUseCard)
	case flowForcedMove:
		s = NewActionSet(ActionMoveThrowDice)
	case flowTradeResponse:
		s = NewActionSet(ActionTradeRespond)
	default:
		s = current.Clone()
	}
	for a := range nixed {
		delete(s, a)
	}
	return s
}

// defaultActionFor is the substitute applied when a decision provider misses
// its deadline: concede auctions, reject trades, roll forced moves, go
// bankrupt rather than stall an insolvency loop, otherwise end the phase.
func defaultActionFor(flow signalFlow) (Action, ActionContext) {
	switch flow {
	case flowAuction:
		return ActionAuctionBid, ActionContext{Amount: -1}
	case flowTradeResponse:
		return ActionTradeRespond, ActionContext{Flag: false}
	case flowForcedMove, flowTurnStart:
		return ActionMoveThrowDice, ActionContext{}
	case flowJailStart, flowJailForcedExit:
		return ActionJailPayBail, ActionContext{}
	case flowRaiseFunds:
		return ActionDeclareBankruptcy, ActionContext{}
	default:
		return ActionEndTurn, ActionContext{}
	}
}
