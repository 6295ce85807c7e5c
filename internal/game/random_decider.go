// internal/game/random_decider.go
package game

// RandomDecider answers prompts with a uniformly random legal action. The
// host substitutes it for seats with no live connection, and it doubles as a
// crude opponent for local debugging.
type RandomDecider struct{}

// Decide implements Decider.
func (RandomDecider) Decide(p Prompt) (Action, ActionContext) {
	candidates := make([]Action, 0, len(p.LegalActions))
	for a := range p.LegalActions {
		// Pitching a trade needs a descriptor this decider cannot invent.
		if a == ActionTradeOffer {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return ActionEndTurn, ActionContext{}
	}

	action := candidates[secureIntn(len(candidates))]
	actx := ActionContext{}

	switch action {
	case ActionAuctionBid:
		if secureIntn(2) == 0 {
			actx.Amount = -1
		} else {
			actx.Amount = StartingBid + secureIntn(91)
		}

	case ActionPropertyBuyOrAuction:
		actx.Flag = secureIntn(2) == 0

	case ActionPropertyMortgage, ActionPropertyUnmortgage, ActionHouseBuild, ActionHouseSell:
		owned := make([]int, 0, 8)
		if p.State != nil {
			for idx, o := range p.State.Ownership {
				if o == p.PlayerIndex {
					owned = append(owned, idx)
				}
			}
		}
		if len(owned) == 0 {
			// Nothing to target; let the legality pipeline re-prompt.
			actx.PropertyIndex = -1
		} else {
			actx.PropertyIndex = owned[secureIntn(len(owned))]
		}
	}

	return action, actx
}
