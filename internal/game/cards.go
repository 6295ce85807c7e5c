// internal/game/cards.go
package game

// Card identifies one Chance or Community Chest card. The physical decks
// contain duplicate effects (two "nearest railroad" cards, four "collect
// $100"s); each duplicate is a distinct identity so deck proportions stay
// correct, but duplicates dispatch to the same effect.
type Card string

// Chance cards.
const (
	CardAdvanceToBoardwalk       Card = "advance_to_boardwalk"
	CardAdvanceToGo              Card = "advance_to_go"
	CardAdvanceToIllinois        Card = "advance_to_illinois"
	CardAdvanceToStCharles       Card = "advance_to_st_charles"
	CardAdvanceToNearestRailroad Card = "advance_to_nearest_railroad"
	CardAdvanceToNearestRailroad2 Card = "advance_to_nearest_railroad_2"
	CardAdvanceToNearestUtility  Card = "advance_to_nearest_utility"
	CardCollect50                Card = "collect_50"
	CardGetOutOfJail             Card = "get_out_of_jail"
	CardRetreat3Spaces           Card = "retreat_3_spaces"
	CardGoToJail                 Card = "go_to_jail"
	CardGeneralRepairs           Card = "general_repairs"
	CardPay15                    Card = "pay_15"
	CardAdvanceToReadingRailroad Card = "advance_to_reading_railroad"
	CardPay50EachPlayer          Card = "pay_50_each_player"
	CardCollect150               Card = "collect_150"
)

// Community Chest cards.
const (
	CardAdvanceToGo2        Card = "advance_to_go_2"
	CardCollect200          Card = "collect_200"
	CardPay50               Card = "pay_50"
	CardCollect50Stock      Card = "collect_50_stock"
	CardGetOutOfJail2       Card = "get_out_of_jail_2"
	CardGoToJail2           Card = "go_to_jail_2"
	CardCollect100          Card = "collect_100"
	CardCollect20           Card = "collect_20"
	CardCollect50EachPlayer Card = "collect_50_each_player"
	CardCollect100Insurance Card = "collect_100_insurance"
	CardPay100              Card = "pay_100"
	CardPay50School         Card = "pay_50_school"
	CardCollect25           Card = "collect_25"
	CardStreetRepairs       Card = "street_repairs"
	CardCollect10           Card = "collect_10"
	CardCollect100Inherit   Card = "collect_100_inherit"
)

type cardText struct {
	name        string
	description string
}

var cardTexts = map[Card]cardText{
	CardAdvanceToBoardwalk:        {"Advance to Boardwalk", ""},
	CardAdvanceToGo:               {"Advance to GO", "Collect $200."},
	CardAdvanceToIllinois:         {"Advance to Illinois Avenue", "If you pass GO, collect $200."},
	CardAdvanceToStCharles:        {"Advance to St. Charles Place", "If you pass GO, collect $200."},
	CardAdvanceToNearestRailroad:  {"Advance to the nearest Railroad", "If unowned, you may buy it from the Bank. If owned, pay owner twice the rent to which they are otherwise entitled."},
	CardAdvanceToNearestRailroad2: {"Advance to the nearest Railroad", "If unowned, you may buy it from the Bank. If owned, pay owner twice the rent to which they are otherwise entitled."},
	CardAdvanceToNearestUtility:   {"Advance to the nearest Utility", "If unowned, you may buy it from the Bank. If owned, pay owner 10x the last amount thrown."},
	CardCollect50:                 {"Bank pays you a dividend of $50", ""},
	CardGetOutOfJail:              {"Get Out of Jail Free", "This card may be kept until needed, or sold."},
	CardRetreat3Spaces:            {"Go back 3 spaces", ""},
	CardGoToJail:                  {"Go to Jail", "Do not pass GO, do not collect $200."},
	CardGeneralRepairs:            {"Make general repairs on all your property", "For each house, pay $25. For each hotel, pay $100."},
	CardPay15:                     {"Pay Poor Tax of $15", ""},
	CardAdvanceToReadingRailroad:  {"Advance to Reading Railroad", "If you pass GO, collect $200."},
	CardPay50EachPlayer:           {"You have been elected Chairman of the Board", "Pay each player $50."},
	CardCollect150:                {"Your building and loan matures", "Collect $150."},

	CardAdvanceToGo2:        {"Advance to GO", "Collect $200."},
	CardCollect200:          {"Bank error in your favor", "Collect $200."},
	CardPay50:               {"Doctor's fee", "Pay $50."},
	CardCollect50Stock:      {"From sale of stock you get $50", ""},
	CardGetOutOfJail2:       {"Get Out of Jail Free", "This card may be kept until needed, or sold."},
	CardGoToJail2:           {"Go to Jail", "Do not pass GO, do not collect $200."},
	CardCollect100:          {"Holiday fund matures", "Receive $100."},
	CardCollect20:           {"Income tax refund", "Collect $20."},
	CardCollect50EachPlayer: {"It is your birthday", "Collect $50 from every player."},
	CardCollect100Insurance: {"Life insurance matures", "Collect $100."},
	CardPay100:              {"Pay hospital fees of $100", ""},
	CardPay50School:         {"Pay school fees of $50", ""},
	CardCollect25:           {"Receive $25 consultancy fee", ""},
	CardStreetRepairs:       {"You are assessed for street repairs", "$40 per house, $115 per hotel."},
	CardCollect10:           {"Second prize in a beauty contest", "Collect $10."},
	CardCollect100Inherit:   {"You inherit $100", ""},
}

// FullName returns the card's display name.
func (c Card) FullName() string {
	return cardTexts[c].name
}

// Description returns the card's flavor/effect text, possibly empty.
func (c Card) Description() string {
	return cardTexts[c].description
}

// ChanceCards returns a fresh copy of the Chance deck contents.
func ChanceCards() []Card {
	return []Card{
		CardAdvanceToBoardwalk,
		CardAdvanceToGo,
		CardAdvanceToIllinois,
		CardAdvanceToStCharles,
		CardAdvanceToNearestRailroad,
		CardAdvanceToNearestRailroad2,
		CardAdvanceToNearestUtility,
		CardCollect50,
		CardGetOutOfJail,
		CardRetreat3Spaces,
		CardGoToJail,
		CardGeneralRepairs,
		CardPay15,
		CardAdvanceToReadingRailroad,
		CardPay50EachPlayer,
		CardCollect150,
	}
}

// CommunityChestCards returns a fresh copy of the Community Chest deck contents.
func CommunityChestCards() []Card {
	return []Card{
		CardAdvanceToGo2,
		CardCollect200,
		CardPay50,
		CardCollect50Stock,
		CardGetOutOfJail2,
		CardGoToJail2,
		CardCollect100,
		CardCollect20,
		CardCollect50EachPlayer,
		CardCollect100Insurance,
		CardPay100,
		CardPay50School,
		CardCollect25,
		CardStreetRepairs,
		CardCollect10,
		CardCollect100Inherit,
	}
}
