// internal/game/settings.go
package game

import "fmt"

// HouseRules defines per-game knobs that modify standard play.
type HouseRules struct {
	DecideTimeoutSec   int  `json:"decideTimeoutSec"`   // seconds to wait for a decision before substituting the default; 0 waits forever
	RecordTradeHistory bool `json:"recordTradeHistory"` // keep prior revisions on countered trades
}

// DefaultHouseRules returns the standard configuration.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		DecideTimeoutSec:   30,
		RecordTradeHistory: false,
	}
}

// Update applies the provided rules on top of the current ones. Keys that are
// absent or nil keep their old value.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := newRules[key]; exists && val != nil {
			// JSON numbers arrive as float64.
			switch v := val.(type) {
			case float64:
				if int(v) < minVal {
					return fmt.Errorf("%s must be at least %d", key, minVal)
				}
				*field = int(v)
			case int:
				if v < minVal {
					return fmt.Errorf("%s must be at least %d", key, minVal)
				}
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	if err := assignInt(&rules.DecideTimeoutSec, "decideTimeoutSec", 0); err != nil {
		return err
	}
	if err := assignBool(&rules.RecordTradeHistory, "recordTradeHistory"); err != nil {
		return err
	}
	return nil
}
