package engine

import "github.com/kbxbnb/BnBot/internal/storage"

// PerTradeBudget converts the settings snapshot into a per-trade dollar
// budget. Percent mode allocates a slice of the configured account size;
// dollar mode is a flat amount.
func PerTradeBudget(s storage.Settings) float64 {
	if s.CapitalMode == "dollar" {
		return s.CapitalValue
	}
	return s.AccountSize * s.CapitalValue / 100
}
