package history

import (
	"strconv"
	"strings"
)

// unsanitizedChars are replaced with '_' in a battery id component
// (spec.md §4.5).
const unsanitizedChars = "\t\"' /\\"

var idReplacer = buildIDReplacer()

func buildIDReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(unsanitizedChars)*2)
	for _, c := range unsanitizedChars {
		pairs = append(pairs, string(c), "_")
	}
	return strings.NewReplacer(pairs...)
}

// BatteryID computes the stable identity a HistoryStore is keyed by
// (spec.md §4.5): "sanitize("<model>-<energy_full_design_int>-<serial>")",
// each component included only when non-empty and longer than 2 chars.
// If every component is dropped, the id is the literal "generic_id".
func BatteryID(model string, energyFullDesignWh float64, serial string) string {
	var parts []string
	if len(model) > 2 {
		parts = append(parts, model)
	}
	if energyFullDesignWh > 0 {
		s := strconv.Itoa(int(energyFullDesignWh))
		if len(s) > 2 {
			parts = append(parts, s)
		}
	}
	if len(serial) > 2 {
		parts = append(parts, serial)
	}
	if len(parts) == 0 {
		return "generic_id"
	}
	return idReplacer.Replace(strings.Join(parts, "-"))
}
