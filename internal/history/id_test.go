package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatteryIDCombinesComponents(t *testing.T) {
	id := BatteryID("EX-100", 60, "SN123")
	assert.Equal(t, "EX-100-SN123", id)
}

func TestBatteryIDDropsShortComponents(t *testing.T) {
	id := BatteryID("EX-100", 0, "SN123")
	assert.Equal(t, "EX-100-SN123", id)
}

func TestBatteryIDFallsBackToGeneric(t *testing.T) {
	id := BatteryID("", 0, "")
	assert.Equal(t, "generic_id", id)
}

func TestBatteryIDSanitizesUnsafeChars(t *testing.T) {
	id := BatteryID(`EX "100"`, 0, "SN/123")
	assert.NotContains(t, id, `"`)
	assert.NotContains(t, id, "/")
}
