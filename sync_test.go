package minecrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotIndex(t *testing.T) {
	assert.Equal(t, 0, slotIndex(0, 5))
	assert.Equal(t, 4, slotIndex(4, 5))
	assert.Equal(t, 0, slotIndex(5, 5))
	assert.Equal(t, 2, slotIndex(7, 5))

	// Two ticks K apart share a slot, so the slot fence paces the
	// frame loop at exactly K outstanding frames.
	for tick := uint64(0); tick < 100; tick++ {
		assert.Equal(t, slotIndex(tick, 3), slotIndex(tick+3, 3))
	}
}
