package minecrust

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewRenderError(t *testing.T) {
	assert.NoError(t, newRenderError("acquire", vk.Success))

	err := newRenderError("present", vk.ErrorDeviceLost)
	require.Error(t, err)

	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "present", re.Stage)
	assert.Equal(t, vk.ErrorDeviceLost, re.Result)
	assert.Contains(t, err.Error(), "present")
}

func TestRenderErrorUnwrap(t *testing.T) {
	err := newRenderError("acquire", vk.ErrorDeviceLost)
	assert.Equal(t, vk.Error(vk.ErrorDeviceLost), errors.Unwrap(err))
}

func TestIsSurfaceStale(t *testing.T) {
	assert.True(t, isSurfaceStale(vk.ErrorOutOfDate))
	assert.True(t, isSurfaceStale(vk.Suboptimal))
	assert.False(t, isSurfaceStale(vk.Success))
	assert.False(t, isSurfaceStale(vk.ErrorDeviceLost))
}

func TestPreconditionError(t *testing.T) {
	err := &PreconditionError{Op: "stage world vertices", Detail: "too big"}
	assert.Contains(t, err.Error(), "stage world vertices")
	assert.Contains(t, err.Error(), "too big")
}

func TestSurfaceUnsupportedError(t *testing.T) {
	err := &SurfaceUnsupportedError{Reason: "no formats"}
	assert.Contains(t, err.Error(), "no formats")
}
