package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/plugin-xplm/api"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(api.StateUninitialized, api.StateStarted))
	assert.True(t, Allowed(api.StateDisabled, api.StateEnabled))
	assert.True(t, Allowed(api.StateStopped, api.StateStarted))
	assert.False(t, Allowed(api.StateUninitialized, api.StateEnabled))
	assert.False(t, Allowed(api.StateEnabled, api.StateStopped))
	assert.False(t, Allowed(api.StateEnabled, api.StateEnabled))
}

func TestPathNeverSkipsStart(t *testing.T) {
	assert.Equal(t, []api.State{api.StateStarted, api.StateEnabled}, Path(api.StateUninitialized, api.StateEnabled))
	assert.Equal(t, []api.State{api.StateDisabled, api.StateStopped}, Path(api.StateEnabled, api.StateStopped))
	assert.Equal(t, []api.State{api.StateStarted}, Path(api.StateStopped, api.StateStarted))
	assert.Nil(t, Path(api.StateEnabled, api.StateEnabled))
	assert.Nil(t, Path(api.StateEnabled, api.StateUninitialized))
}
