package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	ok := Event{Phase: PhaseBefore, ID: "r1", Method: "eth_sign"}
	assert.NoError(t, ok.Validate())

	cases := []struct {
		name string
		ev   Event
	}{
		{"missing id", Event{Phase: PhaseBefore, Method: "eth_sign"}},
		{"missing method", Event{Phase: PhaseBefore, ID: "r1"}},
		{"unknown phase", Event{Phase: "during", ID: "r1", Method: "eth_sign"}},
		{"empty phase", Event{ID: "r1", Method: "eth_sign"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.ev.Validate(), ErrMalformed)
		})
	}
}

func TestEventJSONShape(t *testing.T) {
	raw := []byte(`{"phase":"error","id":"r1","method":"eth_sendTransaction","error":"User rejected the request."}`)
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, PhaseError, ev.Phase)
	assert.Equal(t, "User rejected the request.", ev.Error)
	require.NoError(t, ev.Validate())
}
