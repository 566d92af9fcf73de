package manca

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvergenceDelaySemantics(t *testing.T) {
	conv := newConvergence(2, 100)

	assert.Equal(t, Running, conv.observe(5))
	assert.Equal(t, 0, conv.delay, "rising from the initial 0 leaves delay alone")
	assert.Equal(t, Running, conv.observe(5))
	assert.Equal(t, 1, conv.delay)
	assert.Equal(t, Converged, conv.observe(5))
	assert.Equal(t, 2, conv.delay)
	assert.Equal(t, 3, conv.iters, "stops after the third round, before the fourth")
}

func TestConvergenceTransitions(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		iterations int
		sequence   []int
		delays     []int
		final      State
	}{
		{
			name: "ImprovementResets", limit: 5, iterations: 100,
			sequence: []int{3, 3, 3, 2},
			delays:   []int{0, 1, 2, 0},
			final:    Running,
		},
		{
			name: "RegressionKeepsDelay", limit: 5, iterations: 100,
			sequence: []int{3, 3, 5, 5, 4},
			delays:   []int{0, 1, 1, 2, 0},
			final:    Running,
		},
		{
			name: "NegativeFirstRoundResets", limit: 5, iterations: 100,
			sequence: []int{-1, -1},
			delays:   []int{0, 1},
			final:    Running,
		},
		{
			name: "ZeroMatchesInitialValue", limit: 2, iterations: 100,
			sequence: []int{0, 0},
			delays:   []int{1, 2},
			final:    Converged,
		},
		{
			name: "BudgetExhausted", limit: 10, iterations: 3,
			sequence: []int{1, 2, 3},
			delays:   []int{0, 0, 0},
			final:    Exhausted,
		},
		{
			name: "ConvergedWinsOnLastRound", limit: 2, iterations: 3,
			sequence: []int{1, 1, 1},
			delays:   []int{0, 1, 2},
			final:    Converged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := newConvergence(tt.limit, tt.iterations)
			var state State
			for i, s := range tt.sequence {
				state = conv.observe(s)
				assert.Equal(t, tt.delays[i], conv.delay, "round %d", i+1)
				assert.Equal(t, s, conv.prevSparsity)
				if i < len(tt.sequence)-1 {
					require.Equal(t, Running, state, "round %d", i+1)
				}
			}
			assert.Equal(t, tt.final, state)
			assert.Equal(t, len(tt.sequence), conv.iters)
		})
	}
}

func TestStateText(t *testing.T) {
	data, err := json.Marshal(map[string]State{"state": Exhausted})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"exhausted"}`, string(data))

	var decoded map[string]State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Exhausted, decoded["state"])

	var s State
	assert.Error(t, s.UnmarshalText([]byte("sleeping")))
	assert.Equal(t, "state(9)", State(9).String())
}
