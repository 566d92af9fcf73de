package manca

import "fmt"

// State is the lifecycle state of a clustering run.
type State int

const (
	// Running means neither termination condition has been met.
	Running State = iota
	// Converged means sparsity stayed unchanged for limit consecutive rounds.
	Converged
	// Exhausted means the iteration budget ran out first.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "running":
		*s = Running
	case "converged":
		*s = Converged
	case "exhausted":
		*s = Exhausted
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// convergence tracks prev_sparsity, delay and iters across rounds.
type convergence struct {
	limit      int
	iterations int

	prevSparsity int
	delay        int
	iters        int
	state        State
}

func newConvergence(limit, iterations int) *convergence {
	return &convergence{limit: limit, iterations: iterations}
}

// observe records one round's sparsity and returns the resulting state.
// Only an improvement resets the delay; a regression leaves it untouched.
func (c *convergence) observe(sparsity int) State {
	switch {
	case sparsity < c.prevSparsity:
		c.delay = 0
	case sparsity == c.prevSparsity:
		c.delay++
	}
	c.prevSparsity = sparsity
	c.iters++

	switch {
	case c.delay >= c.limit:
		c.state = Converged
	case c.iters >= c.iterations:
		c.state = Exhausted
	default:
		c.state = Running
	}
	return c.state
}
