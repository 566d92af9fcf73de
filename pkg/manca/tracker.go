package manca

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RoundEvent is one line of the round trace.
type RoundEvent struct {
	RunID     string    `json:"run_id"`
	Round     int       `json:"round"`
	Seed      string    `json:"seed"`
	BestCount int       `json:"best_count"`
	Adopted   bool      `json:"adopted"`
	Forced    bool      `json:"forced,omitempty"`
	Scores    []float64 `json:"scores"`
	Sparsity  int       `json:"sparsity"`
	Delay     int       `json:"delay"`
	Timestamp int64     `json:"timestamp"`
}

// RoundTracker appends one JSON object per round to a file.
// A nil *RoundTracker discards events.
type RoundTracker struct {
	file    *os.File
	encoder *json.Encoder
	runID   string
}

// NewRoundTracker creates (or truncates) filename.
func NewRoundTracker(filename, runID string) (*RoundTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create round trace: %w", err)
	}

	return &RoundTracker{
		file:    file,
		encoder: json.NewEncoder(file),
		runID:   runID,
	}, nil
}

// LogRound writes the event for one round.
func (rt *RoundTracker) LogRound(stats RoundStats) error {
	if rt == nil {
		return nil
	}

	return rt.encoder.Encode(RoundEvent{
		RunID:     rt.runID,
		Round:     stats.Round,
		Seed:      stats.Seed,
		BestCount: stats.BestCount,
		Adopted:   stats.Adopted,
		Forced:    stats.Forced,
		Scores:    stats.Scores,
		Sparsity:  stats.Sparsity,
		Delay:     stats.Delay,
		Timestamp: time.Now().Unix(),
	})
}

// Close flushes and closes the trace file.
func (rt *RoundTracker) Close() error {
	if rt == nil || rt.file == nil {
		return nil
	}
	return rt.file.Close()
}
