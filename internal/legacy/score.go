package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ScoreState enumerates the three legacy cell states.
type ScoreState uint8

const (
	StateNoMark ScoreState = iota
	StateZero
	StateScored
)

// ZeroSentinel is written for an assessed zero. Only its sign is meaningful.
const ZeroSentinel = -1.0

// ErrInvalidScore is returned when a scored value is not strictly positive.
var ErrInvalidScore = errors.New("scored value must be greater than zero")

func (s ScoreState) String() string {
	switch s {
	case StateZero:
		return "zero"
	case StateScored:
		return "scored"
	default:
		return "no_mark"
	}
}

// Score is one student's mark on one assessment. The zero value is NoMark.
type Score struct {
	state ScoreState
	value float64
}

// NoMark returns the "not yet assessed" state.
func NoMark() Score { return Score{state: StateNoMark} }

// Zero returns the "assessed, earned zero" state.
func Zero() Score { return Score{state: StateZero} }

// Scored returns a positive mark.
func Scored(v float64) (Score, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Score{}, fmt.Errorf("%w: %v", ErrInvalidScore, v)
	}
	return Score{state: StateScored, value: v}, nil
}

// DecodeRaw interprets a stored cell: 0 is no mark, negative is an assessed zero, positive is a mark.
func DecodeRaw(raw float64) Score {
	switch {
	case math.IsNaN(raw) || raw == 0:
		return NoMark()
	case raw < 0:
		return Zero()
	case math.IsInf(raw, 1):
		return NoMark()
	default:
		return Score{state: StateScored, value: raw}
	}
}

// Encode is the inverse of DecodeRaw.
func Encode(s Score) float64 {
	switch s.state {
	case StateZero:
		return ZeroSentinel
	case StateScored:
		return s.value
	default:
		return 0
	}
}

// ParseState builds a Score from an edit request. Scored values <= 0 are rejected, not coerced.
func ParseState(state string, value float64) (Score, error) {
	switch state {
	case "no_mark", "":
		return NoMark(), nil
	case "zero":
		return Zero(), nil
	case "scored":
		return Scored(value)
	default:
		return Score{}, fmt.Errorf("unknown score state %q", state)
	}
}

// State reports the variant.
func (s Score) State() ScoreState { return s.state }

// IsNoMark reports whether the cell is blank.
func (s Score) IsNoMark() bool { return s.state == StateNoMark }

// Counts reports whether the score participates in averages.
func (s Score) Counts() bool { return s.state != StateNoMark }

// Value is the numeric contribution: the mark for Scored, 0 otherwise.
func (s Score) Value() float64 {
	if s.state == StateScored {
		return s.value
	}
	return 0
}

type scoreJSON struct {
	State string  `json:"state"`
	Value float64 `json:"value"`
}

// MarshalJSON renders {"state":..,"value":..}.
func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(scoreJSON{State: s.state.String(), Value: s.Value()})
}

// UnmarshalJSON accepts the MarshalJSON form.
func (s *Score) UnmarshalJSON(data []byte) error {
	var payload scoreJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	parsed, err := ParseState(payload.State, payload.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
