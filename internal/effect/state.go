package effect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Step is the overlay phase the viewer should render.
type Step string

const (
	StepNone    Step = "none"
	StepFocused Step = "focused"
	StepHidden  Step = "hidden"
)

// FacePosition locates the tracked face inside a reference bitmap.
type FacePosition struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	BitmapWidth  float64 `json:"bitmapWidth"`
	BitmapHeight float64 `json:"bitmapHeight"`
}

// State is the overlay instruction relayed from producer to viewer.
type State struct {
	Step         Step          `json:"step"`
	FacePosition *FacePosition `json:"facePosition,omitempty"`
}

// Validate checks the step enum. The face position is optional and any
// numeric rectangle is accepted.
func (s State) Validate() error {
	switch s.Step {
	case StepNone, StepFocused, StepHidden:
		return nil
	case "":
		return errors.New("step is required")
	default:
		return fmt.Errorf("unknown step %q", s.Step)
	}
}

// Decode reads and validates a JSON effect state from r.
func Decode(r io.Reader) (State, error) {
	var st State
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return State{}, fmt.Errorf("decode effect state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return State{}, err
	}
	return st, nil
}
