package render

import (
	"math"
	"sync"

	"github.com/apexgrid/racedash/geo"
)

// DefaultGain is the approach rate used when none is configured.
const DefaultGain = 8.0

// State is a displayed position and heading for one vehicle.
type State struct {
	Position geo.LocalPoint `json:"position"`
	Heading  float64        `json:"heading"`
}

type entityState struct {
	current State
	target  State
}

// Interpolator decouples the polling cadence from the render cadence:
// each render tick it advances every vehicle's displayed state toward its
// latest confirmed target so vehicles glide instead of teleporting.
//
// The advance is an exponential approach, current += (target-current) *
// min(1, dt*gain), which stays stable under variable frame delta where a
// fixed-step linear blend would overshoot.
type Interpolator struct {
	mu     sync.Mutex
	gain   float64
	states map[string]*entityState
}

// NewInterpolator creates an Interpolator with the given gain; gain <= 0
// selects DefaultGain.
func NewInterpolator(gain float64) *Interpolator {
	if gain <= 0 {
		gain = DefaultGain
	}
	return &Interpolator{gain: gain, states: map[string]*entityState{}}
}

// SetTarget records the latest confirmed position and heading for a
// vehicle. On first observation the displayed state starts at the target
// itself, never interpolating from an undefined prior.
func (it *Interpolator) SetTarget(id string, pos geo.LocalPoint, heading float64) {
	it.mu.Lock()
	defer it.mu.Unlock()
	st, ok := it.states[id]
	if !ok {
		s := State{Position: pos, Heading: heading}
		it.states[id] = &entityState{current: s, target: s}
		return
	}
	st.target = State{Position: pos, Heading: heading}
}

// Advance moves every displayed state toward its target given the elapsed
// render delta in seconds.
func (it *Interpolator) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	it.mu.Lock()
	defer it.mu.Unlock()

	a := dt * it.gain
	if a > 1 {
		a = 1
	}
	for _, st := range it.states {
		st.current.Position.X += (st.target.Position.X - st.current.Position.X) * a
		st.current.Position.Y += (st.target.Position.Y - st.current.Position.Y) * a
		st.current.Position.Z += (st.target.Position.Z - st.current.Position.Z) * a

		// Shortest angular path: wrap the difference into [-pi, pi] so a
		// heading crossing north rotates the short way around.
		diff := wrapAngle(st.target.Heading - st.current.Heading)
		st.current.Heading = wrapAngle(st.current.Heading + diff*a)
	}
}

// State returns the displayed state for one vehicle.
func (it *Interpolator) State(id string) (State, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	st, ok := it.states[id]
	if !ok {
		return State{}, false
	}
	return st.current, true
}

// Snapshot returns all displayed states keyed by vehicle id.
func (it *Interpolator) Snapshot() map[string]State {
	it.mu.Lock()
	defer it.mu.Unlock()
	out := make(map[string]State, len(it.states))
	for id, st := range it.states {
		out[id] = st.current
	}
	return out
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
