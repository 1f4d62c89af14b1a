package simulation

// Key names an InputProvider is queried with.
const (
	KeyForward  = "forward"
	KeyBackward = "backward"
	KeyLeft     = "left"
	KeyRight    = "right"
	KeyDrift    = "drift"
)

// InputProvider reports whether a named key is held.
type InputProvider interface {
	IsKeyPressed(name string) bool
}

// Input is a snapshot of the driver's keys for one tick.
type Input struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Drift    bool
}

// ReadInput snapshots the provider once so a tick sees consistent keys.
func ReadInput(p InputProvider) Input {
	if p == nil {
		return Input{}
	}
	return Input{
		Forward:  p.IsKeyPressed(KeyForward),
		Backward: p.IsKeyPressed(KeyBackward),
		Left:     p.IsKeyPressed(KeyLeft),
		Right:    p.IsKeyPressed(KeyRight),
		Drift:    p.IsKeyPressed(KeyDrift),
	}
}

// IsKeyPressed lets an Input act as its own provider.
func (in Input) IsKeyPressed(name string) bool {
	switch name {
	case KeyForward:
		return in.Forward
	case KeyBackward:
		return in.Backward
	case KeyLeft:
		return in.Left
	case KeyRight:
		return in.Right
	case KeyDrift:
		return in.Drift
	}
	return false
}

// steerDirection is -1 for left, +1 for right, 0 for none or both.
func (in Input) steerDirection() float32 {
	switch {
	case in.Left && !in.Right:
		return -1
	case in.Right && !in.Left:
		return 1
	}
	return 0
}
