package component

// Input stores this frame's pointer and keyboard state. It lives on the
// overlay singleton entity.
type Input struct {
	X            float64
	Y            float64
	DX           float64
	DY           float64
	Left         bool
	LeftPressed  bool
	LeftReleased bool
	WheelY       float64
	Ctrl         bool
	CopyPressed  bool
}

var InputComponent = NewComponent[Input]()
