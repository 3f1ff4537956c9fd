package component

// Expire counts Duration seconds. When it runs out the expire system
// replaces it with Expired.
type Expire struct {
	Duration float64
	Elapsed  float64
}

func NewExpire(seconds float64) *Expire {
	return &Expire{Duration: seconds}
}

// AddTime extends the remaining time by seconds and restarts the count.
func (e *Expire) AddTime(seconds float64) {
	remaining := e.Duration - e.Elapsed
	if remaining < 0 {
		remaining = 0
	}
	e.Duration = remaining + seconds
	e.Elapsed = 0
}

func (e *Expire) Finished() bool {
	return e.Elapsed >= e.Duration
}

var ExpireComponent = NewComponent[Expire]()

type Expired struct{}

var ExpiredComponent = NewComponent[Expired]()
