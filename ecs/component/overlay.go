package component

// Overlay is the singleton holding window state shared by systems.
type Overlay struct {
	Width    float64
	Height   float64
	EditMode bool
}

var OverlayComponent = NewComponent[Overlay]()

// StreamStatus mirrors the Twitch session state for the control panel.
type StreamStatus struct {
	Connected bool
	Login     string
	LastError string
	Events    int
}

var StreamStatusComponent = NewComponent[StreamStatus]()
