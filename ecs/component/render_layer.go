package component

// RenderLayer is used to sort draw order deterministically.
type RenderLayer struct {
	Index int
}

const (
	LayerDecorations = 0
	LayerClock       = 1
	LayerParticles   = 2
)

var RenderLayerComponent = NewComponent[RenderLayer]()
