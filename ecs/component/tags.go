package component

type FireworksTag struct{}

var FireworksTagComponent = NewComponent[FireworksTag]()

type ClickEffectTag struct{}

var ClickEffectTagComponent = NewComponent[ClickEffectTag]()

// DecorationTag marks entities spawned from a prefab so hot reload can find
// them by prefab path. Overrides are the scene's per-entity changes.
type DecorationTag struct {
	Prefab    string
	Overrides map[string]any
}

var DecorationTagComponent = NewComponent[DecorationTag]()
