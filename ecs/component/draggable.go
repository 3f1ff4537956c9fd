package component

// Draggable entities follow the pointer while dragged and zoom with the
// mouse wheel while selected.
type Draggable struct {
	ScaleFactor float64
	MinScale    float64
}

var DraggableComponent = NewComponent[Draggable]()

// Pickable is the screen-space hit box tested by the pointer system,
// relative to the entity's transform and scaled with it.
type Pickable struct {
	Width   float64
	Height  float64
	OriginX float64
	OriginY float64
}

var PickableComponent = NewComponent[Pickable]()

type Selected struct{}

var SelectedComponent = NewComponent[Selected]()

// PendingUnselect marks a selected entity the pointer left while the button
// was held. It is unselected when the button is released.
type PendingUnselect struct{}

var PendingUnselectComponent = NewComponent[PendingUnselect]()

type Hovered struct{}

var HoveredComponent = NewComponent[Hovered]()

// Dragging is present while an entity is being dragged.
type Dragging struct {
	VX float64
	VY float64
}

var DraggingComponent = NewComponent[Dragging]()
