package component

import "github.com/tanema/gween"

// ScaleTween animates a transform's scale toward Target.
type ScaleTween struct {
	X      *gween.Tween
	Y      *gween.Tween
	Target float64
}

var ScaleTweenComponent = NewComponent[ScaleTween]()
