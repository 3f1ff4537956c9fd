package component

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

type Sprite struct {
	Image   *ebiten.Image
	OriginX float64
	OriginY float64
	Tint    color.Color
	Hidden  bool
	// Key names the registry entry the image came from so that hot reload
	// can swap it.
	Key string
}

var SpriteComponent = NewComponent[Sprite]()
