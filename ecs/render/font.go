package render

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	fontSource *text.GoTextFaceSource
	fontErr    error
)

// Face returns a goregular face of the given pixel size. Sizes are rounded
// so that a zooming clock does not allocate a face per frame.
func Face(size float64) (text.Face, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	})
	if fontErr != nil {
		return nil, fmt.Errorf("render: font source: %w", fontErr)
	}
	if size < 1 {
		size = 1
	}
	return &text.GoTextFace{Source: fontSource, Size: math.Round(size)}, nil
}
