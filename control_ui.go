package main

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/twitch"
)

const (
	addTimeSeconds   = 60
	testFireworksSec = 5
)

// controlPanel keeps the widgets whose labels follow the stream status.
type controlPanel struct {
	status  *widget.Text
	connect *widget.Button
}

// newControlUI builds the edit mode panel in the top right corner: a Twitch
// connect toggle, a button adding clock time, a test fireworks button and a
// status line.
func newControlUI(g *Game) *ebitenui.UI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnHover := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	row := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Stretch: true})

	panel := &controlPanel{}
	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: btnHover, Pressed: btnImg}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(row),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	title := widget.NewText(
		widget.TextOpts.Text("Overlay", &face, white),
		widget.TextOpts.WidgetOpts(row),
	)
	panel.status = widget.NewText(
		widget.TextOpts.Text("twitch: offline", &face, white),
		widget.TextOpts.WidgetOpts(row),
	)
	panel.connect = button("Connect Twitch", func() {
		if g.streamStatus().Connected {
			g.session.Do(twitch.Disconnect{Message: g.cfg.Twitch.Farewell})
			return
		}
		g.session.Do(twitch.Connect{})
	})
	addTime := button(fmt.Sprintf("+%d s", addTimeSeconds), func() {
		g.push(component.EventAddTime, component.AddTime{Seconds: addTimeSeconds})
	})
	fireworks := button("Fireworks", func() {
		g.push(component.EventCreateFireworks, component.CreateFireworks{Seconds: testFireworksSec})
	})
	hide := button("Done (Ctrl+Shift+O)", g.toggleEditMode)

	container := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(200, 0),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionEnd,
				VerticalPosition:   widget.AnchorLayoutPositionStart,
			}),
		),
	)
	container.AddChild(title)
	container.AddChild(panel.status)
	container.AddChild(panel.connect)
	container.AddChild(addTime)
	container.AddChild(fireworks)
	container.AddChild(hide)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(container)

	g.panel = panel
	return &ebitenui.UI{Container: root}
}

// refresh updates the labels from the stream status.
func (p *controlPanel) refresh(st component.StreamStatus) {
	if p == nil {
		return
	}
	switch {
	case st.Connected:
		p.status.Label = fmt.Sprintf("twitch: %s, %d events", st.Login, st.Events)
		p.connect.Text().Label = "Disconnect Twitch"
	case st.LastError != "":
		p.status.Label = "twitch: " + st.LastError
		p.connect.Text().Label = "Connect Twitch"
	default:
		p.status.Label = fmt.Sprintf("twitch: offline, %d events", st.Events)
		p.connect.Text().Label = "Connect Twitch"
	}
}
