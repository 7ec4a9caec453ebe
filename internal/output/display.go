// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package output

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// Screen is the part of *ssd1306.Dev the display uses.
type Screen interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// ScreenBounds is the 128x64 SSD1306 panel.
var ScreenBounds = image.Rect(0, 0, 128, 64)

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(ScreenBounds)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// RenderText draws up to four lines of text.
func RenderText(lines ...string) *image1bit.VerticalLSB {
	img, drawer := newCanvas()
	for i, l := range lines {
		if i == 4 {
			break
		}
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(l)
	}
	return img
}

// RenderPose draws yaw, pitch and roll in degrees, and the position in
// centimetres when there is one.
func RenderPose(p orientation.Pose) *image1bit.VerticalLSB {
	a, ok := p.Orientation.AsYPR(orientation.SequenceYPR)
	if !ok && p.Position == nil {
		return RenderText("Head tracker", "Waiting...")
	}
	var lines []string
	if ok {
		d := a.ToDegrees()
		lines = append(lines,
			fmt.Sprintf("Y: %6.1f", d.Yaw),
			fmt.Sprintf("P: %6.1f", d.Pitch),
			fmt.Sprintf("R: %6.1f", d.Roll),
		)
	}
	if p.Position != nil {
		lines = append(lines, fmt.Sprintf("%+.0f %+.0f %+.0fcm", p.Position.X*100, p.Position.Y*100, p.Position.Z*100))
	}
	return RenderText(lines...)
}

// Display shows the latest pose on an OLED. The panel is redrawn at most
// once per interval.
type Display struct {
	screen   Screen
	clk      clock.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewDisplay(screen Screen, interval time.Duration, clk clock.Clock) *Display {
	if clk == nil {
		clk = clock.New()
	}
	return &Display{screen: screen, clk: clk, interval: interval}
}

// Splash draws a start screen.
func (d *Display) Splash(lines ...string) error {
	return d.screen.Draw(ScreenBounds, RenderText(lines...), image.Point{})
}

func (d *Display) SendPose(p orientation.Pose) error {
	d.mu.Lock()
	now := d.clk.Now()
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		d.mu.Unlock()
		return nil
	}
	d.last = now
	d.mu.Unlock()

	if err := d.screen.Draw(ScreenBounds, RenderPose(p), image.Point{}); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}
