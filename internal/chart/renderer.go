// Package chart draws the equity curve as a PNG.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"betledger/internal/ledger"
	"betledger/internal/model"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

// Style controls the look of the chart.
type Style struct {
	Width   int
	Height  int
	Padding float64
}

// Renderer draws equity curves.
type Renderer struct {
	logger logrus.FieldLogger
	style  Style
}

// NewRenderer creates a renderer producing width x height images.
func NewRenderer(logger logrus.FieldLogger, width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}
	return &Renderer{
		logger: logger,
		style:  Style{Width: width, Height: height, Padding: 24},
	}
}

// RenderPNG draws points against scale and returns the encoded image.
// The curve is green when the final running profit is not negative and red otherwise.
func (r *Renderer) RenderPNG(points []model.EquityPoint, scale ledger.ChartScale) ([]byte, error) {
	start := time.Now()
	defer func() {
		r.logger.WithFields(logrus.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"points":      len(points),
		}).Debug("Equity chart rendered")
	}()

	w, h := float64(r.style.Width), float64(r.style.Height)
	pad := r.style.Padding
	plotW, plotH := w-2*pad, h-2*pad

	dc := gg.NewContext(r.style.Width, r.style.Height)
	dc.SetRGB(0.06, 0.09, 0.16)
	dc.Clear()

	yFor := func(v float64) float64 {
		return pad + plotH*(1-scale.Position(v))
	}

	// Zero baseline.
	dc.SetRGBA(1, 1, 1, 0.3)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawLine(pad, yFor(0), pad+plotW, yFor(0))
	dc.Stroke()
	dc.SetDash()

	dc.SetRGB(0.8, 0.8, 0.85)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", scale.Max), pad, pad/2, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", scale.Min), pad, h-pad/2, 0, 0.5)

	if len(points) == 0 {
		return encode(dc)
	}

	// Points are spread evenly; a single bet is drawn from the origin.
	step := plotW
	if len(points) > 1 {
		step = plotW / float64(len(points)-1)
	}
	if points[len(points)-1].Y >= 0 {
		dc.SetRGB(0.06, 0.73, 0.51)
	} else {
		dc.SetRGB(0.94, 0.27, 0.27)
	}
	dc.SetLineWidth(2)
	if len(points) == 1 {
		dc.MoveTo(pad, yFor(0))
		dc.LineTo(pad+plotW, yFor(points[0].Y))
	} else {
		for i, p := range points {
			x := pad + step*float64(i)
			if i == 0 {
				dc.MoveTo(x, yFor(p.Y))
			} else {
				dc.LineTo(x, yFor(p.Y))
			}
		}
	}
	dc.Stroke()

	return encode(dc)
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
