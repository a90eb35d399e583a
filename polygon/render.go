package polygon

import (
	"github.com/gogpu/gg"
)

// Draw renders the chromosome into dc at the given size. Every pixel of
// the canvas is overwritten: the canvas is cleared to white first, then
// the polygons are composited in order with alpha blending. Repeated
// calls on a reused canvas therefore never leak stale pixels.
//
// Draw is pure with respect to the chromosome and safe to call from
// multiple goroutines on distinct contexts.
func (c *Chromosome) Draw(dc *gg.Context, width, height int) {
	dc.ClearWithColor(gg.White)

	w := float64(width)
	h := float64(height)
	for i := range c.Polygons {
		p := &c.Polygons[i]
		if len(p.Points) < 3 {
			continue
		}

		dc.SetRGBA(p.R, p.G, p.B, p.A)
		dc.MoveTo(p.Points[0].X*w, p.Points[0].Y*h)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X*w, pt.Y*h)
		}
		dc.ClosePath()
		_ = dc.Fill()
	}
}

// Render draws the chromosome into a fresh canvas of the given size and
// returns the drawing context. Convenience for output paths (snapshots,
// previews); the hot evaluation path reuses pooled canvases instead.
func (c *Chromosome) Render(width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	c.Draw(dc, width, height)
	return dc
}
