package evolve

import (
	"github.com/gogpu/gg"
)

// Canvas is a reusable scratch surface for rendering one candidate
// chromosome. It pairs a gg drawing context with the pixel buffer the
// context draws into, so fitness evaluation can read the raw bytes back
// without copying.
type Canvas struct {
	dc *gg.Context
	pm *gg.Pixmap
}

func newCanvas(width, height int) *Canvas {
	pm := gg.NewPixmap(width, height)
	return &Canvas{
		dc: gg.NewContext(width, height, gg.WithPixmap(pm)),
		pm: pm,
	}
}

// Context returns the drawing context of the canvas.
func (c *Canvas) Context() *gg.Context {
	return c.dc
}

// Pix returns the raw RGBA pixel data of the canvas (4 bytes per pixel,
// row-major). The slice aliases the canvas storage: it reflects whatever
// was drawn last and is overwritten by the next render.
func (c *Canvas) Pix() []uint8 {
	return c.pm.Data()
}

// ScratchPool hands each evaluation slot its own mutable scratch Canvas,
// created lazily on first use and reused for all subsequent evaluations
// on that slot.
//
// Slots replace ambient goroutine identity: the engine assigns every
// evaluation a slot index in [0, Slots()), and no two goroutines use the
// same slot at overlapping times. The pool itself therefore needs no
// locking; ownership handoff between generations is ordered by the
// engine's gather barrier.
//
// A pool is bound to one worker configuration. Reconfiguring replaces
// the pool wholesale, since the evaluation resolution may have changed.
type ScratchPool struct {
	width  int
	height int
	slots  []*Canvas
}

// NewScratchPool creates a pool with the given number of slots, each
// producing canvases of width x height on first acquisition.
func NewScratchPool(slots, width, height int) *ScratchPool {
	return &ScratchPool{
		width:  width,
		height: height,
		slots:  make([]*Canvas, slots),
	}
}

// Acquire returns the canvas bound to slot, allocating it on first call.
// Repeated calls with the same slot return the same Canvas instance;
// distinct slots never share a Canvas.
//
// The caller must hold exclusive use of slot for the duration of the
// evaluation.
func (p *ScratchPool) Acquire(slot int) *Canvas {
	c := p.slots[slot]
	if c == nil {
		c = newCanvas(p.width, p.height)
		p.slots[slot] = c
	}
	return c
}

// Slots returns the number of slots in the pool.
func (p *ScratchPool) Slots() int {
	return len(p.slots)
}

// Bounds returns the canvas dimensions the pool produces.
func (p *ScratchPool) Bounds() (width, height int) {
	return p.width, p.height
}
