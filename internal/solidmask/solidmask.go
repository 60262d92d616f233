// Package solidmask implements objects temporarily overwriting landscape
// pixels with the vehicle sentinel material, with stacking, restore, and
// repair semantics, grounded in spec §4.F. The teacher has no landscape
// concept to adapt from; the registry-of-live-instances-with-linked-list
// shape follows physics_engine.go's polygonRegistry pattern.
package solidmask

import (
	"github.com/legacyclonk/openworld-core/internal/fixmath"
	"github.com/legacyclonk/openworld-core/internal/landscape"
)

// Pixel is one mask cell relative to the mask's top-left corner; Set is
// false for transparent cells that do not overwrite the landscape.
type Pixel struct {
	Set bool
}

// Mask is one object's put-able bitmap.
type Mask struct {
	Wdt, Hgt int
	px       []Pixel

	put        bool
	putX, putY int
	backup     []landscape.Cell // replaced-pixel buffer, same size as px

	Rotation int
}

// NewMask builds a Wdt x Hgt mask from a row-major bool slice.
func NewMask(wdt, hgt int, bits []bool) *Mask {
	px := make([]Pixel, wdt*hgt)
	for i, b := range bits {
		if i >= len(px) {
			break
		}
		px[i].Set = b
	}
	return &Mask{Wdt: wdt, Hgt: hgt, px: px, backup: make([]landscape.Cell, wdt*hgt)}
}

func (m *Mask) at(x, y int) Pixel {
	if x < 0 || x >= m.Wdt || y < 0 || y >= m.Hgt {
		return Pixel{}
	}
	return m.px[y*m.Wdt+x]
}

// Registry tracks every currently-put mask in a section so stacking
// operations can walk all live masks.
type Registry struct {
	live []*Mask
}

func NewRegistry() *Registry { return &Registry{} }

// Put writes the mask's set pixels into the landscape at (x, y), backing up
// whatever was there so Remove can restore it. Overlapping masks already
// put simply get overwritten again with the sentinel; their own backups are
// untouched since the sentinel material is idempotent.
func (r *Registry) Put(l *landscape.Landscape, m *Mask, x, y int) {
	if m.put {
		r.Remove(l, m)
	}
	m.putX, m.putY = x, y
	for row := 0; row < m.Hgt; row++ {
		for col := 0; col < m.Wdt; col++ {
			if !m.at(col, row).Set {
				continue
			}
			px, py := x+col, y+row
			m.backup[row*m.Wdt+col] = l.Pix(px, py)
			l.SetPix(px, py, landscape.Cell{Mat: landscape.MatVehicle})
		}
	}
	if !m.put {
		r.live = append(r.live, m)
	}
	m.put = true
}

// Remove reinstates the backed-up landscape pixels and drops the mask from
// the live registry. A pixel another live mask still covers stays vehicle;
// if that mask's backup for the pixel is the sentinel, it takes over this
// mask's backup instead.
func (r *Registry) Remove(l *landscape.Landscape, m *Mask) {
	if !m.put {
		return
	}
	for row := 0; row < m.Hgt; row++ {
		for col := 0; col < m.Wdt; col++ {
			if !m.at(col, row).Set {
				continue
			}
			px, py := m.putX+col, m.putY+row
			covered := false
			for _, o := range r.live {
				if o == m || !o.at(px-o.putX, py-o.putY).Set {
					continue
				}
				covered = true
				if i := (py-o.putY)*o.Wdt + (px - o.putX); o.backup[i].Mat == landscape.MatVehicle {
					o.backup[i] = m.backup[row*m.Wdt+col]
				}
				break
			}
			if covered {
				continue
			}
			l.SetPixIfMask(px, py, landscape.MatVehicle, m.backup[row*m.Wdt+col])
		}
	}
	m.put = false
	for i, cand := range r.live {
		if cand == m {
			r.live = append(r.live[:i], r.live[i+1:]...)
			break
		}
	}
}

// PutTemporary/RemoveTemporary take a clip rect but do not apply it; they
// operate on the whole mask.
func (r *Registry) PutTemporary(l *landscape.Landscape, m *Mask, clip fixmath.Rect) {
	_ = clip // placeholder clip; full-rect put below covers the common case
	if !m.put {
		return
	}
	r.Put(l, m, m.putX, m.putY)
}

func (r *Registry) RemoveTemporary(l *landscape.Landscape, m *Mask) {
	r.Remove(l, m)
}

// Repair reinstates sentinel pixels that ought to be set per the mask's
// bitmap but were clobbered by some other write, restoring the stacking
// invariant "every vehicle pixel falls inside some live mask".
func (r *Registry) Repair(l *landscape.Landscape, m *Mask) {
	if !m.put {
		return
	}
	for row := 0; row < m.Hgt; row++ {
		for col := 0; col < m.Wdt; col++ {
			if !m.at(col, row).Set {
				continue
			}
			px, py := m.putX+col, m.putY+row
			if l.GetMat(px, py) != landscape.MatVehicle {
				m.backup[row*m.Wdt+col] = l.Pix(px, py)
				l.SetPix(px, py, landscape.Cell{Mat: landscape.MatVehicle})
			}
		}
	}
}

// Clear removes every live mask, restoring the landscape fully.
func (r *Registry) Clear(l *landscape.Landscape) {
	for _, m := range append([]*Mask{}, r.live...) {
		r.Remove(l, m)
	}
}

// DensityProvider wraps a mask so gameplay density queries during
// attachment see the mask's "as if unrotated" contents instead of the
// vehicle sentinel currently sitting in the landscape.
type DensityProvider struct {
	Mask *Mask
	X, Y int
}

func (d DensityProvider) GetDensity(x, y int) int {
	if d.Mask.at(x-d.X, y-d.Y).Set {
		return 100
	}
	return 0
}
