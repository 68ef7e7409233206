package pattern

import (
	"encoding/json"
	"fmt"
)

// VertexPool is the deduplicated list of points owned by one piece.
// Points compare exactly; indices follow insertion order and never change.
type VertexPool struct {
	xs []float64
	ys []float64
}

// Intern returns the index of (x, y), appending the point when it is new.
func (p *VertexPool) Intern(x, y float64) int {
	for i := range p.xs {
		if p.xs[i] == x && p.ys[i] == y {
			return i
		}
	}
	p.xs = append(p.xs, x)
	p.ys = append(p.ys, y)
	return len(p.xs) - 1
}

// Len returns the number of unique points
func (p *VertexPool) Len() int {
	return len(p.xs)
}

// Flat returns the points as [x0, y0, x1, y1, ...]
func (p *VertexPool) Flat() []float64 {
	out := make([]float64, 0, 2*len(p.xs))
	for i := range p.xs {
		out = append(out, p.xs[i], p.ys[i])
	}
	return out
}

// MarshalJSON writes the flat coordinate list consumed by renderers
func (p VertexPool) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Flat())
}

// UnmarshalJSON reads a flat coordinate list
func (p *VertexPool) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if len(flat)%2 != 0 {
		return fmt.Errorf("vertex list has odd length %d", len(flat))
	}
	p.xs = make([]float64, 0, len(flat)/2)
	p.ys = make([]float64, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		p.xs = append(p.xs, flat[i])
		p.ys = append(p.ys, flat[i+1])
	}
	return nil
}
