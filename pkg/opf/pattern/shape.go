package pattern

import (
	"fmt"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
)

// MetadataKey holds the raw TEXT strings found on a shape's layer
const MetadataKey = "astm"

// Shape is the run-length encoded geometry of one feature of one piece at
// one size. Lengths has one entry per source entity; Vertices indexes the
// piece's VertexPool and has sum(Lengths) entries.
type Shape struct {
	Lengths  []int               `json:"lengths"`
	Vertices []int               `json:"vertices"`
	Metadata map[string][]string `json:"metadata"`
}

func newShape() *Shape {
	return &Shape{
		Lengths:  []int{},
		Vertices: []int{},
		Metadata: map[string][]string{},
	}
}

func (s *Shape) addText(text string) {
	s.Metadata[MetadataKey] = append(s.Metadata[MetadataKey], text)
}

func (s *Shape) validate(poolSize int) error {
	total := 0
	for _, n := range s.Lengths {
		if n < 0 {
			return fmt.Errorf("negative run length %d", n)
		}
		total += n
	}
	if total != len(s.Vertices) {
		return fmt.Errorf("run lengths sum to %d but %d vertices are indexed", total, len(s.Vertices))
	}
	for _, idx := range s.Vertices {
		if idx < 0 || idx >= poolSize {
			return fmt.Errorf("vertex index %d outside pool of %d", idx, poolSize)
		}
	}
	return nil
}

// buildOutline translates polylines and lines into one run each. Boundary
// layers ignore foreign entities silently, internal line layers report them.
func (p *Piece) buildOutline(entities []dxf.Entity, code dxf.Layer, reportOthers bool, col *diag.Collector) *Shape {
	shape := newShape()
	for _, e := range entities {
		if e.Head().Layer != code {
			continue
		}
		switch ent := e.(type) {
		case *dxf.Polyline:
			p.appendRun(shape, ent.Vertices)
		case *dxf.Line:
			p.appendRun(shape, ent.Vertices)
		case *dxf.Text:
			shape.addText(ent.Text)
		default:
			if reportOthers {
				col.Addf(diag.Warning, e, "Unexpected type in internal shape: '%s'", e.Head().Type)
			}
		}
	}
	return shape
}

// buildLines translates two-point lines. Lines with extra vertices are
// reported and truncated to their first two.
func (p *Piece) buildLines(entities []dxf.Entity, code dxf.Layer, col *diag.Collector) *Shape {
	shape := newShape()
	for _, e := range entities {
		if e.Head().Layer != code {
			continue
		}
		switch ent := e.(type) {
		case *dxf.Line:
			n := len(ent.Vertices)
			if n < 2 {
				col.Addf(diag.Warning, ent.Vertices, "Found line with less than 2 vertices: '%d'", n)
				continue
			}
			if n != 2 {
				col.Addf(diag.Warning, ent.Vertices, "Found line with more than 2 vertices: '%d'", n)
			}
			p.appendRun(shape, ent.Vertices[:2])
		case *dxf.Text:
			shape.addText(ent.Text)
		default:
			col.Addf(diag.Warning, e, "Unexpected entity in turn points: '%s'", e.Head().Type)
		}
	}
	return shape
}

// buildPoints translates POINT entities into single-vertex runs
func (p *Piece) buildPoints(entities []dxf.Entity, code dxf.Layer, col *diag.Collector) *Shape {
	shape := newShape()
	for _, e := range entities {
		if e.Head().Layer != code {
			continue
		}
		switch ent := e.(type) {
		case *dxf.Point:
			shape.Lengths = append(shape.Lengths, 1)
			shape.Vertices = append(shape.Vertices, p.Vertices.Intern(ent.Position.X, ent.Position.Y))
		case *dxf.Text:
			shape.addText(ent.Text)
		default:
			col.Addf(diag.Warning, e, "Unexpected entity in layer %d: expected points, found '%s'", code, e.Head().Type)
		}
	}
	return shape
}

// buildAnnotation returns the annotation TEXT of the layer, nil if there is
// none. A later TEXT replaces an earlier one.
func (p *Piece) buildAnnotation(entities []dxf.Entity, code dxf.Layer, col *diag.Collector) *Annotation {
	var ann *Annotation
	for _, e := range entities {
		if e.Head().Layer != code {
			continue
		}
		switch ent := e.(type) {
		case *dxf.Text:
			ann = annotationFrom(ent)
		default:
			col.Addf(diag.Warning, e, "Unexpected entity in layer %d: expected text, found '%s'", code, e.Head().Type)
		}
	}
	return ann
}

func (p *Piece) appendRun(shape *Shape, vertices []dxf.Vertex) {
	shape.Lengths = append(shape.Lengths, len(vertices))
	for _, v := range vertices {
		shape.Vertices = append(shape.Vertices, p.Vertices.Intern(v.X, v.Y))
	}
}
