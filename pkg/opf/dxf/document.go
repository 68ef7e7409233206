package dxf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/openpatterns/opf/pkg/opf/internalerr"
)

// Block is a named group of entities, one (piece, size) combination.
type Block struct {
	Name     string   `json:"name"`
	Entities []Entity `json:"entities"`
}

// Document is a tokenized drawing. Blocks keep their document order.
type Document struct {
	Blocks   []Block
	Entities []Entity
}

// ReadFile decodes the tokenizer's JSON dump stored at path
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads one JSON document from r
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode drawing: %v", internalerr.ErrInvalidInput, err)
	}
	return &doc, nil
}

type rawDocument struct {
	Blocks   json.RawMessage `json:"blocks"`
	Entities []rawEntity     `json:"entities"`
}

type rawBlock struct {
	Name     string      `json:"name"`
	Entities []rawEntity `json:"entities"`
}

// UnmarshalJSON decodes the tokenizer layout. The blocks object is read
// token by token so that document order survives.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blocks, err := decodeBlocks(raw.Blocks)
	if err != nil {
		return err
	}

	d.Blocks = blocks
	d.Entities = convertAll(raw.Entities)
	return nil
}

func decodeBlocks(data json.RawMessage) ([]Block, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("blocks: expected object, got %v", tok)
	}

	var blocks []Block
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var rb rawBlock
		if err := dec.Decode(&rb); err != nil {
			return nil, fmt.Errorf("block %q: %w", key, err)
		}
		name := rb.Name
		if name == "" {
			name = key
		}
		blocks = append(blocks, Block{Name: name, Entities: convertAll(rb.Entities)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// flexString accepts a JSON string or number
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type rawEntity struct {
	Type       string     `json:"type"`
	Handle     flexString `json:"handle"`
	Layer      flexString `json:"layer"`
	Text       string     `json:"text"`
	Vertices   []Vertex   `json:"vertices"`
	Position   *Vertex    `json:"position"`
	StartPoint *Vertex    `json:"startPoint"`
	EndPoint   *Vertex    `json:"endPoint"`
	TextHeight float64    `json:"textHeight"`
	XScale     float64    `json:"xScale"`
	Rotation   float64    `json:"rotation"`
	HAlign     int        `json:"halign"`
	VAlign     int        `json:"valign"`
}

func convertAll(raws []rawEntity) []Entity {
	if len(raws) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.convert())
	}
	return out
}

// convert picks the entity variant and normalizes the layer code
func (r rawEntity) convert() Entity {
	h := Header{
		Type:      r.Type,
		Handle:    string(r.Handle),
		Layer:     ParseLayer(string(r.Layer)),
		LayerName: string(r.Layer),
	}

	switch r.Type {
	case TypeText:
		return &Text{
			Header:     h,
			Text:       r.Text,
			StartPoint: r.StartPoint,
			EndPoint:   r.EndPoint,
			TextHeight: r.TextHeight,
			XScale:     r.XScale,
			Rotation:   r.Rotation,
			HAlign:     r.HAlign,
			VAlign:     r.VAlign,
		}
	case TypeLine:
		return &Line{Header: h, Vertices: r.Vertices}
	case TypePolyline:
		return &Polyline{Header: h, Vertices: r.Vertices}
	case TypePoint:
		p := &Point{Header: h}
		if r.Position != nil {
			p.Position = *r.Position
		}
		return p
	default:
		return &Other{Header: h}
	}
}
