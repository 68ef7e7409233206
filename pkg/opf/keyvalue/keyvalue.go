// Package keyvalue reads "key: value" metadata stored in TEXT entities.
package keyvalue

import (
	"strings"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
)

// Well-known keys written by pattern CAD systems
const (
	KeySize         = "size"
	KeyPieceName    = "piece name"
	KeyProduct      = "product"
	KeyVersion      = "version"
	KeyAuthor       = "author"
	KeyCreationDate = "creation date"
	KeyCreationTime = "creation time"
	KeyUnits        = "units"
	KeySampleSize   = "sample size"
	KeyStyleName    = "style name"
)

// Split cuts text at its first colon. The key is trimmed and lower-cased,
// the value trimmed.
func Split(text string) (key, value string, ok bool) {
	k, v, found := strings.Cut(text, ":")
	if !found {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v), true
}

// Find returns the value of the first TEXT entity whose key equals key.
// Text without a colon yields a warning and the scan goes on.
func Find(entities []dxf.Entity, key string, col *diag.Collector) (string, bool) {
	for _, e := range entities {
		text, ok := e.(*dxf.Text)
		if !ok {
			continue
		}
		k, v, ok := Split(text.Text)
		if !ok {
			col.Addf(diag.Warning, text, "Unexpected syntax in key-value text string: '%s'", text.Text)
			continue
		}
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Get is Find without the presence flag
func Get(entities []dxf.Entity, key string, col *diag.Collector) string {
	v, _ := Find(entities, key, col)
	return v
}
