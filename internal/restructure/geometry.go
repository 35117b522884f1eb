package restructure

import (
	"log/slog"

	"github.com/dgallion1/pdfsplice/internal/document"
)

// PageSizePolicy selects the page size applied to every page of a merge.
type PageSizePolicy string

const (
	KeepOriginal PageSizePolicy = "KEEP_ORIGINAL"
	A4           PageSizePolicy = "A4"
	UseFirst     PageSizePolicy = "USE_FIRST"
	UseLargest   PageSizePolicy = "USE_LARGEST"
)

// Reconcile returns the target page geometry for merging sources, or nil
// when pages keep their own size. USE_FIRST and USE_LARGEST look only at
// the first page of each source and skip empty sources; if no source has a
// page there is nothing to standardize on and nil is returned. A page whose
// size cannot be read makes the whole scan fall back to A4.
func Reconcile(sources []*document.Source, policy PageSizePolicy, log *slog.Logger) *document.Geometry {
	switch policy {
	case KeepOriginal:
		return nil
	case A4:
		g := document.A4
		return &g
	case UseFirst, UseLargest:
	default:
		log.Warn("unknown page size policy, keeping original sizes", "policy", policy)
		return nil
	}

	var first, largest *document.Geometry
	for _, src := range sources {
		if src.PageCount() == 0 {
			continue
		}
		g, err := src.PageGeometry(0)
		if err != nil {
			log.Warn("failed to determine page size, using A4", "source", src.Name, "error", err)
			a4 := document.A4
			return &a4
		}
		if first == nil {
			first = &g
		}
		if largest == nil || g.Area() > largest.Area() {
			largest = &g
		}
	}

	if policy == UseFirst {
		return first
	}
	return largest
}
