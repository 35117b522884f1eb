// Package pagerange parses comma-separated page range lists such
// as "1-3,5,9-10".
package pagerange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRange is wrapped by every error Parse returns.
var ErrInvalidRange = errors.New("invalid page range")

var tokenPattern = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// Range is a 1-indexed inclusive page interval.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages in r.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Parse validates list against a document of totalPages pages. Ranges are
// returned in the order they were written; overlapping ranges are allowed.
func Parse(list string, totalPages int) ([]Range, error) {
	var ranges []Range
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)

		m := tokenPattern.FindStringSubmatch(token)
		if m == nil {
			return nil, fmt.Errorf("%w: bad format %q", ErrInvalidRange, token)
		}
		start, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, token, err)
		}
		end := start
		if m[2] != "" {
			if end, err = strconv.Atoi(m[2]); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, token, err)
			}
		}

		if start < 1 || end > totalPages || start > end {
			return nil, fmt.Errorf("%w: %s (document has %d pages)", ErrInvalidRange, token, totalPages)
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges, nil
}
