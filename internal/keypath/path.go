// Package keypath reads and writes values at dotted paths inside nested
// documents.
//
// Paths are plain literal segments joined by "." ("employee.details.name").
// There are no wildcards, indices or filters. Get never fails: a missing key
// or a segment that lands on a non-document yields a miss. Set never fails:
// incompatible values along the path are replaced by fresh documents.
package keypath

import (
	"fmt"
	"strings"

	"github.com/solatis/keyshift/internal/types"
)

// Separator joins path segments.
const Separator = "."

// Path is a parsed, non-empty sequence of non-empty segments.
type Path []string

// ParsePath splits s into segments.
// Returns ErrEmptyPath for "" and ErrEmptySegment for paths such as "a..b",
// ".a" or "a.".
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, types.ErrEmptyPath
	}
	segments := strings.Split(s, Separator)
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", types.ErrEmptySegment, s)
		}
	}
	return Path(segments), nil
}

// MustParsePath is ParsePath for constant paths. Panics on invalid input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Depth returns the number of segments.
func (p Path) Depth() int {
	return len(p)
}
