// Package holes fills typed placeholders in partially written source text:
// locate markers, infer each hole's expected type, synthesize a grammar,
// call the generation provider, and splice the result back in.
package holes

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// Kind classifies what a hole stands for.
type Kind int

const (
	ExpressionHole Kind = iota
	StatementHole
	TypeHole
)

// Hole is one placeholder found in the source text.
type Hole struct {
	Name     string
	Line     int // 1-based
	Column   int // 1-based, counted in runes
	Expected typesystem.Type
	HasType  bool // true when the marker carried an inline annotation
	Context  *typesystem.TypeContext
	Kind     Kind
	Original string // the exact marker text, used for splicing

	// annotation is the raw inline type text from the marker, resolved
	// against the language adapter during fill.
	annotation string
}

// FillResult reports the outcome for one hole.
type FillResult struct {
	Hole         Hole
	Code         string
	InferredType typesystem.Type
	Grammar      string
	Success      bool
	Attempts     int
	Err          string
}

// Marker syntax: a comment containing __HOLE_<name>__, optionally with an
// inline type annotation after a colon, e.g. /*__HOLE_v:Array<string>__*/.
var (
	blockMarker = regexp.MustCompile(`/\*__HOLE_(\w+?)(?::([^*]+?))?__\*/`)
	hashMarker  = regexp.MustCompile(`#__HOLE_(\w+?)(?::([^#\n]+?))?__#`)
)

// hashCommentLanguages use #-comments instead of block comments.
var hashCommentLanguages = map[string]bool{
	"python": true,
	"ruby":   true,
	"shell":  true,
}

func markerFor(language string) *regexp.Regexp {
	if hashCommentLanguages[language] {
		return hashMarker
	}
	return blockMarker
}

// FindHoles scans code for hole markers and records their positions.
// Inline annotations are carried as raw text on the hole name; resolving
// them to types happens during fill (the adapter may be language-specific).
func FindHoles(code string, tctx *typesystem.TypeContext) []Hole {
	marker := markerFor(tctx.Language)

	var found []Hole
	for _, match := range marker.FindAllStringSubmatchIndex(code, -1) {
		start := match[0]
		name := code[match[2]:match[3]]

		annotation := ""
		if match[4] != -1 {
			annotation = code[match[4]:match[5]]
		}

		line := 1 + strings.Count(code[:start], "\n")
		lastNL := strings.LastIndexByte(code[:start], '\n')
		// Columns count runes, not bytes, so non-ASCII source text does
		// not shift reported positions. lastNL is -1 on the first line.
		column := 1 + utf8.RuneCountInString(code[lastNL+1:start])

		found = append(found, Hole{
			Name:     name,
			Line:     line,
			Column:   column,
			Context:  tctx,
			Kind:     ExpressionHole,
			Original: code[match[0]:match[1]],
			// Expected is resolved later; stash the raw annotation.
			annotation: annotation,
		})
	}
	return found
}

func (k Kind) String() string {
	switch k {
	case StatementHole:
		return "statement"
	case TypeHole:
		return "type"
	default:
		return "expression"
	}
}

// Position renders "line:column" for diagnostics.
func (h Hole) Position() string {
	return strconv.Itoa(h.Line) + ":" + strconv.Itoa(h.Column)
}
