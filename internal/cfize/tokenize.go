package cfize

import (
	"github.com/specialistvlad/cfize/internal/cferr"
)

// token is one piece of the split template: literal text, or a full pattern
// match whose directive group holds the snippet to evaluate.
type token struct {
	text        string
	directive   string
	isDirective bool
}

// tokenize splits text into [prefix, match, prefix, match, ..., suffix],
// repeatedly partitioning the remaining suffix on its first match until no
// match is left.
func (e *Engine) tokenize(text string) ([]token, error) {
	var tokens []token
	rest := text
	offset := 0
	for {
		loc := e.pattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			return append(tokens, token{text: rest}), nil
		}
		if loc[0] == loc[1] {
			return nil, cferr.Configuration("capture_pattern",
				"pattern %q matched empty text at offset %d", e.pattern.String(), offset+loc[0])
		}

		tok := token{text: rest[loc[0]:loc[1]], isDirective: true}
		if start, end := loc[2*e.group], loc[2*e.group+1]; start >= 0 {
			tok.directive = rest[start:end]
		}
		tokens = append(tokens, token{text: rest[:loc[0]]}, tok)

		rest = rest[loc[1]:]
		offset += loc[1]
	}
}
