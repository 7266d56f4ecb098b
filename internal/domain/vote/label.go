// Package vote contains the roll-call vote domain: labels, offender rules,
// roll-call keys and tracked vote records.
package vote

import "strings"

// Label is a cast vote collapsed to the closed vocabulary.
type Label string

// Closed label vocabulary.
const (
	Yea     Label = "yea"
	Nay     Label = "nay"
	Present Label = "present"
	Unknown Label = "unknown"
)

// synonyms maps lower-cased, trimmed source spellings to their label.
var synonyms = map[string]Label{ //nolint:gochecknoglobals // read-only lookup table
	"yea": Yea,
	"aye": Yea,
	"yes": Yea,
	"y":   Yea,

	"nay": Nay,
	"no":  Nay,
	"n":   Nay,

	"present":                   Present,
	"not voting":                Present,
	"nv":                        Present,
	"present, giving live pair": Present,
}

// Normalize maps a free-text vote string to a Label. It never fails: empty and
// unrecognized inputs collapse to Unknown.
func Normalize(raw string) Label {
	if l, ok := synonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return l
	}
	return Unknown
}

// Upper returns the display form used in persisted offender entries.
func (l Label) Upper() string {
	return strings.ToUpper(string(l))
}
