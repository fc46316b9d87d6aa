package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidInput is returned when a probability or severity is outside 1..5
var ErrInvalidInput = goerr.New("invalid input")

// Probability is the ordinal likelihood of a deviation (1..5)
type Probability int

// Severity is the ordinal consequence severity of a deviation (1..5)
type Severity int

// Rating is the risk rating, the product of probability and severity
type Rating int

// EscalationThreshold is the lowest rating that requires an additional-control round
const EscalationThreshold Rating = 12

const (
	minLevel = 1
	maxLevel = 5
)

// Bounds of the probability and severity scales
const (
	ProbabilityMin Probability = minLevel
	ProbabilityMax Probability = maxLevel
	SeverityMin    Severity    = minLevel
	SeverityMax    Severity    = maxLevel
)

// IsValid checks if the probability is within 1..5
func (p Probability) IsValid() bool {
	return p >= minLevel && p <= maxLevel
}

// IsValid checks if the severity is within 1..5
func (s Severity) IsValid() bool {
	return s >= minLevel && s <= maxLevel
}

// Score computes the risk rating of a probability/severity pair
func Score(p Probability, s Severity) (Rating, error) {
	if !p.IsValid() {
		return 0, goerr.Wrap(ErrInvalidInput, "probability out of range", goerr.V("probability", int(p)))
	}
	if !s.IsValid() {
		return 0, goerr.Wrap(ErrInvalidInput, "severity out of range", goerr.V("severity", int(s)))
	}
	return Rating(int(p) * int(s)), nil
}

// RequiresEscalation reports whether a rating makes the additional-control fields mandatory
func RequiresEscalation(r Rating) bool {
	return r >= EscalationThreshold
}

// Band is the severity band a rating falls into
type Band string

const (
	BandTrivial      Band = "trivial"
	BandTolerable    Band = "tolerable"
	BandModerate     Band = "moderate"
	BandSubstantial  Band = "substantial"
	BandIntolerable  Band = "intolerable"
	BandUnclassified Band = "unclassified"
)

// Achievable products of 1..5 x 1..5 are sparse, so bands come from a table
// rather than numeric ranges.
var bandTable = map[Rating]Band{
	1: BandTrivial, 2: BandTrivial, 3: BandTrivial, 4: BandTrivial, 5: BandTrivial,
	6: BandTolerable, 8: BandTolerable, 9: BandTolerable, 10: BandTolerable,
	12: BandModerate, 15: BandModerate,
	16: BandSubstantial, 18: BandSubstantial,
	20: BandIntolerable, 25: BandIntolerable,
}

// Classify maps a rating to its band. Unknown ratings are BandUnclassified.
func Classify(r Rating) Band {
	if b, ok := bandTable[r]; ok {
		return b
	}
	return BandUnclassified
}

// Band returns the band of the rating
func (r Rating) Band() Band {
	return Classify(r)
}

// AllBands returns the named bands in ascending order of severity
func AllBands() []Band {
	return []Band{
		BandTrivial,
		BandTolerable,
		BandModerate,
		BandSubstantial,
		BandIntolerable,
	}
}

// IsValid checks if the band is a named band or unclassified
func (b Band) IsValid() bool {
	switch b {
	case BandTrivial, BandTolerable, BandModerate, BandSubstantial, BandIntolerable, BandUnclassified:
		return true
	default:
		return false
	}
}

// Label returns a human readable name of the band
func (b Band) Label() string {
	switch b {
	case BandTrivial:
		return "Trivial"
	case BandTolerable:
		return "Tolerable"
	case BandModerate:
		return "Moderate"
	case BandSubstantial:
		return "Substantial"
	case BandIntolerable:
		return "Intolerable"
	default:
		return "Unclassified"
	}
}

// Emoji returns the Slack emoji used for the band in notifications
func (b Band) Emoji() string {
	switch b {
	case BandTrivial:
		return ":white_circle:"
	case BandTolerable:
		return ":large_green_circle:"
	case BandModerate:
		return ":large_yellow_circle:"
	case BandSubstantial:
		return ":large_orange_circle:"
	case BandIntolerable:
		return ":red_circle:"
	default:
		return ":grey_question:"
	}
}

// String returns the string representation of the band
func (b Band) String() string {
	return string(b)
}
