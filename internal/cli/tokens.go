package cli

import "fmt"

// The worker and survey commands take an ordered sequence of command
// tokens, each followed by its own flags:
//
//	flatsurvey worker ngon -a 1 -a 1 -a 1 orbit-closure json --prefix out
//
// Tokens select the surface (or source), the goals and the reporters;
// their order groups the flags.

// Segment is one command token with the arguments that followed it.
type Segment struct {
	Token string
	Args  []string
}

// SplitTokens splits an ordered command line into segments, one per
// known token. Arguments before the first token are a usage error.
func SplitTokens(args []string, known func(string) bool) ([]Segment, error) {
	var segments []Segment
	for _, arg := range args {
		if known(arg) {
			segments = append(segments, Segment{Token: arg})
			continue
		}
		if len(segments) == 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unexpected argument %q before any command token", arg))
		}
		last := &segments[len(segments)-1]
		last.Args = append(last.Args, arg)
	}
	return segments, nil
}

var (
	surfaceTokens = map[string]bool{"ngon": true, "pickle": true}
	sourceTokens  = map[string]bool{"ngons": true, "pickle": true}

	goalTokens = map[string]bool{
		"orbit-closure":                 true,
		"cylinder-periodic-direction":   true,
		"completely-cylinder-periodic":  true,
		"undetermined-iet":              true,
		"boshernitzan-conjecture":       true,
		"cylinder-periodic-asymptotics": true,
	}

	processorTokens = map[string]bool{"flow-decompositions": true}

	reporterTokens = map[string]bool{"log": true, "json": true, "yaml": true, "store": true}
)

func workerToken(tok string) bool {
	return surfaceTokens[tok] || goalTokens[tok] || processorTokens[tok] || reporterTokens[tok]
}

func surveyToken(tok string) bool {
	return sourceTokens[tok] || goalTokens[tok] || processorTokens[tok] || reporterTokens[tok]
}
