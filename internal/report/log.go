package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

const shruggie = `¯\_(ツ)_/¯`

// Log streams human-readable progress and results, one line per event:
//
//	[Ngon([1, 1, 1])] [OrbitClosure] dimension: 4/6
type Log struct {
	surface surface.Surface
	out     io.Writer
}

func NewLog(s surface.Surface, out io.Writer) *Log {
	return &Log{surface: s, out: out}
}

func (l *Log) prefix(source string) string {
	return fmt.Sprintf("[%s] [%s]", l.surface.Describe(), DisplayName(source))
}

func (l *Log) Log(source, message string, kv ...any) {
	line := fmt.Sprintf("%s %s", l.prefix(source), message)
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v: %v", kv[i], kv[i+1])
	}
	fmt.Fprintln(l.out, line)
}

func (l *Log) Progress(source, unit string, count, total int) {
	if total > 0 {
		l.Log(source, fmt.Sprintf("%s: %d/%d", unit, count, total))
	} else {
		l.Log(source, fmt.Sprintf("%s: %d/?", unit, count))
	}
}

func (l *Log) Result(ctx context.Context, source string, rec Record) error {
	if rec.Verdict.Resolved() {
		l.Log(source, rec.Verdict.String())
	} else {
		l.Log(source, shruggie)
	}
	return nil
}

func (l *Log) Flush() error { return nil }

// initialisms that stay upper case when a job kind is displayed.
var initialisms = map[string]string{
	"iet": "IET",
}

// DisplayName turns a job kind into the display form used in log lines,
// e.g. "orbit-closure" becomes "OrbitClosure" and "undetermined-iet"
// becomes "UndeterminedIET".
func DisplayName(kind string) string {
	display := ""
	for _, word := range strings.Split(kind, "-") {
		if word == "" {
			continue
		}
		if upper, ok := initialisms[word]; ok {
			display += upper
			continue
		}
		display += strings.ToUpper(word[:1]) + word[1:]
	}
	return display
}
