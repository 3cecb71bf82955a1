// Package console provides the leveled terminal logger of xliffmerge.
//
// Messages are printed as "[LEVEL] message key=value ..." with a coloured
// level tag. Colours are switched off automatically when the output is not
// a terminal or NO_COLOR is set.
package console

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// Formatter renders logrus entries as "[LEVEL] message key=value".
type Formatter struct{}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(tag(e.Level))
	b.WriteByte(' ')
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(faint(fmt.Sprintf("%s=%v", k, e.Data[k])))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func tag(l logrus.Level) string {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return red("[ERROR]")
	case logrus.WarnLevel:
		return yellow("[WARN]")
	case logrus.InfoLevel:
		return blue("[INFO]")
	}
	return "[DEBUG]"
}

// Level returns the log level for the quiet and verbose options. Quiet
// wins over verbose.
func Level(quiet, verbose bool) logrus.Level {
	switch {
	case quiet:
		return logrus.ErrorLevel
	case verbose:
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// New creates a logger writing to w.
func New(w io.Writer, quiet, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&Formatter{})
	l.SetLevel(Level(quiet, verbose))
	return l
}
