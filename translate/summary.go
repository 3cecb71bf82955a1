package translate

import (
	"errors"
	"fmt"
)

// Summary counts the outcome of one auto-translate run for a language.
// Ignored units were never sent, failed units were sent but not applied.
type Summary struct {
	Total   int
	Ignored int
	Success int
	Failed  int
	// Err is the provider failure that aborted the run, if any.
	Err error
}

// Merge adds the counters of o. Both errors are kept.
func (s Summary) Merge(o Summary) Summary {
	return Summary{
		Total:   s.Total + o.Total,
		Ignored: s.Ignored + o.Ignored,
		Success: s.Success + o.Success,
		Failed:  s.Failed + o.Failed,
		Err:     errors.Join(s.Err, o.Err),
	}
}

func (s Summary) String() string {
	msg := fmt.Sprintf("total %d, success %d, failed %d, ignored %d", s.Total, s.Success, s.Failed, s.Ignored)
	if s.Err != nil {
		msg += fmt.Sprintf(" (error: %v)", s.Err)
	}
	return msg
}
