package aggregation

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/logsift-systems/logsift/internal/models"
)

// ErrorsAverageIntervalName is the registry name of the error-interval
// aggregator.
const ErrorsAverageIntervalName = "errors-average-interval"

// errorLevels are the severity labels treated as error-class.
var errorLevels = map[string]struct{}{
	"ERROR":  {},
	"FATAL":  {},
	"SEVERE": {},
}

type errorsAverageInterval struct{}

// NewErrorsAverageInterval creates the aggregator computing the mean time
// between consecutive error-class records ordered by timestamp. With
// fewer than two qualifying records the result is the zero duration,
// a defined sentinel, not an error.
func NewErrorsAverageInterval() Aggregator {
	return &errorsAverageInterval{}
}

func newErrorsAverageIntervalFromJSON(json.RawMessage) (Aggregator, error) {
	return NewErrorsAverageInterval(), nil
}

func (a *errorsAverageInterval) Name() string { return ErrorsAverageIntervalName }

func (a *errorsAverageInterval) Apply(records []models.LogRecord) (any, error) {
	type stamped struct {
		ts time.Time
	}
	stamps := make([]stamped, 0, len(records))
	for _, r := range records {
		if _, ok := errorLevels[r.Level]; !ok {
			continue
		}
		ts, err := r.Timestamp()
		if err != nil {
			// Records without a parseable timestamp cannot contribute
			// to an interval.
			continue
		}
		stamps = append(stamps, stamped{ts: ts})
	}

	if len(stamps) < 2 {
		return time.Duration(0), nil
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].ts.Before(stamps[j].ts) })

	var total time.Duration
	for i := 1; i < len(stamps); i++ {
		total += stamps[i].ts.Sub(stamps[i-1].ts)
	}
	return total / time.Duration(len(stamps)-1), nil
}
