package calib

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

const dateLayout = "20060102"

// Resolution is the outcome of a calibration day-walk.
type Resolution struct {
	// Pattern is the glob that matched, or the last pattern tried when the
	// walk was exhausted.
	Pattern string
	// Date is the calendar date baked into Pattern.
	Date string
	// Steps counts backward day steps taken (0 means the requested date had
	// calibration data).
	Steps int
	// Found reports whether Pattern matches at least one file.
	Found bool
}

// Resolve locates the nearest calibration exposure set at or before date.
// The pattern must embed the date string; each retry substitutes the previous
// day and checks the filesystem again, up to maxSteps backward steps.
//
// Exhaustion is not an error: the caller receives Found=false together with
// the last pattern tried, and decides how to degrade. A diagnostic is logged
// either way so fallback reductions are visible in the run log.
func Resolve(pattern, date string, maxSteps int, logger *slog.Logger) (Resolution, error) {
	if !strings.Contains(pattern, date) {
		return Resolution{}, fmt.Errorf("calib: pattern %q does not embed date %q", pattern, date)
	}
	current, err := time.Parse(dateLayout, date)
	if err != nil {
		return Resolution{}, fmt.Errorf("calib: parse date %q: %w", date, err)
	}

	res := Resolution{Pattern: pattern, Date: date}
	for {
		matches, err := filepath.Glob(res.Pattern)
		if err != nil {
			return Resolution{}, fmt.Errorf("calib: glob %q: %w", res.Pattern, err)
		}
		if len(matches) > 0 {
			res.Found = true
			if res.Steps > 0 && logger != nil {
				logger.Info("calibration fallback",
					slog.String("wanted", date),
					slog.String("using", res.Date),
					slog.Int("steps", res.Steps))
			}
			return res, nil
		}
		if res.Steps >= maxSteps {
			if logger != nil {
				logger.Error("no calibration found within lookback window",
					slog.String("wanted", date),
					slog.Int("days", maxSteps),
					slog.String("last_tried", res.Pattern))
			}
			return res, nil
		}

		previous := res.Date
		current = current.AddDate(0, 0, -1)
		res.Date = current.Format(dateLayout)
		res.Pattern = strings.ReplaceAll(res.Pattern, previous, res.Date)
		res.Steps++
		if logger != nil {
			logger.Debug("calibration lookback", slog.String("trying", res.Pattern))
		}
	}
}
