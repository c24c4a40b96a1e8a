package frequency

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxHours acota el intervalo a un año; por encima Interval() desbordaría
// antes de llegar a valores con sentido clínico.
const MaxHours = 24 * 365

var (
	ErrUnrecognized = errors.New("frequency: unrecognized format")
	ErrZeroInterval = errors.New("frequency: interval must be at least one hour")
)

// Frequency es un intervalo de dosis en horas enteras.
// StartTime queda reservado; el cálculo de elegibilidad no lo usa.
type Frequency struct {
	Hours     int        `json:"hours"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// Every construye una Frequency directamente (tests, migraciones).
func Every(hours int) Frequency {
	return Frequency{Hours: hours}
}

func (f Frequency) Interval() time.Duration {
	return time.Duration(f.Hours) * time.Hour
}

func (f Frequency) String() string {
	switch {
	case f.Hours == 1:
		return "every hour"
	case f.Hours == 24:
		return "every day"
	case f.Hours > 24 && f.Hours%24 == 0:
		return fmt.Sprintf("every %d days", f.Hours/24)
	default:
		return fmt.Sprintf("every %d hours", f.Hours)
	}
}

// Parse interpreta texto libre (sin distinguir mayúsculas):
//
//	every N hour|hours|h    -> N
//	every N day|days        -> N*24
//	every day / every hour  -> 24 / 1
//	every Nh                -> N
//	N times <...> day       -> 24/N (división entera)
//
// "5 times a day" da 4 horas, no 4.8: la aproximación es intencional.
func Parse(s string) (Frequency, error) {
	tokens := strings.Fields(strings.ToLower(s))
	if len(tokens) == 0 {
		return Frequency{}, ErrUnrecognized
	}

	var (
		hours int
		err   error
	)
	if tokens[0] == "every" {
		hours, err = parseEvery(tokens[1:])
	} else {
		hours, err = parseTimesADay(tokens)
	}
	if err != nil {
		return Frequency{}, err
	}
	if hours <= 0 {
		return Frequency{}, ErrZeroInterval
	}
	return Frequency{Hours: hours}, nil
}

func parseEvery(rest []string) (int, error) {
	switch len(rest) {
	case 1:
		switch tok := rest[0]; {
		case tok == "day":
			return 24, nil
		case tok == "hour":
			return 1, nil
		case strings.HasSuffix(tok, "h"):
			n, err := parseCount(strings.TrimSuffix(tok, "h"))
			if err != nil {
				return 0, err
			}
			return bounded(n, 1)
		}
	case 2:
		n, err := parseCount(rest[0])
		if err != nil {
			return 0, err
		}
		switch rest[1] {
		case "hour", "hours", "h":
			return bounded(n, 1)
		case "day", "days":
			return bounded(n, 24)
		}
	}
	return 0, ErrUnrecognized
}

func parseTimesADay(tokens []string) (int, error) {
	n, err := parseCount(tokens[0])
	if err != nil {
		return 0, err
	}
	rest := tokens[1:]
	if len(rest) < 2 || rest[0] != "times" || rest[len(rest)-1] != "day" {
		return 0, ErrUnrecognized
	}
	return 24 / n, nil
}

func parseCount(tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, ErrUnrecognized
	}
	if n == 0 {
		return 0, ErrZeroInterval
	}
	return n, nil
}

// bounded multiplica n por unit solo si el resultado no supera MaxHours.
func bounded(n, unit int) (int, error) {
	if n > MaxHours/unit {
		return 0, ErrUnrecognized
	}
	return n * unit, nil
}
