package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy define cuántas veces reintentar y cómo espaciar los intentos.
type Policy struct {
	Attempts int           // intentos totales, incluido el primero
	Initial  time.Duration // espera antes del segundo intento
	Max      time.Duration // tope de espera (0 = sin tope)
	Jitter   bool
}

// Do ejecuta fn hasta que devuelva nil, un error no reintentable, o se agoten
// los intentos. Devuelve el último error.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			d := ExpBackoff(attempt-1, p.Initial, p.Max)
			if p.Jitter {
				d = WithJitter(d)
			}
			if !SleepWithContext(ctx, d) {
				return err
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}

func SleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func ExpBackoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 0 {
		return initial
	}
	d := initial << attempt
	if d <= 0 {
		return max
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// WithJitter aplica +/-20%.
func WithJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	j := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(d) * j)
}
