package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"medibot/internal/platform/logger"
	"medibot/internal/ports/messenger"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 5 * time.Second
)

// DeliveryError describe un destinatario al que no se pudo notificar.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e DeliveryError) Error() string {
	return "notify " + e.Recipient + ": " + e.Err.Error()
}

func (e DeliveryError) Unwrap() error { return e.Err }

// Notifier envía un mismo texto a varios destinatarios con concurrencia
// acotada y timeout por envío. Los fallos se registran y se devuelven para
// inspección; nunca cortan el resto del lote.
type Notifier struct {
	sender      messenger.Sender
	log         logger.Logger
	concurrency int
	timeout     time.Duration
}

type Options struct {
	Concurrency int
	Timeout     time.Duration
}

func New(sender messenger.Sender, log logger.Logger, opts Options) *Notifier {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		sender:      sender,
		log:         log,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
	}
}

// Recipients calcula a quién avisar: el conjunto de acceso sin el actor,
// sin vacíos ni duplicados.
func Recipients(accessSet []string, actor string) []string {
	seen := make(map[string]struct{}, len(accessSet))
	out := make([]string, 0, len(accessSet))
	for _, u := range accessSet {
		if u == "" || u == actor {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// FanOut bloquea hasta terminar el lote. El orden entre destinatarios no
// está garantizado.
func (n *Notifier) FanOut(ctx context.Context, recipients []string, text string) []DeliveryError {
	var (
		mu       sync.Mutex
		failures []DeliveryError
	)

	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)

	for _, r := range recipients {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()

			if err := n.sender.SendMessage(sendCtx, r, text, nil); err != nil {
				n.log.Warn("notification delivery failed", map[string]any{
					"recipient": r,
					"err":       err,
				})
				mu.Lock()
				failures = append(failures, DeliveryError{Recipient: r, Err: err})
				mu.Unlock()
			}
			// Nunca se propaga: un destinatario caído no cancela a los demás.
			return nil
		})
	}
	_ = g.Wait()

	return failures
}
