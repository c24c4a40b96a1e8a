package telegram

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"medibot/internal/platform/logger"
	"medibot/internal/platform/retry"
	"medibot/internal/ports/messenger"
)

// Handler consume eventos del core (session.Machine).
type Handler interface {
	Handle(ctx context.Context, ev messenger.Event) error
}

// UpdateSource es lo que el poller necesita del cliente.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
}

// Poller hace long-polling y despacha cada lote: en orden dentro de cada
// chat, chats distintos en paralelo.
type Poller struct {
	source  UpdateSource
	handler Handler
	log     logger.Logger

	offset  int64
	backoff retry.Policy
}

func NewPoller(source UpdateSource, handler Handler, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		source:  source,
		handler: handler,
		log:     log,
		backoff: retry.Policy{Initial: time.Second, Max: 30 * time.Second, Jitter: true},
	}
}

// Run bloquea hasta que ctx se cancele.
func (p *Poller) Run(ctx context.Context) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.source.GetUpdates(ctx, p.offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d := retry.WithJitter(retry.ExpBackoff(failures, p.backoff.Initial, p.backoff.Max))
			failures++
			p.log.Warn("get updates failed", map[string]any{"err": err, "retry_in": d.String()})
			if !retry.SleepWithContext(ctx, d) {
				return nil
			}
			continue
		}
		failures = 0

		p.Dispatch(ctx, updates)
	}
}

// Dispatch procesa un lote y avanza el offset más allá del último update.
func (p *Poller) Dispatch(ctx context.Context, updates []Update) {
	if len(updates) == 0 {
		return
	}

	g := new(errgroup.Group)
	for _, batch := range groupByChat(updates, p.log) {
		g.Go(func() error {
			for _, ev := range batch {
				if err := p.handler.Handle(ctx, ev); err != nil {
					p.log.Error("handle update failed", map[string]any{"chat_id": ev.ChatID(), "err": err})
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
	}
}

// groupByChat conserva el orden de llegada dentro de cada chat.
func groupByChat(updates []Update, log logger.Logger) [][]messenger.Event {
	index := make(map[string]int)
	var batches [][]messenger.Event

	for _, u := range updates {
		ev, err := ToEvent(u)
		if err != nil {
			if !errors.Is(err, ErrIgnored) {
				log.Warn("malformed update dropped", map[string]any{"update_id": u.UpdateID, "err": err})
			}
			continue
		}

		chat := ev.ChatID()
		i, ok := index[chat]
		if !ok {
			i = len(batches)
			index[chat] = i
			batches = append(batches, nil)
		}
		batches[i] = append(batches[i], ev)
	}
	return batches
}
