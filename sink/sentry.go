package sink

import (
	"fmt"

	"github.com/angch/logrelay/sysstat"
	"github.com/getsentry/sentry-go"
)

// Sentry passes entries on to Next and mirrors them to Sentry: debug
// entries become breadcrumbs, error entries become events carrying the host
// state from Collector.
type Sentry struct {
	Next      Sink
	Hub       *sentry.Hub
	Collector *sysstat.Collector
}

// NewSentry wraps next. A nil hub uses the current hub.
func NewSentry(next Sink, hub *sentry.Hub, collector *sysstat.Collector) *Sentry {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Sentry{Next: next, Hub: hub, Collector: collector}
}

func (s *Sentry) Debug(tag, msg string) {
	if s.Next != nil {
		s.Next.Debug(tag, msg)
	}
	s.Hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: tag,
		Message:  msg,
		Level:    sentry.LevelDebug,
	}, nil)
}

func (s *Sentry) Error(tag, msg string, err error) {
	if s.Next != nil {
		s.Next.Error(tag, msg, err)
	}
	s.Hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", tag)
		scope.SetLevel(sentry.LevelError)

		if state := s.Collector.GetState(); state != nil {
			scope.SetContext("Server State", state.ToMap())
		}

		if err != nil {
			s.Hub.CaptureException(fmt.Errorf("%s: %w", msg, err))
			return
		}
		s.Hub.CaptureMessage(msg)
	})
}
