package presence

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/pkg/metrics"
)

// Breaker guards a directory with a circuit breaker so a slow or failing
// provider does not hold up signup and onboarding.
type Breaker struct {
	next application.PresenceDirectory
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// BreakerSettings tune when the circuit opens and how long it stays open.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MinRequests: 5, FailureRatio: 0.6, OpenTimeout: 30 * time.Second}
}

func NewBreaker(next application.PresenceDirectory, s BreakerSettings, log *logrus.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "presence-directory",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			if log != nil {
				log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state change")
			}
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) UpsertUser(ctx context.Context, u application.PresenceUser) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.UpsertUser(ctx, u)
	})
	return err
}

// State reports the breaker state, for debug output.
func (b *Breaker) State() string { return b.cb.State().String() }

var _ application.PresenceDirectory = (*Breaker)(nil)
