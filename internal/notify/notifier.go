package notify

import (
	"context"
	"time"

	"pawhome/pkg/logger"
)

// Notifier dispatches emails after the primary state transition has
// committed. Sends run in their own goroutine with an independent timeout;
// failures are logged and swallowed so a broken mail pipeline can never fail
// or roll back the operation that triggered it.
type Notifier struct {
	mailer  Mailer
	log     *logger.Logger
	timeout time.Duration

	// dispatch is swapped out in tests to run sends synchronously.
	dispatch func(fn func())
}

func NewNotifier(mailer Mailer, log *logger.Logger) *Notifier {
	return &Notifier{
		mailer:   mailer,
		log:      log,
		timeout:  20 * time.Second,
		dispatch: func(fn func()) { go fn() },
	}
}

// NewSyncNotifier runs sends inline instead of in a goroutine. Tests use it
// to observe the outcome deterministically.
func NewSyncNotifier(mailer Mailer, log *logger.Logger) *Notifier {
	n := NewNotifier(mailer, log)
	n.dispatch = func(fn func()) { fn() }
	return n
}

// SendAsync fires off a templated email without blocking the caller. A blank
// recipient is skipped silently (anonymous reports may lack an email).
func (n *Notifier) SendAsync(tmpl, to string, data map[string]interface{}) {
	if to == "" {
		return
	}
	n.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.mailer.Send(ctx, tmpl, to, data); err != nil {
			n.log.Error("email notification failed",
				"template", tmpl,
				"to", to,
				"error", err,
			)
			return
		}
		n.log.Info("email notification sent", "template", tmpl, "to", to)
	})
}
