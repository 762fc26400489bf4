package notifier

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Messenger delivers a text message to a list of phone numbers. The boolean
// reports whether the message was handed off to the provider.
type Messenger interface {
	Send(ctx context.Context, recipients []string, message string) (bool, error)
}

// SimulatedSMS is the stand-in SMS provider: it logs each message and waits a
// fixed delay to mimic a gateway round trip. No real delivery happens.
type SimulatedSMS struct {
	Delay time.Duration
}

func NewSimulatedSMS(delay time.Duration) *SimulatedSMS {
	return &SimulatedSMS{Delay: delay}
}

func (s *SimulatedSMS) Send(ctx context.Context, recipients []string, message string) (bool, error) {
	if len(recipients) == 0 {
		return false, nil
	}

	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return false, ctx.Err()
	}

	for _, recipient := range recipients {
		log.Infof("SMS to %s: %s", recipient, message)
	}
	return true, nil
}
