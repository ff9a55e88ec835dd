// Package mailer abstracts the outbound notification channel. Implementations
// report failure through the returned error and never retry on their own;
// retry is the scheduler's repolling, not the sender's concern.
package mailer

import "context"

type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
