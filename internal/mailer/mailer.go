package mailer

import "context"

// Mailer is the outbound email delivery port. Retry policy lives with the
// caller: a failed send is logged and becomes eligible again on the next tick.
type Mailer interface {
	Send(ctx context.Context, msg Message) (*SendResponse, error)
}

// Message is one rendered reminder email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendResponse stores provider call metadata for audit and persistence.
type SendResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
