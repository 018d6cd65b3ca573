package auth

import "context"

// Mailer delivers account lifecycle mail. Delivery is an external
// collaborator; the service only hands over the recipient and the token.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// NopMailer discards all mail. Used when no delivery backend is configured.
type NopMailer struct{}

func (NopMailer) SendConfirmation(context.Context, string, string) error   { return nil }
func (NopMailer) SendPasswordReset(context.Context, string, string) error { return nil }
