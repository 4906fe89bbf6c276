package core

// A Mailer delivers the one-time credentials of a freshly created account.
// Implementations live in mail/. Delivery failures must be returned, not
// retried; the caller logs them and carries on (the account stays).
type Mailer interface {
	SendCredentials(toAddr, username, password string) error
}

type nopMailer struct{}

func (nopMailer) SendCredentials(toAddr, username, password string) error {
	return nil
}
