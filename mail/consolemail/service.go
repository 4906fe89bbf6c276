// Package consolemail logs credential mails instead of delivering them.
// It is the default when no sendgrid key is configured, and good enough
// for development.
package consolemail

import (
	"log"
)

type Service struct {
	AppName string
}

func (svc Service) SendCredentials(toAddr, username, password string) error {
	log.Printf("[%s] to %s: your account is %q with password %q", svc.AppName, toAddr, username, password)
	return nil
}
