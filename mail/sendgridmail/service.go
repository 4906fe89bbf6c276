package sendgridmail

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Service struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewService(key, appName, fromEmail string) *Service {
	return &Service{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (svc *Service) SendCredentials(toAddr, username, password string) error {

	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + "Your account"
	p.AddTos(sgmail.NewEmail("", toAddr))

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent(
		"text/plain",
		fmt.Sprintf("An account has been created for you.\r\n\r\nUsername: %s\r\nPassword: %s\r\n\r\nPlease log in and keep these credentials to yourself.\r\n", username, password),
	))

	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d", res.StatusCode)
	}
	return nil
}
