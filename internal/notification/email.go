package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailSender отправка писем через SendGrid. Основной канал для гостей без Telegram.
type EmailSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
	client     *rest.Client
}

func NewEmailSender(key, appName, fromEmail string) *EmailSender {
	return &EmailSender{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		host:       sendgridHost,
		client:     rest.DefaultClient,
	}
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Accepts(r Recipient) bool {
	return r.Email != ""
}

func (s *EmailSender) Send(ctx context.Context, r Recipient, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := BuildMessage(n, r)

	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(r.Name, r.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(m)

	res, err := s.do(ctx, req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send email: sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// do выполняет запрос с дедлайном из ctx, sendgrid.API контекст не принимает
func (s *EmailSender) do(ctx context.Context, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpRes, err := s.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(httpRes)
}
