package emails

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"facegate.io/infrastructure/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

type ResendService struct {
	client *resend.Client
	from   string
}

func NewResendService(apiKey string, from string) *ResendService {
	return &ResendService{client: resend.NewClient(apiKey), from: from}
}

func (rs *ResendService) SendEmail(toEmail string, subject string, templateName string, opts interface{}) bool {
	html := loadTemplate(templateName, opts)
	if html == nil {
		return false
	}

	params := &resend.SendEmailRequest{
		From:    rs.from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    *html,
	}

	_, err := rs.client.Emails.Send(params)
	if err != nil {
		logger.Error("an error occured while trying to send email using resend service", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "templateName",
			Data: templateName,
		})
		return false
	}
	logger.Info("successfully sent email", logger.LoggerOptions{
		Key:  "templateName",
		Data: templateName,
	}, logger.LoggerOptions{
		Key:  "service",
		Data: "resend",
	})
	return true
}

// LogEmailService renders the template and logs instead of sending. Used when
// no resend key is configured.
type LogEmailService struct{}

func (LogEmailService) SendEmail(toEmail string, subject string, templateName string, opts interface{}) bool {
	html := loadTemplate(templateName, opts)
	if html == nil {
		return false
	}
	logger.Info(fmt.Sprintf("email not sent, no provider configured: %s", subject), logger.LoggerOptions{
		Key:  "templateName",
		Data: templateName,
	})
	return true
}

func loadTemplate(templateName string, opts interface{}) *string {
	var buffer bytes.Buffer
	tmpl, err := template.ParseFS(templateFS, "templates/"+templateName+".html")
	if err != nil {
		logger.Error("failed to parse email template", logger.LoggerOptions{
			Key:  "templateName",
			Data: templateName,
		}, logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil
	}
	err = tmpl.Execute(&buffer, opts)
	if err != nil {
		logger.Error("failed to execute email template", logger.LoggerOptions{
			Key:  "templateName",
			Data: templateName,
		}, logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil
	}
	templateString := buffer.String()
	return &templateString
}
