package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	ShopName     string
}

// OrderStatusNotice is the content of an order status email
type OrderStatusNotice struct {
	CustomerName string
	BillNumber   string
	From         string
	Status       string
	Message      string
	Total        string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// SendOrderStatusEmail tells a customer their order moved to a new status
func (s *EmailService) SendOrderStatusEmail(toEmail string, notice OrderStatusNotice) error {
	htmlContent, err := s.RenderOrderStatusEmail(notice)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Order %s Status Update - %s", notice.BillNumber, s.config.ShopName)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

// RenderOrderStatusEmail renders the order status email body
func (s *EmailService) RenderOrderStatusEmail(notice OrderStatusNotice) (string, error) {
	tmpl, err := template.New("order_status").Parse(orderStatusTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		OrderStatusNotice
		ShopName string
	}{
		OrderStatusNotice: notice,
		ShopName:          s.config.ShopName,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const orderStatusTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Order {{.BillNumber}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="background-color: #2f855a; padding: 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.ShopName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <p style="color: #4a5568; font-size: 16px;">Hello {{.CustomerName}},</p>
                            <p style="color: #4a5568; font-size: 16px;">
                                Your order <strong>{{.BillNumber}}</strong> moved from <strong>{{.From}}</strong> to <strong>{{.Status}}</strong>.
                            </p>
                            {{if .Total}}<p style="color: #4a5568; font-size: 16px;">Order total: <strong>{{.Total}}</strong></p>{{end}}
                            <p style="color: #718096; font-size: 14px;">{{.Message}}</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f8fafc; padding: 20px; text-align: center;">
                            <p style="color: #a0aec0; font-size: 13px; margin: 0;">This email was sent by {{.ShopName}}</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
