package services

import (
	"context"
	"fmt"
	"strings"

	"license-api/internal/config"
	"license-api/internal/models"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// EmailService delivers license keys over Brevo transactional email
type EmailService struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
}

// NewEmailService creates a new email service
func NewEmailService() *EmailService {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", config.AppConfig.BrevoAPIKey)
	return &EmailService{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: config.AppConfig.BrevoFromEmail,
		fromName:  config.AppConfig.BrevoFromName,
	}
}

// SendLicenseKey mails the buyer their key after payment completes.
func (s *EmailService) SendLicenseKey(user *models.User, order *models.Order) error {
	if config.AppConfig.BrevoAPIKey == "" {
		// Email delivery is optional in development.
		return nil
	}
	if order.LicenseKey == nil {
		return fmt.Errorf("order %s has no license key attached", order.OrderCode)
	}

	key := order.LicenseKey.Key
	subject := fmt.Sprintf("Your license key - order %s", order.OrderCode)

	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px; text-align: center;">
				<h1 style="color: #333; margin-bottom: 20px;">Thank you for your purchase</h1>
				<p style="color: #666; font-size: 16px; margin-bottom: 20px;">Order %s - %s</p>
				<div style="background-color: #007bff; color: white; padding: 20px; border-radius: 10px; font-size: 24px; font-weight: bold; letter-spacing: 2px; margin: 20px 0;">
					%s
				</div>
				<p style="color: #999; font-size: 14px; margin-top: 20px;">Keep this key private. It can be activated on up to %d device(s).</p>
			</div>
		</body>
		</html>
	`, order.OrderCode, order.Plan.Name, key, order.LicenseKey.MaxDevices)

	textContent := strings.TrimSpace(fmt.Sprintf(`
Thank you for your purchase.

Order: %s
Plan: %s
License key: %s

Keep this key private. It can be activated on up to %d device(s).
`, order.OrderCode, order.Plan.Name, key, order.LicenseKey.MaxDevices))

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: user.Email, Name: user.Name},
		},
		Subject:     subject,
		HtmlContent: htmlContent,
		TextContent: textContent,
	}

	_, resp, err := s.client.TransactionalEmailsApi.SendTransacEmail(context.Background(), email)
	if err != nil {
		return fmt.Errorf("failed to send license key email: %w", err)
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}
	return nil
}
