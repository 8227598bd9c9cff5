package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. If fromEmail is empty
// the service is disabled and every send becomes a logged no-op.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInviteEmail sends a family invite code to a prospective member
func (s *EmailService) SendInviteEmail(ctx context.Context, toEmail, toName, code string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invite to %s", toEmail)
		return nil
	}

	joinLink := fmt.Sprintf("%s/family/join?code=%s", s.appBaseURL, code)

	subject := "You're invited to join a ThinkFirst family"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.code { font-size: 28px; letter-spacing: 4px; font-weight: bold; text-align: center; margin: 20px 0; }
		.button { display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Join Your Family on ThinkFirst</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>You've been invited to join a family plan on ThinkFirst.</p>
			<p>Enter this code in the app to link your account:</p>
			<p class="code">%s</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Join Family</a>
			</p>
			<p>If you weren't expecting this invite, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from ThinkFirst. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, code, joinLink)

	textBody := fmt.Sprintf(`Hi %s,

You've been invited to join a family plan on ThinkFirst.

Enter this code in the app to link your account:

    %s

Or open this link:
%s

If you weren't expecting this invite, you can safely ignore this email.

---
This is an automated email from ThinkFirst. Please do not reply.
`, toName, code, joinLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWeeklyReportEmail sends a guardian a summary of their student's week
func (s *EmailService) SendWeeklyReportEmail(ctx context.Context, toEmail, studentName string, daysActive, freezesUsed int) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): weekly report to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("ThinkFirst weekly report for %s", studentName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.stat { font-size: 20px; margin: 10px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Weekly Report</h1>
		</div>
		<div class="content">
			<p>Here's how %s did this week:</p>
			<p class="stat">Days active: <strong>%d</strong></p>
			<p class="stat">Streak freezes used: <strong>%d</strong></p>
		</div>
		<div class="footer">
			<p>This is an automated email from ThinkFirst. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, studentName, daysActive, freezesUsed)

	textBody := fmt.Sprintf(`Weekly report for %s:

Days active: %d
Streak freezes used: %d

---
This is an automated email from ThinkFirst. Please do not reply.
`, studentName, daysActive, freezesUsed)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
