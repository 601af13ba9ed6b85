package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends caregiver invitation emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. If fromEmail is empty
// the service is disabled and every send becomes a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
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

// SendInvitationEmail emails an invitation code to a caregiver
func (s *EmailService) SendInvitationEmail(ctx context.Context, to, patientName, code string) error {
	if !s.enabled {
		log.Printf("Email service disabled, skipping invitation email to %s", to)
		return nil
	}

	subject := fmt.Sprintf("%s invited you to be a caregiver on MedTrack", patientName)
	acceptURL := fmt.Sprintf("%s/caregiver/accept?code=%s", s.appBaseURL, code)

	htmlBody := fmt.Sprintf(`
		<p>%s has invited you to help track their medications on MedTrack.</p>
		<p>Your invitation code is: <strong>%s</strong></p>
		<p><a href="%s">Accept the invitation</a> or enter the code in the app.</p>
		<p>The code expires in a few days. If you weren't expecting this, you can ignore this email.</p>
	`, patientName, code, acceptURL)

	textBody := fmt.Sprintf(
		"%s has invited you to help track their medications on MedTrack.\n\n"+
			"Your invitation code is: %s\n\n"+
			"Accept it at %s or enter the code in the app.\n",
		patientName, code, acceptURL)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	return nil
}
