// internal/notify/mailer.go
package notify

import (
	"context"

	commonaws "dining-concierge/internal/common/aws"
	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Mailer sends plain-text suggestion emails to a single recipient. When
// testRecipient is set every email goes there instead of the payload
// address (SES sandbox mode).
type Mailer struct {
	ses           commonaws.SESAPI
	sender        string
	testRecipient string
	logger        logger.Logger
}

func NewMailer(api commonaws.SESAPI, sender, testRecipient string, log logger.Logger) *Mailer {
	return &Mailer{
		ses:           api,
		sender:        sender,
		testRecipient: testRecipient,
		logger:        log,
	}
}

// Send delivers one plain-text email.
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	to := recipient
	if m.testRecipient != "" {
		to = m.testRecipient
	}

	_, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return cerrors.NewNotificationSendFailedError(err)
	}

	m.logger.WithFields(map[string]interface{}{
		"recipient": to,
	}).Info("Suggestion email sent")
	return nil
}
