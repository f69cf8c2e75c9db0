// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"

	senderIDAttribute = "AWS.SNS.SMS.SenderID"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrNotDecided             = errors.New("APPLICATION_NOT_DECIDED")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config      *Config
	logger      logger.Logger
	sesClient   SESService
	snsClient   SNSService
	templateMap map[string]map[string]string
	now         func() time.Time
}

// NewHandler builds the notifier. A nil client disables its channel.
func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient:   sesClient,
		snsClient:   snsClient,
		templateMap: loadTemplates(),
		now:         time.Now,
	}
}

// NotifyDecision tells the applicant of app about the lender's decision.
func (h *Handler) NotifyDecision(ctx context.Context, app *models.Application) (*Output, error) {
	var notificationType string
	switch app.Status {
	case models.StatusApproved:
		notificationType = TypeApplicationApproved
	case models.StatusRejected:
		notificationType = TypeApplicationRejected
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrNotDecided, app.ID, app.Status)
	}

	reason := app.RejectionReason
	if reason == "" {
		reason = "not specified"
	}
	return h.Execute(ctx, &Input{
		ApplicationID:    app.ID,
		NotificationType: notificationType,
		RecipientName:    app.FullName,
		Email:            app.Email,
		ContactNumber:    app.ContactNumber,
		Metadata: map[string]interface{}{
			"loanType":   app.LoanType,
			"loanAmount": fmt.Sprintf("%.2f", app.LoanAmount),
			"reason":     reason,
		},
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	template, exists := h.templateMap[input.NotificationType]
	if !exists {
		return nil, fmt.Errorf("template not found for type: %s", input.NotificationType)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	data := map[string]interface{}{
		"applicationId":    input.ApplicationID,
		"notificationType": input.NotificationType,
		"name":             input.RecipientName,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(template["subject"], data)
	body := renderTemplate(template["body"], data)
	sms := renderTemplate(template["sms"], data)

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	var failures []error
	if h.config.EmailEnabled && h.sesClient != nil && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			failures = append(failures, err)
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.config.SMSEnabled && h.snsClient != nil && input.ContactNumber != "" {
		phone := toE164(input.ContactNumber, h.config.CountryCode)
		if err := h.sendSMS(ctx, phone, sms); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			failures = append(failures, err)
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	switch {
	case len(failures) > 0:
		output.Status = StatusFailed
		return output, apperrors.NewNotificationSendFailedError(input.NotificationType,
			fmt.Errorf("%w: %v", ErrNotificationSendFailed, errors.Join(failures...)))
	case len(output.Channels) > 0:
		output.Status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"type":          input.NotificationType,
		"status":        output.Status,
		"channels":      strings.Join(output.Channels, ","),
	})
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			senderIDAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SenderID),
			},
		}
	}
	_, err := h.snsClient.Publish(ctx, input)
	return err
}

// toE164 turns a local 11-digit number such as 03001234567 into +923001234567.
func toE164(number, countryCode string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return number
	}
	return countryCode + strings.TrimPrefix(number, "0")
}

func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// {{missing}} -> empty string
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loadTemplates() map[string]map[string]string {
	return map[string]map[string]string{
		TypeApplicationApproved: {
			"subject": "Your loan application {{applicationId}} has been approved",
			"body":    "Dear {{name}},\n\nYour {{loanType}} loan application {{applicationId}} for {{loanAmount}} has been approved. Our team will contact you with the next steps.",
			"sms":     "Loan application {{applicationId}} approved. We will contact you shortly.",
		},
		TypeApplicationRejected: {
			"subject": "Update on your loan application {{applicationId}}",
			"body":    "Dear {{name}},\n\nWe are unable to approve your {{loanType}} loan application {{applicationId}}.\nReason: {{reason}}",
			"sms":     "Loan application {{applicationId}} was not approved. Reason: {{reason}}",
		},
	}
}

// NopNotifier is used when every notification channel is disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyDecision(context.Context, *models.Application) (*Output, error) {
	return &Output{Status: StatusDisabled, SentAt: time.Now().UTC().Format(time.RFC3339)}, nil
}
