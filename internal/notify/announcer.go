// internal/notify/announcer.go

// Package notify publishes match announcements on the notification
// side channel. The engine treats announcements as fire-and-forget: a
// delivery failure is logged, never surfaced to the run.
package notify

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Config switches the two delivery paths independently. The SES mirror
// is meant for coordinator digests, not per-student delivery.
type Config struct {
	SNSEnabled   bool
	TopicARN     string
	EmailEnabled bool
	FromEmail    string
	ToEmail      string
}

// Announcer formats the spoken-friendly match summary and publishes it
// via SNS, with an optional SES email mirror.
type Announcer struct {
	config Config
	sns    SNSService
	ses    SESService
	logger logger.Logger
}

func NewAnnouncer(cfg Config, snsClient SNSService, sesClient SESService, log logger.Logger) *Announcer {
	return &Announcer{
		config: cfg,
		sns:    snsClient,
		ses:    sesClient,
		logger: log.WithFields(map[string]interface{}{"component": "announcer"}),
	}
}

// AnnounceMatches publishes the run summary. Both paths are attempted
// even if one fails; the first error is returned so the caller can log
// it.
func (a *Announcer) AnnounceMatches(ctx context.Context, student models.StudentProfile, results []models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	message := BuildSummary(results)

	var firstErr error
	if a.config.SNSEnabled && a.sns != nil {
		if err := a.publishSNS(ctx, student, message); err != nil {
			firstErr = err
		}
	}
	if a.config.EmailEnabled && a.ses != nil {
		if err := a.sendEmail(ctx, student, message, results); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildSummary renders the announcement line read out by screen
// readers. Kept short and free of visual formatting on purpose.
func BuildSummary(results []models.MatchResult) string {
	top := results[0]
	return fmt.Sprintf("Found %d matching scribes. Top match: %s with %d%% compatibility.",
		len(results), top.Scribe.Name, int(math.Round(top.Score)))
}

func (a *Announcer) publishSNS(ctx context.Context, student models.StudentProfile, message string) error {
	_, err := a.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.config.TopicARN),
		Subject:  aws.String("Scribe matches found"),
		Message:  aws.String(message),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"studentId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(student.ID),
			},
		},
	})
	if err != nil {
		a.logger.Error("sns publish failed", map[string]interface{}{
			"studentId": student.ID,
			"error":     err.Error(),
		})
		return errors.NewAnnouncementFailedError(err)
	}

	a.logger.Info("match announcement published", map[string]interface{}{
		"studentId": student.ID,
	})
	return nil
}

func (a *Announcer) sendEmail(ctx context.Context, student models.StudentProfile, message string, results []models.MatchResult) error {
	body := buildEmailBody(student, message, results)

	_, err := a.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(a.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{a.config.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data: aws.String(fmt.Sprintf("Scribe matches for %s", student.Name)),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		a.logger.Error("ses send failed", map[string]interface{}{
			"studentId": student.ID,
			"error":     err.Error(),
		})
		return errors.NewAnnouncementFailedError(err)
	}
	return nil
}

func buildEmailBody(student models.StudentProfile, summary string, results []models.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student: %s\n\n%s\n\n", student.Name, summary)
	for i, r := range results {
		if i >= 5 {
			fmt.Fprintf(&b, "...and %d more.\n", len(results)-i)
			break
		}
		fmt.Fprintf(&b, "%d. %s, %.0f%% compatibility, %.1f km away\n",
			i+1, r.Scribe.Name, r.Score, r.DistanceKm)
	}
	return b.String()
}
