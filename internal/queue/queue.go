// internal/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"time"

	commonaws "dining-concierge/internal/common/aws"
	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Message is one received queue entry. The receipt handle acknowledges it.
type Message struct {
	Body          string
	ReceiptHandle string
}

// Client wraps the dining-request queue. Delivery is at-least-once; the
// consumer tolerates duplicates and there is no requestId deduplication
// beyond the dialog's per-session guard.
type Client struct {
	sqs      commonaws.SQSAPI
	queueURL string
	logger   logger.Logger
}

func NewClient(api commonaws.SQSAPI, queueURL string, log logger.Logger) *Client {
	return &Client{sqs: api, queueURL: queueURL, logger: log}
}

// Enqueue submits one DiningRequest as a JSON message, carrying the
// requestId as a message attribute for tracing.
func (c *Client) Enqueue(ctx context.Context, req *models.DiningRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return cerrors.NewQueueSubmissionFailedError(err)
	}

	_, err = c.sqs.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"requestId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(req.RequestID),
			},
		},
	})
	if err != nil {
		return cerrors.NewQueueSubmissionFailedError(err)
	}

	c.logger.WithFields(map[string]interface{}{
		"request_id": req.RequestID,
	}).Debug("Dining request sent to queue")
	return nil
}

// ReceiveOne polls the queue once, non-blocking. Returns (nil, nil) when the
// queue is empty.
func (c *Client) ReceiveOne(ctx context.Context) (*Message, error) {
	out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     0,
	})
	if err != nil {
		return nil, &cerrors.StandardError{
			Code:      cerrors.ErrCodeQueueReceiveFailed,
			Message:   "Queue receive failed",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	return &Message{
		Body:          aws.ToString(msg.Body),
		ReceiptHandle: aws.ToString(msg.ReceiptHandle),
	}, nil
}

// Delete acknowledges a message. Only called after the notification send
// reports success.
func (c *Client) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return &cerrors.StandardError{
			Code:      cerrors.ErrCodeQueueDeleteFailed,
			Message:   "Queue delete failed",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	return nil
}
