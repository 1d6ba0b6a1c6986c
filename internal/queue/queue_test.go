// internal/queue/queue_test.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockSQS struct {
	sendErr    error
	receiveErr error
	deleteErr  error

	sent     []*sqs.SendMessageInput
	pending  []sqstypes.Message
	deleted  []string
	received int
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func (m *mockSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.received++
	if m.receiveErr != nil {
		return nil, m.receiveErr
	}
	if len(m.pending) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	msg := m.pending[0]
	m.pending = m.pending[1:]
	return &sqs.ReceiveMessageOutput{Messages: []sqstypes.Message{msg}}, nil
}

func (m *mockSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.deleted = append(m.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func createTestClient(t *testing.T, api *mockSQS) *Client {
	return NewClient(api, "https://sqs.test/dining-requests", logger.NewTestLogger(t))
}

func sampleRequest() *models.DiningRequest {
	return &models.DiningRequest{
		Location:   "Manhattan",
		Cuisine:    "japanese",
		DiningTime: "7pm",
		PartySize:  "4",
		Email:      "a@b.com",
		RequestID:  "req-123",
		CreatedAt:  "2026-01-01T00:00:00Z",
	}
}

// ==========================
// Producer Tests
// ==========================

func TestClient_Enqueue(t *testing.T) {
	api := &mockSQS{}
	client := createTestClient(t, api)

	err := client.Enqueue(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, api.sent, 1)

	input := api.sent[0]
	assert.Equal(t, "https://sqs.test/dining-requests", aws.ToString(input.QueueUrl))

	var payload models.DiningRequest
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.MessageBody)), &payload))
	assert.Equal(t, "japanese", payload.Cuisine)
	assert.Equal(t, "req-123", payload.RequestID)

	attr, ok := input.MessageAttributes["requestId"]
	require.True(t, ok)
	assert.Equal(t, "req-123", aws.ToString(attr.StringValue))
}

func TestClient_EnqueueFailure(t *testing.T) {
	api := &mockSQS{sendErr: errors.New("access denied")}
	client := createTestClient(t, api)

	err := client.Enqueue(context.Background(), sampleRequest())
	assert.Error(t, err)
}

// ==========================
// Consumer Tests
// ==========================

func TestClient_ReceiveOne(t *testing.T) {
	t.Run("returns nil on empty queue", func(t *testing.T) {
		api := &mockSQS{}
		client := createTestClient(t, api)

		msg, err := client.ReceiveOne(context.Background())
		require.NoError(t, err)
		assert.Nil(t, msg)
		assert.Equal(t, 1, api.received)
	})

	t.Run("returns one message at a time", func(t *testing.T) {
		api := &mockSQS{pending: []sqstypes.Message{
			{Body: aws.String(`{"cuisine":"thai"}`), ReceiptHandle: aws.String("rh-1")},
			{Body: aws.String(`{"cuisine":"korean"}`), ReceiptHandle: aws.String("rh-2")},
		}}
		client := createTestClient(t, api)

		msg, err := client.ReceiveOne(context.Background())
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, `{"cuisine":"thai"}`, msg.Body)
		assert.Equal(t, "rh-1", msg.ReceiptHandle)
	})

	t.Run("receive error surfaces", func(t *testing.T) {
		api := &mockSQS{receiveErr: errors.New("throttled")}
		client := createTestClient(t, api)

		msg, err := client.ReceiveOne(context.Background())
		assert.Error(t, err)
		assert.Nil(t, msg)
	})
}

func TestClient_Delete(t *testing.T) {
	api := &mockSQS{}
	client := createTestClient(t, api)

	require.NoError(t, client.Delete(context.Background(), "rh-1"))
	assert.Equal(t, []string{"rh-1"}, api.deleted)

	api.deleteErr = errors.New("handle expired")
	assert.Error(t, client.Delete(context.Background(), "rh-2"))
}
