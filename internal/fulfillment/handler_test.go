// internal/fulfillment/handler_test.go
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"
	"dining-concierge/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockQueue struct {
	messages   []*queue.Message
	receiveErr error
	deleteErr  error
	deleted    []string
}

func (m *mockQueue) ReceiveOne(ctx context.Context) (*queue.Message, error) {
	if m.receiveErr != nil {
		return nil, m.receiveErr
	}
	if len(m.messages) == 0 {
		return nil, nil
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, nil
}

func (m *mockQueue) Delete(ctx context.Context, receiptHandle string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, receiptHandle)
	return nil
}

type mockSearch struct {
	ids []string
	err error
}

func (m *mockSearch) CandidateIDs(ctx context.Context, cuisine string, limit int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.ids) > limit {
		return m.ids[:limit], nil
	}
	return m.ids, nil
}

type mockCatalog struct {
	records map[string]models.RestaurantRecord
	err     error
	asked   []string
}

func (m *mockCatalog) BatchGet(ctx context.Context, ids []string) (map[string]models.RestaurantRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.asked = ids
	out := map[string]models.RestaurantRecord{}
	for _, id := range ids {
		if record, ok := m.records[id]; ok {
			out[id] = record
		}
	}
	return out, nil
}

type mockMailer struct {
	err        error
	recipients []string
	subjects   []string
	bodies     []string
}

func (m *mockMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.recipients = append(m.recipients, recipient)
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

type testDeps struct {
	queue   *mockQueue
	search  *mockSearch
	catalog *mockCatalog
	mailer  *mockMailer
}

func createTestHandler(t *testing.T, deps *testDeps) *Handler {
	handler, err := NewHandler(DefaultConfig(), deps.queue, deps.search, deps.catalog, deps.mailer,
		logger.NewTestLogger(t))
	require.NoError(t, err)
	return handler
}

func candidateIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("b%d", i+1)
	}
	return ids
}

func recordsFor(ids []string) map[string]models.RestaurantRecord {
	out := map[string]models.RestaurantRecord{}
	for i, id := range ids {
		out[id] = models.RestaurantRecord{
			BusinessID:  id,
			Name:        fmt.Sprintf("Restaurant %d", i+1),
			Address:     fmt.Sprintf("%d Mott St", i+1),
			Rating:      4.5,
			ReviewCount: 100 + i,
			Cuisine:     "japanese",
		}
	}
	return out
}

func queuedMessage(t *testing.T) *queue.Message {
	body, err := json.Marshal(&models.DiningRequest{
		Location:   "Manhattan",
		Cuisine:    "japanese",
		DiningTime: "7pm",
		PartySize:  "4",
		Email:      "a@b.com",
		RequestID:  "req-123",
		CreatedAt:  "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	return &queue.Message{Body: string(body), ReceiptHandle: "rh-1"}
}

func defaultDeps(t *testing.T) *testDeps {
	ids := candidateIDs(10)
	return &testDeps{
		queue:   &mockQueue{messages: []*queue.Message{queuedMessage(t)}},
		search:  &mockSearch{ids: ids},
		catalog: &mockCatalog{records: recordsFor(ids)},
		mailer:  &mockMailer{},
	}
}

// ==========================
// End-to-End Execution
// ==========================

func TestHandler_RunOnce_Success(t *testing.T) {
	deps := defaultDeps(t)
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	// Email delivered to the payload address with the fixed subject.
	require.Len(t, deps.mailer.recipients, 1)
	assert.Equal(t, "a@b.com", deps.mailer.recipients[0])
	assert.Equal(t, "Your Dining Concierge Suggestions", deps.mailer.subjects[0])

	body := deps.mailer.bodies[0]
	assert.Contains(t, body, "japanese")
	assert.Contains(t, body, "Manhattan")
	assert.Contains(t, body, "4 people")
	assert.Contains(t, body, "7pm")
	assert.Contains(t, body, "rating 4.5")

	// Exactly 3 distinct ids were looked up.
	require.Len(t, deps.catalog.asked, 3)
	seen := map[string]bool{}
	for _, id := range deps.catalog.asked {
		assert.False(t, seen[id], "sampled ids must be distinct")
		seen[id] = true
	}

	// Message acknowledged after the send.
	assert.Equal(t, []string{"rh-1"}, deps.queue.deleted)
}

func TestHandler_RunOnce_IdleQueue(t *testing.T) {
	deps := defaultDeps(t)
	deps.queue.messages = nil
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, deps.mailer.recipients)
}

// ==========================
// Candidate Pool Tests
// ==========================

func TestHandler_InsufficientCandidates(t *testing.T) {
	deps := defaultDeps(t)
	deps.search.ids = candidateIDs(2)
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	assert.True(t, processed)
	require.Error(t, err)

	var stdErr *cerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cerrors.ErrCodeInsufficientCandidates, stdErr.Code)

	assert.Empty(t, deps.queue.deleted, "message must stay for redelivery")
	assert.Empty(t, deps.mailer.recipients)
}

func TestHandler_ExactlyMinCandidates(t *testing.T) {
	deps := defaultDeps(t)
	deps.search.ids = candidateIDs(3)
	deps.catalog.records = recordsFor(deps.search.ids)
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Len(t, deps.catalog.asked, 3)
}

// ==========================
// Sampling Tests
// ==========================

func TestHandler_SamplingIsUnbiased(t *testing.T) {
	deps := defaultDeps(t)
	handler := createTestHandler(t, deps)

	// Each position draws from the remaining pool, so any id can land in
	// any slot, not just the head of the candidate list.
	handler.randInt = func(n int) int { return n - 1 }
	chosen := handler.sample(candidateIDs(10), 3)

	// Always drawing the last remaining element walks the swapped tail:
	// b10, then b1 (swapped to the tail), then b2.
	assert.Equal(t, []string{"b10", "b1", "b2"}, chosen)
}

func TestHandler_SampleShorterPool(t *testing.T) {
	deps := defaultDeps(t)
	handler := createTestHandler(t, deps)
	handler.randInt = func(n int) int { return 0 }

	chosen := handler.sample([]string{"b1", "b2"}, 3)
	assert.Equal(t, []string{"b1", "b2"}, chosen)
}

// ==========================
// Failure Ordering Tests
// ==========================

func TestHandler_SendFailureKeepsMessage(t *testing.T) {
	deps := defaultDeps(t)
	deps.mailer.err = errors.New("ses unavailable")
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	assert.True(t, processed)
	assert.Error(t, err)
	assert.Empty(t, deps.queue.deleted, "send-then-delete: failed send must not acknowledge")
}

func TestHandler_SearchFailure(t *testing.T) {
	deps := defaultDeps(t)
	deps.search.err = cerrors.NewSearchUnavailableError(errors.New("cluster red"))
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	assert.True(t, processed)
	assert.Error(t, err)
	assert.Empty(t, deps.queue.deleted)
}

func TestHandler_CatalogFailure(t *testing.T) {
	deps := defaultDeps(t)
	deps.catalog.err = cerrors.NewCatalogUnavailableError(errors.New("throttled"))
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	assert.True(t, processed)
	assert.Error(t, err)
	assert.Empty(t, deps.queue.deleted)
	assert.Empty(t, deps.mailer.recipients)
}

func TestHandler_ReceiveFailure(t *testing.T) {
	deps := defaultDeps(t)
	deps.queue.receiveErr = errors.New("throttled")
	handler := createTestHandler(t, deps)

	processed, err := handler.RunOnce(context.Background())
	assert.False(t, processed)
	assert.Error(t, err)
}

// ==========================
// Payload Validation Tests
// ==========================

func TestHandler_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not-json"},
		{name: "missing email", body: `{"location":"Manhattan","cuisine":"thai","diningTime":"7pm","partySize":"4","requestId":"r1"}`},
		{name: "empty cuisine", body: `{"location":"Manhattan","cuisine":"","diningTime":"7pm","partySize":"4","email":"a@b.com","requestId":"r1"}`},
		{name: "wrong type", body: `{"location":"Manhattan","cuisine":"thai","diningTime":"7pm","partySize":4,"email":"a@b.com","requestId":"r1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps(t)
			deps.queue.messages = []*queue.Message{{Body: tt.body, ReceiptHandle: "rh-bad"}}
			handler := createTestHandler(t, deps)

			processed, err := handler.RunOnce(context.Background())
			assert.True(t, processed)
			require.Error(t, err)

			var stdErr *cerrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, cerrors.ErrCodePayloadInvalid, stdErr.Code)
			assert.Empty(t, deps.mailer.recipients)
		})
	}
}

// ==========================
// Email Composition Tests
// ==========================

func TestComposeEmail_SkipsMissingRecords(t *testing.T) {
	req := &models.DiningRequest{
		Location:   "Manhattan",
		Cuisine:    "japanese",
		DiningTime: "7pm",
		PartySize:  "4",
	}
	order := []string{"b1", "b2", "b3"}
	records := recordsFor([]string{"b1", "b3"})

	body := composeEmail(req, order, records)

	assert.Contains(t, body, "Restaurant 1")
	assert.Contains(t, body, "Restaurant 2") // recordsFor numbers by position
	assert.NotContains(t, body, "b2")
	assert.Equal(t, 2, countLinesWithPrefix(body, "- "))
}

func TestComposeEmail_LineFormat(t *testing.T) {
	req := &models.DiningRequest{Location: "Manhattan", Cuisine: "thai", DiningTime: "7pm", PartySize: "2"}
	records := map[string]models.RestaurantRecord{
		"b1": {BusinessID: "b1", Name: "Thai Spot", Address: "99 Bowery", Rating: 4, ReviewCount: 58},
	}

	body := composeEmail(req, []string{"b1"}, records)
	assert.Contains(t, body, "Hello!\n\nHere are your thai suggestions in Manhattan for 2 people at 7pm:\n\n")
	assert.Contains(t, body, "- Thai Spot | 99 Bowery | rating 4 (58 reviews)")
	assert.Contains(t, body, "Enjoy your meal!")
}

func countLinesWithPrefix(body, prefix string) int {
	count := 0
	for _, line := range splitLines(body) {
		if len(line) >= len(prefix) && line[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
