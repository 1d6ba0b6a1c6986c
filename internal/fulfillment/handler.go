// internal/fulfillment/handler.go
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/common/metrics"
	"dining-concierge/internal/common/validation"
	"dining-concierge/internal/models"
	"dining-concierge/internal/queue"
)

// payloadSchema guards the worker against malformed queue messages before
// any downstream call is made.
const payloadSchema = `{
	"type": "object",
	"required": ["location", "cuisine", "diningTime", "partySize", "email", "requestId"],
	"properties": {
		"location":   {"type": "string", "minLength": 1},
		"cuisine":    {"type": "string", "minLength": 1},
		"diningTime": {"type": "string", "minLength": 1},
		"partySize":  {"type": "string", "minLength": 1},
		"email":      {"type": "string", "minLength": 1},
		"requestId":  {"type": "string", "minLength": 1},
		"createdAt":  {"type": "string"}
	}
}`

// Queue is the consumer side of the dining-request queue.
type Queue interface {
	ReceiveOne(ctx context.Context) (*queue.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// SearchIndex returns candidate business ids for a cuisine.
type SearchIndex interface {
	CandidateIDs(ctx context.Context, cuisine string, limit int) ([]string, error)
}

// Catalog resolves business ids to full restaurant records.
type Catalog interface {
	BatchGet(ctx context.Context, ids []string) (map[string]models.RestaurantRecord, error)
}

// Mailer delivers the suggestion email.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Handler runs one fulfillment execution at a time. It performs no internal
// retries; a failed execution leaves the message in the queue and relies on
// redelivery.
type Handler struct {
	config  *Config
	queue   Queue
	search  SearchIndex
	catalog Catalog
	mailer  Mailer
	logger  logger.Logger
	schema  *validation.Schema

	// randInt is rand.Intn, injectable for deterministic sampling tests.
	randInt func(n int) int
}

func NewHandler(config *Config, q Queue, search SearchIndex, catalog Catalog, mailer Mailer, log logger.Logger) (*Handler, error) {
	schema, err := validation.CompileSchema(payloadSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile payload schema: %w", err)
	}
	return &Handler{
		config:  config,
		queue:   q,
		search:  search,
		catalog: catalog,
		mailer:  mailer,
		logger:  log,
		schema:  schema,
		randInt: rand.Intn,
	}, nil
}

// RunOnce polls the queue once and processes at most one message. It returns
// (false, nil) when the queue is empty. The message is deleted only after
// the email send reports success; any earlier failure leaves it in place.
func (h *Handler) RunOnce(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	msg, err := h.queue.ReceiveOne(ctx)
	if err != nil {
		metrics.FulfillmentExecutions.WithLabelValues("receive_failed").Inc()
		return false, err
	}
	if msg == nil {
		return false, nil
	}

	start := time.Now()
	err = h.process(ctx, msg)
	status := executionStatus(err)
	metrics.FulfillmentExecutions.WithLabelValues(status).Inc()
	metrics.FulfillmentDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return true, err
}

func (h *Handler) process(ctx context.Context, msg *queue.Message) error {
	result, err := h.schema.ValidateBytes([]byte(msg.Body))
	if err != nil {
		return cerrors.NewPayloadInvalidError(err.Error())
	}
	if !result.Valid {
		return cerrors.NewPayloadInvalidError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var req models.DiningRequest
	if err := json.Unmarshal([]byte(msg.Body), &req); err != nil {
		return cerrors.NewPayloadInvalidError(err.Error())
	}

	log := h.logger.WithFields(map[string]interface{}{
		"request_id": req.RequestID,
		"cuisine":    req.Cuisine,
	})

	ids, err := h.search.CandidateIDs(ctx, req.Cuisine, h.config.CandidateLimit)
	if err != nil {
		return err
	}
	if len(ids) < h.config.MinCandidates {
		log.WithFields(map[string]interface{}{"candidates": len(ids)}).
			Warn("Candidate pool too small, leaving message for redelivery")
		return cerrors.NewInsufficientCandidatesError(req.Cuisine, len(ids))
	}

	chosen := h.sample(ids, h.config.SampleSize)

	records, err := h.catalog.BatchGet(ctx, chosen)
	if err != nil {
		return err
	}

	body := composeEmail(&req, chosen, records)
	if err := h.mailer.Send(ctx, req.Email, h.config.EmailSubject, body); err != nil {
		return err
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()

	// Send-then-delete: acknowledging before a successful send could lose
	// the request. A crash here causes a duplicate email on redelivery,
	// never a lost one.
	if err := h.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		return err
	}

	log.Info("Fulfillment complete")
	return nil
}

// sample picks n distinct ids uniformly at random, unbiased toward list
// order (partial Fisher-Yates).
func (h *Handler) sample(ids []string, n int) []string {
	pool := make([]string, len(ids))
	copy(pool, ids)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + h.randInt(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// composeEmail renders the suggestion email in sampling order. Records
// missing from the catalog are silently skipped, so the body may carry
// fewer lines than the sample size.
func composeEmail(req *models.DiningRequest, order []string, records map[string]models.RestaurantRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello!\n\nHere are your %s suggestions in %s for %s people at %s:\n\n",
		req.Cuisine, req.Location, req.PartySize, req.DiningTime)
	for _, id := range order {
		record, ok := records[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s | %s | rating %g (%d reviews)\n",
			record.Name, record.Address, record.Rating, record.ReviewCount)
	}
	b.WriteString("\nEnjoy your meal!")
	return b.String()
}

func executionStatus(err error) string {
	if err == nil {
		return "success"
	}
	var stdErr *cerrors.StandardError
	if errors.As(err, &stdErr) {
		return strings.ToLower(string(stdErr.Code))
	}
	return "error"
}
