// internal/dialog/handler.go
package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/common/metrics"
	"dining-concierge/internal/models"

	"github.com/google/uuid"
)

// PreferenceStore is the slice of the preference layer the dialog needs.
// Get soft-fails: an error is treated as "no preference found" at the call
// site, never as a dialog failure.
type PreferenceStore interface {
	Get(ctx context.Context, sessionID string) (*models.Preference, error)
	Save(ctx context.Context, sessionID, location, cuisine string) error
}

// RequestQueue is the producer side of the fulfillment queue.
type RequestQueue interface {
	Enqueue(ctx context.Context, req *models.DiningRequest) error
}

// Handler drives one dialog turn through the state machine.
type Handler struct {
	prefs  PreferenceStore
	queue  RequestQueue
	logger logger.Logger

	now   func() time.Time
	newID func() string
}

func NewHandler(prefs PreferenceStore, queue RequestQueue, log logger.Logger) *Handler {
	return &Handler{
		prefs:  prefs,
		queue:  queue,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// HandleTurn processes one inbound dialog event and returns the action
// envelope. Transition rules run in fixed order: fixed-intent closes,
// fallback, preference pre-fill, slot validation, missing-slot delegate,
// enqueue-and-confirm. The returned error is non-nil only for queue
// submission failure; every other outcome is a conversational message.
func (h *Handler) HandleTurn(ctx context.Context, event *models.DialogEvent) (*models.DialogResponse, error) {
	start := h.now()
	slots := cloneMap(event.Slots)
	attrs := cloneMap(event.SessionAttributes)

	switch event.IntentName {
	case models.IntentGreeting:
		return h.observe(start, event.IntentName,
			models.NewClose(event.IntentName, slots, attrs, MsgGreeting)), nil
	case models.IntentThankYou:
		return h.observe(start, event.IntentName,
			models.NewClose(event.IntentName, slots, attrs, MsgThanks)), nil
	}

	if event.IntentName != models.IntentDiningRequest {
		return h.observe(start, event.IntentName,
			models.NewClose(event.IntentName, slots, attrs, MsgFallback)), nil
	}

	// Pre-fill from stored preferences before any validation, but never
	// after this session has already enqueued a request. The notice must
	// surface in the same turn the slots are silently filled.
	if event.InvocationSource == models.SourcePreprocess && event.SessionID != "" && attrs[models.AttrEnqueued] != "1" {
		if resp := h.prefillFromPreferences(ctx, event.SessionID, slots, attrs); resp != nil {
			return h.observe(start, event.IntentName, resp), nil
		}
	}

	for _, sc := range slotChecks {
		if ok, msg := sc.check(slots[sc.name]); !ok {
			metrics.SlotValidationFailures.WithLabelValues(sc.name).Inc()
			return h.observe(start, event.IntentName,
				models.NewElicitSlot(event.IntentName, slots, attrs, sc.name, msg)), nil
		}
	}

	for _, name := range models.RequiredSlots {
		if strings.TrimSpace(slots[name]) == "" {
			return h.observe(start, event.IntentName,
				models.NewDelegate(event.IntentName, slots, attrs, "")), nil
		}
	}

	// Idempotency guard: one DiningRequest per session.
	if attrs[models.AttrEnqueued] == "1" {
		return h.observe(start, event.IntentName,
			models.NewClose(event.IntentName, slots, attrs, MsgConfirmation)), nil
	}

	// The flag is set before submission is attempted. A crash between here
	// and the send leaves the session believing a request was queued; this
	// window is accepted and documented rather than silently reordered.
	attrs[models.AttrEnqueued] = "1"

	location := slots[models.SlotLocation]
	cuisine := strings.ToLower(slots[models.SlotCuisine])

	if err := h.prefs.Save(ctx, event.SessionID, strings.ToLower(location), cuisine); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"session_id": event.SessionID,
		}).Warn("Preference save failed, continuing")
	}

	req := &models.DiningRequest{
		Location:   location,
		Cuisine:    cuisine,
		DiningTime: slots[models.SlotDiningTime],
		PartySize:  slots[models.SlotPartySize],
		Email:      slots[models.SlotEmail],
		RequestID:  h.newID(),
		CreatedAt:  h.now().UTC().Format(time.RFC3339),
	}

	if err := h.queue.Enqueue(ctx, req); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"session_id": event.SessionID,
			"request_id": req.RequestID,
		}).Error("Queue submission failed")
		return nil, err
	}

	metrics.RequestsEnqueued.Inc()
	h.logger.WithFields(map[string]interface{}{
		"session_id": event.SessionID,
		"request_id": req.RequestID,
		"cuisine":    req.Cuisine,
	}).Info("Dining request enqueued")

	return h.observe(start, event.IntentName,
		models.NewClose(event.IntentName, slots, attrs, MsgConfirmation)), nil
}

// prefillFromPreferences fills unset location/cuisine slots from the stored
// preference and returns a Delegate carrying the reuse notice, or nil when
// nothing was filled. Lookup errors collapse to absent.
func (h *Handler) prefillFromPreferences(ctx context.Context, sessionID string, slots, attrs map[string]string) *models.DialogResponse {
	pref, err := h.prefs.Get(ctx, sessionID)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"session_id": sessionID,
		}).Warn("Preference lookup failed, treating as absent")
		pref = nil
	}
	if pref == nil {
		return nil
	}

	filledLocation := false
	filledCuisine := false
	if slots[models.SlotLocation] == "" && pref.LastLocation != "" {
		slots[models.SlotLocation] = pref.LastLocation
		filledLocation = true
	}
	if slots[models.SlotCuisine] == "" && pref.LastCuisine != "" {
		slots[models.SlotCuisine] = pref.LastCuisine
		filledCuisine = true
	}
	if !filledLocation && !filledCuisine {
		return nil
	}

	// The notice names only the fields that actually came from the stored
	// preference; a value the user typed themselves is never announced.
	parts := make([]string, 0, 2)
	if filledLocation {
		parts = append(parts, "location: "+slots[models.SlotLocation])
	}
	if filledCuisine {
		parts = append(parts, "cuisine: "+slots[models.SlotCuisine])
	}
	notice := fmt.Sprintf("Reusing your last preferences (%s).", strings.Join(parts, ", "))
	attrs[models.AttrReusedNotice] = notice

	return models.NewDelegate(models.IntentDiningRequest, slots, attrs, notice)
}

func (h *Handler) observe(start time.Time, intent string, resp *models.DialogResponse) *models.DialogResponse {
	metrics.DialogTurns.WithLabelValues(intent, resp.Action).Inc()
	metrics.DialogTurnDuration.WithLabelValues(intent).Observe(h.now().Sub(start).Seconds())
	return resp
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
