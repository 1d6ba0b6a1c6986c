// internal/models/dialog.go
package models

// Slot names collected by the dining dialog.
const (
	SlotLocation   = "Location"
	SlotCuisine    = "Cuisine"
	SlotDiningTime = "DiningTime"
	SlotPartySize  = "PartySize"
	SlotEmail      = "Email"
)

// RequiredSlots is the fixed set the dining intent must fill before
// fulfillment, in elicitation order.
var RequiredSlots = []string{
	SlotLocation,
	SlotCuisine,
	SlotDiningTime,
	SlotPartySize,
	SlotEmail,
}

// Intent names produced by the upstream NLU layer.
const (
	IntentGreeting      = "GreetingIntent"
	IntentThankYou      = "ThankYouIntent"
	IntentDiningRequest = "DiningSuggestionsIntent"
	IntentUnknown       = "UnknownIntent"
)

// Dialog states.
const (
	DialogStateInProgress = "InProgress"
	DialogStateFulfilled  = "Fulfilled"
)

// Invocation sources. Preprocess runs before slot confirmation, Fulfill runs
// once the NLU layer considers the intent ready.
const (
	SourcePreprocess = "Preprocess"
	SourceFulfill    = "Fulfill"
)

// Session attribute keys carried turn-to-turn by the caller.
const (
	AttrEnqueued     = "enqueued"
	AttrReusedNotice = "reusedNotice"
)

// Response actions.
const (
	ActionClose      = "Close"
	ActionElicitSlot = "ElicitSlot"
	ActionDelegate   = "Delegate"
)

// DialogEvent is one inbound dialog turn. Slots map slot name to raw value;
// an absent or empty value means the slot is unset.
type DialogEvent struct {
	IntentName        string            `json:"intentName"`
	Slots             map[string]string `json:"slots"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
	InvocationSource  string            `json:"invocationSource"`
	SessionID         string            `json:"sessionId"`
}

// Slot returns the raw value of a slot, or "" when unset.
func (e *DialogEvent) Slot(name string) string {
	if e.Slots == nil {
		return ""
	}
	return e.Slots[name]
}

// Attr returns a session attribute value, or "" when unset.
func (e *DialogEvent) Attr(key string) string {
	if e.SessionAttributes == nil {
		return ""
	}
	return e.SessionAttributes[key]
}

// DialogResponse is the action envelope returned for one turn. It always
// carries the updated slots and session attributes.
type DialogResponse struct {
	Action            string            `json:"action"`
	IntentName        string            `json:"intentName"`
	DialogState       string            `json:"dialogState"`
	Slots             map[string]string `json:"slots"`
	SlotToElicit      string            `json:"slotToElicit,omitempty"`
	Message           string            `json:"message,omitempty"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
}

// NewClose builds a terminal Close response.
func NewClose(intentName string, slots, attrs map[string]string, message string) *DialogResponse {
	return &DialogResponse{
		Action:            ActionClose,
		IntentName:        intentName,
		DialogState:       DialogStateFulfilled,
		Slots:             slots,
		Message:           message,
		SessionAttributes: attrs,
	}
}

// NewElicitSlot builds a response asking the user to correct one slot.
func NewElicitSlot(intentName string, slots, attrs map[string]string, slotToElicit, message string) *DialogResponse {
	return &DialogResponse{
		Action:            ActionElicitSlot,
		IntentName:        intentName,
		DialogState:       DialogStateInProgress,
		Slots:             slots,
		SlotToElicit:      slotToElicit,
		Message:           message,
		SessionAttributes: attrs,
	}
}

// NewDelegate builds a response deferring the next step to the NLU layer.
// The message is optional.
func NewDelegate(intentName string, slots, attrs map[string]string, message string) *DialogResponse {
	return &DialogResponse{
		Action:            ActionDelegate,
		IntentName:        intentName,
		DialogState:       DialogStateInProgress,
		Slots:             slots,
		Message:           message,
		SessionAttributes: attrs,
	}
}
