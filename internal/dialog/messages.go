// internal/dialog/messages.go
package dialog

// Fixed conversational messages. Dialog errors always surface as one of
// these, never as a raw error.
const (
	MsgGreeting     = "Hi there, how can I help?"
	MsgThanks       = "You're welcome."
	MsgFallback     = "Sorry, I couldn't understand that."
	MsgConfirmation = "You're all set. I will send restaurant suggestions to your email shortly."

	MsgInvalidLocation  = "Sorry, I can only support Manhattan. Please provide a valid location."
	MsgInvalidCuisine   = "Please choose one of: Chinese, Japanese, Italian, Mexican, Korean, Thai, Indpak, Vietnamese."
	MsgInvalidPartySize = "Please provide a party size between 1 and 20."
	MsgInvalidEmail     = "Please provide a valid email address."
)
