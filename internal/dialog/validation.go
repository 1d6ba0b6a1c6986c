// internal/dialog/validation.go
package dialog

import (
	"strconv"
	"strings"

	"dining-concierge/internal/models"

	"github.com/go-playground/validator/v10"
)

// An empty slot value is always valid at this level; presence of required
// slots is handled by the Delegate rule in the state machine.

var validate = validator.New()

var allowedLocationTokens = []string{"manhattan", "new york"}

var allowedCuisines = map[string]struct{}{
	"chinese":    {},
	"japanese":   {},
	"italian":    {},
	"mexican":    {},
	"indpak":     {},
	"korean":     {},
	"thai":       {},
	"vietnamese": {},
}

// ValidateLocation accepts values containing a recognized borough/city
// token, case-insensitive.
func ValidateLocation(value string) (bool, string) {
	if value == "" {
		return true, ""
	}
	lowered := strings.ToLower(value)
	for _, token := range allowedLocationTokens {
		if strings.Contains(lowered, token) {
			return true, ""
		}
	}
	return false, MsgInvalidLocation
}

// ValidateCuisine accepts members of the fixed cuisine set, case-insensitive.
func ValidateCuisine(value string) (bool, string) {
	if value == "" {
		return true, ""
	}
	if _, ok := allowedCuisines[strings.ToLower(value)]; ok {
		return true, ""
	}
	return false, MsgInvalidCuisine
}

// ValidatePartySize accepts integers in [1, 20].
func ValidatePartySize(value string) (bool, string) {
	if value == "" {
		return true, ""
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > 20 {
		return false, MsgInvalidPartySize
	}
	return true, ""
}

// ValidateEmail accepts a standard local@domain.tld shape.
func ValidateEmail(value string) (bool, string) {
	if value == "" {
		return true, ""
	}
	if err := validate.Var(value, "email"); err != nil {
		return false, MsgInvalidEmail
	}
	return true, ""
}

type slotCheck struct {
	name  string
	check func(string) (bool, string)
}

// slotChecks runs in fixed order. DiningTime has no constraint beyond
// presence, so it does not appear here.
var slotChecks = []slotCheck{
	{models.SlotLocation, ValidateLocation},
	{models.SlotCuisine, ValidateCuisine},
	{models.SlotPartySize, ValidatePartySize},
	{models.SlotEmail, ValidateEmail},
}
