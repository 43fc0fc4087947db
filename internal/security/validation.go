// Package security provides credential masking, input validation, read-only mode and audit logging.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation patterns
var (
	// Trading symbols: uppercase letters, digits and the few punctuation marks NSE/BSE use.
	// Index keys such as "NIFTY 50" carry single inner spaces.
	symbolPattern = regexp.MustCompile(`^[A-Z0-9&_.-]+( [A-Z0-9&_.-]+)*$`)

	// Order IDs end up in the upstream URL path
	orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

	exchangePattern = regexp.MustCompile(`^[A-Z]{2,5}$`)

	// Patterns used to find credentials embedded in free text (not for validation)
	credentialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|access[_-]?token|request[_-]?token|checksum)[=:\s]+["']?([A-Za-z0-9_\-\.]{6,})["']?`),
		regexp.MustCompile(`(?i)token\s+([A-Za-z0-9]+:[A-Za-z0-9]+)`), // Authorization header value
	}
)

const maxSymbolLen = 40

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidateOrderID validates an order ID before it is placed in an upstream path.
func ValidateOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)

	if orderID == "" {
		return &ValidationError{Field: "order_id", Value: orderID, Message: "order ID cannot be empty"}
	}

	if !orderIDPattern.MatchString(orderID) {
		return &ValidationError{Field: "order_id", Value: orderID, Message: "invalid order ID format"}
	}

	return nil
}

// ValidateExchange validates an exchange code such as NSE or BSE.
func ValidateExchange(exchange string) error {
	if !exchangePattern.MatchString(exchange) {
		return &ValidationError{Field: "exchange", Value: exchange, Message: "invalid exchange"}
	}
	return nil
}

// ValidateSymbol validates a trading symbol.
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)

	if symbol == "" {
		return &ValidationError{Field: "tradingsymbol", Value: symbol, Message: "symbol cannot be empty"}
	}

	if len(symbol) > maxSymbolLen || !symbolPattern.MatchString(symbol) {
		return &ValidationError{Field: "tradingsymbol", Value: symbol, Message: "invalid symbol format"}
	}

	return nil
}

// MaskSensitive masks credentials embedded in free text.
func MaskSensitive(input string) string {
	result := input

	for _, pattern := range credentialPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			secret := sub[len(sub)-1]
			return strings.Replace(match, secret, MaskCredential(secret), 1)
		})
	}

	return result
}

// MaskCredential masks a credential value for logging.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
