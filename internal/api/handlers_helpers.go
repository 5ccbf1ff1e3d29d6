package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cursorworkshop/aegistry/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
// This includes newlines, carriage returns, tabs, and other control characters that could
// allow attackers to forge log entries or corrupt log files.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// validateRequest validates a struct using go-playground/validator and, on
// failure, returns the details suitable for ResponseWriter.ValidationError.
func validateRequest(v interface{}) (message string, details interface{}) {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return "", nil
	}
	apiErr := validationErr.ToAPIError()
	return apiErr.Message, apiErr.Details
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
