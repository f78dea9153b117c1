package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Keys that may carry tenant credentials. API keys and their hashes must
// never land in span attributes.
var sensitiveAttributeKeys = []string{
	"secret",
	"token",
	"api_key",
	"key_hash",
	"authorization",
}

// SafeAttributes drops attributes with sensitive keys.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isSensitiveKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// SafeError reduces an error to its type so messages containing request
// payloads never reach the trace backend.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
