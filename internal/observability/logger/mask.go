package logger

import (
	"net/http"
	"strings"
)

// MaskAuthorization masks bearer credentials, preserving the scheme.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + maskLast4(parts[1])
	}
	return maskLast4(value)
}

// MaskCookie masks cookie values while preserving cookie names.
func MaskCookie(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ";")
	masked := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		if idx := strings.Index(segment, "="); idx >= 0 {
			key := strings.TrimSpace(segment[:idx])
			val := strings.TrimSpace(segment[idx+1:])
			segment = key + "=" + maskLast4(val)
		} else {
			segment = maskLast4(segment)
		}
		masked = append(masked, segment)
	}
	return strings.Join(masked, "; ")
}

// MaskHeaders returns a copy of headers safe to log. Tenant API keys travel
// in the Authorization header, so it is always masked.
func MaskHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "authorization":
			masked[key] = MaskAuthorization(joined)
		case "cookie":
			masked[key] = MaskCookie(joined)
		default:
			masked[key] = joined
		}
	}
	return masked
}

func maskLast4(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
