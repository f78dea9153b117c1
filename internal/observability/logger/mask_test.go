package logger

import (
	"net/http"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	if got != "Bearer ****1234" {
		t.Fatalf("masked authorization = %q", got)
	}

	got = MaskAuthorization("rawsecretvalue")
	if got != "****alue" {
		t.Fatalf("masked raw value = %q", got)
	}
}

func TestMaskCookie(t *testing.T) {
	got := MaskCookie("session=abcdef1234; other=xyz")
	if got != "session=****1234; other=****xyz" {
		t.Fatalf("masked cookie = %q", got)
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer rcp_demo_local_key")
	headers.Set("Cookie", "session=abcdef1234")
	headers.Set("X-Request-Id", "req-1")

	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****_key" {
		t.Fatalf("authorization = %q", masked["Authorization"])
	}
	if masked["Cookie"] != "session=****1234" {
		t.Fatalf("cookie = %q", masked["Cookie"])
	}
	if masked["X-Request-Id"] != "req-1" {
		t.Fatalf("plain header altered: %q", masked["X-Request-Id"])
	}
}
