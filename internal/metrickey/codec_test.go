package metrickey

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []SeriesKey{
		{Name: "http.requests"},
		{Name: "http.latency_ms"},
		{Name: "message.outcome", Dimension: "delivered"},
		{Name: "message.outcome", Dimension: "failed"},
		{Name: "usage.booking.created", Dimension: "month"},
		{Name: "usage.ai.request", Dimension: "day"},
	}
	for _, want := range cases {
		got := Decode(want.Encode())
		if got != want {
			t.Fatalf("round trip %+v: got %+v", want, got)
		}
	}
}

func TestEncodeWithoutDimensionIsBareName(t *testing.T) {
	key := SeriesKey{Name: "http.errors"}
	if encoded := key.Encode(); encoded != "http.errors" {
		t.Fatalf("expected bare name, got %q", encoded)
	}
}

func TestDecodeSplitsOnFirstSeparatorOnly(t *testing.T) {
	got := Decode("usage.api.call::month")
	if got.Name != "usage.api.call" || got.Dimension != "month" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}
