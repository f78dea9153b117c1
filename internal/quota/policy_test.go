package quota

import "testing"

func TestLimitsForKnownTiers(t *testing.T) {
	starter := LimitsFor("starter")
	if def, ok := starter[EventBookingCreated]; !ok || def.Limit == nil || *def.Limit != 200 {
		t.Fatalf("unexpected starter booking quota: %+v", starter[EventBookingCreated])
	}

	pro := LimitsFor("pro")
	if def := pro[EventBookingCreated]; !def.Unbounded() {
		t.Fatalf("expected unbounded pro booking quota, got %+v", def)
	}
	if def := pro[EventAIRequest]; def.Measurement != MeasurementTokens || def.Period != PeriodDay {
		t.Fatalf("unexpected pro ai quota: %+v", def)
	}
}

func TestLimitsForUnknownTierFallsBackToStarter(t *testing.T) {
	unknown := LimitsFor("platinum")
	starter := LimitsFor("starter")
	if len(unknown) != len(starter) {
		t.Fatalf("expected starter table for unknown tier")
	}
	for eventType, def := range starter {
		got := unknown[eventType]
		if got.Limit == nil || def.Limit == nil {
			if got.Unbounded() != def.Unbounded() {
				t.Fatalf("limit mismatch for %s", eventType)
			}
			continue
		}
		if *got.Limit != *def.Limit {
			t.Fatalf("limit mismatch for %s: %g vs %g", eventType, *got.Limit, *def.Limit)
		}
	}
}

func TestExceededErrorMessage(t *testing.T) {
	err := &ExceededError{EventType: EventMessageSent, Limit: 100, Used: 100, Attempted: 1}
	want := "quota exceeded for message.sent: limit 100, used 100, attempted 1"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
