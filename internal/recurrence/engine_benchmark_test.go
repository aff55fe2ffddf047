package recurrence

import "testing"

func BenchmarkExpand(b *testing.B) {
	rule := Rule{Frequency: FrequencyWeekly, Interval: 1, Count: 52}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dates, err := Expand(rule, "2024-01-08", 52)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(dates) != 52 {
			b.Fatalf("expected 52 occurrences, got %d", len(dates))
		}
	}
}
