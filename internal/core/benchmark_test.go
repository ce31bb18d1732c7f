package core

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// Tokenizer Benchmarks
// ============================================================================

// generateActionsCSV builds a CSV export with n rows, a mix of quoted and
// plain cells.
func generateActionsCSV(n int) []byte {
	def, _ := Get(ActionsKey)
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	records := make([]ExternalRecord, n)
	for i := range records {
		records[i] = ActionEntry{
			ID:          fmt.Sprintf("a-%d", i),
			Num:         i + 1,
			Action:      fmt.Sprintf("Action %d, with a comma", i),
			Decision:    "Agreed \"in principle\"\nfollow up next week",
			Owner:       "Alex Chen",
			Category:    "Operations",
			Priority:    PriorityMedium,
			Status:      StatusInProgress,
			DueDate:     "2025-06-30",
			Meeting:     "Weekly ops",
			LinkedRules: []string{"rule-1", "rule-2"},
			CreatedAt:   created,
			UpdatedAt:   created,
		}.External()
	}
	return FormatCSV(def, records)
}

// BenchmarkTokenizeCSV benchmarks the quote-aware tokenizer on its own.
func BenchmarkTokenizeCSV(b *testing.B) {
	data := generateActionsCSV(500)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tokenizeCSV(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEscapeCSV benchmarks cell escaping.
// Called for every cell during export.
func BenchmarkEscapeCSV(b *testing.B) {
	cells := []string{
		"plain",
		"with, comma",
		"with \"quotes\"",
		"multi\nline",
		"",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range cells {
			EscapeCSV(c)
		}
	}
}

// ============================================================================
// Import / Export Benchmarks
// ============================================================================

// BenchmarkParseActionsCSV benchmarks the full import path: tokenizing,
// header mapping, coercion and typed conversion.
func BenchmarkParseActionsCSV(b *testing.B) {
	for _, rows := range []int{10, 500, 5000} {
		data := generateActionsCSV(rows)
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := ParseActionsCSV(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkWriteCSV benchmarks export serialization.
func BenchmarkWriteCSV(b *testing.B) {
	def, _ := Get(ActionsKey)
	batch, err := ParseActionsCSV(generateActionsCSV(500))
	if err != nil {
		b.Fatal(err)
	}
	records := batch.Records()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := WriteCSV(io.Discard, def, records); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPrepare benchmarks default filling before a write.
func BenchmarkPrepare(b *testing.B) {
	def, _ := Get(ActionsKey)
	r := newTestReconciler(newMemStore())

	var buf bytes.Buffer
	buf.WriteString("action,owner\n")
	for i := 0; i < 1000; i++ {
		buf.WriteString("Task " + strings.Repeat("x", i%20) + ",Alex Chen\n")
	}
	batch, err := ParseActionsCSV(buf.Bytes())
	if err != nil {
		b.Fatal(err)
	}
	records := batch.Records()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Prepare(def, records)
	}
}
