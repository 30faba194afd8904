package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "alice", []string{"alice"}},
		{"whitespace around separators", " alice , bob,carol ", []string{"alice", "bob", "carol"}},
		{"empty tokens", ",alice,,bob,", []string{"alice", "bob"}},
		{"duplicates are kept", "alice,alice", []string{"alice", "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ExtractCandidates(tt.in))
		})
	}
}

func TestDistinctCandidates(t *testing.T) {
	assert.Equal(t, []string{"bob", "alice"}, domain.DistinctCandidates([]string{"bob", "alice", "bob", "alice"}))
	assert.Empty(t, domain.DistinctCandidates(nil))
}

func TestCandidates_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []string
	}{
		{"one", []string{"alice"}},
		{"several", []string{"alice", "bob", "carol"}},
		{"duplicates", []string{"bob", "alice", "bob"}},
		{"parsed from a loose string", domain.ExtractCandidates(" carol ,, alice,carol ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := domain.DistinctCandidates(tt.in)
			got := domain.ExtractCandidates(domain.JoinCandidates(want))
			assert.ElementsMatch(t, want, got)
			assert.Equal(t, want, domain.DistinctCandidates(got))
		})
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{3, 3, true},
		{int64(-2), -2, true},
		{float64(4), 4, true},
		{4.5, 0, false},
		{json.Number("7"), 7, true},
		{" 12 ", 12, true},
		{"many", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := domain.ToInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}
