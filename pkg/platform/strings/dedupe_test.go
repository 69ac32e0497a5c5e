package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "no values",
			input:    nil,
			expected: nil,
		},
		{
			name:     "only separators",
			input:    []string{" , ,"},
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  kafka-1:9092 , kafka-2:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "joins repeated values preserving order",
			input:    []string{"in_review,approved", "signed_off", "approved"},
			expected: []string{"in_review", "approved", "signed_off"},
		},
		{
			name:     "preserves case",
			input:    []string{"Redis,redis"},
			expected: []string{"Redis", "redis"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input...))
		})
	}
}

func TestSplitListLower(t *testing.T) {
	assert.Equal(t, []string{"redis", "kafka"}, SplitListLower("Redis, KAFKA", "redis"))
	assert.Nil(t, SplitListLower(""))
}
