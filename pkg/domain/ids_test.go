package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "engageflow/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProcedureID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEngagementID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseProcedureID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ProcedureID(validUUID), id)
	})
}

func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE procedures;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Surrounding whitespace", " 550e8400-e29b-41d4-a716-446655440000 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errProcedure := ParseProcedureID(validUUID)
		_, errEngagement := ParseEngagementID(validUUID)
		_, errSignoff := ParseSignoffID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errProcedure)
		require.NoError(t, errEngagement)
		require.NoError(t, errSignoff)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errProcedure := ParseProcedureID(input)
			_, errEngagement := ParseEngagementID(input)
			_, errSignoff := ParseSignoffID(input)

			require.Error(t, errUser)
			require.Error(t, errProcedure)
			require.Error(t, errEngagement)
			require.Error(t, errSignoff)
		})
	}
}

func TestTypedIDs_TextRoundTrip(t *testing.T) {
	id := ProcedureID(uuid.New())
	text, err := id.MarshalText()
	require.NoError(t, err)

	var back ProcedureID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)
	assert.Equal(t, id.String(), string(text))
}
