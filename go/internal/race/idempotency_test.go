package race

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIdempotencyKey(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		raceID    string
		startedAt int64
		want      string
	}{
		{
			name:      "race and timestamp",
			userID:    "user-1",
			raceID:    "track_7",
			startedAt: 1714557600000000000,
			want:      "user-1_track_7_1714557600000000000",
		},
		{
			name:      "default track",
			userID:    "abc",
			raceID:    "default_track",
			startedAt: 1,
			want:      "abc_default_track_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveIdempotencyKey(tt.userID, tt.raceID, tt.startedAt))
		})
	}
}

func TestDeriveIdempotencyKeyRandomFallback(t *testing.T) {
	noRace := DeriveIdempotencyKey("user-1", "", 1714557600000000000)
	noTime := DeriveIdempotencyKey("user-1", "track_7", 0)

	for _, key := range []string{noRace, noTime} {
		require.True(t, strings.HasPrefix(key, "user-1_"))
		// "user-1_" plus a 36 character uuid
		assert.Len(t, key, len("user-1_")+36)
	}

	assert.NotEqual(t, noRace, DeriveIdempotencyKey("user-1", "", 1714557600000000000))
}

func TestBuildMetadata(t *testing.T) {
	meta, err := BuildMetadata("user-1_track_7_1", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"idempotentKey":"user-1_track_7_1"}`, meta)

	meta, err = BuildMetadata("user-1_track_7_1", json.RawMessage(`{"laps":3}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"idempotentKey":"user-1_track_7_1","data":{"laps":3}}`, meta)

	_, err = BuildMetadata("user-1_track_7_1", json.RawMessage(`{"laps":`))
	assert.Error(t, err)
}

func TestKeyFromMetadata(t *testing.T) {
	key, ok := KeyFromMetadata(`{"idempotentKey":"k1","data":{"x":1}}`)
	assert.True(t, ok)
	assert.Equal(t, "k1", key)

	_, ok = KeyFromMetadata(`{"data":{}}`)
	assert.False(t, ok)

	_, ok = KeyFromMetadata("not json")
	assert.False(t, ok)
}

func TestIdempotencyKeyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("key is stable for the same attempt", prop.ForAll(
		func(userID, raceID string, startedAt int64) bool {
			return DeriveIdempotencyKey(userID, raceID, startedAt) == DeriveIdempotencyKey(userID, raceID, startedAt)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Int64Range(1, 1<<62),
	))

	properties.Property("different start times give different keys", prop.ForAll(
		func(userID, raceID string, startedAt, delta int64) bool {
			return DeriveIdempotencyKey(userID, raceID, startedAt) != DeriveIdempotencyKey(userID, raceID, startedAt+delta)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Int64Range(1, 1<<61),
		gen.Int64Range(1, 1<<20),
	))

	properties.Property("metadata round trips the key", prop.ForAll(
		func(key string) bool {
			meta, err := BuildMetadata(key, nil)
			if err != nil {
				return false
			}
			got, ok := KeyFromMetadata(meta)
			return ok && got == key
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
