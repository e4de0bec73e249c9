package race

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DeriveIdempotencyKey builds the deduplication key for an attempt.
//
// With a race id and a start timestamp the key is "{user}_{race}_{ts}", so the
// same attempt always maps to the same key and can be recomputed by a caller
// that kept those values. Without either one the key is "{user}_{uuid}".
func DeriveIdempotencyKey(userID, raceID string, startedAt int64) string {
	if raceID != "" && startedAt != 0 {
		return fmt.Sprintf("%s_%s_%d", userID, raceID, startedAt)
	}
	return fmt.Sprintf("%s_%s", userID, uuid.NewString())
}

type recordMetadata struct {
	IdempotentKey string          `json:"idempotentKey"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// BuildMetadata returns the leaderboard record metadata carrying key, with
// optional caller data nested under "data". data must be valid JSON.
func BuildMetadata(key string, data json.RawMessage) (string, error) {
	if len(data) > 0 && !json.Valid(data) {
		return "", fmt.Errorf("metadata data is not valid JSON")
	}
	raw, err := json.Marshal(recordMetadata{IdempotentKey: key, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(raw), nil
}

// KeyFromMetadata extracts the idempotency key from record metadata.
func KeyFromMetadata(metadata string) (string, bool) {
	var m recordMetadata
	if err := json.Unmarshal([]byte(metadata), &m); err != nil || m.IdempotentKey == "" {
		return "", false
	}
	return m.IdempotentKey, true
}
