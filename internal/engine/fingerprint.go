package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DedupeKey builds the fingerprint that identifies "the same real-world
// setup" across evaluations. Two runs that see the same symbol at the
// same pivot produce the same key, so the cooldown state they share
// suppresses duplicate notifications. The pivot enters rounded to two
// decimals: tick-level drift must not mint a new fingerprint.
// ⭐ SSOT: 중복 억제 키 형식은 여기서만
func DedupeKey(exchange, symbol, timeframe string, pivotPrice float64, signalType string) string {
	return fmt.Sprintf("%s|%s|%s|%.2f|%s", exchange, symbol, timeframe, pivotPrice, signalType)
}

// EventID derives the append-only log key for one emission. Unlike the
// dedupe key it includes the event timestamp: re-notifying the same
// setup after cooldown expiry is a new event, replaying the same
// emission is not.
func EventID(dedupeKey string, eventTS time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", dedupeKey, eventTS.Unix())))
	return hex.EncodeToString(sum[:])
}
