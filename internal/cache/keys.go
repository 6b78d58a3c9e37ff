package cache

import (
	"strings"
	"time"

	"finamqa/internal/config"
)

// Namespace is the Redis key prefix for the application.
const Namespace = "finamqa"

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Answers time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Answers: durationOrDefault(cfg.Answers, 24*time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// AnswerKey returns the cache key for a parsed answer. Questions are keyed
// by digest so arbitrary text never ends up in Redis key space; the model
// scopes the key because different models answer differently.
func AnswerKey(model, questionDigest string) string {
	return formatKey("answer", model, questionDigest)
}

// AnswerTTL returns the TTL for cached answers.
func AnswerTTL(ttl TTLSet) time.Duration {
	return ttl.Answers
}
