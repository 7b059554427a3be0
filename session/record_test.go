package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testCookie = "authcookie_12345678-1234-1234-1234-123456789abc"

func TestRecordUsable(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   bool
	}{
		{"valid cookie", testCookie, true},
		{"empty cookie", "", false},
		{"wrong prefix", "session_12345678-1234-1234-1234-123456789abc", false},
		{"truncated", "authcookie_12345678", false},
		{"uppercase hex", "authcookie_12345678-1234-1234-1234-123456789ABC", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Cookie: tt.cookie}
			assert.Equal(t, tt.want, rec.Usable())
		})
	}
}

func TestRecordExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	rec := Record{CreatedAt: now.Add(-(30*24*time.Hour + time.Minute))}
	assert.True(t, rec.Expired(now), "past the retention window")

	rec = Record{CreatedAt: now.Add(-(29*24*time.Hour + 23*time.Hour))}
	assert.False(t, rec.Expired(now), "29 days 23 hours is still fresh")

	rec = Record{}
	assert.True(t, rec.Expired(now), "zero CreatedAt is always expired")
}
