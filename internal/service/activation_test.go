package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeUntilNext(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("LaterToday", func(t *testing.T) {
		d := timeUntilNext(base, 23, 30)
		assert.Equal(t, 8*time.Hour+30*time.Minute, d)
	})

	t.Run("AlreadyPassedRollsToTomorrow", func(t *testing.T) {
		d := timeUntilNext(base, 0, 5)
		assert.Equal(t, 9*time.Hour+5*time.Minute, d)
	})

	t.Run("ExactMomentRollsToTomorrow", func(t *testing.T) {
		d := timeUntilNext(base, 15, 0)
		assert.Equal(t, 24*time.Hour, d)
	})
}
