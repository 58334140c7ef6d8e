package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/repo-sentinel/internal/config"
)

func TestNextRunDaily(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's slot",
			now:  time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "after today's slot rolls to tomorrow",
			now:  time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot rolls to tomorrow",
			now:  time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRun(tt.now, config.IntervalDaily, 8, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextRunWeekly(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			// 2026-01-15 is a Thursday; the next Monday is the 19th.
			name: "mid-week rolls to next Monday",
			now:  time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC),
		},
		{
			// 2026-01-19 is a Monday.
			name: "Monday before the slot fires same day",
			now:  time.Date(2026, 1, 19, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "Monday after the slot rolls a full week",
			now:  time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRun(tt.now, config.IntervalWeekly, 8, 0)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}
