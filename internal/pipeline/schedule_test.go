package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultScheduleConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultScheduleConfig().Validate())
}

func TestScheduleConfig_Validate_RejectsBadCronExpression(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.CronSchedule = "not a cron expression"
	assert.Error(t, cfg.Validate())
}

func TestScheduleConfig_Validate_RejectsBadTimezone(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.Timezone = "Not/A_Zone"
	assert.Error(t, cfg.Validate())
}

func TestScheduleConfig_Validate_RejectsNonPositiveTimeout(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.RunTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestScheduleConfig_Validate_RejectsBadWatchlistCronExpression(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.WatchlistCronSchedule = "not a cron expression"
	assert.Error(t, cfg.Validate())
}

func TestScheduleConfig_Validate_RejectsOutOfRangeWatchlistSinceHours(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.WatchlistSinceHours = 0
	assert.Error(t, cfg.Validate())
}

func TestMondayOf_ReturnsSameDateForMonday(t *testing.T) {
	monday := time.Date(2026, time.July, 27, 14, 0, 0, 0, time.UTC) // a Monday
	assert.Equal(t, "2026-07-27", mondayOf(monday))
}

func TestMondayOf_RollsBackToPriorMondayMidWeek(t *testing.T) {
	thursday := time.Date(2026, time.July, 30, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-07-27", mondayOf(thursday))
}

func TestMondayOf_RollsBackFromSunday(t *testing.T) {
	sunday := time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-07-27", mondayOf(sunday))
}
