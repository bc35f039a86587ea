package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "./legacy", cfg.Legacy.ImportRoot)
	assert.Equal(t, "half_up", cfg.Summary.Rounding)
	assert.Equal(t, 1, cfg.Summary.FinalDecimals)
	assert.Equal(t, 5, cfg.Analytics.RankLimit)
	assert.Equal(t, 24*time.Hour, cfg.ImportJobs.JobTTL)
	assert.True(t, cfg.Exports.Enabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SUMMARY_ROUNDING", "half_even")
	v.Set("IMPORT_JOB_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	cfg := fromViper(v)

	assert.Equal(t, "half_even", cfg.Summary.Rounding)
	assert.Equal(t, 24*time.Hour, cfg.ImportJobs.JobTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
