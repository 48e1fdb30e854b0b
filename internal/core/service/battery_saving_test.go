package service

import (
	"testing"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	TEST_SOC_LIMIT = 80.0
	TEST_MAX_AGE   = 900 * time.Second
)

func TestStopWhenFreshSocAboveLimit(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(TEST_SOC_LIMIT+2), true, ageTs(now, TEST_MAX_AGE-60*time.Second))

	r := socPolicy().Check(status, now)
	assert.True(r.Stop)
	assert.InDelta(TEST_SOC_LIMIT+2, *r.Soc, 1e-6)
}

func TestStopAtExactLimit(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(TEST_SOC_LIMIT), true, ageTs(now, TEST_MAX_AGE/2))

	r := socPolicy().Check(status, now)
	assert.True(r.Stop)
}

func TestNoStopWhenSocBelowLimit(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(TEST_SOC_LIMIT-5), true, ageTs(now, TEST_MAX_AGE/2))

	r := socPolicy().Check(status, now)
	assert.False(r.Stop)
	assert.InDelta(TEST_SOC_LIMIT-5, *r.Soc, 1e-6)
}

func TestNoStopWhenStatusInvalid(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(TEST_SOC_LIMIT+10), false, ageTs(now, TEST_MAX_AGE/2))

	r := socPolicy().Check(status, now)
	assert.False(r.Stop)
	// the SoC value is still reported for display
	assert.NotNil(r.Soc)
	assert.InDelta(TEST_SOC_LIMIT+10, *r.Soc, 1e-6)
}

func TestNoStopWhenStatusTooOld(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(TEST_SOC_LIMIT+10), true, ageTs(now, TEST_MAX_AGE+60*time.Second))

	r := socPolicy().Check(status, now)
	assert.False(r.Stop)
	assert.NotNil(r.Soc)
}

func TestNoStopWithoutSoc(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(nil, true, ageTs(now, TEST_MAX_AGE/2))

	r := socPolicy().Check(status, now)
	assert.False(r.Stop)
	assert.Nil(r.Soc)
}

func TestNoStopWithoutTimestamp(t *testing.T) {

	assert := assert.New(t)

	status := socStatus(optFloat(TEST_SOC_LIMIT+10), true, nil)

	r := socPolicy().Check(status, time.Now())
	assert.False(r.Stop)
	assert.NotNil(r.Soc)
}

func TestNoStopOnImplausibleSoc(t *testing.T) {

	assert := assert.New(t)

	now := time.Now()
	status := socStatus(optFloat(150), true, ageTs(now, TEST_MAX_AGE/2))

	r := socPolicy().Check(status, now)
	assert.False(r.Stop)
}

func socPolicy() *DefaultBatterySavingPolicy {
	return &DefaultBatterySavingPolicy{
		SocLimit: TEST_SOC_LIMIT,
		MaxAge:   TEST_MAX_AGE,
		Logger:   zap.Must(zap.NewDevelopment()),
	}
}

func socStatus(soc *float64, valid bool, timestamp *time.Time) *domain.StatusSnapshot {
	return &domain.StatusSnapshot{
		CarSoc:             soc,
		CarStatusValid:     valid,
		CarStatusTimestamp: timestamp,
	}
}

func ageTs(now time.Time, age time.Duration) *time.Time {
	ts := now.Add(-age)
	return &ts
}

func optFloat(v float64) *float64 {
	return &v
}
