package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"
)

type RateLimitTestSuite struct {
	suite.Suite
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitTestSuite))
}

func (suite *RateLimitTestSuite) TestLimit() {
	l := NewLimiter(1200, time.Minute)
	suite.InDelta(20.0, l.Limit(), 1e-9)

	// unrestricted limiters never block
	unlimited := NewLimiter(0, time.Minute)
	suite.Equal(float64(rate.Inf), unlimited.Limit())

	for i := 0; i < 100; i++ {
		suite.True(unlimited.Allow())
	}
}

func (suite *RateLimitTestSuite) TestBurstOfOne() {
	l := NewLimiter(1, time.Hour)
	suite.True(l.Allow())
	suite.False(l.Allow())
}

func (suite *RateLimitTestSuite) TestWaitHonoursContext() {
	l := NewLimiter(1, time.Hour)
	suite.NoError(l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeRateLimited))
}

func (suite *RateLimitTestSuite) TestWaitSpacesCalls() {
	l := NewLimiter(100, time.Second)
	start := time.Now()

	for i := 0; i < 3; i++ {
		suite.NoError(l.Wait(context.Background()))
	}

	suite.GreaterOrEqual(time.Since(start), 15*time.Millisecond)
}
