package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ClockTestSuite struct {
	suite.Suite
}

func TestClockSuite(t *testing.T) {
	suite.Run(t, new(ClockTestSuite))
}

func (suite *ClockTestSuite) TestSimulatedClockMonotonic() {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewSimulatedClock(start, DefaultSession())
	suite.Equal(start, c.Now())

	c.Advance(start.Add(time.Minute))
	suite.Equal(start.Add(time.Minute), c.Now())

	c.Advance(start)
	suite.Equal(start.Add(time.Minute), c.Now())
}

func (suite *ClockTestSuite) TestDefaultSessionEndOfDay() {
	c := NewSimulatedClock(time.Time{}, DefaultSession())
	suite.True(c.EndOfDay(time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), time.Minute))
	suite.False(c.EndOfDay(time.Date(2024, 1, 2, 23, 58, 0, 0, time.UTC), time.Minute))
	suite.True(c.EndOfDay(time.Date(2024, 1, 2, 23, 55, 0, 0, time.UTC), 5*time.Minute))
}

func (suite *ClockTestSuite) TestCustomSession() {
	session, err := ParseSession("America/New_York", "16:00")
	suite.Require().NoError(err)

	ny, _ := time.LoadLocation("America/New_York")
	last := time.Date(2024, 1, 2, 15, 59, 0, 0, ny)
	suite.True(session.IsLastBar(last.UTC(), time.Minute))
	suite.False(session.IsLastBar(last.Add(-time.Minute).UTC(), time.Minute))

	_, err = ParseSession("Mars/Olympus", "")
	suite.Error(err)
	_, err = ParseSession("", "4pm")
	suite.Error(err)
}

func (suite *ClockTestSuite) TestSameSession() {
	session := DefaultSession()
	a := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	suite.True(session.SameSession(a, a.Add(20*time.Hour)))
	suite.False(session.SameSession(a, a.Add(24*time.Hour)))
}

func (suite *ClockTestSuite) TestWallClock() {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	c := NewWallClock(DefaultSession())
	c.nowFunc = func() time.Time { return fixed }

	c.Advance(fixed.Add(time.Hour))
	suite.Equal(fixed.UTC(), c.Now())
	suite.Equal(time.UTC, c.Now().Location())
}
