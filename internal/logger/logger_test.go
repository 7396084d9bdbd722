package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.NoError(err)
	suite.NotNil(logger)

	_, err = NewLoggerWithLevel("verbose")
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNamed() {
	logger := NewNopLogger()
	suite.NotNil(logger.Named("broker").Logger)

	var nilLogger *Logger
	suite.NotNil(nilLogger.Named("broker").Logger)
}

func (suite *LoggerTestSuite) TestNopLoggerLogging() {
	logger := NewNopLogger()

	// These should not panic
	logger.Info("test info message")
	logger.Warn("test warn message")
	logger.Error("test error message")
}

func (suite *LoggerTestSuite) TestWith() {
	logger := NewNopLogger().With(zap.String("exchange", "BINANCE"))
	suite.NotNil(logger.Logger)

	var nilLogger *Logger
	suite.NotNil(nilLogger.With(zap.Int("n", 1)).Logger)
}
