package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidAsset, "asset symbol is empty")
	suite.Equal(ErrCodeInvalidAsset, err.Code)
	suite.Equal("asset symbol is empty", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeBrokerNotFound, "no broker for exchange %s", "KUCOIN")
	suite.Equal(ErrCodeBrokerNotFound, err.Code)
	suite.Equal("no broker for exchange KUCOIN", err.Message)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("connection reset")
	err := Wrapf(ErrCodeTransport, cause, "failed to fetch %s", "XRPEUR")
	suite.Equal("failed to fetch XRPEUR", err.Message)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestErrorString() {
	suite.Equal("[102] bad asset", New(ErrCodeInvalidAsset, "bad asset").Error())

	err := Wrap(ErrCodeDataNotFound, "data not found", errors.New("underlying error"))
	suite.Equal("[200] data not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeTransport, "timeout")
	err := Wrap(ErrCodeMarketDataFetchFailed, "klines", cause)
	suite.Equal(ErrCodeMarketDataFetchFailed, GetCode(err))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("standard error")))
	suite.True(HasCode(err, ErrCodeMarketDataFetchFailed))
	suite.True(Is(err, cause))

	var target *Error
	suite.True(As(err, &target))
	suite.Equal(ErrCodeMarketDataFetchFailed, target.Code)
}

func (suite *ErrorTestSuite) TestKindOf() {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transport", New(ErrCodeTransport, "x"), KindTransport},
		{"rate limit", New(ErrCodeRateLimited, "x"), KindRateLimit},
		{"rejected", New(ErrCodeOrderRejected, "x"), KindOrderRejected},
		{"funds", New(ErrCodeInsufficientFunds, "x"), KindInsufficientFunds},
		{"gap", New(ErrCodeDataGap, "x"), KindDataGap},
		{"config", New(ErrCodeInvalidFeePct, "x"), KindConfig},
		{"strategy", New(ErrCodeStrategyException, "x"), KindStrategyException},
		{"plain", errors.New("x"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.want, KindOf(tt.err))
		})
	}
}

func (suite *ErrorTestSuite) TestIsRetryable() {
	suite.True(IsRetryable(New(ErrCodeTransport, "x")))
	suite.True(IsRetryable(New(ErrCodeRateLimited, "x")))
	suite.False(IsRetryable(New(ErrCodeOrderRejected, "x")))
	suite.False(IsRetryable(errors.New("x")))
}
