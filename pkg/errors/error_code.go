package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown  ErrorCode = 1
	ErrCodeInternal ErrorCode = 2

	// Validation and configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidAsset         ErrorCode = 102
	ErrCodeInvalidTimeUnit      ErrorCode = 103
	ErrCodeInvalidFeePct        ErrorCode = 104
	ErrCodeInvalidCandle        ErrorCode = 105
	ErrCodeInvalidOrder         ErrorCode = 106
	ErrCodeInvalidSignal        ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidOrderType     ErrorCode = 110
	ErrCodeInvalidPercentage    ErrorCode = 111

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDataGap               ErrorCode = 203
	ErrCodeOutOfOrderCandle      ErrorCode = 204
	ErrCodeFeedExhausted         ErrorCode = 205
	ErrCodeStorageWriteFailed    ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeIndicatorInputMismatch ErrorCode = 303

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound      ErrorCode = 400
	ErrCodeStrategyConfigError   ErrorCode = 401
	ErrCodeStrategyException     ErrorCode = 402
	ErrCodeStrategyAlreadyExists ErrorCode = 403

	// Trading errors (500-599)
	ErrCodeOrderRejected         ErrorCode = 500
	ErrCodeInsufficientFunds     ErrorCode = 501
	ErrCodeOrderNotFound         ErrorCode = 502
	ErrCodePositionNotFound      ErrorCode = 503
	ErrCodeBrokerNotFound        ErrorCode = 504
	ErrCodeBrokerAlreadyExists   ErrorCode = 505
	ErrCodePairSubmissionFailed  ErrorCode = 506
	ErrCodeOrderStateTransition  ErrorCode = 507
	ErrCodeFeeModelNotFound      ErrorCode = 508
	ErrCodeMarketDataMissing     ErrorCode = 509

	// Engine errors (600-699)
	ErrCodeEngineInitFailed ErrorCode = 600
	ErrCodeEngineNoAssets   ErrorCode = 601
	ErrCodeEngineNoFeed     ErrorCode = 602
	ErrCodeStatisticsFailed ErrorCode = 603

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataParseFailed ErrorCode = 701
	ErrCodeInvalidProvider       ErrorCode = 702

	// Transport errors (900-999)
	ErrCodeTransport   ErrorCode = 900
	ErrCodeRateLimited ErrorCode = 901
)

// Kind groups error codes by the recovery policy the engine applies to them.
type Kind string

const (
	KindUnknown           Kind = "Unknown"
	KindTransport         Kind = "TransportError"
	KindRateLimit         Kind = "RateLimitError"
	KindOrderRejected     Kind = "OrderRejected"
	KindInsufficientFunds Kind = "InsufficientFunds"
	KindDataGap           Kind = "DataGap"
	KindConfig            Kind = "ConfigError"
	KindStrategyException Kind = "StrategyException"
)
