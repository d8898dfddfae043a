package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

// Category groups error codes by their hundreds range.
type Category int

const (
	CategoryGeneral     Category = 0
	CategoryValidation  Category = 1
	CategoryBalance     Category = 2
	CategoryBackend     Category = 3
	CategoryAdvisory    Category = 4
	CategoryExecutor    Category = 5
	CategoryPersistence Category = 6
)

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidProposal      ErrorCode = 101
	ErrCodeInvalidNumeric       ErrorCode = 102
	ErrCodeInvalidConfiguration ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidProvider      ErrorCode = 105

	// Balance / wallet errors (200-299)
	ErrCodeInsufficientBalance  ErrorCode = 200
	ErrCodeWalletNotInitialized ErrorCode = 201
	ErrCodeWalletUnavailable    ErrorCode = 202

	// Backend errors (300-399)
	ErrCodeBackendUnavailable ErrorCode = 300
	ErrCodeBackendTimeout     ErrorCode = 301
	ErrCodeOrderFailed        ErrorCode = 302
	ErrCodeBatchRolledBack    ErrorCode = 303
	ErrCodeNoBackends         ErrorCode = 304
	ErrCodeOrderNotFound      ErrorCode = 305
	ErrCodeMarketDataFailed   ErrorCode = 306
	ErrCodeCircuitOpen        ErrorCode = 307

	// Advisory errors (400-499)
	ErrCodeAIRejected    ErrorCode = 400
	ErrCodeAIUnavailable ErrorCode = 401

	// Executor errors (500-599)
	ErrCodeExecutorNotRunning   ErrorCode = 500
	ErrCodeExecutorRunning      ErrorCode = 501
	ErrCodeTradeNotFound        ErrorCode = 502
	ErrCodeInvalidTransition    ErrorCode = 503
	ErrCodeMarketDataMissing    ErrorCode = 504
	ErrCodePortfolioUnavailable ErrorCode = 505

	// Persistence errors (600-699)
	ErrCodeHistoryWriteFailed ErrorCode = 600
	ErrCodeHistoryQueryFailed ErrorCode = 601
)

// Category returns the category a code belongs to.
func (c ErrorCode) Category() Category {
	return Category(int(c) / 100)
}
