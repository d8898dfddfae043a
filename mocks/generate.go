package mocks

//go:generate mockgen -destination=./mock_backend.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/backend Connection,Dispatcher
//go:generate mockgen -destination=./mock_wallet.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/wallet Wallet
//go:generate mockgen -destination=./mock_advisory.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/advisory Validator
//go:generate mockgen -destination=./mock_portfolio.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/portfolio Provider
//go:generate mockgen -destination=./mock_risk.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/risk Assessor
//go:generate mockgen -destination=./mock_history_sink.go -package=mocks github.com/rxtech-lab/argo-dispatch/internal/executor HistorySink
