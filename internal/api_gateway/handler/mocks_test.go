package handler

import (
	"context"
	"log/slog"
	"os"

	"github.com/corridor-ledger/internal/api_gateway/middleware"
	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLedgerEngine struct {
	mock.Mock
}

func (m *MockLedgerEngine) PostBalancedEntry(ctx context.Context, req service.PostEntryRequest) (*ledger.JournalEntry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.JournalEntry), args.Error(1)
}

func (m *MockLedgerEngine) ReserveForTransfer(ctx context.Context, req service.ReserveRequest) (uuid.UUID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerEngine) TopUp(ctx context.Context, req service.TopUpRequest) (*service.TopUpResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TopUpResult), args.Error(1)
}

func (m *MockLedgerEngine) BalanceOf(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockFxQuoting struct {
	mock.Mock
}

func (m *MockFxQuoting) LatestRate(ctx context.Context, base, quote string) (*fx.Rate, error) {
	args := m.Called(ctx, base, quote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fx.Rate), args.Error(1)
}

func (m *MockFxQuoting) CreateQuote(ctx context.Context, req service.QuoteRequest) (*fx.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fx.Quote), args.Error(1)
}

func (m *MockFxQuoting) GetQuote(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fx.Quote), args.Error(1)
}

type MockTransferWorkflow struct {
	mock.Mock
}

func (m *MockTransferWorkflow) Create(ctx context.Context, caller shared.Caller, req service.CreateTransferRequest) (*transfer.Transfer, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

func (m *MockTransferWorkflow) Confirm(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

func (m *MockTransferWorkflow) List(ctx context.Context, caller shared.Caller) ([]*transfer.Transfer, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Transfer), args.Error(1)
}

func (m *MockTransferWorkflow) GetByID(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

type MockWalletQuery struct {
	mock.Mock
}

func (m *MockWalletQuery) ListWallets(ctx context.Context, caller shared.Caller) ([]*service.WalletBalance, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.WalletBalance), args.Error(1)
}

func (m *MockWalletQuery) Balance(ctx context.Context, caller shared.Caller, currency string) (*service.WalletBalance, error) {
	args := m.Called(ctx, caller, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WalletBalance), args.Error(1)
}

func (m *MockWalletQuery) Statement(ctx context.Context, caller shared.Caller, currency string, page, pageSize int) (*service.StatementPage, error) {
	args := m.Called(ctx, caller, currency, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatementPage), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// setupTestRouter returns a router that authenticates every request as caller
func setupTestRouter(caller shared.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.CallerKey, caller)
		c.Next()
	})
	return r
}

func newCaller() shared.Caller {
	return shared.Caller{BusinessID: uuid.New(), PrincipalID: uuid.New()}
}
