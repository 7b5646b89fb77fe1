package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corridor-ledger/internal/domain/counterparty"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferWorkflowImpl implements the TransferWorkflow interface
type TransferWorkflowImpl struct {
	db             persistence.TxRunner
	transferRepo   transfer.Repository
	counterparties counterparty.Reader
	quotes         fx.QuoteStore
	reserver       TxReserver
	currencies     shared.CurrencySet
	now            func() time.Time
	logger         *slog.Logger
}

// NewTransferWorkflow creates a new transfer workflow
func NewTransferWorkflow(
	logger *slog.Logger,
	db persistence.TxRunner,
	transferRepo transfer.Repository,
	counterparties counterparty.Reader,
	quotes fx.QuoteStore,
	reserver TxReserver,
	currencies shared.CurrencySet,
) *TransferWorkflowImpl {
	return &TransferWorkflowImpl{
		db:             db,
		transferRepo:   transferRepo,
		counterparties: counterparties,
		quotes:         quotes,
		reserver:       reserver,
		currencies:     currencies,
		now:            time.Now,
		logger:         logger,
	}
}

// Create validates the request and stores a DRAFT transfer. When a quote is referenced
// it must match the transfer and is consumed, so it can back one transfer only.
func (s *TransferWorkflowImpl) Create(ctx context.Context, caller shared.Caller, req CreateTransferRequest) (*transfer.Transfer, error) {
	from, err := s.currencies.Parse("fromCurrency", req.FromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := s.currencies.Parse("toCurrency", req.ToCurrency)
	if err != nil {
		return nil, err
	}

	draft := transfer.Draft{
		BusinessID:     caller.BusinessID,
		CounterpartyID: req.CounterpartyID,
		FromCurrency:   from,
		ToCurrency:     to,
		FromAmount:     req.FromAmount,
		ToAmount:       req.ToAmount,
		FeeAmount:      req.FeeAmount,
		QuoteID:        req.QuoteID,
		CreatedBy:      caller.PrincipalID,
	}

	if req.QuoteID != nil {
		q, err := s.quotes.Get(ctx, *req.QuoteID)
		if err != nil {
			return nil, shared.AsCoreError(err)
		}
		if err := s.matchQuote(q, &draft); err != nil {
			return nil, err
		}
	}

	t, err := transfer.NewTransfer(draft)
	if err != nil {
		return nil, err
	}

	if _, err := s.counterparties.GetForBusiness(ctx, req.CounterpartyID, caller.BusinessID); err != nil {
		if errors.Is(err, counterparty.ErrCounterpartyNotFound{}) {
			return nil, shared.Validation("%s", err.Error())
		}
		return nil, shared.AsCoreError(err)
	}

	if req.QuoteID != nil {
		// Whoever consumes first wins; a quote lost here is not restored if the insert fails
		consumed, err := s.quotes.Consume(ctx, *req.QuoteID)
		if err != nil {
			return nil, shared.AsCoreError(err)
		}
		if err := s.matchQuote(consumed, &draft); err != nil {
			return nil, err
		}
	}

	if err := s.transferRepo.Create(ctx, t); err != nil {
		return nil, shared.AsCoreError(err)
	}

	s.logger.Info("Created transfer",
		"transfer_id", t.ID.String(),
		"business_id", t.BusinessID.String(),
		"from_currency", string(t.FromCurrency),
		"to_currency", string(t.ToCurrency),
		"from_amount", t.FromAmount,
	)
	return t, nil
}

func (s *TransferWorkflowImpl) matchQuote(q *fx.Quote, draft *transfer.Draft) error {
	if q.Expired(s.now()) {
		return shared.AsCoreError(fx.ErrQuoteNotFound{ID: q.ID})
	}
	if q.FromCurrency != draft.FromCurrency || q.ToCurrency != draft.ToCurrency || q.FromAmount != draft.FromAmount {
		return shared.Validation("Quote does not match the transfer.")
	}
	if draft.ToAmount == 0 {
		draft.ToAmount = q.ToAmount
	}
	if draft.ToAmount != q.ToAmount {
		return shared.Validation("toAmount does not match the quote.")
	}
	return nil
}

// Confirm locks the transfer, reserves the source amount and moves it to PENDING_FUNDS.
// Both writes commit together or not at all.
func (s *TransferWorkflowImpl) Confirm(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error) {
	// The source currency never changes, so Clearing can be provisioned on the pool
	// before the transaction takes its connection.
	draft, err := s.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	if err := draft.Authorize(caller); err != nil {
		return nil, err
	}
	clearing, err := s.reserver.ClearingAccount(ctx, draft.FromCurrency)
	if err != nil {
		return nil, err
	}

	var confirmed *transfer.Transfer
	var entryID uuid.UUID

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transferRepo.WithTx(tx)

		t, err := transfers.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := t.Confirm(caller); err != nil {
			return err
		}

		entryID, err = s.reserver.ReserveInTx(ctx, tx, ReserveRequest{
			TransferID: t.ID,
			BusinessID: t.BusinessID,
			Currency:   t.FromCurrency,
			Amount:     t.FromAmount,
			Actor:      caller.PrincipalID,
			ClearingID: clearing.ID,
		})
		if err != nil {
			return err
		}

		if err := transfers.UpdateStatus(ctx, t, transfer.StatusDraft); err != nil {
			return err
		}
		confirmed = t
		return nil
	})
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	s.logger.Info("Confirmed transfer",
		"transfer_id", confirmed.ID.String(),
		"entry_id", entryID.String(),
		"status", string(confirmed.Status),
	)
	return confirmed, nil
}

// List returns the caller's transfers, newest first
func (s *TransferWorkflowImpl) List(ctx context.Context, caller shared.Caller) ([]*transfer.Transfer, error) {
	transfers, err := s.transferRepo.ListByBusiness(ctx, caller.BusinessID)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	return transfers, nil
}

// GetByID returns the transfer with its counterparty if the caller's business owns it
func (s *TransferWorkflowImpl) GetByID(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error) {
	t, err := s.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	if err := t.Authorize(caller); err != nil {
		return nil, err
	}
	return t, nil
}

var _ TransferWorkflow = (*TransferWorkflowImpl)(nil)
