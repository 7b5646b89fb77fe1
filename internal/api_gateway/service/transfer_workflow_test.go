package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferFixture struct {
	core         *testCore
	caller       shared.Caller
	counterparty uuid.UUID
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()
	core := newTestCore()
	caller := shared.Caller{BusinessID: uuid.New(), PrincipalID: uuid.New()}
	core.store.addWallet(caller.BusinessID, shared.CurrencyNGN)
	core.store.addWallet(caller.BusinessID, shared.CurrencyGHS)
	cp := core.store.addCounterparty(caller.BusinessID, "Accra Textiles")
	return &transferFixture{core: core, caller: caller, counterparty: cp.ID}
}

func (f *transferFixture) request() CreateTransferRequest {
	return CreateTransferRequest{
		CounterpartyID: f.counterparty,
		FromCurrency:   "NGN",
		ToCurrency:     "GHS",
		FromAmount:     100000,
		ToAmount:       670,
	}
}

func TestTransferWorkflow_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("draft without ledger effect", func(t *testing.T) {
		f := newTransferFixture(t)

		tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
		require.NoError(t, err)
		assert.Equal(t, transfer.StatusDraft, tr.Status)
		assert.Equal(t, f.caller.BusinessID, tr.BusinessID)
		assert.Equal(t, f.caller.PrincipalID, tr.CreatedBy)
		assert.Equal(t, int64(0), tr.FeeAmount)
		assert.Zero(t, f.core.store.entryCount())
	})

	t.Run("counterparty of another business", func(t *testing.T) {
		f := newTransferFixture(t)
		foreign := f.core.store.addCounterparty(uuid.New(), "Elsewhere Ltd")
		req := f.request()
		req.CounterpartyID = foreign.ID

		_, err := f.core.transfers.Create(ctx, f.caller, req)

		var coreErr *shared.Error
		require.ErrorAs(t, err, &coreErr)
		assert.Equal(t, shared.KindValidation, coreErr.Kind)
		assert.Equal(t, "Counterparty not found or not yours.", coreErr.Message)
	})

	invalid := []struct {
		name   string
		mutate func(*CreateTransferRequest)
	}{
		{name: "same currency", mutate: func(r *CreateTransferRequest) { r.ToCurrency = "NGN" }},
		{name: "zero source amount", mutate: func(r *CreateTransferRequest) { r.FromAmount = 0 }},
		{name: "negative destination amount", mutate: func(r *CreateTransferRequest) { r.ToAmount = -1 }},
		{name: "negative fee", mutate: func(r *CreateTransferRequest) { r.FeeAmount = -10 }},
		{name: "unsupported currency", mutate: func(r *CreateTransferRequest) { r.ToCurrency = "KES" }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture(t)
			req := f.request()
			tt.mutate(&req)

			_, err := f.core.transfers.Create(ctx, f.caller, req)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Empty(t, f.core.store.transfers)
		})
	}
}

func TestTransferWorkflow_CreateWithQuote(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	quoted := func(t *testing.T) (*transferFixture, uuid.UUID) {
		f := newTransferFixture(t)
		publishRate(t, f.core, shared.CurrencyNGN, shared.CurrencyGHS, "0.0067", now)
		q, err := f.core.fx.CreateQuote(ctx, QuoteRequest{FromCurrency: "NGN", ToCurrency: "GHS", FromAmount: 100000})
		require.NoError(t, err)
		return f, q.ID
	}

	t.Run("quote supplies the destination amount and is consumed", func(t *testing.T) {
		f, quoteID := quoted(t)
		req := f.request()
		req.ToAmount = 0
		req.QuoteID = &quoteID

		tr, err := f.core.transfers.Create(ctx, f.caller, req)
		require.NoError(t, err)
		assert.Equal(t, int64(670), tr.ToAmount)
		require.NotNil(t, tr.QuoteID)
		assert.Equal(t, quoteID, *tr.QuoteID)

		_, err = f.core.transfers.Create(ctx, f.caller, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Len(t, f.core.store.transfers, 1)
	})

	t.Run("mismatch leaves the quote usable", func(t *testing.T) {
		f, quoteID := quoted(t)
		req := f.request()
		req.FromAmount = 99999
		req.QuoteID = &quoteID

		_, err := f.core.transfers.Create(ctx, f.caller, req)
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = f.core.quotes.Get(ctx, quoteID)
		assert.NoError(t, err)
	})

	t.Run("destination amount must agree with the quote", func(t *testing.T) {
		f, quoteID := quoted(t)
		req := f.request()
		req.ToAmount = 700
		req.QuoteID = &quoteID

		_, err := f.core.transfers.Create(ctx, f.caller, req)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("consumed quote is checked again", func(t *testing.T) {
		tests := []struct {
			name    string
			consume func(f *transferFixture, q *fx.Quote)
			wantErr error
		}{
			{
				name: "expires between read and consume",
				consume: func(f *transferFixture, q *fx.Quote) {
					f.core.transfers.now = func() time.Time { return q.ExpiresAt.Add(time.Second) }
				},
				wantErr: shared.ErrNotFound,
			},
			{
				name: "differs from the copy read first",
				consume: func(f *transferFixture, q *fx.Quote) {
					q.ToAmount++
				},
				wantErr: shared.ErrValidation,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, quoteID := quoted(t)
				f.core.quotes.beforeConsume = func(q *fx.Quote) { tt.consume(f, q) }
				req := f.request()
				req.QuoteID = &quoteID

				_, err := f.core.transfers.Create(ctx, f.caller, req)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.core.store.transfers)
			})
		}
	})

	t.Run("expired quote", func(t *testing.T) {
		f, quoteID := quoted(t)
		f.core.transfers.now = func() time.Time { return time.Now().Add(time.Hour) }
		req := f.request()
		req.QuoteID = &quoteID

		_, err := f.core.transfers.Create(ctx, f.caller, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTransferWorkflow_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("second confirm conflicts without a second reservation", func(t *testing.T) {
		f := newTransferFixture(t)
		tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
		require.NoError(t, err)

		confirmed, err := f.core.transfers.Confirm(ctx, f.caller, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, transfer.StatusPendingFunds, confirmed.Status)
		require.Equal(t, 1, f.core.store.entryCount())
		reservation := f.core.store.entries[0]
		assert.Equal(t, ledger.EntryTypeTransferCreate, reservation.Type)
		assert.Equal(t, tr.ID, reservation.ReferenceID)

		_, err = f.core.transfers.Confirm(ctx, f.caller, tr.ID)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, 1, f.core.store.entryCount())

		stored, err := f.core.transfers.GetByID(ctx, f.caller, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, transfer.StatusPendingFunds, stored.Status)
	})

	t.Run("concurrent confirms reserve once", func(t *testing.T) {
		f := newTransferFixture(t)
		tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.core.transfers.Confirm(ctx, f.caller, tr.ID)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, shared.ErrConflict)
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, f.core.store.entryCount())
	})

	t.Run("other business is forbidden", func(t *testing.T) {
		f := newTransferFixture(t)
		tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
		require.NoError(t, err)

		intruder := shared.Caller{BusinessID: uuid.New(), PrincipalID: uuid.New()}
		_, err = f.core.transfers.Confirm(ctx, intruder, tr.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, transfer.StatusDraft, f.core.store.transfers[tr.ID].Status)
		assert.Zero(t, f.core.store.entryCount())
	})

	t.Run("failed reservation keeps the draft", func(t *testing.T) {
		f := newTransferFixture(t)
		req := f.request()
		req.FromCurrency, req.ToCurrency = "GHS", "NGN"
		tr, err := f.core.transfers.Create(ctx, f.caller, req)
		require.NoError(t, err)
		// remove the GHS wallet so the reservation cannot resolve it
		for id, acc := range f.core.store.accounts {
			if acc.Currency == shared.CurrencyGHS {
				delete(f.core.store.accounts, id)
			}
		}

		_, err = f.core.transfers.Confirm(ctx, f.caller, tr.ID)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, transfer.StatusDraft, f.core.store.transfers[tr.ID].Status)
		assert.Zero(t, f.core.store.entryCount())
	})

	t.Run("status write failure rolls back the reservation", func(t *testing.T) {
		f := newTransferFixture(t)
		tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
		require.NoError(t, err)
		f.core.store.failUpdateStatus = errors.New("connection reset")

		_, err = f.core.transfers.Confirm(ctx, f.caller, tr.ID)
		assert.ErrorIs(t, err, shared.ErrStorageFailure)
		assert.Zero(t, f.core.store.entryCount())
		assert.Empty(t, f.core.store.outbox)
		assert.Equal(t, transfer.StatusDraft, f.core.store.transfers[tr.ID].Status)
	})

	t.Run("reservation reads only through the transaction", func(t *testing.T) {
		tests := []struct {
			name             string
			clearingProvided bool
		}{
			{name: "clearing provisioned by confirm"},
			{name: "clearing already exists", clearingProvided: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newTransferFixture(t)
				if tt.clearingProvided {
					_, err := f.core.registry.ResolvePlatformAccount(ctx, account.KindClearing, shared.CurrencyNGN)
					require.NoError(t, err)
				}
				tr, err := f.core.transfers.Create(ctx, f.caller, f.request())
				require.NoError(t, err)
				f.core.store.singleConn = true

				confirmed, err := f.core.transfers.Confirm(ctx, f.caller, tr.ID)
				require.NoError(t, err)
				assert.Equal(t, transfer.StatusPendingFunds, confirmed.Status)
				assert.Equal(t, 1, f.core.store.entryCount())
			})
		}
	})

	t.Run("unknown transfer", func(t *testing.T) {
		f := newTransferFixture(t)

		_, err := f.core.transfers.Confirm(ctx, f.caller, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTransferWorkflow_Reads(t *testing.T) {
	ctx := context.Background()
	f := newTransferFixture(t)

	first, err := f.core.transfers.Create(ctx, f.caller, f.request())
	require.NoError(t, err)
	second, err := f.core.transfers.Create(ctx, f.caller, f.request())
	require.NoError(t, err)

	other := newTransferFixture(t)
	_, err = other.core.transfers.Create(ctx, other.caller, other.request())
	require.NoError(t, err)

	t.Run("list is scoped and newest first", func(t *testing.T) {
		list, err := f.core.transfers.List(ctx, f.caller)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))
		ids := []uuid.UUID{list[0].ID, list[1].ID}
		assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	})

	t.Run("empty list", func(t *testing.T) {
		list, err := f.core.transfers.List(ctx, shared.Caller{BusinessID: uuid.New()})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("get includes counterparty", func(t *testing.T) {
		got, err := f.core.transfers.GetByID(ctx, f.caller, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Counterparty)
		assert.Equal(t, "Accra Textiles", got.Counterparty.Name)
	})

	t.Run("get by another business", func(t *testing.T) {
		_, err := f.core.transfers.GetByID(ctx, shared.Caller{BusinessID: uuid.New()}, first.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := f.core.transfers.GetByID(ctx, f.caller, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
