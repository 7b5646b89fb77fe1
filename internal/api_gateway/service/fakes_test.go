package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/counterparty"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/outbox"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory stand-in for Postgres. Transactions are serialised and
// roll back to a snapshot on error, which is enough to observe atomicity.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	accounts       map[uuid.UUID]account.Account
	entries        []ledger.JournalEntry
	outbox         []outbox.Message
	transfers      map[uuid.UUID]transfer.Transfer
	counterparties map[uuid.UUID]counterparty.Counterparty
	rates          []fx.Rate

	lockLog [][]uuid.UUID

	// singleConn models a pool of one connection: while a transaction is open,
	// repositories not bound to it cannot acquire one.
	singleConn bool
	txOpen     bool

	beforeCreateAccount func()
	failFindPlatform    error
	failCreateEntry     error
	failUpdateStatus    error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:       map[uuid.UUID]account.Account{},
		transfers:      map[uuid.UUID]transfer.Transfer{},
		counterparties: map[uuid.UUID]counterparty.Counterparty{},
	}
}

type memSnapshot struct {
	accounts  map[uuid.UUID]account.Account
	entries   []ledger.JournalEntry
	outbox    []outbox.Message
	transfers map[uuid.UUID]transfer.Transfer
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		accounts:  make(map[uuid.UUID]account.Account, len(s.accounts)),
		entries:   append([]ledger.JournalEntry(nil), s.entries...),
		outbox:    append([]outbox.Message(nil), s.outbox...),
		transfers: make(map[uuid.UUID]transfer.Transfer, len(s.transfers)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.transfers {
		snap.transfers[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.entries = snap.entries
	s.outbox = snap.outbox
	s.transfers = snap.transfers
}

var errPoolExhausted = errors.New("no idle connection in pool")

func (s *memStore) acquire(bound bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !bound && s.singleConn && s.txOpen {
		return errPoolExhausted
	}
	return nil
}

func (s *memStore) setTxOpen(open bool) {
	s.mu.Lock()
	s.txOpen = open
	s.mu.Unlock()
}

func (s *memStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memStore) addWallet(businessID uuid.UUID, currency shared.Currency) *account.Account {
	w := account.NewWallet(businessID, currency, string(currency)+" Wallet")
	s.mu.Lock()
	s.accounts[w.ID] = *w
	s.mu.Unlock()
	return w
}

func (s *memStore) addCounterparty(businessID uuid.UUID, name string) *counterparty.Counterparty {
	c := counterparty.Counterparty{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
		Country:    "GH",
		PayoutType: "BANK",
		PayoutRef:  "GH-" + name,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.counterparties[c.ID] = c
	s.mu.Unlock()
	return &c
}

type fakeTxRunner struct {
	store *memStore
}

func (r fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	snap := r.store.snapshot()
	r.store.setTxOpen(true)
	defer r.store.setTxOpen(false)
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type memAccountRepo struct {
	store *memStore
	bound bool
}

func (r memAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	if err := r.store.acquire(r.bound); err != nil {
		return err
	}
	if r.store.beforeCreateAccount != nil {
		r.store.beforeCreateAccount()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.accounts {
		sameOwner := (existing.BusinessID == nil && acc.BusinessID == nil) ||
			(existing.BusinessID != nil && acc.BusinessID != nil && *existing.BusinessID == *acc.BusinessID)
		if sameOwner && existing.Currency == acc.Currency && existing.Kind == acc.Kind {
			return account.ErrDuplicateAccount{Kind: acc.Kind, Currency: acc.Currency}
		}
	}
	r.store.accounts[acc.ID] = *acc
	return nil
}

func (r memAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := r.store.acquire(r.bound); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	acc, ok := r.store.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r memAccountRepo) FindPlatform(ctx context.Context, kind account.Kind, currency shared.Currency) (*account.Account, error) {
	if err := r.store.acquire(r.bound); err != nil {
		return nil, err
	}
	if r.store.failFindPlatform != nil {
		return nil, r.store.failFindPlatform
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, acc := range r.store.accounts {
		if acc.BusinessID == nil && acc.Kind == kind && acc.Currency == currency {
			return &acc, nil
		}
	}
	return nil, account.ErrAccountNotFound{}
}

func (r memAccountRepo) FindWallet(ctx context.Context, businessID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	if err := r.store.acquire(r.bound); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, acc := range r.store.accounts {
		if acc.Kind == account.KindCustomerWallet && acc.OwnedBy(businessID) && acc.Currency == currency {
			return &acc, nil
		}
	}
	return nil, account.ErrWalletNotFound{BusinessID: businessID, Currency: currency}
}

func (r memAccountRepo) ListWallets(ctx context.Context, businessID uuid.UUID) ([]*account.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wallets := []*account.Account{}
	for _, acc := range r.store.accounts {
		if acc.Kind == account.KindCustomerWallet && acc.OwnedBy(businessID) {
			acc := acc
			wallets = append(wallets, &acc)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Currency < wallets[j].Currency })
	return wallets, nil
}

func (r memAccountRepo) LockForUpdate(ctx context.Context, ids []uuid.UUID) error {
	if err := r.store.acquire(r.bound); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.store.accounts[id]; !ok {
			return account.ErrAccountNotFound{AccountID: id}
		}
	}
	r.store.lockLog = append(r.store.lockLog, append([]uuid.UUID(nil), ids...))
	return nil
}

func (r memAccountRepo) WithTx(tx pgx.Tx) account.Repository { return memAccountRepo{store: r.store, bound: true} }

type memLedgerRepo struct {
	store *memStore
	bound bool
}

func (r memLedgerRepo) CreateEntry(ctx context.Context, entry *ledger.JournalEntry) error {
	if err := r.store.acquire(r.bound); err != nil {
		return err
	}
	if r.store.failCreateEntry != nil {
		return r.store.failCreateEntry
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r memLedgerRepo) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, ledger.ErrEntryNotFound{EntryID: id}
}

func (r memLedgerRepo) postingsFor(accountID uuid.UUID) []ledger.Posting {
	var postings []ledger.Posting
	for _, e := range r.store.entries {
		for _, p := range e.Postings {
			if p.AccountID == accountID {
				postings = append(postings, p)
			}
		}
	}
	return postings
}

func (r memLedgerRepo) Totals(ctx context.Context, accountID uuid.UUID) (int64, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	debits, credits := ledger.Totals(r.postingsFor(accountID))
	return debits, credits, nil
}

func (r memLedgerRepo) Statement(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.StatementLine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var lines []*ledger.StatementLine
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		e := r.store.entries[i]
		for _, p := range e.Postings {
			if p.AccountID == accountID {
				lines = append(lines, &ledger.StatementLine{
					PostingID: p.ID,
					Direction: p.Direction,
					Amount:    p.Amount,
					EntryType: e.Type,
					Memo:      e.Memo,
					CreatedAt: e.CreatedAt,
				})
			}
		}
	}

	page := []*ledger.StatementLine{}
	for i := offset; i < len(lines) && i < offset+limit; i++ {
		page = append(page, lines[i])
	}
	return page, nil
}

func (r memLedgerRepo) CountPostings(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.postingsFor(accountID))), nil
}

func (r memLedgerRepo) WithTx(tx pgx.Tx) ledger.Repository { return memLedgerRepo{store: r.store, bound: true} }

type memOutboxRepo struct{ store *memStore }

func (r memOutboxRepo) Create(ctx context.Context, msg *outbox.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	msg.ID = int64(len(r.store.outbox) + 1)
	r.store.outbox = append(r.store.outbox, *msg)
	return nil
}

func (r memOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var pending []*outbox.Message
	for i := range r.store.outbox {
		if r.store.outbox[i].Status == outbox.StatusPending && len(pending) < limit {
			msg := r.store.outbox[i]
			pending = append(pending, &msg)
		}
	}
	return pending, nil
}

func (r memOutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	return r.setStatus(id, outbox.StatusProcessed)
}

func (r memOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.setStatus(id, outbox.StatusFailedToPublish)
}

func (r memOutboxRepo) setStatus(id int64, status outbox.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.outbox {
		if r.store.outbox[i].ID == id {
			r.store.outbox[i].Status = status
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r memOutboxRepo) RecordFailure(ctx context.Context, id int64, maxAttempts int) (outbox.Status, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.outbox {
		if r.store.outbox[i].ID == id {
			r.store.outbox[i].Attempts++
			if r.store.outbox[i].Attempts >= maxAttempts {
				r.store.outbox[i].Status = outbox.StatusFailedToPublish
			}
			return r.store.outbox[i].Status, nil
		}
	}
	return "", outbox.ErrMessageNotFound{ID: id}
}

func (r memOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository { return r }

type memTransferRepo struct {
	store *memStore
	bound bool
}

func (r memTransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if t.QuoteID != nil {
		for _, existing := range r.store.transfers {
			if existing.QuoteID != nil && *existing.QuoteID == *t.QuoteID {
				return transfer.ErrQuoteAlreadyUsed{QuoteID: *t.QuoteID}
			}
		}
	}
	r.store.transfers[t.ID] = *t
	return nil
}

func (r memTransferRepo) withCounterparty(t transfer.Transfer) *transfer.Transfer {
	if c, ok := r.store.counterparties[t.CounterpartyID]; ok {
		t.Counterparty = &counterparty.Summary{
			ID:         c.ID,
			Name:       c.Name,
			Country:    c.Country,
			PayoutType: c.PayoutType,
			PayoutRef:  c.PayoutRef,
		}
	}
	return &t
}

func (r memTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transfers[id]
	if !ok {
		return nil, transfer.ErrTransferNotFound{ID: id}
	}
	return r.withCounterparty(t), nil
}

func (r memTransferRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	if err := r.store.acquire(r.bound); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transfers[id]
	if !ok {
		return nil, transfer.ErrTransferNotFound{ID: id}
	}
	return &t, nil
}

func (r memTransferRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*transfer.Transfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	transfers := []*transfer.Transfer{}
	for _, t := range r.store.transfers {
		if t.BusinessID == businessID {
			transfers = append(transfers, r.withCounterparty(t))
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].CreatedAt.After(transfers[j].CreatedAt) })
	return transfers, nil
}

func (r memTransferRepo) UpdateStatus(ctx context.Context, t *transfer.Transfer, expected transfer.Status) error {
	if err := r.store.acquire(r.bound); err != nil {
		return err
	}
	if r.store.failUpdateStatus != nil {
		return r.store.failUpdateStatus
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.transfers[t.ID]
	if !ok || stored.Status != expected {
		return transfer.ErrStaleStatus{ID: t.ID, Expected: expected}
	}
	stored.Status = t.Status
	stored.UpdatedAt = t.UpdatedAt
	r.store.transfers[t.ID] = stored
	return nil
}

func (r memTransferRepo) WithTx(tx pgx.Tx) transfer.Repository { return memTransferRepo{store: r.store, bound: true} }

type memCounterpartyReader struct{ store *memStore }

func (r memCounterpartyReader) GetForBusiness(ctx context.Context, id, businessID uuid.UUID) (*counterparty.Counterparty, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.counterparties[id]
	if !ok || c.BusinessID != businessID {
		return nil, counterparty.ErrCounterpartyNotFound{ID: id}
	}
	return &c, nil
}

type memRateRepo struct{ store *memStore }

func (r memRateRepo) Latest(ctx context.Context, base, quote shared.Currency) (*fx.Rate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *fx.Rate
	for i := range r.store.rates {
		rate := r.store.rates[i]
		if rate.Base == base && rate.Quote == quote && (latest == nil || rate.AsOf.After(latest.AsOf)) {
			latest = &rate
		}
	}
	if latest == nil {
		return nil, fx.ErrRateNotFound{Base: base, Quote: quote}
	}
	return latest, nil
}

func (r memRateRepo) Append(ctx context.Context, rate *fx.Rate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.rates = append(r.store.rates, *rate)
	return nil
}

type memQuoteStore struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]fx.Quote

	// beforeConsume may rewrite the stored quote before Consume returns it
	beforeConsume func(q *fx.Quote)
}

func newMemQuoteStore() *memQuoteStore {
	return &memQuoteStore{quotes: map[uuid.UUID]fx.Quote{}}
}

func (s *memQuoteStore) Save(ctx context.Context, q *fx.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.ID] = *q
	return nil
}

func (s *memQuoteStore) Get(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return nil, fx.ErrQuoteNotFound{ID: id}
	}
	return &q, nil
}

func (s *memQuoteStore) Consume(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return nil, fx.ErrQuoteNotFound{ID: id}
	}
	if s.beforeConsume != nil {
		s.beforeConsume(&q)
	}
	delete(s.quotes, id)
	return &q, nil
}

// testCore wires every service over one memStore
type testCore struct {
	store     *memStore
	quotes    *memQuoteStore
	registry  AccountRegistry
	engine    *LedgerEngineImpl
	fx        *FxQuotingImpl
	transfers *TransferWorkflowImpl
	wallets   WalletQuery
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCore() *testCore {
	store := newMemStore()
	quotes := newMemQuoteStore()
	logger := newTestLogger()
	currencies := shared.NewCurrencySet("NGN", "GHS")
	db := fakeTxRunner{store: store}

	accounts := memAccountRepo{store: store}
	ledgerRepo := memLedgerRepo{store: store}

	registry := NewAccountRegistry(logger, accounts, currencies)
	engine := NewLedgerEngine(logger, db, registry, accounts, ledgerRepo, memOutboxRepo{store: store}, currencies)

	return &testCore{
		store:     store,
		quotes:    quotes,
		registry:  registry,
		engine:    engine,
		fx:        NewFxQuoting(logger, memRateRepo{store: store}, quotes, currencies, fx.DefaultQuoteTTL),
		transfers: NewTransferWorkflow(logger, db, memTransferRepo{store: store}, memCounterpartyReader{store: store}, quotes, engine, currencies),
		wallets:   NewWalletQuery(logger, accounts, ledgerRepo, registry, currencies, 20, 50),
	}
}
