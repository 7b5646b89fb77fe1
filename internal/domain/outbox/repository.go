package outbox

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository stores the journal entries waiting to leave the ledger database.
// Create runs inside the posting transaction; the rest is driven by the poller.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	// RecordFailure counts one failed delivery and returns the resulting status.
	// The row leaves PENDING once attempts reaches maxAttempts.
	RecordFailure(ctx context.Context, id int64, maxAttempts int) (Status, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}
