package export

import (
	"time"

	"NaturasoftSync/internal/database"
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// markerTimeLayout matches the store's own timestamp format.
const markerTimeLayout = "2006-01-02 15:04:05"

// Tracker owns the per-order export marker. It is the only writer of that
// marker; everything else just queries it.
type Tracker struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTracker(db *sqlx.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

// IsPending reports whether the order's export marker is absent or empty.
func (t *Tracker) IsPending(orderID int) (bool, error) {
	value, err := order.MetaValue(t.db, orderID, database.MetaKeyExported)
	if err != nil {
		return false, errors.Wrapf(err, "failed order.MetaValue(%d)", orderID)
	}
	return value == "", nil
}

// QueryPending returns up to limit pending orders, oldest id first.
// An empty status set means every status is eligible.
func (t *Tracker) QueryPending(limit int, statuses []string) ([]*order.Order, error) {
	return order.SelectPending(t.db, limit, order.PendingFilter{Statuses: statuses})
}

// QueryPendingRange is QueryPending narrowed to a creation-date window,
// used by the manual batch export.
func (t *Tracker) QueryPendingRange(statuses []string, createdFrom, createdTo string) ([]*order.Order, error) {
	return order.SelectPending(t.db, 0, order.PendingFilter{
		Statuses:    statuses,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
}

// MarkExported stamps the order with the current time. Call only after the
// XML has actually been handed off; a crash after marking but before the
// ERP reads the bytes is the accepted at-most-once risk.
func (t *Tracker) MarkExported(orderID int) error {

	logger := logging.GetLogger()

	stamped, err := order.MarkExported(t.db, orderID, t.now().Format(markerTimeLayout))
	if err != nil {
		return errors.Wrapf(err, "failed order.MarkExported(%d)", orderID)
	}
	if !stamped {
		// Lost the race or re-triggered after export: marker already set,
		// nothing to roll forward.
		logger.Debugf("MarkExported: order %d already carried a marker", orderID)
	}
	return nil
}

// ResetAll clears every export marker so the whole backlog is re-delivered.
func (t *Tracker) ResetAll() (int64, error) {
	return order.ResetExported(t.db)
}
