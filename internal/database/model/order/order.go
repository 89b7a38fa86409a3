package order

import (
	"database/sql"

	"NaturasoftSync/internal/database"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var ErrOrderNotFound = errors.New("order not found")

type Order struct {
	ID                int    `db:"ID"`
	OrderNumber       string `db:"OrderNumber"`
	Created           string `db:"Created"`
	Currency          string `db:"Currency"`
	Status            string `db:"Status"`
	Total             string `db:"Total"`
	TaxTotal          string `db:"TaxTotal"`
	ShippingTotal     string `db:"ShippingTotal"`
	DiscountTotal     string `db:"DiscountTotal"`
	TaxRate           string `db:"TaxRate"`
	HasBilling        int    `db:"HasBilling"`
	HasShipping       int    `db:"HasShipping"`
	BillingFirstName  string `db:"BillingFirstName"`
	BillingLastName   string `db:"BillingLastName"`
	BillingCompany    string `db:"BillingCompany"`
	BillingAddress1   string `db:"BillingAddress1"`
	BillingAddress2   string `db:"BillingAddress2"`
	BillingCity       string `db:"BillingCity"`
	BillingPostcode   string `db:"BillingPostcode"`
	BillingCountry    string `db:"BillingCountry"`
	BillingEmail      string `db:"BillingEmail"`
	BillingPhone      string `db:"BillingPhone"`
	ShippingFirstName string `db:"ShippingFirstName"`
	ShippingLastName  string `db:"ShippingLastName"`
	ShippingCompany   string `db:"ShippingCompany"`
	ShippingAddress1  string `db:"ShippingAddress1"`
	ShippingAddress2  string `db:"ShippingAddress2"`
	ShippingCity      string `db:"ShippingCity"`
	ShippingPostcode  string `db:"ShippingPostcode"`
	ShippingCountry   string `db:"ShippingCountry"`
}

type Item struct {
	ID         int    `db:"ID"`
	OrderID    int    `db:"OrderID"`
	Pos        int    `db:"Pos"`
	SKU        string `db:"SKU"`
	Name       string `db:"Name"`
	Qty        string `db:"Qty"`
	PriceExVAT string `db:"PriceExVAT"`
}

type ShippingLine struct {
	ID       int    `db:"ID"`
	OrderID  int    `db:"OrderID"`
	Pos      int    `db:"Pos"`
	MethodID string `db:"MethodID"`
	Total    string `db:"Total"`
}

// Upsert writes the order row and replaces its item/shipping-line children.
// Meta keys are upserted individually, so the export marker set by the
// tracker survives repeated webhook deliveries of the same order.
func (o *Order) Upsert(db *sqlx.DB, items []*Item, lines []*ShippingLine, meta map[string]string) error {

	logger := logging.GetLogger()
	logger.Debug("Start Order.Upsert")
	defer logger.Debug("End Order.Upsert")

	tx, err := db.Beginx()
	if err != nil {
		return errors.Wrap(err, "failed db.Beginx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT OR REPLACE INTO Orders (
		ID, OrderNumber, Created, Currency, Status,
		Total, TaxTotal, ShippingTotal, DiscountTotal, TaxRate,
		HasBilling, HasShipping,
		BillingFirstName, BillingLastName, BillingCompany, BillingAddress1, BillingAddress2,
		BillingCity, BillingPostcode, BillingCountry, BillingEmail, BillingPhone,
		ShippingFirstName, ShippingLastName, ShippingCompany, ShippingAddress1, ShippingAddress2,
		ShippingCity, ShippingPostcode, ShippingCountry
	) VALUES (
		:ID, :OrderNumber, :Created, :Currency, :Status,
		:Total, :TaxTotal, :ShippingTotal, :DiscountTotal, :TaxRate,
		:HasBilling, :HasShipping,
		:BillingFirstName, :BillingLastName, :BillingCompany, :BillingAddress1, :BillingAddress2,
		:BillingCity, :BillingPostcode, :BillingCountry, :BillingEmail, :BillingPhone,
		:ShippingFirstName, :ShippingLastName, :ShippingCompany, :ShippingAddress1, :ShippingAddress2,
		:ShippingCity, :ShippingPostcode, :ShippingCountry
	);`

	_, err = tx.NamedExec(query, o)
	if err != nil {
		return errors.Wrapf(err, "failed INSERT to dbsqlite; query:\n%s", query)
	}

	_, err = tx.Exec("DELETE FROM OrderItems WHERE OrderID=$1;", o.ID)
	if err != nil {
		return errors.Wrapf(err, "failed DELETE OrderItems(OrderID=%d)", o.ID)
	}
	for _, item := range items {
		item.OrderID = o.ID
		_, err = tx.NamedExec(`INSERT INTO OrderItems (OrderID, Pos, SKU, Name, Qty, PriceExVAT)
			VALUES (:OrderID, :Pos, :SKU, :Name, :Qty, :PriceExVAT);`, item)
		if err != nil {
			return errors.Wrapf(err, "failed INSERT OrderItems(OrderID=%d, SKU=%s)", o.ID, item.SKU)
		}
	}

	_, err = tx.Exec("DELETE FROM OrderShippingLines WHERE OrderID=$1;", o.ID)
	if err != nil {
		return errors.Wrapf(err, "failed DELETE OrderShippingLines(OrderID=%d)", o.ID)
	}
	for _, line := range lines {
		line.OrderID = o.ID
		_, err = tx.NamedExec(`INSERT INTO OrderShippingLines (OrderID, Pos, MethodID, Total)
			VALUES (:OrderID, :Pos, :MethodID, :Total);`, line)
		if err != nil {
			return errors.Wrapf(err, "failed INSERT OrderShippingLines(OrderID=%d)", o.ID)
		}
	}

	for key, value := range meta {
		_, err = tx.Exec(`INSERT INTO OrderMeta (OrderID, MetaKey, MetaValue) VALUES ($1, $2, $3)
			ON CONFLICT(OrderID, MetaKey) DO UPDATE SET MetaValue=excluded.MetaValue;`, o.ID, key, value)
		if err != nil {
			return errors.Wrapf(err, "failed UPSERT OrderMeta(OrderID=%d, MetaKey=%s)", o.ID, key)
		}
	}

	err = tx.Commit()
	if err != nil {
		return errors.Wrap(err, "failed tx.Commit")
	}

	return nil
}

func SelectByID(db *sqlx.DB, orderID int) (*Order, error) {

	logger := logging.GetLogger()
	logger.Debug("Start Order.SelectByID")
	defer logger.Debug("End Order.SelectByID")

	var o Order
	query := "SELECT * FROM Orders WHERE ID=$1;"
	err := db.Get(&o, query, orderID)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s(%d)", query, orderID)
	}
	return &o, nil
}

func SelectItems(db *sqlx.DB, orderID int) ([]*Item, error) {

	var items []*Item
	query := "SELECT * FROM OrderItems WHERE OrderID=$1 ORDER BY Pos;"
	err := db.Select(&items, query, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s(%d)", query, orderID)
	}
	return items, nil
}

func SelectShippingLines(db *sqlx.DB, orderID int) ([]*ShippingLine, error) {

	var lines []*ShippingLine
	query := "SELECT * FROM OrderShippingLines WHERE OrderID=$1 ORDER BY Pos;"
	err := db.Select(&lines, query, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s(%d)", query, orderID)
	}
	return lines, nil
}

// MetaValue returns the stored value or "" when the key is absent.
func MetaValue(db *sqlx.DB, orderID int, key string) (string, error) {

	var value string
	query := "SELECT MetaValue FROM OrderMeta WHERE OrderID=$1 AND MetaKey=$2;"
	err := db.Get(&value, query, orderID, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s(%d, %s)", query, orderID, key)
	}
	return value, nil
}

func SetMeta(db *sqlx.DB, orderID int, key, value string) error {

	query := `INSERT INTO OrderMeta (OrderID, MetaKey, MetaValue) VALUES ($1, $2, $3)
		ON CONFLICT(OrderID, MetaKey) DO UPDATE SET MetaValue=excluded.MetaValue;`
	_, err := db.Exec(query, orderID, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed UPSERT OrderMeta(OrderID=%d, MetaKey=%s)", orderID, key)
	}
	return nil
}

// PendingFilter narrows SelectPending. Empty fields are not applied.
type PendingFilter struct {
	Statuses    []string
	CreatedFrom string
	CreatedTo   string
}

// SelectPending returns orders whose export marker is absent or empty,
// oldest first, so pull clients drain the backlog in FIFO order.
func SelectPending(db *sqlx.DB, limit int, filter PendingFilter) ([]*Order, error) {

	logger := logging.GetLogger()
	logger.Debug("Start Order.SelectPending")
	defer logger.Debug("End Order.SelectPending")

	query := `SELECT o.* FROM Orders o
		LEFT JOIN OrderMeta m ON m.OrderID = o.ID AND m.MetaKey = ?
		WHERE (m.MetaValue IS NULL OR m.MetaValue = '')`
	args := []interface{}{database.MetaKeyExported}

	if len(filter.Statuses) > 0 {
		inQuery, inArgs, err := sqlx.In(" AND o.Status IN (?)", filter.Statuses)
		if err != nil {
			return nil, errors.Wrap(err, "failed sqlx.In")
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	if filter.CreatedFrom != "" {
		query += " AND o.Created >= ?"
		args = append(args, filter.CreatedFrom)
	}
	if filter.CreatedTo != "" {
		query += " AND o.Created <= ?"
		args = append(args, filter.CreatedTo)
	}

	query += " ORDER BY o.ID ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var pending []*Order
	err := db.Select(&pending, db.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s", query)
	}

	logger.Debugf("SelectPending: %d rows", len(pending))
	return pending, nil
}

// MarkExported stamps the export marker. The write is conditional: an
// already-set marker is left untouched, so two racing pulls cannot move
// the timestamp backwards. Returns false when the marker was already set.
func MarkExported(db *sqlx.DB, orderID int, timestamp string) (bool, error) {

	logger := logging.GetLogger()
	logger.Debug("Start Order.MarkExported")
	defer logger.Debug("End Order.MarkExported")

	query := `INSERT INTO OrderMeta (OrderID, MetaKey, MetaValue) VALUES ($1, $2, $3)
		ON CONFLICT(OrderID, MetaKey) DO UPDATE SET MetaValue=excluded.MetaValue
		WHERE OrderMeta.MetaValue = '';`
	res, err := db.Exec(query, orderID, database.MetaKeyExported, timestamp)
	if err != nil {
		return false, errors.Wrapf(err, "failed UPSERT OrderMeta(OrderID=%d)", orderID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed res.RowsAffected")
	}
	return n > 0, nil
}

// ResetExported clears every export marker. Administrative escape hatch:
// all orders become pending again and will be re-delivered.
func ResetExported(db *sqlx.DB) (int64, error) {

	logger := logging.GetLogger()
	logger.Debug("Start Order.ResetExported")
	defer logger.Debug("End Order.ResetExported")

	res, err := db.Exec("DELETE FROM OrderMeta WHERE MetaKey=$1;", database.MetaKeyExported)
	if err != nil {
		return 0, errors.Wrap(err, "failed DELETE OrderMeta")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed res.RowsAffected")
	}
	return n, nil
}

// Flag is one row of the debug listing.
type Flag struct {
	ID           int    `db:"ID" json:"id"`
	OrderNumber  string `db:"OrderNumber" json:"order_number"`
	ExportedFlag string `db:"ExportedFlag" json:"exported_flag"`
}

// SelectFlags lists the newest orders with their export marker, for the
// debug endpoint.
func SelectFlags(db *sqlx.DB, limit int) ([]*Flag, error) {

	var flags []*Flag
	query := `SELECT o.ID, o.OrderNumber, COALESCE(m.MetaValue, '') AS ExportedFlag
		FROM Orders o
		LEFT JOIN OrderMeta m ON m.OrderID = o.ID AND m.MetaKey = $1
		ORDER BY o.ID DESC LIMIT $2;`
	err := db.Select(&flags, query, database.MetaKeyExported, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed SELECT to dbsqlite; query:\n%s", query)
	}
	return flags, nil
}
