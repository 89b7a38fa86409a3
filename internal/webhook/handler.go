package webhook

import (
	"encoding/json"
	"strconv"

	"NaturasoftSync/internal/database"
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/internal/export"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var ErrEmptyOrderID = errors.New("webhook payload without order id")

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func addressEmpty(a *WooAddress) bool {
	if a == nil {
		return true
	}
	return a.FirstName == "" && a.LastName == "" && a.Company == "" &&
		a.Address1 == "" && a.Address2 == "" && a.City == "" &&
		a.Postcode == "" && a.Country == "" && a.Email == "" && a.Phone == ""
}

// HandleOrderPayload mirrors the webhook order into the local store and
// runs the status-change push trigger. Returns the produced file path when
// the new status is in the export set, "" otherwise.
func HandleOrderPayload(db *sqlx.DB, svc *export.Service, body []byte) (string, error) {

	logger := logging.GetLogger()
	logger.Info("Start HandleOrderPayload")
	defer logger.Info("End HandleOrderPayload")

	var wo WooOrder
	err := json.Unmarshal(body, &wo)
	if err != nil {
		return "", errors.Wrap(err, "failed json.Unmarshal of order payload")
	}
	if wo.ID == 0 {
		return "", ErrEmptyOrderID
	}

	number := wo.Number
	if number == "" {
		number = strconv.Itoa(wo.ID)
	}

	o := &order.Order{
		ID:            wo.ID,
		OrderNumber:   number,
		Created:       wo.DateCreated,
		Currency:      wo.Currency,
		Status:        wo.Status,
		Total:         wo.Total,
		TaxTotal:      wo.TotalTax,
		ShippingTotal: wo.ShippingTotal,
		DiscountTotal: wo.DiscountTotal,
	}

	// The rate of the first tax line is applied to the whole order; the
	// downstream consumer expects a single rate label per document.
	if len(wo.TaxLines) > 0 {
		o.TaxRate = formatFloat(wo.TaxLines[0].RatePercent)
	}

	if !addressEmpty(wo.Billing) {
		o.HasBilling = 1
		o.BillingFirstName = wo.Billing.FirstName
		o.BillingLastName = wo.Billing.LastName
		o.BillingCompany = wo.Billing.Company
		o.BillingAddress1 = wo.Billing.Address1
		o.BillingAddress2 = wo.Billing.Address2
		o.BillingCity = wo.Billing.City
		o.BillingPostcode = wo.Billing.Postcode
		o.BillingCountry = wo.Billing.Country
		o.BillingEmail = wo.Billing.Email
		o.BillingPhone = wo.Billing.Phone
	}

	if !addressEmpty(wo.Shipping) {
		o.HasShipping = 1
		o.ShippingFirstName = wo.Shipping.FirstName
		o.ShippingLastName = wo.Shipping.LastName
		o.ShippingCompany = wo.Shipping.Company
		o.ShippingAddress1 = wo.Shipping.Address1
		o.ShippingAddress2 = wo.Shipping.Address2
		o.ShippingCity = wo.Shipping.City
		o.ShippingPostcode = wo.Shipping.Postcode
		o.ShippingCountry = wo.Shipping.Country
	}

	var items []*order.Item
	for pos, li := range wo.LineItems {
		items = append(items, &order.Item{
			Pos:        pos,
			SKU:        li.SKU,
			Name:       li.Name,
			Qty:        formatFloat(li.Quantity),
			PriceExVAT: formatFloat(li.Price),
		})
	}

	var lines []*order.ShippingLine
	for pos, sl := range wo.ShippingLines {
		lines = append(lines, &order.ShippingLine{
			Pos:      pos,
			MethodID: sl.MethodID,
			Total:    sl.Total,
		})
	}

	meta := make(map[string]string)
	for _, m := range wo.MetaData {
		if m.Key == database.MetaKeyExported {
			// The marker belongs to the tracker, never to the webhook.
			continue
		}
		if s, ok := m.Value.(string); ok {
			meta[m.Key] = s
		}
	}

	err = o.Upsert(db, items, lines, meta)
	if err != nil {
		return "", errors.Wrapf(err, "failed Order.Upsert(%d)", o.ID)
	}
	logger.Infof("Order %d (%s) mirrored, status %s", o.ID, o.OrderNumber, o.Status)

	path, err := svc.HandleStatusChange(o.ID, o.Status)
	if err != nil {
		return "", errors.Wrapf(err, "failed HandleStatusChange(%d, %s)", o.ID, o.Status)
	}

	return path, nil
}
