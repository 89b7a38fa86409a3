// Package export implements the Naturasoft order export pipeline:
// projecting store orders into flat records, building their XML, writing
// the files and tracking which orders were already delivered.
package export

import (
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/internal/naturasoft/models"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// amount mirrors the source's numeric handling: blank or garbage values
// flatten to zero instead of failing the export.
func amount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ProjectOrder flattens one stored order into the record the XML builder
// consumes. The VAT number comes from the configured meta field. Every item
// carries the order-level tax rate: the rate of the order's first tax line,
// not a per-item rate. The Naturasoft consumer is calibrated to exactly
// that behavior.
func ProjectOrder(db *sqlx.DB, orderID int, vatMetaField string) (*models.OrderRecord, error) {

	logger := logging.GetLogger()
	logger.Debug("Start ProjectOrder")
	defer logger.Debug("End ProjectOrder")

	o, err := order.SelectByID(db, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed order.SelectByID(%d)", orderID)
	}

	items, err := order.SelectItems(db, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed order.SelectItems(%d)", orderID)
	}

	lines, err := order.SelectShippingLines(db, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed order.SelectShippingLines(%d)", orderID)
	}

	vatNumber, err := order.MetaValue(db, orderID, vatMetaField)
	if err != nil {
		return nil, errors.Wrapf(err, "failed order.MetaValue(%d, %s)", orderID, vatMetaField)
	}

	rec := &models.OrderRecord{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Created:       o.Created,
		Currency:      o.Currency,
		Status:        o.Status,
		Total:         amount(o.Total),
		TaxTotal:      amount(o.TaxTotal),
		ShippingTotal: amount(o.ShippingTotal),
		DiscountTotal: amount(o.DiscountTotal),
		VATNumber:     vatNumber,
	}

	if o.HasBilling != 0 {
		rec.Billing = &models.Address{
			FirstName: o.BillingFirstName,
			LastName:  o.BillingLastName,
			Company:   o.BillingCompany,
			Address1:  o.BillingAddress1,
			Address2:  o.BillingAddress2,
			City:      o.BillingCity,
			Postcode:  o.BillingPostcode,
			Country:   o.BillingCountry,
			Email:     o.BillingEmail,
			Phone:     o.BillingPhone,
		}
	}

	if o.HasShipping != 0 {
		rec.Shipping = &models.Address{
			FirstName: o.ShippingFirstName,
			LastName:  o.ShippingLastName,
			Company:   o.ShippingCompany,
			Address1:  o.ShippingAddress1,
			Address2:  o.ShippingAddress2,
			City:      o.ShippingCity,
			Postcode:  o.ShippingPostcode,
			Country:   o.ShippingCountry,
		}
	}

	taxRate := amount(o.TaxRate)
	for _, it := range items {
		rec.Items = append(rec.Items, models.Item{
			SKU:        it.SKU,
			Name:       it.Name,
			Qty:        amount(it.Qty),
			PriceExVAT: amount(it.PriceExVAT),
			TaxRate:    taxRate,
		})
	}

	for _, sl := range lines {
		rec.ShippingLines = append(rec.ShippingLines, models.ShippingLine{
			MethodID: sl.MethodID,
			Total:    amount(sl.Total),
		})
	}

	return rec, nil
}
