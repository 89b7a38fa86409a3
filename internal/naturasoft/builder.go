// Package naturasoft serializes order records into the XML documents the
// Naturasoft ERP imports.
package naturasoft

import (
	"encoding/xml"
	"strconv"
	"strings"

	"NaturasoftSync/internal/naturasoft/models"

	"github.com/pkg/errors"
)

// BuildOrderXML produces the declared, indented single-order document.
// Billing/Shipping/ShippingLines are omitted entirely when absent; Items
// is always present, even with zero children. The Naturasoft parser
// depends on this asymmetry.
func BuildOrderXML(rec *models.OrderRecord) (string, error) {

	currency := rec.Currency
	if currency == "" {
		currency = "HUF"
	}

	doc := models.OrderXML{
		OrderNumber:   rec.OrderNumber,
		OrderId:       strconv.Itoa(rec.OrderID),
		Created:       rec.Created,
		Currency:      currency,
		Status:        rec.Status,
		Total:         rec.Total.StringFixed(2),
		TaxTotal:      rec.TaxTotal.StringFixed(2),
		ShippingTotal: rec.ShippingTotal.StringFixed(2),
		DiscountTotal: rec.DiscountTotal.StringFixed(2),
		VATNumber:     rec.VATNumber,
	}

	if rec.Billing != nil {
		doc.Billing = &models.BillingXML{
			FirstName: rec.Billing.FirstName,
			LastName:  rec.Billing.LastName,
			Company:   rec.Billing.Company,
			Address1:  rec.Billing.Address1,
			Address2:  rec.Billing.Address2,
			City:      rec.Billing.City,
			Postcode:  rec.Billing.Postcode,
			Country:   rec.Billing.Country,
			Email:     rec.Billing.Email,
			Phone:     rec.Billing.Phone,
		}
	}

	if rec.Shipping != nil {
		doc.Shipping = &models.ShippingXML{
			FirstName: rec.Shipping.FirstName,
			LastName:  rec.Shipping.LastName,
			Company:   rec.Shipping.Company,
			Address1:  rec.Shipping.Address1,
			Address2:  rec.Shipping.Address2,
			City:      rec.Shipping.City,
			Postcode:  rec.Shipping.Postcode,
			Country:   rec.Shipping.Country,
		}
	}

	for _, it := range rec.Items {
		doc.Items.Item = append(doc.Items.Item, models.ItemXML{
			SKU:        it.SKU,
			Name:       it.Name,
			Qty:        it.Qty.String(),
			PriceExVAT: it.PriceExVAT.StringFixed(2),
			TaxRate:    it.TaxRate.StringFixed(2),
		})
	}

	if len(rec.ShippingLines) > 0 {
		doc.ShippingLines = &models.ShippingLinesXML{}
		for _, sl := range rec.ShippingLines {
			doc.ShippingLines.Line = append(doc.ShippingLines.Line, models.LineXML{
				MethodId: sl.MethodID,
				Total:    sl.Total.StringFixed(2),
			})
		}
	}

	out, err := xml.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed xml.MarshalIndent")
	}

	return xml.Header + string(out) + "\n", nil
}

// node is a schema-free XML element, used to re-parent whole documents
// without touching their internal structure.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

// compact strips the indentation chardata a parsed pretty-printed document
// carries between child elements, so re-marshaling indents cleanly.
func (n *node) compact() {
	if len(n.Nodes) > 0 && strings.TrimSpace(n.Text) == "" {
		n.Text = ""
	}
	for i := range n.Nodes {
		n.Nodes[i].compact()
	}
}

// BuildOrdersXML wraps any number of single-order documents into one
// <Orders> envelope, preserving each document's structure and the input
// order. A single malformed input fails the whole batch: the ERP must
// never receive a partial envelope.
func BuildOrdersXML(orderDocs []string) (string, error) {

	root := node{XMLName: xml.Name{Local: "Orders"}}

	for i, doc := range orderDocs {
		var n node
		if err := xml.Unmarshal([]byte(doc), &n); err != nil {
			return "", errors.Wrapf(err, "failed xml.Unmarshal of order document %d", i)
		}
		n.compact()
		root.Nodes = append(root.Nodes, n)
	}

	out, err := xml.MarshalIndent(&root, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed xml.MarshalIndent")
	}

	return xml.Header + string(out) + "\n", nil
}
