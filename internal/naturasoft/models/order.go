package models

import (
	"encoding/xml"

	"github.com/shopspring/decimal"
)

// OrderRecord is the flattened, read-only projection of one store order,
// ready for serialization. Every textual field defaults to "" so the XML
// always carries the element, possibly with an empty text node.
type OrderRecord struct {
	OrderID       int
	OrderNumber   string
	Created       string
	Currency      string
	Status        string
	Total         decimal.Decimal
	TaxTotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal
	VATNumber     string
	Billing       *Address
	Shipping      *Address
	Items         []Item
	ShippingLines []ShippingLine
}

type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	Postcode  string
	Country   string
	Email     string
	Phone     string
}

type Item struct {
	SKU        string
	Name       string
	Qty        decimal.Decimal
	PriceExVAT decimal.Decimal
	TaxRate    decimal.Decimal
}

type ShippingLine struct {
	MethodID string
	Total    decimal.Decimal
}

// Wire documents. Scalar values are pre-formatted strings: amounts with a
// fixed two fraction digits, '.' separator, which the Naturasoft parser
// expects regardless of locale.

type OrderXML struct {
	XMLName       xml.Name          `xml:"Order"`
	OrderNumber   string            `xml:"OrderNumber"`
	OrderId       string            `xml:"OrderId"`
	Created       string            `xml:"Created"`
	Currency      string            `xml:"Currency"`
	Status        string            `xml:"Status"`
	Total         string            `xml:"Total"`
	TaxTotal      string            `xml:"TaxTotal"`
	ShippingTotal string            `xml:"ShippingTotal"`
	DiscountTotal string            `xml:"DiscountTotal"`
	VATNumber     string            `xml:"VATNumber"`
	Billing       *BillingXML       `xml:"Billing"`
	Shipping      *ShippingXML      `xml:"Shipping"`
	Items         ItemsXML          `xml:"Items"`
	ShippingLines *ShippingLinesXML `xml:"ShippingLines"`
}

type BillingXML struct {
	FirstName string `xml:"FirstName"`
	LastName  string `xml:"LastName"`
	Company   string `xml:"Company"`
	Address1  string `xml:"Address1"`
	Address2  string `xml:"Address2"`
	City      string `xml:"City"`
	Postcode  string `xml:"Postcode"`
	Country   string `xml:"Country"`
	Email     string `xml:"Email"`
	Phone     string `xml:"Phone"`
}

type ShippingXML struct {
	FirstName string `xml:"FirstName"`
	LastName  string `xml:"LastName"`
	Company   string `xml:"Company"`
	Address1  string `xml:"Address1"`
	Address2  string `xml:"Address2"`
	City      string `xml:"City"`
	Postcode  string `xml:"Postcode"`
	Country   string `xml:"Country"`
}

type ItemsXML struct {
	Item []ItemXML `xml:"Item"`
}

type ItemXML struct {
	SKU        string `xml:"SKU"`
	Name       string `xml:"Name"`
	Qty        string `xml:"Qty"`
	PriceExVAT string `xml:"PriceExVAT"`
	TaxRate    string `xml:"TaxRate"`
}

type ShippingLinesXML struct {
	Line []LineXML `xml:"Line"`
}

type LineXML struct {
	MethodId string `xml:"MethodId"`
	Total    string `xml:"Total"`
}
