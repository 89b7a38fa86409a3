package database

// MetaKeyExported holds the export marker: absent or empty means the order
// is still pending for the Naturasoft pull clients.
const MetaKeyExported = "_nsa_exported"

const DB_SCHEMA = `CREATE TABLE Orders (
	ID integer PRIMARY KEY,
	OrderNumber text,
	Created text,
	Currency text,
	Status text,
	Total text,
	TaxTotal text,
	ShippingTotal text,
	DiscountTotal text,
	TaxRate text,
	HasBilling integer,
	HasShipping integer,
	BillingFirstName text,
	BillingLastName text,
	BillingCompany text,
	BillingAddress1 text,
	BillingAddress2 text,
	BillingCity text,
	BillingPostcode text,
	BillingCountry text,
	BillingEmail text,
	BillingPhone text,
	ShippingFirstName text,
	ShippingLastName text,
	ShippingCompany text,
	ShippingAddress1 text,
	ShippingAddress2 text,
	ShippingCity text,
	ShippingPostcode text,
	ShippingCountry text
);

CREATE TABLE OrderItems (
	ID integer PRIMARY KEY AUTOINCREMENT,
	OrderID integer,
	Pos integer,
	SKU text,
	Name text,
	Qty text,
	PriceExVAT text
);

CREATE TABLE OrderShippingLines (
	ID integer PRIMARY KEY AUTOINCREMENT,
	OrderID integer,
	Pos integer,
	MethodID text,
	Total text
);

CREATE TABLE OrderMeta (
	ID integer PRIMARY KEY AUTOINCREMENT,
	OrderID integer,
	MetaKey text,
	MetaValue text,
	UNIQUE(OrderID, MetaKey)
);

CREATE TABLE Version (
	ID integer PRIMARY KEY AUTOINCREMENT,
	Name text,
	Version integer
);
`
