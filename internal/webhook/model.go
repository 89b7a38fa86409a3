package webhook

// WooCommerce order webhook payload, trimmed to the fields the export
// pipeline consumes.

type WooOrder struct {
	ID            int               `json:"id"`
	Number        string            `json:"number"`
	Status        string            `json:"status"`
	Currency      string            `json:"currency"`
	DateCreated   string            `json:"date_created"`
	Total         string            `json:"total"`
	TotalTax      string            `json:"total_tax"`
	ShippingTotal string            `json:"shipping_total"`
	DiscountTotal string            `json:"discount_total"`
	Billing       *WooAddress       `json:"billing"`
	Shipping      *WooAddress       `json:"shipping"`
	LineItems     []WooLineItem     `json:"line_items"`
	TaxLines      []WooTaxLine      `json:"tax_lines"`
	ShippingLines []WooShippingLine `json:"shipping_lines"`
	MetaData      []WooMeta         `json:"meta_data"`
}

type WooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type WooLineItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

type WooTaxLine struct {
	RatePercent float64 `json:"rate_percent"`
}

type WooShippingLine struct {
	MethodID string `json:"method_id"`
	Total    string `json:"total"`
}

type WooMeta struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}
