// Package wooproducts adapts the WooCommerce REST API into the narrow
// product-store contract the catalog import needs.
package wooproducts

import (
	"NaturasoftSync/pkg/logging"

	"github.com/hiscaler/woocommerce-go"
	wooconfig "github.com/hiscaler/woocommerce-go/config"
	"github.com/hiscaler/woocommerce-go/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ProductData is the import-side product shape.
type ProductData struct {
	SKU              string
	Name             string
	RegularPrice     decimal.Decimal
	ManageStock      bool
	Stock            *int
	ShortDescription string
	Description      string
	CategoryIDs      []int
	ImageURLs        []string
	Unit             string
	RowHash          string
}

// ProductStore is what the importer talks to. The live implementation
// wraps the WooCommerce client; tests substitute a fake.
type ProductStore interface {
	IDBySKU(sku string) (int, error)
	Create(p *ProductData) (int, error)
	Update(id int, p *ProductData) error
	EnsureCategoryPath(names []string) ([]int, error)
}

type wooStore struct {
	client *woocommerce.WooCommerce
}

// NewStore builds the live WooCommerce-backed product store.
func NewStore(url, key, secret, version string) ProductStore {

	logger := logging.GetLogger()
	logger.Info("Start NewStore")
	defer logger.Info("End NewStore")

	c := wooconfig.Config{
		URL:            url,
		Version:        version,
		ConsumerKey:    key,
		ConsumerSecret: secret,
		Timeout:        30,
		VerifySSL:      true,
	}

	return &wooStore{client: woocommerce.NewClient(c)}
}

// IDBySKU returns 0 when no product carries the SKU.
func (s *wooStore) IDBySKU(sku string) (int, error) {

	params := woocommerce.ProductsQueryParams{SKU: sku}
	items, _, _, _, err := s.client.Services.Product.All(params)
	if err != nil {
		return 0, errors.Wrapf(err, "failed Product.All(sku=%s)", sku)
	}
	if len(items) == 0 {
		return 0, nil
	}
	return items[0].ID, nil
}

func (s *wooStore) Create(p *ProductData) (int, error) {

	req := s.buildRequest(p)
	req.SKU = p.SKU
	item, err := s.client.Services.Product.Create(req)
	if err != nil {
		return 0, errors.Wrapf(err, "failed Product.Create(sku=%s)", p.SKU)
	}
	return item.ID, nil
}

func (s *wooStore) Update(id int, p *ProductData) error {

	req := s.buildRequest(p)
	_, err := s.client.Services.Product.Update(id, req)
	if err != nil {
		return errors.Wrapf(err, "failed Product.Update(%d)", id)
	}
	return nil
}

func (s *wooStore) buildRequest(p *ProductData) woocommerce.CreateProductRequest {

	req := woocommerce.CreateProductRequest{
		Name:             p.Name,
		Type:             "simple",
		RegularPrice:     p.RegularPrice.InexactFloat64(),
		ManageStock:      p.ManageStock,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
	}

	if p.Stock != nil {
		req.StockQuantity = *p.Stock
		if *p.Stock > 0 {
			req.StockStatus = "instock"
		} else {
			req.StockStatus = "outofstock"
		}
	}

	for _, id := range p.CategoryIDs {
		req.Categories = append(req.Categories, entity.ProductCategory{ID: id})
	}
	for _, url := range p.ImageURLs {
		req.Images = append(req.Images, entity.ProductImage{Src: url})
	}
	if p.Unit != "" {
		req.MetaData = append(req.MetaData, entity.Meta{Key: "_nsa_unit", Value: p.Unit})
	}
	if p.RowHash != "" {
		req.MetaData = append(req.MetaData, entity.Meta{Key: "_nsa_row_hash", Value: p.RowHash})
	}
	req.MetaData = append(req.MetaData, entity.Meta{Key: "_nsa_source", Value: "import"})

	return req
}

// EnsureCategoryPath walks a "Parent>Child" style hierarchy, creating the
// missing levels, and returns every term id along the path.
func (s *wooStore) EnsureCategoryPath(names []string) ([]int, error) {

	logger := logging.GetLogger()

	parent := 0
	var ids []int

	for _, name := range names {
		if name == "" {
			continue
		}

		params := woocommerce.ProductCategoriesQueryParams{Search: name}
		existing, _, _, _, err := s.client.Services.ProductCategory.All(params)
		if err != nil {
			return nil, errors.Wrapf(err, "failed ProductCategory.All(%s)", name)
		}

		id := 0
		for _, c := range existing {
			if c.Name == name && c.Parent == parent {
				id = c.ID
				break
			}
		}

		if id == 0 {
			created, err := s.client.Services.ProductCategory.Create(woocommerce.CreateProductCategoryRequest{
				Name:   name,
				Parent: parent,
			})
			if err != nil {
				return nil, errors.Wrapf(err, "failed ProductCategory.Create(%s)", name)
			}
			id = created.ID
			logger.Infof("EnsureCategoryPath: created %s (%d)", name, id)
		}

		ids = append(ids, id)
		parent = id
	}

	return ids, nil
}
