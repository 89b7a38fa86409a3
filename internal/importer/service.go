package importer

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"NaturasoftSync/internal/wooproducts"
	"NaturasoftSync/pkg/logging"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Options control row interpretation. PriceFallback "skip" drops rows
// without a usable price; anything else prices them at zero.
type Options struct {
	PriceFallback string
	CatSep        string
	ImgSep        string
}

type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type Importer struct {
	store wooproducts.ProductStore
}

func NewImporter(store wooproducts.ProductStore) *Importer {
	return &Importer{store: store}
}

// ImportFile parses the named upload and imports every row.
func (im *Importer) ImportFile(name string, r io.Reader, opts Options) (*Report, error) {

	matrix, err := ParseFile(name, r)
	if err != nil {
		return nil, err
	}

	rows, err := NormalizeRows(matrix)
	if err != nil {
		return nil, err
	}

	return im.ImportRows(rows, opts)
}

// Preview parses the named upload and returns the first limit normalized
// rows without touching the product store.
func Preview(name string, r io.Reader, limit int) ([]Row, error) {

	matrix, err := ParseFile(name, r)
	if err != nil {
		return nil, err
	}

	rows, err := NormalizeRows(matrix)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// ImportRows upserts every row into the product store. Row-level problems
// (missing name/SKU, no usable price with fallback "skip", a store error)
// skip the row and keep going; the report carries the counts.
func (im *Importer) ImportRows(rows []Row, opts Options) (*Report, error) {

	logger := logging.GetLogger()
	logger.Info("Start ImportRows")
	defer logger.Info("End ImportRows")

	if opts.CatSep == "" {
		opts.CatSep = ">"
	}
	if opts.ImgSep == "" {
		opts.ImgSep = ";"
	}

	report := &Report{}

	for i, r := range rows {
		name := strings.TrimSpace(r.Name)
		sku := strings.TrimSpace(r.SKU)
		if name == "" || sku == "" {
			report.Skipped++
			continue
		}

		gross, ok := grossPrice(r, opts.PriceFallback)
		if !ok {
			report.Skipped++
			continue
		}

		data := &wooproducts.ProductData{
			SKU:              sku,
			Name:             name,
			RegularPrice:     gross,
			ManageStock:      true,
			ShortDescription: r.ShortDescription,
			Description:      r.Description,
			Unit:             r.Unit,
		}

		if r.Stock != "" {
			if n, err := strconv.Atoi(r.Stock); err == nil {
				data.Stock = &n
			}
		}

		if r.Category != "" {
			parts := splitTrim(r.Category, opts.CatSep)
			ids, err := im.store.EnsureCategoryPath(parts)
			if err != nil {
				logger.Errorf("ImportRows: row %d: categories not ensured: %v", i+1, err)
			} else {
				data.CategoryIDs = ids
			}
		}

		if r.Images != "" {
			data.ImageURLs = splitTrim(r.Images, opts.ImgSep)
		}

		data.RowHash = rowHash(name, sku, gross, data.Stock, r.Category, r.Images)

		id, err := im.store.IDBySKU(sku)
		if err != nil {
			logger.Errorf("ImportRows: row %d: SKU lookup failed: %v", i+1, err)
			report.Skipped++
			continue
		}

		if id == 0 {
			_, err = im.store.Create(data)
			if err != nil {
				logger.Errorf("ImportRows: row %d: create failed: %v", i+1, err)
				report.Skipped++
				continue
			}
			report.Created++
		} else {
			err = im.store.Update(id, data)
			if err != nil {
				logger.Errorf("ImportRows: row %d: update failed: %v", i+1, err)
				report.Skipped++
				continue
			}
			report.Updated++
		}
	}

	logger.Infof("ImportRows: created=%d updated=%d skipped=%d",
		report.Created, report.Updated, report.Skipped)
	return report, nil
}

// grossPrice resolves the row price: explicit gross wins, otherwise net
// price grossed up with the VAT percentage, otherwise the fallback.
func grossPrice(r Row, fallback string) (decimal.Decimal, bool) {

	if d, err := decimal.NewFromString(r.GrossPrice); err == nil && r.GrossPrice != "" {
		return d, true
	}

	net, errNet := decimal.NewFromString(r.NetPrice)
	vat, errVat := decimal.NewFromString(r.VAT)
	if r.NetPrice != "" && errNet == nil && r.VAT != "" && errVat == nil {
		mult := decimal.NewFromInt(1).Add(vat.Div(decimal.NewFromInt(100)))
		return net.Mul(mult), true
	}

	if fallback == "skip" {
		return decimal.Zero, false
	}
	return decimal.Zero, true
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// rowHash fingerprints the identifying row fields, stored on the product
// so unchanged rows are recognizable across imports.
func rowHash(name, sku string, gross decimal.Decimal, stock *int, category, images string) string {

	stockValue := interface{}(nil)
	if stock != nil {
		stockValue = *stock
	}

	payload, err := json.Marshal([]interface{}{name, sku, gross.String(), stockValue, category, images})
	if err != nil {
		// Marshaling plain strings cannot fail; guard anyway.
		payload = []byte(errors.Wrap(err, "rowHash").Error())
	}

	return fmt.Sprintf("%x", md5.Sum(payload))
}
