// Package importer loads Naturasoft product catalog files (XLSX, legacy
// XLS, pipe-delimited CSV) and upserts the rows into the WooCommerce
// product store.
package importer

import (
	"strings"

	"github.com/pkg/errors"
)

// Structural failures: these abort the whole import. Row-level problems
// are recovered by skipping the row.
var (
	ErrEmptyFile        = errors.New("file is empty or has no header row")
	ErrMissingHeader    = errors.New("no header fields in the first row")
	ErrUnknownExtension = errors.New("unknown file extension (xlsx, xls or csv expected)")
)

// Row is one catalog line with the Hungarian headers normalized to
// internal keys. Unmapped values stay "".
type Row struct {
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	NetPrice         string `json:"net_price"`
	GrossPrice       string `json:"gross_price"`
	VAT              string `json:"vat"`
	Stock            string `json:"stock"`
	Unit             string `json:"unit"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Images           string `json:"images"`
}

// headerAliases maps the Naturasoft / Hungarian column headers onto the
// internal keys. First matching alias with a non-empty cell wins.
var headerAliases = map[string][]string{
	"sku":               {"Cikkszám", "SKU"},
	"name":              {"Megnevezés", "Név", "Termék megnevezés"},
	"net_price":         {"Nettó ár"},
	"gross_price":       {"Bruttó ár"},
	"vat":               {"ÁFA", "ÁFA%"},
	"stock":             {"Készlet", "Mennyiség"},
	"unit":              {"Mértékegység", "Egység"},
	"short_description": {"Rövid leírás"},
	"description":       {"Leírás"},
	"category":          {"Kategória", "Kategóriák"},
	"images":            {"Kép URL", "Kép URL-ek"},
}

func (r *Row) set(key, value string) {
	switch key {
	case "sku":
		r.SKU = value
	case "name":
		r.Name = value
	case "net_price":
		r.NetPrice = value
	case "gross_price":
		r.GrossPrice = value
	case "vat":
		r.VAT = value
	case "stock":
		r.Stock = value
	case "unit":
		r.Unit = value
	case "short_description":
		r.ShortDescription = value
	case "description":
		r.Description = value
	case "category":
		r.Category = value
	case "images":
		r.Images = value
	}
}

// NormalizeRows turns a raw cell matrix into normalized rows. The first
// matrix row is the header; rows with neither name nor SKU are dropped.
func NormalizeRows(matrix [][]string) ([]Row, error) {

	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make(map[int]string)
	for idx, h := range matrix[0] {
		h = strings.TrimSpace(h)
		if h != "" {
			headers[idx] = h
		}
	}
	if len(headers) == 0 {
		return nil, ErrMissingHeader
	}

	var out []Row
	for i := 1; i < len(matrix); i++ {
		cells := matrix[i]

		byHeader := make(map[string]string)
		for idx, header := range headers {
			if idx < len(cells) {
				byHeader[header] = strings.TrimSpace(cells[idx])
			} else {
				byHeader[header] = ""
			}
		}

		var row Row
		for key, aliases := range headerAliases {
			for _, alias := range aliases {
				if v, ok := byHeader[alias]; ok && v != "" {
					row.set(key, v)
					break
				}
			}
		}

		if row.Name == "" && row.SKU == "" {
			continue
		}
		out = append(out, row)
	}

	return out, nil
}
