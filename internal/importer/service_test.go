package importer

import (
	"strings"
	"testing"

	"NaturasoftSync/internal/wooproducts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records calls instead of talking to WooCommerce.
type fakeStore struct {
	existing map[string]int
	created  []*wooproducts.ProductData
	updated  map[int]*wooproducts.ProductData
	catPaths [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing: make(map[string]int),
		updated:  make(map[int]*wooproducts.ProductData),
	}
}

func (s *fakeStore) IDBySKU(sku string) (int, error) {
	return s.existing[sku], nil
}

func (s *fakeStore) Create(data *wooproducts.ProductData) (int, error) {
	s.created = append(s.created, data)
	return 1000 + len(s.created), nil
}

func (s *fakeStore) Update(id int, data *wooproducts.ProductData) error {
	s.updated[id] = data
	return nil
}

func (s *fakeStore) EnsureCategoryPath(path []string) ([]int, error) {
	s.catPaths = append(s.catPaths, path)
	ids := make([]int, len(path))
	for i := range path {
		ids[i] = i + 1
	}
	return ids, nil
}

func TestImportRowsCreateAndUpdate(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	store.existing["OLD-1"] = 77
	im := NewImporter(store)

	rows := []Row{
		{SKU: "NEW-1", Name: "Új termék", GrossPrice: "1270"},
		{SKU: "OLD-1", Name: "Régi termék", GrossPrice: "990"},
	}

	report, err := im.ImportRows(rows, Options{})
	require.NoError(t, err)
	Assert.Equal(1, report.Created)
	Assert.Equal(1, report.Updated)
	Assert.Equal(0, report.Skipped)

	require.Len(t, store.created, 1)
	Assert.Equal("NEW-1", store.created[0].SKU)
	require.Contains(t, store.updated, 77)
	Assert.Equal("OLD-1", store.updated[77].SKU)
}

func TestImportRowsSkipsWithoutNameOrSKU(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	rows := []Row{
		{SKU: "A-1", GrossPrice: "100"},
		{Name: "Névtelen", GrossPrice: "100"},
		{SKU: "A-2", Name: "Jó sor", GrossPrice: "100"},
	}

	report, err := im.ImportRows(rows, Options{})
	require.NoError(t, err)
	Assert.Equal(1, report.Created)
	Assert.Equal(2, report.Skipped)
}

func TestImportRowsGrossFromNetAndVAT(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	rows := []Row{{SKU: "N-1", Name: "Nettós", NetPrice: "1000", VAT: "27"}}

	_, err := im.ImportRows(rows, Options{})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	Assert.Equal("1270", store.created[0].RegularPrice.String())
}

func TestImportRowsGrossWinsOverNet(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	rows := []Row{{SKU: "G-1", Name: "Bruttós", GrossPrice: "500", NetPrice: "1000", VAT: "27"}}

	_, err := im.ImportRows(rows, Options{})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	Assert.Equal("500", store.created[0].RegularPrice.String())
}

func TestImportRowsPriceFallback(t *testing.T) {
	Assert := assert.New(t)

	// fallback "skip" drops the unpriced row
	store := newFakeStore()
	report, err := NewImporter(store).ImportRows(
		[]Row{{SKU: "P-1", Name: "Áratlan"}}, Options{PriceFallback: "skip"})
	require.NoError(t, err)
	Assert.Equal(1, report.Skipped)
	Assert.Len(store.created, 0)

	// default fallback prices it at zero
	store = newFakeStore()
	report, err = NewImporter(store).ImportRows(
		[]Row{{SKU: "P-1", Name: "Áratlan"}}, Options{})
	require.NoError(t, err)
	Assert.Equal(1, report.Created)
	require.Len(t, store.created, 1)
	Assert.True(store.created[0].RegularPrice.IsZero())
}

func TestImportRowsCategoriesAndImages(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	rows := []Row{{
		SKU:        "C-1",
		Name:       "Kategorizált",
		GrossPrice: "100",
		Category:   "Szerszám > Kéziszerszám > Fogó",
		Images:     "https://a.example/1.jpg; https://a.example/2.jpg",
	}}

	_, err := im.ImportRows(rows, Options{CatSep: ">", ImgSep: ";"})
	require.NoError(t, err)
	require.Len(t, store.catPaths, 1)
	Assert.Equal([]string{"Szerszám", "Kéziszerszám", "Fogó"}, store.catPaths[0])
	require.Len(t, store.created, 1)
	Assert.Equal([]int{1, 2, 3}, store.created[0].CategoryIDs)
	Assert.Equal([]string{"https://a.example/1.jpg", "https://a.example/2.jpg"}, store.created[0].ImageURLs)
}

func TestImportRowsStockAndUnit(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	rows := []Row{{SKU: "S-1", Name: "Készletes", GrossPrice: "100", Stock: "12", Unit: "db"}}

	_, err := im.ImportRows(rows, Options{})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].Stock)
	Assert.Equal(12, *store.created[0].Stock)
	Assert.Equal("db", store.created[0].Unit)
	Assert.True(store.created[0].ManageStock)
	Assert.NotEmpty(store.created[0].RowHash)
}

func TestImportFileCSV(t *testing.T) {
	Assert := assert.New(t)
	store := newFakeStore()
	im := NewImporter(store)

	csv := "Cikkszám|Megnevezés|Bruttó ár|Készlet\n" +
		"CS-1|Csavar|25|100\n" +
		"CS-2|Anya|15|200\n"

	report, err := im.ImportFile("termekek.csv", strings.NewReader(csv), Options{})
	require.NoError(t, err)
	Assert.Equal(2, report.Created)
	Assert.Equal(0, report.Skipped)
}
