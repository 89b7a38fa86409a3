package httphandler

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"NaturasoftSync/internal/config"
	"NaturasoftSync/internal/database"
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/internal/export"
	"NaturasoftSync/internal/importer"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "test-token"
	testUser  = "admin"
	testPass  = "secret"
)

type fixture struct {
	db     *sqlx.DB
	cfg    *config.Config
	router *httprouter.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.MustExec(database.DB_SCHEMA)

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.EXPORT.Dir = t.TempDir()
	cfg.EXPORT.Token = testToken
	cfg.SERVICE.AdminUser = testUser
	cfg.SERVICE.AdminPass = testPass

	svc := export.NewService(db, cfg)
	handler := NewHandler(db, cfg, svc, importer.NewImporter(nil))

	router := httprouter.New()
	handler.Register(router)

	return &fixture{db: db, cfg: cfg, router: router}
}

func (f *fixture) seedOrder(t *testing.T, id int, status string) {
	t.Helper()
	o := &order.Order{
		ID:          id,
		OrderNumber: fmt.Sprint(id),
		Created:     "2024-03-01T10:00:00",
		Currency:    "HUF",
		Status:      status,
		Total:       "1000",
		TaxRate:     "27",
	}
	items := []*order.Item{{Pos: 0, SKU: "ABC", Name: "Kábel", Qty: "2", PriceExVAT: "400"}}
	require.NoError(t, o.Upsert(f.db, items, nil, nil))
}

func (f *fixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func withBearer(r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Bearer "+testToken)
	return r
}

func withBasic(r *http.Request) *http.Request {
	r.SetBasicAuth(testUser, testPass)
	return r
}

func TestRootReportsVersion(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	Assert.Equal(http.StatusOK, w.Code)
	Assert.Contains(w.Body.String(), "NaturasoftSync")
}

func TestPullNextRequiresToken(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil))
	Assert.Equal(http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	Assert.Equal("rest_forbidden", body["code"])
}

func TestPullNextWrongToken(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	Assert.Equal(http.StatusUnauthorized, f.do(r).Code)
}

func TestPullNextEmptyBacklog(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil)))
	Assert.Equal(http.StatusNoContent, w.Code)
}

func TestPullNextDeliversOldestAndMarks(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 2, "processing")
	f.seedOrder(t, 1, "processing")

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	Assert.Contains(w.Header().Get("Content-Type"), "application/xml")
	Assert.Contains(w.Header().Get("Content-Disposition"), "order-1.xml")
	Assert.Contains(w.Body.String(), "<OrderId>1</OrderId>")

	// Second pull hands over the next order.
	w = f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	Assert.Contains(w.Body.String(), "<OrderId>2</OrderId>")

	// Then the backlog is drained.
	w = f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-next-xml", nil)))
	Assert.Equal(http.StatusNoContent, w.Code)
}

func TestPullNextQueryTokenAccepted(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 1, "processing")

	w := f.do(httptest.NewRequest(http.MethodGet, "/pull-next-xml?token="+testToken, nil))
	Assert.Equal(http.StatusOK, w.Code)
}

func TestPullBatchLimitValidation(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-batch-xml?limit=abc", nil)))
	Assert.Equal(http.StatusBadRequest, w.Code)

	w = f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-batch-xml?limit=0", nil)))
	Assert.Equal(http.StatusBadRequest, w.Code)
}

func TestPullBatchEnvelope(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	for id := 1; id <= 3; id++ {
		f.seedOrder(t, id, "processing")
	}

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-batch-xml?limit=2", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	type envelope struct {
		XMLName xml.Name   `xml:"Orders"`
		Order   []struct{} `xml:"Order"`
	}
	var first envelope
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &first))
	Assert.Len(first.Order, 2)

	// The remaining pending order comes in a second, separate envelope.
	w = f.do(withBearer(httptest.NewRequest(http.MethodGet, "/pull-batch-xml", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	var second envelope
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &second))
	Assert.Len(second.Order, 1)
}

func TestOrderXMLDoesNotMark(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 42, "processing")

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/order-xml?order_id=42", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	Assert.Equal(true, body["ok"])
	Assert.Contains(body["file"], "order-42.xml")

	marker, err := order.MetaValue(f.db, 42, database.MetaKeyExported)
	require.NoError(t, err)
	Assert.Equal("", marker)
}

func TestOrderXMLNotFound(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/order-xml?order_id=999", nil)))
	Assert.Equal(http.StatusNotFound, w.Code)
}

func TestOrderXMLBadID(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/order-xml", nil)))
	Assert.Equal(http.StatusBadRequest, w.Code)
}

func TestDebugFlagsAdminOnly(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	// The pull token is not enough here.
	w := f.do(withBearer(httptest.NewRequest(http.MethodGet, "/debug-export-flags", nil)))
	Assert.Equal(http.StatusUnauthorized, w.Code)

	w = f.do(withBasic(httptest.NewRequest(http.MethodGet, "/debug-export-flags", nil)))
	Assert.Equal(http.StatusOK, w.Code)
}

func TestDebugFlagsListsNewestFirst(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 1, "processing")
	f.seedOrder(t, 2, "processing")
	_, err := order.MarkExported(f.db, 1, "2024-03-05 10:00:00")
	require.NoError(t, err)

	w := f.do(withBasic(httptest.NewRequest(http.MethodGet, "/debug-export-flags", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	var flags []struct {
		ID           int    `json:"id"`
		ExportedFlag string `json:"exported_flag"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flags))
	require.Len(t, flags, 2)
	Assert.Equal(2, flags[0].ID)
	Assert.Equal("", flags[0].ExportedFlag)
	Assert.Equal(1, flags[1].ID)
	Assert.Equal("2024-03-05 10:00:00", flags[1].ExportedFlag)
}

func TestResetExported(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 1, "processing")
	_, err := order.MarkExported(f.db, 1, "2024-03-05 10:00:00")
	require.NoError(t, err)

	w := f.do(withBasic(httptest.NewRequest(http.MethodPost, "/reset-exported", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	Assert.EqualValues(1, body["reset"])
}

func TestExportBatchAdminOnly(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodPost, "/export-batch", nil))
	Assert.Equal(http.StatusUnauthorized, w.Code)
}

func TestExportBatchStatusFilter(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)
	f.seedOrder(t, 1, "processing")
	f.seedOrder(t, 2, "completed")

	form := url.Values{"statuses": []string{"completed"}}
	r := httptest.NewRequest(http.MethodPost, "/export-batch", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := f.do(withBasic(r))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Files []export.ExportedFile `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Files, 1)
	Assert.Contains(body.Files[0].File, "order-2.xml")
}

func TestImportProductsPreview(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("action", "preview"))
	fw, err := mw.CreateFormFile("file", "termekek.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Cikkszám|Megnevezés|Bruttó ár|Mértékegység\nK-1|Kábel|500|m\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/import/products", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	w := f.do(withBasic(r))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rows []struct {
			SKU         string `json:"sku"`
			DisplayName string `json:"display_name"`
			PriceSuffix string `json:"price_suffix"`
			UnitLine    string `json:"unit_line"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	Assert.Equal("K-1", body.Rows[0].SKU)
	Assert.Equal("Kábel (m)", body.Rows[0].DisplayName)
	Assert.Equal(" / m", body.Rows[0].PriceSuffix)
	Assert.Equal("Egység: m", body.Rows[0].UnitLine)
}

func TestImportProductsAdminOnly(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodPost, "/import/products", nil))
	Assert.Equal(http.StatusUnauthorized, w.Code)
}

func TestWebhookOrderMirrors(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	payload := `{"id": 7, "number": "7", "status": "pending", "total": "100.00",
		"line_items": [{"sku": "X", "name": "Y", "quantity": 1, "price": 100}]}`
	r := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(payload))

	w := f.do(withBearer(r))
	require.Equal(t, http.StatusOK, w.Code)
	Assert.Equal("Ok", w.Body.String())

	o, err := order.SelectByID(f.db, 7)
	require.NoError(t, err)
	Assert.Equal("pending", o.Status)
}

func TestWebhookOrderRequiresToken(t *testing.T) {
	Assert := assert.New(t)
	f := newFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/webhook/order", strings.NewReader(`{"id": 1}`))
	Assert.Equal(http.StatusUnauthorized, f.do(r).Code)
}
