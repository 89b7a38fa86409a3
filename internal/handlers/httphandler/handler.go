package httphandler

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"NaturasoftSync/internal/config"
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/internal/display"
	"NaturasoftSync/internal/export"
	"NaturasoftSync/internal/importer"
	"NaturasoftSync/internal/telegram"
	"NaturasoftSync/internal/version"
	"NaturasoftSync/internal/webhook"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

type Handler struct {
	db  *sqlx.DB
	cfg *config.Config
	svc *export.Service
	imp *importer.Importer
}

func NewHandler(db *sqlx.DB, cfg *config.Config, svc *export.Service, imp *importer.Importer) *Handler {
	return &Handler{db: db, cfg: cfg, svc: svc, imp: imp}
}

// Register attaches every route to the router.
func (h *Handler) Register(router *httprouter.Router) {
	router.GET("/", h.HandlerRoot)
	router.GET("/order-xml", h.HandlerOrderXML)
	router.GET("/pull-next-xml", h.HandlerPullNext)
	router.GET("/pull-batch-xml", h.HandlerPullBatch)
	router.GET("/debug-export-flags", h.HandlerDebugFlags)
	router.POST("/export-batch", h.HandlerExportBatch)
	router.POST("/reset-exported", h.HandlerResetExported)
	router.POST("/import/products", h.HandlerImportProducts)
	router.POST("/webhook/order", h.HandlerWebhookOrder)
}

func equals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// authAdmin checks the HTTP Basic credentials that stand in for the
// store-management capability.
func (h *Handler) authAdmin(r *http.Request) bool {
	if h.cfg.SERVICE.AdminUser == "" || h.cfg.SERVICE.AdminPass == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return equals(user, h.cfg.SERVICE.AdminUser) && equals(pass, h.cfg.SERVICE.AdminPass)
}

// authPull accepts the shared pull token as a bearer header or ?token=
// query parameter, falling back to the admin credentials when no token is
// configured.
func (h *Handler) authPull(r *http.Request) bool {
	token := h.cfg.EXPORT.Token
	if token != "" {
		if equals(r.Header.Get("Authorization"), "Bearer "+token) {
			return true
		}
		if q := r.URL.Query().Get("token"); q != "" && equals(q, token) {
			return true
		}
	}
	return h.authAdmin(r)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	logger := logging.GetLogger()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func (h *Handler) HandlerRoot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	v := version.GetVersion()
	_, err := fmt.Fprintf(w, "NaturasoftSync %s", v.String())
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}

// HandlerOrderXML exports one explicit order to disk and returns the file
// location. It never touches the export marker.
func (h *Handler) HandlerOrderXML(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerOrderXML")
	defer logger.Info("End HandlerOrderXML")

	if !h.authPull(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "missing or invalid token")
		return
	}

	orderID, err := strconv.Atoi(r.URL.Query().Get("order_id"))
	if err != nil || orderID < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", "order_id is required")
		return
	}

	path, err := h.svc.ExportOrderFile(orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		logger.Errorf("failed ExportOrderFile(%d), error: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "export_failed", "XML export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"file": path,
		"url":  export.PathToURL(h.cfg.EXPORT.BaseURL, path),
	})
}

// HandlerPullNext hands the oldest pending order to the ERP pull client.
func (h *Handler) HandlerPullNext(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerPullNext")
	defer logger.Info("End HandlerPullNext")

	if !h.authPull(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "missing or invalid token")
		return
	}

	xmlDoc, orderNumber, ok, err := h.svc.PullNext()
	if err != nil {
		logger.Errorf("failed PullNext, error: %v", err)
		writeError(w, http.StatusInternalServerError, "export_failed", "XML export failed")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=UTF-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="order-%s.xml"`, orderNumber))
	_, err = io.WriteString(w, xmlDoc)
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}

// HandlerPullBatch hands up to ?limit= pending orders in one envelope.
func (h *Handler) HandlerPullBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerPullBatch")
	defer logger.Info("End HandlerPullBatch")

	if !h.authPull(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "missing or invalid token")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive number")
			return
		}
		limit = n
	}

	xmlDoc, count, err := h.svc.PullBatch(limit)
	if err != nil {
		logger.Errorf("failed PullBatch, error: %v", err)
		writeError(w, http.StatusInternalServerError, "export_failed", "XML export failed")
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=UTF-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders-batch.xml"`)
	_, err = io.WriteString(w, xmlDoc)
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}

// HandlerDebugFlags lists the newest orders with their export marker.
// Admin credentials only, the pull token is deliberately not enough.
func (h *Handler) HandlerDebugFlags(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerDebugFlags")
	defer logger.Info("End HandlerDebugFlags")

	if !h.authAdmin(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "admin credentials required")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	flags, err := order.SelectFlags(h.db, limit)
	if err != nil {
		logger.Errorf("failed order.SelectFlags, error: %v", err)
		writeError(w, http.StatusInternalServerError, "query_failed", "flag listing failed")
		return
	}
	if flags == nil {
		flags = []*order.Flag{}
	}

	writeJSON(w, http.StatusOK, flags)
}

// HandlerExportBatch is the manual, operator-filtered export: one file
// per matching pending order.
func (h *Handler) HandlerExportBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerExportBatch")
	defer logger.Info("End HandlerExportBatch")

	if !h.authAdmin(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "admin credentials required")
		return
	}

	err := r.ParseForm()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unreadable form")
		return
	}

	files, err := h.svc.ManualBatch(
		r.Form.Get("date_from"),
		r.Form.Get("date_to"),
		r.Form["statuses"],
	)
	if err != nil {
		logger.Errorf("failed ManualBatch, error: %v", err)
		writeError(w, http.StatusInternalServerError, "export_failed", "batch export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// HandlerResetExported clears every export marker.
func (h *Handler) HandlerResetExported(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerResetExported")
	defer logger.Info("End HandlerResetExported")

	if !h.authAdmin(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "admin credentials required")
		return
	}

	n, err := h.svc.Tracker().ResetAll()
	if err != nil {
		logger.Errorf("failed ResetAll, error: %v", err)
		writeError(w, http.StatusInternalServerError, "reset_failed", "marker reset failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reset": n})
}

// previewRow is one normalized import row plus its storefront rendering,
// so the operator sees the product the way the shop will show it.
type previewRow struct {
	importer.Row
	DisplayName string `json:"display_name"`
	PriceSuffix string `json:"price_suffix"`
	UnitLine    string `json:"unit_line"`
}

// HandlerImportProducts receives the catalog upload. action=preview
// returns the first rows instead of importing.
func (h *Handler) HandlerImportProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerImportProducts")
	defer logger.Info("End HandlerImportProducts")

	if !h.authAdmin(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "admin credentials required")
		return
	}

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "multipart form expected")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if r.FormValue("action") == "preview" {
		rows, err := importer.Preview(header.Filename, file, 10)
		if err != nil {
			writeError(w, http.StatusBadRequest, "import_failed", err.Error())
			return
		}
		preview := make([]previewRow, 0, len(rows))
		for _, row := range rows {
			preview = append(preview, previewRow{
				Row:         row,
				DisplayName: display.NameWithUnit(row.Name, row.Unit),
				PriceSuffix: display.PriceSuffix(row.Unit),
				UnitLine:    display.UnitLine(row.Unit),
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rows": preview})
		return
	}

	opts := importer.Options{
		PriceFallback: r.FormValue("price_fallback"),
		CatSep:        r.FormValue("cat_sep"),
		ImgSep:        r.FormValue("img_sep"),
	}
	if opts.PriceFallback == "" {
		opts.PriceFallback = h.cfg.IMPORT.PriceFallback
	}
	if opts.CatSep == "" {
		opts.CatSep = h.cfg.IMPORT.CatSep
	}
	if opts.ImgSep == "" {
		opts.ImgSep = h.cfg.IMPORT.ImgSep
	}

	report, err := h.imp.ImportFile(header.Filename, file, opts)
	if err != nil {
		logger.Errorf("failed ImportFile(%s), error: %v", header.Filename, err)
		err2 := telegram.SendMessage(fmt.Sprintf("Termékimport sikertelen: %v", err))
		if err2 != nil {
			logger.Errorf("failed telegram.SendMessage(), error: %v", err2)
		}
		writeError(w, http.StatusBadRequest, "import_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandlerWebhookOrder mirrors a WooCommerce order webhook and runs the
// status-change push trigger.
func (h *Handler) HandlerWebhookOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start HandlerWebhookOrder")
	defer logger.Info("End HandlerWebhookOrder")

	if !h.authPull(r) {
		writeError(w, http.StatusUnauthorized, "rest_forbidden", "missing or invalid token")
		return
	}

	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		logger.Error(err)
		fmt.Fprint(w, "Error")
		return
	}

	path, err := webhook.HandleOrderPayload(h.db, h.svc, body)
	if err != nil {
		errorText := fmt.Sprintf("Nem sikerült feldolgozni a rendelés webhookot: %v", err)
		logger.Error(errorText)
		err := telegram.SendMessage(errorText)
		if err != nil {
			logger.Errorf("failed telegram.SendMessage(), error: %v", err)
		}
		fmt.Fprint(w, "Error")
		return
	}

	if path != "" {
		logger.Infof("order exported to %s", path)
	}
	_, err = fmt.Fprint(w, "Ok")
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}
