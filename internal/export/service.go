package export

import (
	"NaturasoftSync/internal/config"
	"NaturasoftSync/internal/database/model/order"
	"NaturasoftSync/internal/naturasoft"
	"NaturasoftSync/pkg/logging"

	"github.com/araddon/dateparse"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Service wires projector, builder, writer and tracker into the export
// triggers. One instance per process; every call runs to completion within
// the request that invoked it.
type Service struct {
	db      *sqlx.DB
	cfg     *config.Config
	tracker *Tracker
}

func NewService(db *sqlx.DB, cfg *config.Config) *Service {
	return &Service{
		db:      db,
		cfg:     cfg,
		tracker: NewTracker(db),
	}
}

func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// BuildOrderXML projects and serializes a single order. Read-only.
func (s *Service) BuildOrderXML(orderID int) (string, error) {
	rec, err := ProjectOrder(s.db, orderID, s.cfg.EXPORT.VatMetaField)
	if err != nil {
		return "", err
	}
	return naturasoft.BuildOrderXML(rec)
}

// ExportOrderFile builds the order XML and writes it under the export
// directory. It does not touch the export marker; that is the trigger's
// call to make once delivery is certain.
func (s *Service) ExportOrderFile(orderID int) (string, error) {

	o, err := order.SelectByID(s.db, orderID)
	if err != nil {
		return "", err
	}

	xmlDoc, err := s.BuildOrderXML(orderID)
	if err != nil {
		return "", err
	}

	return WriteOrderFile(s.cfg.EXPORT.Dir, o.OrderNumber, xmlDoc)
}

// HandleStatusChange is the push trigger: when an order enters one of the
// configured export statuses its XML is written to disk and the order is
// marked exported. A failed write leaves the order pending so a later
// pull or batch run picks it up.
func (s *Service) HandleStatusChange(orderID int, newStatus string) (string, error) {

	logger := logging.GetLogger()
	logger.Info("Start HandleStatusChange")
	defer logger.Info("End HandleStatusChange")

	watched := false
	for _, st := range s.cfg.EXPORT.ExportOnStatus {
		if st == newStatus {
			watched = true
			break
		}
	}
	if !watched {
		return "", nil
	}

	path, err := s.ExportOrderFile(orderID)
	if err != nil {
		return "", errors.Wrapf(err, "failed ExportOrderFile(%d)", orderID)
	}

	err = s.tracker.MarkExported(orderID)
	if err != nil {
		return "", errors.Wrapf(err, "failed MarkExported(%d)", orderID)
	}

	return path, nil
}

// PullNext returns the oldest pending order as a standalone document and
// marks it exported. ok is false when nothing is pending.
func (s *Service) PullNext() (xmlDoc string, orderNumber string, ok bool, err error) {

	logger := logging.GetLogger()
	logger.Info("Start PullNext")
	defer logger.Info("End PullNext")

	pending, err := s.tracker.QueryPending(1, s.cfg.EXPORT.RollingStatus)
	if err != nil {
		return "", "", false, errors.Wrap(err, "failed QueryPending")
	}
	if len(pending) == 0 {
		return "", "", false, nil
	}

	o := pending[0]
	xmlDoc, err = s.BuildOrderXML(o.ID)
	if err != nil {
		return "", "", false, errors.Wrapf(err, "failed BuildOrderXML(%d)", o.ID)
	}

	err = s.tracker.MarkExported(o.ID)
	if err != nil {
		return "", "", false, errors.Wrapf(err, "failed MarkExported(%d)", o.ID)
	}

	return xmlDoc, o.OrderNumber, true, nil
}

// PullBatch wraps up to limit pending orders into one <Orders> envelope.
// Orders are marked exported only after the combined document has been
// fully built; a build failure leaves all of them pending.
func (s *Service) PullBatch(limit int) (xmlDoc string, count int, err error) {

	logger := logging.GetLogger()
	logger.Info("Start PullBatch")
	defer logger.Info("End PullBatch")

	if limit < 1 {
		limit = s.cfg.EXPORT.BatchLimit
	}

	pending, err := s.tracker.QueryPending(limit, s.cfg.EXPORT.RollingStatus)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed QueryPending")
	}
	if len(pending) == 0 {
		return "", 0, nil
	}

	docs := make([]string, 0, len(pending))
	for _, o := range pending {
		doc, err := s.BuildOrderXML(o.ID)
		if err != nil {
			return "", 0, errors.Wrapf(err, "failed BuildOrderXML(%d)", o.ID)
		}
		docs = append(docs, doc)
	}

	xmlDoc, err = naturasoft.BuildOrdersXML(docs)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed BuildOrdersXML")
	}

	for _, o := range pending {
		err = s.tracker.MarkExported(o.ID)
		if err != nil {
			return "", 0, errors.Wrapf(err, "failed MarkExported(%d)", o.ID)
		}
	}

	logger.Infof("PullBatch: %d orders", len(pending))
	return xmlDoc, len(pending), nil
}

// ExportedFile is one entry of the manual batch result.
type ExportedFile struct {
	File string `json:"file"`
	URL  string `json:"url,omitempty"`
}

// ManualBatch is the operator-triggered export: every pending order in the
// date/status filter gets its own file, each marked exported as its file
// succeeds. Orders whose file fails stay pending.
func (s *Service) ManualBatch(dateFrom, dateTo string, statuses []string) ([]ExportedFile, error) {

	logger := logging.GetLogger()
	logger.Info("Start ManualBatch")
	defer logger.Info("End ManualBatch")

	var createdFrom, createdTo string
	if dateFrom != "" {
		t, err := dateparse.ParseAny(dateFrom)
		if err != nil {
			return nil, errors.Wrapf(err, "failed dateparse.ParseAny(%s)", dateFrom)
		}
		createdFrom = t.Format("2006-01-02") + "T00:00:00"
	}
	if dateTo != "" {
		t, err := dateparse.ParseAny(dateTo)
		if err != nil {
			return nil, errors.Wrapf(err, "failed dateparse.ParseAny(%s)", dateTo)
		}
		createdTo = t.Format("2006-01-02") + "T23:59:59"
	}

	pending, err := s.tracker.QueryPendingRange(statuses, createdFrom, createdTo)
	if err != nil {
		return nil, errors.Wrap(err, "failed QueryPendingRange")
	}

	files := make([]ExportedFile, 0, len(pending))
	for _, o := range pending {
		path, err := s.ExportOrderFile(o.ID)
		if err != nil {
			logger.Errorf("ManualBatch: order %d not exported: %v", o.ID, err)
			continue
		}
		err = s.tracker.MarkExported(o.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed MarkExported(%d)", o.ID)
		}
		files = append(files, ExportedFile{
			File: path,
			URL:  PathToURL(s.cfg.EXPORT.BaseURL, path),
		})
	}

	logger.Infof("ManualBatch: %d files", len(files))
	return files, nil
}
