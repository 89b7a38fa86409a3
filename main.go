package main

import (
	"fmt"
	"log"
	"net/http"

	"NaturasoftSync/internal/config"
	"NaturasoftSync/internal/database"
	"NaturasoftSync/internal/export"
	"NaturasoftSync/internal/handlers/httphandler"
	"NaturasoftSync/internal/importer"
	"NaturasoftSync/internal/version"
	"NaturasoftSync/internal/wooproducts"
	"NaturasoftSync/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	logger := logging.GetLogger()
	logger.Info("Start Main")
	v := version.GetVersion()
	logger.Infof("Version %s", v.String())
	defer logger.Info("End Main")

	cfg := config.GetConfig()

	db, err := sqlx.Connect("sqlite3", cfg.DBSQLITE.DB)
	if err != nil {
		logger.Fatalf("failed sqlx.Connect(%s), error: %v", cfg.DBSQLITE.DB, err)
	}
	defer func(db *sqlx.DB) {
		err := db.Close()
		if err != nil {
			logger.Error(err)
		}
	}(db)

	exportSvc := export.NewService(db, cfg)

	store := wooproducts.NewStore(
		cfg.WOOCOMMERCE.URL,
		cfg.WOOCOMMERCE.Key,
		cfg.WOOCOMMERCE.Secret,
		cfg.WOOCOMMERCE.Version,
	)
	imp := importer.NewImporter(store)

	handler := httphandler.NewHandler(db, cfg, exportSvc, imp)

	router := httprouter.New()
	handler.Register(router)

	logger.Infof("Listening on :%d", cfg.SERVICE.PORT)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", cfg.SERVICE.PORT), router))
}

func init() {
	logger := logging.GetLogger()

	logger.Println("Start main init...")
	defer logger.Println("End main init.")
	cfg := config.GetConfig()

	if cfg.LOG.Debug != 1 {
		logging.SetLevelInfo()
	}

	if _, err := export.EnsureExportDir(cfg.EXPORT.Dir); err != nil {
		logger.Fatalf("%s, %v", cfg.EXPORT.Dir, err)
	}

	if database.Exists(cfg.DBSQLITE.DB) != true {
		logger.Info(cfg.DBSQLITE.DB, " not exist")
		err := database.CreateDB(cfg.DBSQLITE.DB)
		if err != nil {
			logger.Fatalf("%s, %v", cfg.DBSQLITE.DB, err)
		}
	} else {
		logger.Info(cfg.DBSQLITE.DB, " exist")
	}
}
