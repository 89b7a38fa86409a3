package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/gcfg.v1"
)

type (
	Config struct {
		SERVICE struct {
			PORT      int
			AdminUser string
			AdminPass string
		}
		LOG struct {
			Debug int
		}
		DBSQLITE struct {
			DB string
		}
		EXPORT struct {
			// Orders entering one of these statuses are written to disk
			// immediately (push trigger).
			ExportOnStatus []string
			// Statuses watched by the pull endpoints. Empty = all.
			RollingStatus []string
			VatMetaField  string
			Token         string
			BatchLimit    int
			Dir           string
			BaseURL       string
		}
		IMPORT struct {
			CatSep        string
			ImgSep        string
			PriceFallback string
		}
		WOOCOMMERCE struct {
			URL     string
			Key     string
			Secret  string
			Version string
		}
		TELEGRAM struct {
			BotToken string
			ChatID   int64
			Debug    int
		}
	}
)

var cfg Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		err := os.MkdirAll("logs", 0770)
		if err != nil {
			fmt.Println(err)
		}

		file, err := os.OpenFile("logs/config.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			fmt.Println(err)
		}

		multiWriter := io.MultiWriter(file, os.Stdout)

		logger := log.New(multiWriter, "MAIN ", log.Ldate|log.Ltime|log.Lshortfile)

		logger.Print("Config:>Read application configurations")

		err = gcfg.ReadFileInto(&cfg, "./config/config.ini")
		if err != nil {
			logger.Fatalf("Config:>Failed to parse gcfg data: %s", err)
		} else {
			logger.Print("Config:>Config is read")
		}

		cfg.SetDefaults()
	})

	return &cfg
}

// SetDefaults fills the option values the ini file may omit.
func (c *Config) SetDefaults() {
	if c.EXPORT.VatMetaField == "" {
		c.EXPORT.VatMetaField = "_billing_vat"
	}
	if c.EXPORT.BatchLimit < 1 {
		c.EXPORT.BatchLimit = 50
	}
	if c.EXPORT.Dir == "" {
		c.EXPORT.Dir = "naturasoft-xml"
	}
	if c.IMPORT.CatSep == "" {
		c.IMPORT.CatSep = ">"
	}
	if c.IMPORT.ImgSep == "" {
		c.IMPORT.ImgSep = ";"
	}
	if c.IMPORT.PriceFallback == "" {
		c.IMPORT.PriceFallback = "0"
	}
	if c.DBSQLITE.DB == "" {
		c.DBSQLITE.DB = "db.db"
	}
	if c.WOOCOMMERCE.Version == "" {
		c.WOOCOMMERCE.Version = "v3"
	}
}
