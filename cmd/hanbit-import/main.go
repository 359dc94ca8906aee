// hanbit-import loads a vocabulary catalog file (CSV or XLSX) into a
// course/unit. Re-running an import updates existing words in place.
package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanbit-edu/hanbit-server/pkg/config"
	"github.com/hanbit-edu/hanbit-server/pkg/db"
	"github.com/hanbit-edu/hanbit-server/pkg/importexport"
	"github.com/hanbit-edu/hanbit-server/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	filePath := flag.String("file", "", "vocabulary file to import (.csv or .xlsx)")
	courseID := flag.Uint("course", 0, "course id to import into")
	unitID := flag.Uint("unit", 0, "unit id to import into")
	flag.Parse()

	if *filePath == "" || *courseID == 0 || *unitID == 0 {
		logger.Error("usage: hanbit-import -file vocab.csv -course 1 -unit 1")
		os.Exit(2)
	}

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		logger.Error("failed to read vocabulary file", "file", *filePath, "error", err)
		os.Exit(1)
	}

	var entries []importexport.CatalogEntry
	var skipped int
	switch strings.ToLower(filepath.Ext(*filePath)) {
	case ".xlsx":
		entries, skipped, err = importexport.ParseCatalogXLSX(bytes.NewReader(data))
	default:
		entries, skipped, err = importexport.ParseCatalogCSV(data)
	}
	if err != nil {
		logger.Error("failed to parse vocabulary file", "file", *filePath, "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		logger.Error("no valid vocabulary rows found", "file", *filePath, "skipped", skipped)
		os.Exit(1)
	}

	result, err := importexport.ImportCatalog(db.DB, uint(*courseID), uint(*unitID), entries)
	if err != nil {
		logger.Error("failed to import catalog", "error", err)
		os.Exit(1)
	}

	logger.Info("catalog import finished",
		"file", *filePath,
		"course_id", *courseID,
		"unit_id", *unitID,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", skipped,
	)
}
