package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/markr/internal/config"
	"github.com/mind-engage/markr/internal/db"
	"github.com/mind-engage/markr/internal/importlog"
	"github.com/mind-engage/markr/internal/ingest"
	"github.com/mind-engage/markr/internal/notify"
	"github.com/mind-engage/markr/internal/results"
	"github.com/mind-engage/markr/internal/storage"
)

// app holds everything wired from config. Close releases connections.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	dbh       *sql.DB // nil for the memory driver
	repo      results.Repository
	importLog *importlog.Repo
	blobs     storage.BlobStore
	publisher notify.Publisher
	ingest    *ingest.Service
}

func newApp(ctx context.Context, cfg config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, publisher: notify.Nop{}}

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	if driver == db.DriverMemory {
		a.repo = results.NewInMemoryStore()
	} else {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		a.dbh, err = db.Open(octx, driver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		a.repo = results.NewSQLStore(a.dbh, string(driver))
		if cfg.EnableImportLog {
			a.importLog = importlog.NewRepo(a.dbh)
		}
	}

	a.blobs, err = storage.Open(storage.Options{
		Driver:      cfg.BlobDriver,
		BasePath:    cfg.BlobBasePath,
		S3Bucket:    cfg.S3Bucket,
		S3Region:    cfg.S3Region,
		S3Endpoint:  cfg.S3Endpoint,
		S3Prefix:    cfg.S3Prefix,
		S3PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.NATSURL != "" {
		nc, err := notify.DialNATS(cfg.NATSURL, "markr")
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = nc
	}

	a.ingest = &ingest.Service{
		Store:     a.repo,
		Importer:  results.NewImporter(log),
		Blobs:     a.blobs,
		Log:       a.importLog,
		Publisher: a.publisher,
		Subject:   cfg.NATSSubject,
		Logger:    log,
	}
	return a, nil
}

func (a *app) ping(ctx context.Context) error {
	if a.dbh == nil {
		return nil
	}
	return a.dbh.PingContext(ctx)
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("close publisher")
		}
	}
	if a.dbh != nil {
		_ = a.dbh.Close()
	}
}
