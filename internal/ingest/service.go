package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/markr/internal/importlog"
	"github.com/mind-engage/markr/internal/notify"
	"github.com/mind-engage/markr/internal/payload"
	"github.com/mind-engage/markr/internal/results"
	"github.com/mind-engage/markr/internal/storage"
)

const DefaultSubject = "markr.imports"

const sideChannelTimeout = 5 * time.Second

// Receipt describes one import call. Outcome is nil unless reconciliation
// completed.
type Receipt struct {
	importlog.Entry
	Outcome *results.Outcome `json:"outcome,omitempty"`
}

// Service runs a raw payload through decode, reconciliation and the
// side channels (archive, import log, notifications). Only Store and
// Importer are required.
type Service struct {
	Store     results.Store
	Importer  *results.Importer
	Blobs     storage.BlobStore
	Log       *importlog.Repo
	Publisher notify.Publisher
	Subject   string
	Logger    logrus.FieldLogger

	now func() time.Time
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Ingest imports one payload. The returned error is the decode, validation or
// store error, if any; side-channel failures are only logged.
func (s *Service) Ingest(ctx context.Context, contentType string, body []byte) (Receipt, error) {
	rc := Receipt{Entry: importlog.Entry{
		ID:           uuid.NewString(),
		ReceivedAt:   s.clock().UTC(),
		ContentType:  contentType,
		PayloadBytes: int64(len(body)),
	}}
	log := s.logger().WithField("import_id", rc.ID)
	log.WithField("size", humanize.Bytes(uint64(len(body)))).Info("import received")

	if s.Blobs != nil {
		key := archiveKey(rc.ReceivedAt, rc.ID, payload.Ext(contentType, body))
		if k, err := s.Blobs.Put(key, bytes.NewReader(body)); err != nil {
			log.WithError(err).Warn("archive payload failed")
		} else {
			rc.ArchiveKey = k
		}
	}

	err := s.run(ctx, &rc, contentType, body)
	switch {
	case err == nil:
		rc.Status = importlog.StatusOK
	case IsClientError(err):
		rc.Status = importlog.StatusInvalid
		rc.Error = err.Error()
		log.WithError(err).Warn("import rejected")
	default:
		rc.Status = importlog.StatusFailed
		rc.Error = err.Error()
		log.WithError(err).Error("import failed")
	}

	// the audit row and receipt outlive a cancelled or timed out request
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()
	if s.Log != nil {
		if lerr := s.Log.Append(sideCtx, rc.Entry); lerr != nil {
			log.WithError(lerr).Warn("import log append failed")
		}
	}
	if s.Publisher != nil {
		subject := s.Subject
		if subject == "" {
			subject = DefaultSubject
		}
		if perr := s.Publisher.Publish(sideCtx, subject, rc); perr != nil {
			log.WithError(perr).Warn("publish import receipt failed")
		}
	}
	return rc, err
}

func (s *Service) run(ctx context.Context, rc *Receipt, contentType string, body []byte) error {
	raws, err := payload.Decode(contentType, body)
	if err != nil {
		return err
	}
	out, err := s.Importer.ImportResults(ctx, raws, s.Store)
	if err != nil {
		return err
	}
	rc.Outcome = &out
	rc.Added, rc.Updated, rc.Warnings = len(out.Added), len(out.Updated), len(out.Warnings)
	return nil
}

func archiveKey(at time.Time, id, ext string) string {
	return fmt.Sprintf("imports/%s/%s%s", at.Format("2006/01/02"), id, ext)
}

// IsClientError reports whether err was caused by the payload rather than by
// the server.
func IsClientError(err error) bool {
	var de *payload.DecodeError
	return errors.As(err, &de) ||
		errors.Is(err, payload.ErrUnsupportedMediaType) ||
		results.IsInvalidPayload(err)
}
