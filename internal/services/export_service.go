package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/mholt/archives"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"geometry-relay/internal/models"
)

// ObjectUploader is the subset of *minio.Client used for exports.
type ObjectUploader interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ExportResult describes one uploaded snapshot export.
type ExportResult struct {
	Key            string    `json:"key"`
	Size           int64     `json:"size"`
	ProjectName    string    `json:"projectName"`
	TimestampUtc   time.Time `json:"timestampUtc"`
	PrimitiveCount int       `json:"primitiveCount"`
}

// ExportService writes gzip-compressed copies of the latest snapshot to object storage.
// Exports are write-only artifacts; the store never reads them back.
type ExportService struct {
	store      *SnapshotStore
	uploader   ObjectUploader
	bucketName string
}

// NewExportService creates an export service. A nil uploader disables exports.
func NewExportService(store *SnapshotStore, uploader ObjectUploader, bucketName string) *ExportService {
	return &ExportService{store: store, uploader: uploader, bucketName: bucketName}
}

// Enabled reports whether an upload target is configured.
func (s *ExportService) Enabled() bool {
	return s != nil && s.uploader != nil
}

// Export uploads the latest snapshot for projectName (or the newest overall when empty).
func (s *ExportService) Export(ctx context.Context, projectName string) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, ErrExportDisabled
	}
	snapshot, _, err := s.store.FetchLatest(projectName)
	if err != nil {
		return nil, err
	}

	payload, err := compressSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	key := ExportKey(snapshot)
	_, err = s.uploader.PutObject(ctx, s.bucketName, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json", ContentEncoding: "gzip"})
	if err != nil {
		return nil, errors.Wrap(err, "failed to upload snapshot export")
	}
	log.Printf("Exported snapshot: Project=%s, Key=%s, Size=%d bytes", snapshot.ProjectName, key, len(payload))

	return &ExportResult{
		Key:            key,
		Size:           int64(len(payload)),
		ProjectName:    snapshot.ProjectName,
		TimestampUtc:   snapshot.TimestampUtc,
		PrimitiveCount: len(snapshot.Primitives),
	}, nil
}

// ExportKey is the object key an export of snapshot is stored under.
func ExportKey(snapshot *models.GeometrySnapshot) string {
	return fmt.Sprintf("snapshots/%s/%d.json.gz",
		url.PathEscape(models.ProjectKey(snapshot.ProjectName)), snapshot.TimestampUtc.UnixNano())
}

func compressSnapshot(snapshot *models.GeometrySnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w, err := archives.Gz{}.OpenWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "could not open gzip writer")
	}
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "could not encode snapshot")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "could not finish gzip stream")
	}
	return buf.Bytes(), nil
}
