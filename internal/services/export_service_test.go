package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mholt/archives"
	"github.com/minio/minio-go/v7"

	"geometry-relay/internal/models"
)

type fakeUploader struct {
	bucket string
	key    string
	body   []byte
	opts   minio.PutObjectOptions
	err    error
}

func (f *fakeUploader) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.opts = bucketName, objectName, data, opts
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func TestExport_Disabled(t *testing.T) {
	svc := NewExportService(NewSnapshotStore(), nil, "bucket")
	if _, err := svc.Export(context.Background(), "P"); err != ErrExportDisabled {
		t.Fatalf("expected ErrExportDisabled, got %v", err)
	}
}

func TestExport_NotFound(t *testing.T) {
	svc := NewExportService(NewSnapshotStore(), &fakeUploader{}, "bucket")
	if _, err := svc.Export(context.Background(), "P"); err != ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestExport_UploadsCompressedSnapshot(t *testing.T) {
	store, _ := testStore(t)
	store.Ingest(snapshot("Tower A", box("Walls", 1), box("Doors", 2)))
	uploader := &fakeUploader{}
	svc := NewExportService(store, uploader, "exports")

	result, err := svc.Export(context.Background(), "tower a")
	if err != nil {
		t.Fatal(err)
	}
	if uploader.bucket != "exports" || uploader.key != result.Key {
		t.Fatalf("unexpected upload target %s/%s", uploader.bucket, uploader.key)
	}
	if !strings.HasPrefix(result.Key, "snapshots/tower%20a/") || !strings.HasSuffix(result.Key, ".json.gz") {
		t.Fatalf("unexpected key %s", result.Key)
	}
	if uploader.opts.ContentEncoding != "gzip" {
		t.Fatalf("expected gzip content encoding, got %q", uploader.opts.ContentEncoding)
	}

	r, err := archives.Gz{}.OpenReader(bytes.NewReader(uploader.body))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var got models.GeometrySnapshot
	if err := json.NewDecoder(r).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ProjectName != "Tower A" || len(got.Primitives) != 2 {
		t.Fatalf("unexpected exported snapshot %+v", got)
	}
	if result.PrimitiveCount != 2 || result.Size != int64(len(uploader.body)) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExport_UploadFailureIsWrapped(t *testing.T) {
	store, _ := testStore(t)
	store.Ingest(snapshot("P"))
	cause := errors.New("bucket gone")
	svc := NewExportService(store, &fakeUploader{err: cause}, "exports")

	_, err := svc.Export(context.Background(), "")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}
