package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	uploadFunc func(input *s3.PutObjectInput) error
	objects    map[string]string
	buckets    []string
}

func (m *mockUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if m.uploadFunc != nil {
		if err := m.uploadFunc(input); err != nil {
			return nil, err
		}
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = map[string]string{}
	}
	m.objects[*input.Key] = string(body)
	m.buckets = append(m.buckets, *input.Bucket)
	return &s3manager.UploadOutput{}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestMirror_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup-2026-03-14T15-09-26-535Z-abc.dump")
	require.NoError(t, os.WriteFile(path, []byte("PGDMP"), 0o600))

	up := &mockUploader{}
	store := NewWithUploader(testLogger(), up, "backups", "/pg/prod/")

	keys, err := store.Mirror(context.Background(), &models.ExportManifest{FileName: filepath.Base(path), FilePath: path})

	require.NoError(t, err)
	assert.Equal(t, []string{"pg/prod/backup-2026-03-14T15-09-26-535Z-abc.dump"}, keys)
	assert.Equal(t, "PGDMP", up.objects[keys[0]])
	assert.Equal(t, []string{"backups"}, up.buckets)
}

func TestMirror_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backup-dir")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toc.dat"), []byte("toc"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3375.dat.gz"), []byte("data"), 0o600))

	up := &mockUploader{}
	store := NewWithUploader(testLogger(), up, "backups", "")

	keys, err := store.Mirror(context.Background(), &models.ExportManifest{FileName: "backup-dir", FilePath: dir})

	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"backup-dir/3375.dat.gz", "backup-dir/toc.dat"}, keys)
	assert.Equal(t, "toc", up.objects["backup-dir/toc.dat"])
}

func TestMirror_UploadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.sql")
	require.NoError(t, os.WriteFile(path, []byte("select 1;"), 0o600))

	up := &mockUploader{uploadFunc: func(*s3.PutObjectInput) error { return errors.New("AccessDenied") }}
	store := NewWithUploader(testLogger(), up, "backups", "")

	keys, err := store.Mirror(context.Background(), &models.ExportManifest{FileName: "a.sql", FilePath: path})

	assert.Empty(t, keys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestMirror_MissingArtifact(t *testing.T) {
	store := NewWithUploader(testLogger(), &mockUploader{}, "backups", "")

	_, err := store.Mirror(context.Background(), &models.ExportManifest{FileName: "gone.sql", FilePath: filepath.Join(t.TempDir(), "gone.sql")})

	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a.dump", NewWithUploader(testLogger(), nil, "b", "").Key("a.dump"))
	assert.Equal(t, "x/y/a.dump", NewWithUploader(testLogger(), nil, "b", "x/y/").Key("a.dump"))
}
