//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/fgeck/pgtransfer/internal/services/dbprobe"
	"github.com/fgeck/pgtransfer/internal/services/executor"
	"github.com/fgeck/pgtransfer/internal/services/exporter"
	"github.com/fgeck/pgtransfer/internal/services/importer"
	"github.com/fgeck/pgtransfer/internal/services/tools"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// getDatabaseURL returns a connection URL for a role allowed to create databases.
func getDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

func adminExec(t *testing.T, base, sql string) {
	t.Helper()

	maintenance, err := connstr.Maintenance(connstr.Sanitize(base), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, maintenance)
	require.NoError(t, err)
	defer func() { _ = conn.Close(context.Background()) }()

	_, err = conn.Exec(ctx, sql)
	require.NoError(t, err)
}

// scratchDatabase returns the URL of a database name that does not exist yet.
// It is dropped when the test ends.
func scratchDatabase(t *testing.T, base, label string) string {
	t.Helper()

	name := fmt.Sprintf("pgtransfer_it_%s_%d", label, time.Now().UnixNano())
	url, err := connstr.WithDatabase(connstr.Sanitize(base), name)
	require.NoError(t, err)

	t.Cleanup(func() {
		adminExec(t, base, fmt.Sprintf(`DROP DATABASE IF EXISTS %q WITH (FORCE)`, name))
	})
	return url
}

func seedDatabase(t *testing.T, base, url string) {
	t.Helper()

	name, ok := connstr.DatabaseName(url)
	require.True(t, ok)
	adminExec(t, base, fmt.Sprintf(`CREATE DATABASE %q`, name))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	defer func() { _ = conn.Close(context.Background()) }()

	_, err = conn.Exec(ctx, `CREATE TABLE parcels (id int PRIMARY KEY, name text); INSERT INTO parcels VALUES (1, 'north'), (2, 'south')`)
	require.NoError(t, err)
}

func countParcels(t *testing.T, url string) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	defer func() { _ = conn.Close(context.Background()) }()

	var n int
	require.NoError(t, conn.QueryRow(ctx, `SELECT count(*) FROM parcels`).Scan(&n))
	return n
}

func newServices(t *testing.T, url string) (*exporter.Impl, *importer.Impl, *tools.Impl) {
	t.Helper()

	exec := executor.NewLogging(testLogger(), executor.New())
	toolsSvc := tools.New(testLogger(), exec, nil)

	if inv := toolsSvc.Detect(context.Background()); !inv.Dump.Available || !inv.Restore.Available || !inv.InteractiveSQL.Available {
		t.Skip("PostgreSQL client tools not installed")
	}

	dir := t.TempDir()
	exp := exporter.New(testLogger(), exec, toolsSvc, exporter.Settings{ConnectionString: url, Dir: dir + "/exports"})
	imp := importer.New(testLogger(), exec, toolsSvc, importer.Settings{ConnectionString: url, Dir: dir + "/imports"})
	return exp, imp, toolsSvc
}

func TestTools_Integration(t *testing.T) {
	_, _, toolsSvc := newServices(t, getDatabaseURL(t))

	inv := toolsSvc.Detect(context.Background())

	for _, kind := range models.AllToolKinds {
		d := inv.Get(kind)
		assert.True(t, d.Available, d.Name)
		assert.Contains(t, d.Version, "PostgreSQL")
	}
}

func TestProbe_Integration(t *testing.T) {
	probe := dbprobe.New(testLogger(), connstr.Sanitize(getDatabaseURL(t)))

	assert.NoError(t, probe.Ping(context.Background()))
}

func TestExport_AllFormats_Integration(t *testing.T) {
	base := getDatabaseURL(t)
	source := scratchDatabase(t, base, "export")
	seedDatabase(t, base, source)
	exp, _, _ := newServices(t, source)

	for _, format := range models.AllExportFormats {
		t.Run(string(format), func(t *testing.T) {
			req := models.DefaultExportRequest()
			req.Format = format

			manifest, err := exp.Export(context.Background(), req)

			require.NoError(t, err)
			info, err := os.Stat(manifest.FilePath)
			require.NoError(t, err)
			assert.Equal(t, format == models.FormatDirectory, info.IsDir())
		})
	}

	assert.Len(t, exp.List(context.Background()), len(models.AllExportFormats))
}

func TestRoundTrip_Integration(t *testing.T) {
	base := getDatabaseURL(t)
	source := scratchDatabase(t, base, "src")
	seedDatabase(t, base, source)

	exp, _, _ := newServices(t, source)
	manifest, err := exp.Export(context.Background(), models.DefaultExportRequest())
	require.NoError(t, err)
	archive, err := os.ReadFile(manifest.FilePath)
	require.NoError(t, err)

	target := scratchDatabase(t, base, "dst")
	_, imp, _ := newServices(t, target)
	req := models.ImportRequest{Content: archive, FileName: manifest.FileName, Format: models.FormatCustom}

	// Missing target database is created.
	result, err := imp.Import(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Success, result.Stderr)
	assert.True(t, result.CreatedDatabase)
	assert.True(t, result.RequireReauth)
	assert.Equal(t, 2, countParcels(t, target))

	// Restoring again without clean collides with the existing objects.
	result, err = imp.Import(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrorCodeConflict, result.ErrorCode)
	assert.NotEmpty(t, result.Stderr)

	// With clean the objects are replaced.
	req.Clean = true
	result, err = imp.Import(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Success, result.Stderr)
	assert.Equal(t, 2, countParcels(t, target))
}

func TestImportSQL_Integration(t *testing.T) {
	base := getDatabaseURL(t)
	target := scratchDatabase(t, base, "sql")
	_, imp, _ := newServices(t, target)

	script := []byte("CREATE TABLE parcels (id int);\nINSERT INTO parcels VALUES (1);\n")
	result, err := imp.Import(context.Background(), models.ImportRequest{Content: script, FileName: "seed.sql", Format: models.FormatSQL})

	require.NoError(t, err)
	require.True(t, result.Success, result.Stderr)
	assert.Equal(t, "psql", result.Tool)
	assert.Equal(t, 1, countParcels(t, target))
}
