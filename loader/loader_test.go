package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"pdb-loader/config"
	"pdb-loader/models"
	"pdb-loader/storage"
)

var (
	sinkOnce sync.Once
	testSnk  *storage.Sink
	sinkErr  error
)

// testSink verbindet sich einmalig mit der Test-Datenbank. Ohne
// TEST_POSTGRES_DSN werden die Integrationstests übersprungen.
func testSink(t *testing.T) *storage.Sink {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run loader integration tests")
	}

	sinkOnce.Do(func() {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			sinkErr = err
			return
		}
		testSnk = storage.NewSink(db, zap.NewNop())
		sinkErr = testSnk.Migrate()
	})
	if sinkErr != nil {
		t.Fatalf("failed to init test db: %v", sinkErr)
	}
	return testSnk
}

func writeInputs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func testInputs() map[string]string {
	return map[string]string{
		"author.idx": "1ABC ; Doe, J.\n" +
			"1ABC ; Smith, A.\n" +
			"1ABC ; Doe, J.\n" + // Wiederholung derselben Zeile
			"2XYZ ; Doe, J.\n" +
			"9LONG5 ; Nope, N.\n", // Code wurde in der Entries-Phase gefiltert
		"source.idx": "1ABC Homo sapiens; Escherichia coli\n" +
			"2XYZ Homo sapiens\n",
		"entries.idx": "1abc\tHYDROLASE\t1998-05-11\tLYSOZYME\tHUMAN\tDoe, J.\t2.10,1.80\tX-RAY DIFFRACTION\n" +
			"2xyz\tTRANSFERASE\t2001-07-20\tKINASE\tYEAST\tSmith, A.\tNOT\tSOLUTION NMR\n" +
			"12ab5\tH\td\tc\ts\ta\t1.50\tX-RAY DIFFRACTION\n", // Code mit Länge 5
		"pdb_entry_type.txt": "1abc prot diffraction\n" +
			"2xyz prot NMR\n" +
			"5xxx nuc EM\n", // Eintrag existiert nicht
		"pdb_seqres.txt": ">1abc_A mol:protein length:12\n" +
			"MKVLAT\n" +
			"GKKRKR\n" +
			">1abc_B mol:protein length:6\n" +
			"LLTPRO\n" +
			">7zzz_A mol:protein length:3\n" + // Eintrag existiert nicht
			"AAA\n",
	}
}

func newTestService(t *testing.T, dir string) *LoadService {
	t.Helper()
	return NewLoadService(&config.Config{InputDir: dir}, testSink(t), zap.NewNop())
}

func TestRunFullLoad(t *testing.T) {
	sink := testSink(t)
	dir := t.TempDir()
	writeInputs(t, dir, testInputs())

	svc := newTestService(t, dir)
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Phases, 7)

	byPhase := make(map[string]PhaseStats)
	for _, ph := range report.Phases {
		byPhase[ph.Phase] = ph
	}

	// Dedup: drei Namen trotz fünf Zeilen, die Wiederholungszeile zählt nicht.
	assert.Equal(t, 3, byPhase["authors"].Created)
	assert.Equal(t, 2, byPhase["sources"].Created)
	assert.Equal(t, 2, byPhase["entries"].Created)
	assert.Equal(t, 1, byPhase["entries"].Skipped)
	assert.Equal(t, 5, byPhase["classify"].Created) // 3 Klassen + 2 CompTypes
	assert.Equal(t, 2, byPhase["classify"].Linked)
	assert.Equal(t, 1, byPhase["classify"].Missing)
	assert.Equal(t, 2, byPhase["sequences"].Created)
	assert.Equal(t, 1, byPhase["sequences"].Missing)
	assert.Equal(t, 3, byPhase["link_sources"].Linked)
	assert.Equal(t, 3, byPhase["link_authors"].Linked)
	assert.Equal(t, 1, byPhase["link_authors"].Missing)

	var authorCount, sourceCount, entryCount, seqCount int64
	sink.DB.Model(&models.Author{}).Count(&authorCount)
	sink.DB.Model(&models.Source{}).Count(&sourceCount)
	sink.DB.Model(&models.Entry{}).Count(&entryCount)
	sink.DB.Model(&models.Sequence{}).Count(&seqCount)
	assert.EqualValues(t, 3, authorCount)
	assert.EqualValues(t, 2, sourceCount)
	assert.EqualValues(t, 2, entryCount)
	assert.EqualValues(t, 2, seqCount)

	// Gefilterte Codes tauchen nie als Eintrag auf.
	var n int64
	sink.DB.Model(&models.Entry{}).Where("id_code IN ?", []string{"12AB5", "9LONG5", "5XXX"}).Count(&n)
	assert.EqualValues(t, 0, n)

	// Mehrfachwert-Resolution behält den ersten Wert, "NOT" bleibt NULL.
	var e1, e2 models.Entry
	require.NoError(t, sink.DB.First(&e1, "id_code = ?", "1ABC").Error)
	require.NotNil(t, e1.Resolution)
	assert.Equal(t, 2.10, *e1.Resolution)
	require.NotNil(t, e1.CompTypeID)
	require.NoError(t, sink.DB.First(&e2, "id_code = ?", "2XYZ").Error)
	assert.Nil(t, e2.Resolution)

	// Die Methode des Eintrags hängt an ihrer Klasse.
	var et models.ExpType
	require.NoError(t, sink.DB.First(&et, "name = ?", "X-RAY DIFFRACTION").Error)
	require.NotNil(t, et.ExpClassID)

	var joinAuthors, joinSources int64
	sink.DB.Table("author_has_entry").Count(&joinAuthors)
	sink.DB.Table("entry_has_source").Count(&joinSources)
	assert.EqualValues(t, 3, joinAuthors)
	assert.EqualValues(t, 3, joinSources)
}

func TestRunIsRepeatable(t *testing.T) {
	sink := testSink(t)
	dir := t.TempDir()
	writeInputs(t, dir, testInputs())

	svc := newTestService(t, dir)
	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Clean räumt vollständig auf: der zweite Lauf reproduziert die
	// Zählstände des ersten.
	assert.Equal(t, first.Phases, second.Phases)

	var authorCount int64
	sink.DB.Model(&models.Author{}).Count(&authorCount)
	assert.EqualValues(t, 3, authorCount)
}

func TestRunMissingInputFileAborts(t *testing.T) {
	sink := testSink(t)
	dir := t.TempDir()
	files := testInputs()
	delete(files, "entries.idx")
	writeInputs(t, dir, files)

	svc := newTestService(t, dir)
	report, err := svc.Run(context.Background())
	require.Error(t, err)
	// Authors und Sources sind committet, die Entries-Phase kam nicht dazu.
	require.Len(t, report.Phases, 3)

	var authorCount, entryCount int64
	sink.DB.Model(&models.Author{}).Count(&authorCount)
	sink.DB.Model(&models.Entry{}).Count(&entryCount)
	assert.EqualValues(t, 3, authorCount)
	assert.EqualValues(t, 0, entryCount)
}

func TestInternerIdempotent(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	require.NoError(t, sink.Clean(ctx))

	in := NewInterner()
	err := sink.Phase(ctx, "test", func(tx *gorm.DB) error {
		a1, created, err := in.Author(tx, "Doe, J.")
		require.NoError(t, err)
		assert.True(t, created)
		require.NotZero(t, a1.ID)

		a2, created, err := in.Author(tx, "Doe, J.")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, a1, a2)
		return nil
	})
	require.NoError(t, err)

	var n int64
	sink.DB.Model(&models.Author{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestLinkerAttachIdempotent(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	require.NoError(t, sink.Clean(ctx))

	lk := NewLinker(sink)
	err := sink.Phase(ctx, "test", func(tx *gorm.DB) error {
		e := &models.Entry{IDCode: "1ABC", Header: "HYDROLASE"}
		require.NoError(t, tx.Create(e).Error)
		lk.Put(e)
		a := &models.Author{Name: "Doe, J."}
		require.NoError(t, tx.Create(a).Error)

		added, err := lk.AttachAuthor(tx, e, a)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = lk.AttachAuthor(tx, e, a)
		require.NoError(t, err)
		assert.False(t, added)
		return nil
	})
	require.NoError(t, err)

	var n int64
	sink.DB.Table("author_has_entry").Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestLinkerMissingEntry(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	require.NoError(t, sink.Clean(ctx))

	lk := NewLinker(sink)
	err := sink.Phase(ctx, "test", func(tx *gorm.DB) error {
		_, found, err := lk.Entry(tx, "zzzz")
		require.NoError(t, err)
		assert.False(t, found)

		// Auch der gecachte Fehlschlag bleibt ein Fehlschlag.
		_, found, err = lk.Entry(tx, "ZZZZ")
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})
	require.NoError(t, err)
}
