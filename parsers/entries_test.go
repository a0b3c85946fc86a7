package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entryLine(fields ...string) string {
	return strings.Join(fields, "\t")
}

func TestEntryIndex(t *testing.T) {
	input := strings.Join([]string{
		entryLine("1abc", "HYDROLASE", "1998-05-11", "LYSOZYME", "HUMAN", "Doe, J.", "2.10,1.80", "X-RAY DIFFRACTION"),
		entryLine("2xyz", "TRANSFERASE", "2001-07-20", "KINASE", "YEAST", "Smith, A.", "NOT", "SOLUTION NMR"),
		entryLine("3bad", "OXIDOREDUCTASE", "2005-03-01", "ENZYME", "ECOLI", "Roe, R.", "abc", "X-RAY DIFFRACTION"),
		"zeile ohne tabulator",
		"1xyz\tnur\tdrei",
		entryLine("12ab5", "H", "d", "c", "s", "a", "1.50", "X-RAY DIFFRACTION"),
	}, "\n")

	p := NewEntryIndex(strings.NewReader(input), zap.NewNop())
	var recs []EntryRecord
	for rec, ok := p.Next(); ok; rec, ok = p.Next() {
		recs = append(recs, rec)
	}
	require.NoError(t, p.Err())
	require.Len(t, recs, 3)

	// Mehrfachwert: nur der Wert vor dem ersten Komma zählt.
	assert.Equal(t, "1ABC", recs[0].Code)
	require.NotNil(t, recs[0].Resolution)
	assert.Equal(t, 2.10, *recs[0].Resolution)
	assert.Equal(t, "HYDROLASE", recs[0].Header)
	assert.Equal(t, "1998-05-11", recs[0].AccessionDate)
	assert.Equal(t, "X-RAY DIFFRACTION", recs[0].ExpType)

	// "NOT" heißt nicht anwendbar, nicht 0.
	assert.Equal(t, "2XYZ", recs[1].Code)
	assert.Nil(t, recs[1].Resolution)

	// Nicht parsebar wird geloggt und als NULL übernommen, kein Abbruch.
	assert.Equal(t, "3BAD", recs[2].Code)
	assert.Nil(t, recs[2].Resolution)

	// Ohne Tabulator, falsche Feldanzahl, Code mit Länge 5.
	assert.Equal(t, 3, p.Skipped())
}

func TestEntryIndexCompoundTruncated(t *testing.T) {
	long := strings.Repeat("A", 300)
	input := entryLine("1abc", "H", "d", long, "s", "a", "1.50", "X-RAY DIFFRACTION")

	p := NewEntryIndex(strings.NewReader(input), zap.NewNop())
	rec, ok := p.Next()
	require.True(t, ok)
	assert.Len(t, rec.Compound, 255)
	assert.Equal(t, strings.Repeat("A", 255), rec.Compound)
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// 2-Byte-Runen: die Grenze darf keine Rune zerteilen.
	s := strings.Repeat("ä", 130) // 260 Bytes
	out := truncate(s, 255)
	assert.True(t, len(out) <= 255)
	assert.Equal(t, strings.Repeat("ä", 127), out)
}
