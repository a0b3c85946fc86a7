package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIndex(t *testing.T) {
	input := strings.Join([]string{
		"1ABC Homo sapiens; Escherichia coli; Mus musculus",
		"12AB5 Homo sapiens",
		"1A Homo sapiens",
		"keinwhitespace",
		"2DEF   ",
		"3GHI Saccharomyces cerevisiae",
		"4JKL\tThermus thermophilus",
	}, "\n")

	p := NewSourceIndex(strings.NewReader(input))
	var recs []SourceRecord
	for rec, ok := p.Next(); ok; rec, ok = p.Next() {
		recs = append(recs, rec)
	}

	require.NoError(t, p.Err())
	assert.Equal(t, []SourceRecord{
		{Code: "1ABC", Sources: []string{"Homo sapiens", "Escherichia coli", "Mus musculus"}},
		{Code: "3GHI", Sources: []string{"Saccharomyces cerevisiae"}},
		{Code: "4JKL", Sources: []string{"Thermus thermophilus"}},
	}, recs)
	// Code zu lang, Code zu kurz, kein Trenner, leere Source-Liste.
	assert.Equal(t, 4, p.Skipped())
}
