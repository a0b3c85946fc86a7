package parsers

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// entryFieldCount ist die erwartete Feldanzahl einer entries.idx-Zeile.
const entryFieldCount = 8

// maxCompoundLen begrenzt die Compound-Beschreibung auf die Spaltenbreite.
const maxCompoundLen = 255

// EntryRecord ist eine Zeile aus entries.idx. Die Felder 5 (Source) und
// 6 (Autorenliste) sind redundant zu source.idx bzw. author.idx und werden
// nicht übernommen.
type EntryRecord struct {
	Code          string
	Header        string
	AccessionDate string
	Compound      string
	Resolution    *float64 // nil bei "NOT" oder nicht parsebarem Wert
	ExpType       string
}

// EntryIndex parst entries.idx: 8 tabulatorgetrennte Felder pro Zeile.
type EntryIndex struct {
	sc      *bufio.Scanner
	log     *zap.Logger
	skipped int
}

// NewEntryIndex erstellt einen Parser über dem gegebenen Stream.
func NewEntryIndex(r io.Reader, log *zap.Logger) *EntryIndex {
	return &EntryIndex{sc: bufio.NewScanner(r), log: log}
}

// Next liefert den nächsten gültigen Datensatz. ok=false am Streamende.
func (p *EntryIndex) Next() (EntryRecord, bool) {
	for p.sc.Scan() {
		line := strings.TrimRight(p.sc.Text(), " \t\r")
		if !strings.Contains(line, "\t") {
			p.skipped++
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != entryFieldCount {
			p.skipped++
			continue
		}
		code := strings.ToUpper(fields[0])
		if len(code) != 4 {
			p.skipped++
			continue
		}
		return EntryRecord{
			Code:          code,
			Header:        fields[1],
			AccessionDate: fields[2],
			Compound:      truncate(fields[3], maxCompoundLen),
			Resolution:    p.parseResolution(fields[6], code),
			ExpType:       fields[7],
		}, true
	}
	return EntryRecord{}, false
}

// parseResolution wertet das Resolution-Feld aus. Mehrfachwerte behalten den
// ersten Wert vor dem Komma. "NOT" und nicht parsebare Werte ergeben nil —
// unbekannt ist nicht 0 Å.
func (p *EntryIndex) parseResolution(raw, code string) *float64 {
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[:i]
	}
	if raw == "NOT" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.log.Warn("Ungültiger Resolution-Wert, speichere NULL",
			zap.String("value", raw), zap.String("code", code))
		return nil
	}
	return &v
}

// Skipped gibt die Anzahl der übersprungenen Zeilen zurück.
func (p *EntryIndex) Skipped() int { return p.skipped }

// Err gibt einen I/O-Fehler des Streams zurück, falls aufgetreten.
func (p *EntryIndex) Err() error { return p.sc.Err() }

// truncate kürzt s auf höchstens n Bytes, ohne eine UTF-8-Rune zu zerteilen.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
