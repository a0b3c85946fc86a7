package parsers

import (
	"bufio"
	"io"
	"strings"
)

// SourceRecord ist eine Zeile aus source.idx: ein Eintrag mit einem oder
// mehreren Herkunftsorganismen.
type SourceRecord struct {
	Code    string
	Sources []string
}

// SourceIndex parst source.idx. Zeilenformat: `CODE organismus[; organismus...]`,
// getrennt am ersten Whitespace. Codes mit Länge ungleich 4 werden verworfen.
type SourceIndex struct {
	sc      *bufio.Scanner
	skipped int
}

// NewSourceIndex erstellt einen Parser über dem gegebenen Stream.
func NewSourceIndex(r io.Reader) *SourceIndex {
	return &SourceIndex{sc: bufio.NewScanner(r)}
}

// Next liefert den nächsten gültigen Datensatz. ok=false am Streamende.
func (p *SourceIndex) Next() (SourceRecord, bool) {
	for p.sc.Scan() {
		line := strings.TrimRight(p.sc.Text(), " \t\r")
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			p.skipped++
			continue
		}
		code := line[:i]
		rest := strings.TrimLeft(line[i:], " \t")
		if len(code) != 4 || rest == "" {
			p.skipped++
			continue
		}
		return SourceRecord{Code: code, Sources: strings.Split(rest, "; ")}, true
	}
	return SourceRecord{}, false
}

// Skipped gibt die Anzahl der übersprungenen Zeilen zurück.
func (p *SourceIndex) Skipped() int { return p.skipped }

// Err gibt einen I/O-Fehler des Streams zurück, falls aufgetreten.
func (p *SourceIndex) Err() error { return p.sc.Err() }
