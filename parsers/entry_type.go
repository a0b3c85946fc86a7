package parsers

import (
	"bufio"
	"io"
	"strings"
)

// EntryTypeRecord ist eine Zeile aus pdb_entry_type.txt: die Zuordnung eines
// Eintrags zu Verbindungstyp und experimenteller Klasse.
type EntryTypeRecord struct {
	Code     string
	CompType string
	ExpClass string
}

// EntryTypeIndex parst pdb_entry_type.txt: drei whitespace-getrennte Token
// pro Zeile, der Code wird großgeschrieben.
type EntryTypeIndex struct {
	sc      *bufio.Scanner
	skipped int
}

// NewEntryTypeIndex erstellt einen Parser über dem gegebenen Stream.
func NewEntryTypeIndex(r io.Reader) *EntryTypeIndex {
	return &EntryTypeIndex{sc: bufio.NewScanner(r)}
}

// Next liefert den nächsten gültigen Datensatz. ok=false am Streamende.
func (p *EntryTypeIndex) Next() (EntryTypeRecord, bool) {
	for p.sc.Scan() {
		line := strings.TrimRight(p.sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			p.skipped++
			continue
		}
		return EntryTypeRecord{
			Code:     strings.ToUpper(fields[0]),
			CompType: fields[1],
			ExpClass: fields[2],
		}, true
	}
	return EntryTypeRecord{}, false
}

// Skipped gibt die Anzahl der übersprungenen Zeilen zurück.
func (p *EntryTypeIndex) Skipped() int { return p.skipped }

// Err gibt einen I/O-Fehler des Streams zurück, falls aufgetreten.
func (p *EntryTypeIndex) Err() error { return p.sc.Err() }
