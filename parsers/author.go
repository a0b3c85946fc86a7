// Package parsers liest die PDB-Indexdateien zeilenweise und liefert
// typisierte Datensätze. Fehlerhafte Zeilen (falsche Trennzeichen oder
// Feldanzahl) werden übersprungen und gezählt, nie als Fehler gemeldet.
// I/O-Fehler des Streams sind nach der Iteration über Err() abrufbar.
package parsers

import (
	"bufio"
	"io"
	"strings"
)

// AuthorRecord ist eine Zeile aus author.idx: ein Autor eines Eintrags.
type AuthorRecord struct {
	Code string
	Name string
}

// AuthorIndex parst author.idx. Zeilenformat: `CODE ; Author Name`,
// getrennt am ersten Vorkommen von " ; ".
type AuthorIndex struct {
	sc      *bufio.Scanner
	skipped int
}

// NewAuthorIndex erstellt einen Parser über dem gegebenen Stream.
func NewAuthorIndex(r io.Reader) *AuthorIndex {
	return &AuthorIndex{sc: bufio.NewScanner(r)}
}

// Next liefert den nächsten gültigen Datensatz. ok=false am Streamende.
func (p *AuthorIndex) Next() (AuthorRecord, bool) {
	for p.sc.Scan() {
		line := strings.TrimRight(p.sc.Text(), " \t\r")
		code, name, found := strings.Cut(line, " ; ")
		if !found || code == "" || name == "" {
			p.skipped++
			continue
		}
		return AuthorRecord{Code: code, Name: name}, true
	}
	return AuthorRecord{}, false
}

// Skipped gibt die Anzahl der übersprungenen Zeilen zurück.
func (p *AuthorIndex) Skipped() int { return p.skipped }

// Err gibt einen I/O-Fehler des Streams zurück, falls aufgetreten.
func (p *AuthorIndex) Err() error { return p.sc.Err() }
