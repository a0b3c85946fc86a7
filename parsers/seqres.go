package parsers

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// seqHeaderRe erkennt FASTA-Header der Form
// `>1ABC_A mol:protein length:100`. Gruppe 1 ist der Code, Gruppe 2 die Kette.
var seqHeaderRe = regexp.MustCompile(`^>([^_]*)_(.*)mol:(\S*) length:(\S*)`)

// SequenceRecord ist ein Sequenzblock aus pdb_seqres.txt: eine Kette eines
// Eintrags mit zusammengefügtem Sequenzkörper.
type SequenceRecord struct {
	Code     string
	Chain    string
	Sequence string
	Header   string // Header-Zeile ohne führendes '>'
}

// SeqRes parst pdb_seqres.txt. Ein Block beginnt mit einer Header-Zeile und
// sammelt alle Folgezeilen bis zum nächsten Header. Der letzte Block wird am
// Streamende ausgegeben, nicht verworfen.
type SeqRes struct {
	sc      *bufio.Scanner
	code    string
	chain   string
	header  string
	body    strings.Builder
	done    bool
	skipped int
}

// NewSeqRes erstellt einen Parser über dem gegebenen Stream.
func NewSeqRes(r io.Reader) *SeqRes {
	return &SeqRes{sc: bufio.NewScanner(r)}
}

// Next liefert den nächsten vollständigen Sequenzblock. ok=false am Streamende.
func (p *SeqRes) Next() (SequenceRecord, bool) {
	for p.sc.Scan() {
		line := strings.TrimRight(p.sc.Text(), " \t\r")
		if strings.HasPrefix(line, ">") {
			rec, ok := p.flush()
			p.startBlock(line)
			if ok {
				return rec, true
			}
			continue
		}
		p.body.WriteString(line)
	}
	if p.done {
		return SequenceRecord{}, false
	}
	p.done = true
	return p.flush()
}

// startBlock übernimmt Code und Kette aus der Header-Zeile. Header, die dem
// Muster nicht entsprechen, machen den Block ungültig.
func (p *SeqRes) startBlock(line string) {
	p.header = strings.TrimPrefix(line, ">")
	m := seqHeaderRe.FindStringSubmatch(line)
	if m == nil {
		p.skipped++
		p.code, p.chain = "", ""
		return
	}
	p.code = strings.ToUpper(m[1])
	p.chain = strings.ReplaceAll(m[2], " ", "")
}

// flush gibt den angesammelten Block aus, sofern er nicht leer ist und einen
// gültigen Header hatte.
func (p *SeqRes) flush() (SequenceRecord, bool) {
	body := p.body.String()
	p.body.Reset()
	if body == "" || p.code == "" {
		return SequenceRecord{}, false
	}
	return SequenceRecord{
		Code:     p.code,
		Chain:    p.chain,
		Sequence: body,
		Header:   p.header,
	}, true
}

// Skipped gibt die Anzahl der verworfenen Header zurück.
func (p *SeqRes) Skipped() int { return p.skipped }

// Err gibt einen I/O-Fehler des Streams zurück, falls aufgetreten.
func (p *SeqRes) Err() error { return p.sc.Err() }
