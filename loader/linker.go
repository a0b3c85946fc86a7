package loader

import (
	"strings"

	"gorm.io/gorm"

	"pdb-loader/models"
	"pdb-loader/storage"
)

// Linker löst Einträge über ihren Code auf und hängt Assoziationen idempotent
// an. Maßgeblich ist der Datenbestand der Senke, nicht nur der Cache des
// laufenden Laufs; Treffer und Fehlschläge werden gecacht (nil = bekannt
// fehlend). Fehlende Einträge sind erwartbar — sie stammen aus Zeilen, die
// ein früherer Filter verworfen hat — und werden nur gezählt.
type Linker struct {
	sink    *storage.Sink
	entries map[string]*models.Entry
}

// NewLinker erstellt einen Linker für einen Ladelauf.
func NewLinker(sink *storage.Sink) *Linker {
	return &Linker{
		sink:    sink,
		entries: make(map[string]*models.Entry),
	}
}

// Put nimmt einen im selben Lauf angelegten Eintrag in den Cache auf.
func (l *Linker) Put(e *models.Entry) {
	l.entries[e.IDCode] = e
}

// Entry löst einen Eintrag über den großgeschriebenen Code auf.
// found=false, wenn der Eintrag weder im Lauf angelegt wurde noch in der
// Senke existiert.
func (l *Linker) Entry(tx *gorm.DB, code string) (*models.Entry, bool, error) {
	code = strings.ToUpper(code)
	if e, ok := l.entries[code]; ok {
		return e, e != nil, nil
	}
	e, found, err := l.sink.EntryByCode(tx, code)
	if err != nil {
		return nil, false, err
	}
	if !found {
		l.entries[code] = nil
		return nil, false, nil
	}
	l.entries[code] = e
	return e, true, nil
}

// AttachAuthor verknüpft Autor und Eintrag, falls die Verknüpfung noch nicht
// existiert. added=false bei bereits vorhandener Join-Zeile.
func (l *Linker) AttachAuthor(tx *gorm.DB, e *models.Entry, a *models.Author) (bool, error) {
	var n int64
	if err := tx.Table("author_has_entry").
		Where("entry_id_code = ? AND author_id = ?", e.IDCode, a.ID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Model(e).Association("Authors").Append(a)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// AttachSource verknüpft Organismus und Eintrag, falls die Verknüpfung noch
// nicht existiert.
func (l *Linker) AttachSource(tx *gorm.DB, e *models.Entry, s *models.Source) (bool, error) {
	var n int64
	if err := tx.Table("entry_has_source").
		Where("entry_id_code = ? AND source_id = ?", e.IDCode, s.ID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Model(e).Association("Sources").Append(s)
	}); err != nil {
		return false, err
	}
	return true, nil
}
