package loader

import (
	"gorm.io/gorm"

	"pdb-loader/models"
)

// Interner dedupliziert Referenz-Entitäten über ihren natürlichen Schlüssel.
// Der erste Aufruf für einen Schlüssel legt die Entität in der Datenbank an,
// jeder weitere liefert die gecachte Instanz ohne erneuten Schreibzugriff.
// Eine Instanz gilt für genau einen Ladelauf und wird danach verworfen.
type Interner struct {
	authors    map[string]*models.Author
	sources    map[string]*models.Source
	expTypes   map[string]*models.ExpType
	expClasses map[string]*models.ExpClass
	compTypes  map[string]*models.CompType
}

// NewInterner erstellt einen leeren Interner für einen Ladelauf.
func NewInterner() *Interner {
	return &Interner{
		authors:    make(map[string]*models.Author),
		sources:    make(map[string]*models.Source),
		expTypes:   make(map[string]*models.ExpType),
		expClasses: make(map[string]*models.ExpClass),
		compTypes:  make(map[string]*models.CompType),
	}
}

// intern schlägt key im Cache nach und legt die Entität sonst per Create an.
// Das Create läuft in einem Savepoint, damit ein einzelner Constraint-Fehler
// nicht die ganze Phasen-Transaktion abbricht.
func intern[T any](tx *gorm.DB, cache map[string]*T, key string, build func() *T) (*T, bool, error) {
	if v, ok := cache[key]; ok {
		return v, false, nil
	}
	v := build()
	if err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(v).Error
	}); err != nil {
		return nil, false, err
	}
	cache[key] = v
	return v, true, nil
}

// Author liefert den Autor zum Namen, beim ersten Auftreten neu angelegt.
func (in *Interner) Author(tx *gorm.DB, name string) (*models.Author, bool, error) {
	return intern(tx, in.authors, name, func() *models.Author {
		return &models.Author{Name: name}
	})
}

// Source liefert den Organismus zum Namen, beim ersten Auftreten neu angelegt.
func (in *Interner) Source(tx *gorm.DB, name string) (*models.Source, bool, error) {
	return intern(tx, in.sources, name, func() *models.Source {
		return &models.Source{Name: name}
	})
}

// ExpType liefert die experimentelle Methode zum Namen.
func (in *Interner) ExpType(tx *gorm.DB, name string) (*models.ExpType, bool, error) {
	return intern(tx, in.expTypes, name, func() *models.ExpType {
		return &models.ExpType{Name: name}
	})
}

// ExpClass liefert die experimentelle Klasse zum Namen.
func (in *Interner) ExpClass(tx *gorm.DB, name string) (*models.ExpClass, bool, error) {
	return intern(tx, in.expClasses, name, func() *models.ExpClass {
		return &models.ExpClass{Name: name}
	})
}

// CompType liefert den Verbindungstyp zum Namen.
func (in *Interner) CompType(tx *gorm.DB, name string) (*models.CompType, bool, error) {
	return intern(tx, in.compTypes, name, func() *models.CompType {
		return &models.CompType{Name: name}
	})
}

// KnownAuthor liefert einen bereits internierten Autor, ohne einen neuen
// anzulegen.
func (in *Interner) KnownAuthor(name string) (*models.Author, bool) {
	a, ok := in.authors[name]
	return a, ok
}

// KnownSource liefert einen bereits internierten Organismus.
func (in *Interner) KnownSource(name string) (*models.Source, bool) {
	s, ok := in.sources[name]
	return s, ok
}

// KnownExpType liefert eine bereits internierte experimentelle Methode.
func (in *Interner) KnownExpType(name string) (*models.ExpType, bool) {
	et, ok := in.expTypes[name]
	return et, ok
}
