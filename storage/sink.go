package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdb-loader/models"
)

// Sink kapselt die Ziel-Datenbank hinter der schmalen Fähigkeitsmenge, die
// der Lader braucht: Schema anlegen, Bestand leeren, Phasen-Transaktionen
// und der Punkt-Lookup eines Eintrags.
type Sink struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewSink erstellt eine Sink über der gegebenen GORM-Verbindung.
func NewSink(db *gorm.DB, log *zap.Logger) *Sink {
	return &Sink{DB: db, Log: log}
}

// Migrate legt das Schema für alle Modelle an. Eltern vor Kindern, damit die
// Fremdschlüssel sofort angelegt werden können.
func (s *Sink) Migrate() error {
	return s.DB.AutoMigrate(
		&models.ExpClass{},
		&models.ExpType{},
		&models.CompType{},
		&models.Author{},
		&models.Source{},
		&models.Entry{},
		&models.Sequence{},
	)
}

// Clean leert alle Tabellen eines früheren Laufs: Join-Zeilen zuerst, dann
// Kinder, zuletzt Eltern, damit keine Fremdschlüssel verletzt werden.
// Anschließend beginnen die Surrogat-ID-Sequenzen wieder bei 1.
func (s *Sink) Clean(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"author_has_entry",
			"entry_has_source",
			"sequences",
			"entries",
			"sources",
			"authors",
			"exp_types",
			"comp_types",
			"exp_classes",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
		}
		s.resetSequences(tx)
		return nil
	})
}

// resetSequences setzt die Auto-Increment-Sequenzen der Referenztabellen
// zurück. Einzelne Fehlschläge (z.B. Sequenz existiert noch nicht) sind
// unkritisch und werden nur geloggt.
func (s *Sink) resetSequences(tx *gorm.DB) {
	for _, table := range []string{"authors", "sources", "exp_types", "comp_types", "exp_classes"} {
		seq := table + "_id_seq"
		if err := tx.Exec(fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH 1", seq)).Error; err != nil {
			s.Log.Warn("Sequenz konnte nicht zurückgesetzt werden",
				zap.String("sequence", seq), zap.Error(err))
		}
	}
}

// Phase führt fn als eine atomare Arbeitseinheit aus: entweder werden alle
// Schreibzugriffe der Phase committet oder keiner.
func (s *Sink) Phase(ctx context.Context, name string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	s.Log.Info("Phase gestartet", zap.String("phase", name))
	if err := s.DB.WithContext(ctx).Transaction(fn); err != nil {
		s.Log.Error("Phase abgebrochen, Transaktion zurückgerollt",
			zap.String("phase", name), zap.Error(err))
		return fmt.Errorf("phase %s: %w", name, err)
	}
	s.Log.Info("Phase abgeschlossen",
		zap.String("phase", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// EntryByCode schlägt einen Eintrag über den Primärschlüssel nach.
// found=false, wenn der Code nicht existiert.
func (s *Sink) EntryByCode(tx *gorm.DB, code string) (*models.Entry, bool, error) {
	var e models.Entry
	if err := tx.First(&e, "id_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &e, true, nil
}
