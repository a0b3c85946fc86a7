// Package loader enthält den Bulk-Load der PDB-Indexdateien: Parser-Ausgaben
// werden dedupliziert (Interner), verknüpft (Linker) und phasenweise in die
// Senke geschrieben. Die Phasen laufen strikt sequenziell, jede als eigene
// atomare Transaktion; ein I/O-Fehler bricht den Lauf ab, bereits committete
// Phasen bleiben bestehen (der Lader ist wiederholbar, Clean räumt auf).
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdb-loader/config"
	"pdb-loader/models"
	"pdb-loader/parsers"
	"pdb-loader/storage"
)

// PhaseStats sammelt die Kennzahlen einer Ladephase.
type PhaseStats struct {
	Phase   string
	Created int // neu angelegte Entitäten
	Linked  int // neu angelegte Verknüpfungen bzw. Zuordnungen
	Skipped int // verworfene Zeilen und Duplikate
	Missing int // Assoziationen ohne Ziel-Eintrag
	Errors  int // übersprungene Einzelsatz-Schreibfehler
}

// Report fasst einen kompletten Ladelauf phasenweise zusammen.
type Report struct {
	Phases []PhaseStats
}

type authorPair struct{ Name, Code string }

type sourcePair struct{ Code, Name string }

// runState bündelt den veränderlichen Zustand eines Laufs: die Caches und
// die in den Ladephasen gesammelten, erst später aufzulösenden Paare.
type runState struct {
	interner      *Interner
	linker        *Linker
	authorPairs   []authorPair
	sourcePairs   []sourcePair
	expTypeByCode map[string]string
}

// LoadService orchestriert den kompletten Bulk-Load über die fünf
// Eingabedateien in Abhängigkeitsreihenfolge.
type LoadService struct {
	Config *config.Config
	Sink   *storage.Sink
	Logger *zap.Logger
}

// NewLoadService erstellt eine neue Instanz des LoadService.
func NewLoadService(cfg *config.Config, sink *storage.Sink, logger *zap.Logger) *LoadService {
	return &LoadService{Config: cfg, Sink: sink, Logger: logger}
}

// Run führt alle Phasen aus: Clean → Authors → Sources → Entries → Classify
// → Sequences → LinkSources → LinkAuthors. Der zurückgegebene Report enthält
// die Kennzahlen aller begonnenen Phasen, auch bei Abbruch.
func (s *LoadService) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	st := &runState{
		interner:      NewInterner(),
		linker:        NewLinker(s.Sink),
		expTypeByCode: make(map[string]string),
	}

	s.Logger.Info("Bereinige Zieltabellen")
	if err := s.Sink.Clean(ctx); err != nil {
		return report, fmt.Errorf("clean: %w", err)
	}

	phases := []struct {
		name string
		run  func(context.Context, *runState, *PhaseStats) error
	}{
		{"authors", s.loadAuthors},
		{"sources", s.loadSources},
		{"entries", s.loadEntries},
		{"classify", s.classifyEntries},
		{"sequences", s.loadSequences},
		{"link_sources", s.linkSources},
		{"link_authors", s.linkAuthors},
	}
	for _, ph := range phases {
		stats := PhaseStats{Phase: ph.name}
		err := ph.run(ctx, st, &stats)
		report.Phases = append(report.Phases, stats)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// openInput öffnet eine Eingabedatei unterhalb des konfigurierten
// Verzeichnisses. Ein Fehler hier ist fatal für den Lauf.
func (s *LoadService) openInput(name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.Config.InputDir, name))
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", name, err)
	}
	return f, nil
}

// loadAuthors interniert alle Autoren aus author.idx und sammelt die
// Autor↔Eintrag-Paare (dedupliziert) für die spätere Link-Phase.
func (s *LoadService) loadAuthors(ctx context.Context, st *runState, stats *PhaseStats) error {
	f, err := s.openInput("author.idx")
	if err != nil {
		return err
	}
	defer f.Close()

	seen := make(map[authorPair]struct{})
	return s.Sink.Phase(ctx, "authors", func(tx *gorm.DB) error {
		p := parsers.NewAuthorIndex(f)
		for rec, ok := p.Next(); ok; rec, ok = p.Next() {
			if _, created, err := st.interner.Author(tx, rec.Name); err != nil {
				s.Logger.Warn("Autor konnte nicht angelegt werden",
					zap.String("name", rec.Name), zap.Error(err))
				stats.Errors++
				continue
			} else if created {
				stats.Created++
			}
			pair := authorPair{Name: rec.Name, Code: rec.Code}
			if _, dup := seen[pair]; !dup {
				seen[pair] = struct{}{}
				st.authorPairs = append(st.authorPairs, pair)
			}
		}
		stats.Skipped += p.Skipped()
		return p.Err()
	})
}

// loadSources interniert alle Organismen aus source.idx und sammelt die
// Eintrag↔Organismus-Paare für die spätere Link-Phase.
func (s *LoadService) loadSources(ctx context.Context, st *runState, stats *PhaseStats) error {
	f, err := s.openInput("source.idx")
	if err != nil {
		return err
	}
	defer f.Close()

	return s.Sink.Phase(ctx, "sources", func(tx *gorm.DB) error {
		p := parsers.NewSourceIndex(f)
		for rec, ok := p.Next(); ok; rec, ok = p.Next() {
			for _, name := range rec.Sources {
				if _, created, err := st.interner.Source(tx, name); err != nil {
					s.Logger.Warn("Organismus konnte nicht angelegt werden",
						zap.String("name", name), zap.Error(err))
					stats.Errors++
					continue
				} else if created {
					stats.Created++
				}
				st.sourcePairs = append(st.sourcePairs, sourcePair{Code: rec.Code, Name: name})
			}
		}
		stats.Skipped += p.Skipped()
		return p.Err()
	})
}

// loadEntries legt die Einträge aus entries.idx an, interniert dabei die
// experimentellen Methoden und merkt sich Code → Methode für die
// Klassifikationsphase.
func (s *LoadService) loadEntries(ctx context.Context, st *runState, stats *PhaseStats) error {
	f, err := s.openInput("entries.idx")
	if err != nil {
		return err
	}
	defer f.Close()

	return s.Sink.Phase(ctx, "entries", func(tx *gorm.DB) error {
		p := parsers.NewEntryIndex(f, s.Logger)
		for rec, ok := p.Next(); ok; rec, ok = p.Next() {
			et, _, err := st.interner.ExpType(tx, rec.ExpType)
			if err != nil {
				s.Logger.Warn("ExpType konnte nicht angelegt werden",
					zap.String("name", rec.ExpType), zap.Error(err))
				stats.Errors++
				continue
			}
			e := &models.Entry{
				IDCode:        rec.Code,
				Header:        rec.Header,
				AccessionDate: rec.AccessionDate,
				Compound:      rec.Compound,
				Resolution:    rec.Resolution,
				ExpTypeID:     &et.ID,
			}
			if err := tx.Transaction(func(tx *gorm.DB) error {
				return tx.Create(e).Error
			}); err != nil {
				s.Logger.Warn("Eintrag konnte nicht angelegt werden",
					zap.String("code", rec.Code), zap.Error(err))
				stats.Errors++
				continue
			}
			st.linker.Put(e)
			st.expTypeByCode[rec.Code] = rec.ExpType
			stats.Created++
		}
		stats.Skipped += p.Skipped()
		return p.Err()
	})
}

// classifyEntries wertet pdb_entry_type.txt aus: interniert Klassen und
// Verbindungstypen, ordnet der Methode des Eintrags ihre Klasse zu und dem
// Eintrag seinen Verbindungstyp.
func (s *LoadService) classifyEntries(ctx context.Context, st *runState, stats *PhaseStats) error {
	f, err := s.openInput("pdb_entry_type.txt")
	if err != nil {
		return err
	}
	defer f.Close()

	return s.Sink.Phase(ctx, "classify", func(tx *gorm.DB) error {
		p := parsers.NewEntryTypeIndex(f)
		for rec, ok := p.Next(); ok; rec, ok = p.Next() {
			ec, created, err := st.interner.ExpClass(tx, rec.ExpClass)
			if err != nil {
				s.Logger.Warn("ExpClass konnte nicht angelegt werden",
					zap.String("name", rec.ExpClass), zap.Error(err))
				stats.Errors++
				continue
			}
			if created {
				stats.Created++
			}
			ct, created, err := st.interner.CompType(tx, rec.CompType)
			if err != nil {
				s.Logger.Warn("CompType konnte nicht angelegt werden",
					zap.String("name", rec.CompType), zap.Error(err))
				stats.Errors++
				continue
			}
			if created {
				stats.Created++
			}

			// Die Methode, die dieser Eintrag verwendet, ihrer Klasse zuordnen.
			if name, ok := st.expTypeByCode[rec.Code]; ok {
				if et, known := st.interner.KnownExpType(name); known &&
					(et.ExpClassID == nil || *et.ExpClassID != ec.ID) {
					if err := tx.Transaction(func(tx *gorm.DB) error {
						return tx.Model(et).Update("exp_class_id", ec.ID).Error
					}); err != nil {
						s.Logger.Warn("ExpClass-Zuordnung fehlgeschlagen",
							zap.String("exp_type", name), zap.Error(err))
						stats.Errors++
					} else {
						et.ExpClassID = &ec.ID
					}
				}
			}

			e, found, err := st.linker.Entry(tx, rec.Code)
			if err != nil {
				return err
			}
			if !found {
				stats.Missing++
				continue
			}
			if e.CompTypeID != nil && *e.CompTypeID == ct.ID {
				continue
			}
			if err := tx.Transaction(func(tx *gorm.DB) error {
				return tx.Model(e).Update("comp_type_id", ct.ID).Error
			}); err != nil {
				s.Logger.Warn("CompType-Zuordnung fehlgeschlagen",
					zap.String("code", rec.Code), zap.Error(err))
				stats.Errors++
				continue
			}
			e.CompTypeID = &ct.ID
			stats.Linked++
		}
		stats.Skipped += p.Skipped()
		return p.Err()
	})
}

// loadSequences legt die Ketten aus pdb_seqres.txt an. Ketten zu unbekannten
// Einträgen werden gezählt und übersprungen, Duplikate pro (Code, Kette)
// innerhalb des Laufs ebenfalls.
func (s *LoadService) loadSequences(ctx context.Context, st *runState, stats *PhaseStats) error {
	f, err := s.openInput("pdb_seqres.txt")
	if err != nil {
		return err
	}
	defer f.Close()

	type chainKey struct{ Code, Chain string }
	seen := make(map[chainKey]struct{})
	return s.Sink.Phase(ctx, "sequences", func(tx *gorm.DB) error {
		p := parsers.NewSeqRes(f)
		for rec, ok := p.Next(); ok; rec, ok = p.Next() {
			key := chainKey{Code: rec.Code, Chain: rec.Chain}
			if _, dup := seen[key]; dup {
				stats.Skipped++
				continue
			}
			seen[key] = struct{}{}

			_, found, err := st.linker.Entry(tx, rec.Code)
			if err != nil {
				return err
			}
			if !found {
				stats.Missing++
				continue
			}
			seq := &models.Sequence{
				IDCode:   rec.Code,
				Chain:    rec.Chain,
				Sequence: rec.Sequence,
				Header:   rec.Header,
			}
			if err := tx.Transaction(func(tx *gorm.DB) error {
				return tx.Create(seq).Error
			}); err != nil {
				s.Logger.Warn("Sequenz konnte nicht angelegt werden",
					zap.String("code", rec.Code), zap.String("chain", rec.Chain), zap.Error(err))
				stats.Errors++
				continue
			}
			stats.Created++
		}
		stats.Skipped += p.Skipped()
		return p.Err()
	})
}

// linkSources löst die gesammelten Eintrag↔Organismus-Paare auf.
func (s *LoadService) linkSources(ctx context.Context, st *runState, stats *PhaseStats) error {
	return s.Sink.Phase(ctx, "link_sources", func(tx *gorm.DB) error {
		for _, pr := range st.sourcePairs {
			src, known := st.interner.KnownSource(pr.Name)
			if !known {
				stats.Skipped++
				continue
			}
			e, found, err := st.linker.Entry(tx, pr.Code)
			if err != nil {
				return err
			}
			if !found {
				stats.Missing++
				continue
			}
			added, err := st.linker.AttachSource(tx, e, src)
			if err != nil {
				s.Logger.Warn("Source-Verknüpfung fehlgeschlagen",
					zap.String("code", pr.Code), zap.String("source", pr.Name), zap.Error(err))
				stats.Errors++
				continue
			}
			if added {
				stats.Linked++
			} else {
				stats.Skipped++
			}
		}
		return nil
	})
}

// linkAuthors löst die gesammelten Autor↔Eintrag-Paare auf.
func (s *LoadService) linkAuthors(ctx context.Context, st *runState, stats *PhaseStats) error {
	return s.Sink.Phase(ctx, "link_authors", func(tx *gorm.DB) error {
		for _, pr := range st.authorPairs {
			a, known := st.interner.KnownAuthor(pr.Name)
			if !known {
				stats.Skipped++
				continue
			}
			e, found, err := st.linker.Entry(tx, pr.Code)
			if err != nil {
				return err
			}
			if !found {
				stats.Missing++
				continue
			}
			added, err := st.linker.AttachAuthor(tx, e, a)
			if err != nil {
				s.Logger.Warn("Autor-Verknüpfung fehlgeschlagen",
					zap.String("code", pr.Code), zap.String("author", pr.Name), zap.Error(err))
				stats.Errors++
				continue
			}
			if added {
				stats.Linked++
			} else {
				stats.Skipped++
			}
		}
		return nil
	})
}
