package main

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdb-loader/config"
	"pdb-loader/loader"
	"pdb-loader/storage"
)

var (
	recordsTotal *prometheus.CounterVec
	loadDuration prometheus.Gauge
	loadSuccess  prometheus.Gauge
)

func init() {
	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdb_load_records_total",
			Help: "Number of records handled per load phase and result.",
		},
		[]string{"phase", "result"},
	)
	loadDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdb_load_duration_seconds",
			Help: "Wall clock duration of the last load run.",
		},
	)
	loadSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdb_load_success",
			Help: "1 if the last load run completed all phases, 0 otherwise.",
		},
	)
	prometheus.MustRegister(recordsTotal, loadDuration, loadSuccess)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to PDB database.")

	sink := storage.NewSink(db, logging)

	logging.Info("Running database auto-migration...")
	if err := sink.Migrate(); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}
	if cfg.BuildSchemaOnly {
		logging.Info("Schema provisioned, exiting (BUILD_SCHEMA_ONLY).")
		return
	}

	loadService := loader.NewLoadService(cfg, sink, logging)

	start := time.Now()
	report, runErr := loadService.Run(context.Background())
	elapsed := time.Since(start)

	recordReport(report, elapsed, runErr == nil)
	pushMetrics(cfg, logging)

	for _, ph := range report.Phases {
		logging.Info("Phase result",
			zap.String("phase", ph.Phase),
			zap.Int("created", ph.Created),
			zap.Int("linked", ph.Linked),
			zap.Int("skipped", ph.Skipped),
			zap.Int("missing", ph.Missing),
			zap.Int("errors", ph.Errors),
		)
	}
	if runErr != nil {
		// Bereits committete Phasen bleiben bestehen, der Bestand ist
		// unvollständig — der nächste erfolgreiche Lauf räumt auf.
		logging.Fatal("Load aborted, store is partially loaded", zap.Error(runErr))
	}
	logging.Info("Load completed", zap.Duration("elapsed", elapsed))
}

// recordReport überträgt die Kennzahlen eines Laufs in die Prometheus-Metriken.
func recordReport(report *loader.Report, elapsed time.Duration, ok bool) {
	for _, ph := range report.Phases {
		recordsTotal.WithLabelValues(ph.Phase, "created").Add(float64(ph.Created))
		recordsTotal.WithLabelValues(ph.Phase, "linked").Add(float64(ph.Linked))
		recordsTotal.WithLabelValues(ph.Phase, "skipped").Add(float64(ph.Skipped))
		recordsTotal.WithLabelValues(ph.Phase, "missing").Add(float64(ph.Missing))
		recordsTotal.WithLabelValues(ph.Phase, "errors").Add(float64(ph.Errors))
	}
	loadDuration.Set(elapsed.Seconds())
	if ok {
		loadSuccess.Set(1)
	} else {
		loadSuccess.Set(0)
	}
}

// pushMetrics schiebt die Metriken des Batch-Laufs an ein Pushgateway,
// sofern konfiguriert. Ein Fehlschlag ist kein Grund, den Lauf scheitern
// zu lassen.
func pushMetrics(cfg *config.Config, logging *zap.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := push.New(cfg.PushgatewayURL, cfg.MetricsJob).
		Gatherer(prometheus.DefaultGatherer).
		Push(); err != nil {
		logging.Warn("Pushgateway push failed", zap.Error(err))
	}
}
