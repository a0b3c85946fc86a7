package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"pdb"`

	// Verzeichnis mit den Eingabedateien (author.idx, source.idx,
	// entries.idx, pdb_entry_type.txt, pdb_seqres.txt).
	InputDir string `envconfig:"INPUT_DIR" default:"."`

	// Nur das Schema anlegen und beenden, keine Daten laden.
	BuildSchemaOnly bool `envconfig:"BUILD_SCHEMA_ONLY" default:"false"`

	// Optionales Pushgateway für Batch-Job-Metriken. Leer = kein Push.
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	MetricsJob     string `envconfig:"METRICS_JOB" default:"pdb-loader"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
