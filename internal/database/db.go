package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// dialectorFor picks the driver from the DSN. sqlite://path and file: DSNs
// select SQLite, everything else is handed to PostgreSQL.
func dialectorFor(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// Connect establishes a connection to the report store
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	DB, err = gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established (%s)", DB.Dialector.Name())
	return nil
}

// Models lists every persisted model in migration order
func Models() []interface{} {
	return []interface{}{
		&Incident{},
		&IncidentTypeConfig{},
		&Reporter{},
		&IncidentMerge{},
		&IncidentMessage{},
		&DuplicateSettings{},
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	if err := migrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist.
// typesFile is an optional YAML catalog; the built-in catalog is used when empty.
func InitializeDefaults(typesFile string) error {
	log.Println("Initializing default database records...")

	if _, err := GetOrCreateDuplicateSettings(DB); err != nil {
		return fmt.Errorf("failed to create default duplicate settings: %w", err)
	}

	types := DefaultIncidentTypes()
	if typesFile != "" {
		loaded, err := LoadIncidentTypesFile(typesFile)
		if err != nil {
			return fmt.Errorf("failed to load incident types: %w", err)
		}
		types = loaded
	}

	created, err := SeedIncidentTypes(DB, types)
	if err != nil {
		return fmt.Errorf("failed to seed incident types: %w", err)
	}
	if created > 0 {
		log.Printf("Seeded %d incident types", created)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetOrCreateDuplicateSettings retrieves or creates duplicate settings (singleton).
// Takes a db parameter so callers can pass a transaction or a test database.
func GetOrCreateDuplicateSettings(db *gorm.DB) (*DuplicateSettings, error) {
	var settings DuplicateSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultDuplicateSettings()
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateDuplicateSettings saves duplicate settings.
// Uses Save() which handles both insert and update operations.
func UpdateDuplicateSettings(db *gorm.DB, settings *DuplicateSettings) error {
	return db.Save(settings).Error
}
