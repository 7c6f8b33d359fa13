package migrations

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Migration is a named data migration run after AutoMigrate.
type Migration struct {
	Name string
	Fn   func(*gorm.DB) error
}

// applied records which migrations already ran so each runs once per database.
type applied struct {
	Name      string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"not null"`
}

func (applied) TableName() string { return "schema_migrations" }

var (
	registryMu sync.RWMutex
	registry   []Migration
)

// Register adds a migration in FIFO order. Registering a name twice is a no-op.
func Register(name string, fn func(*gorm.DB) error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, existing := range registry {
		if existing.Name == name {
			return
		}
	}
	registry = append(registry, Migration{Name: name, Fn: fn})
}

// Registered returns a snapshot of the registered migrations.
func Registered() []Migration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Migration, len(registry))
	copy(out, registry)
	return out
}

// Run executes pending migrations sequentially, each in its own transaction.
func Run(db *gorm.DB, log *slog.Logger) error {
	pending := Registered()
	if len(pending) == 0 {
		if log != nil {
			log.Info("no database migrations registered")
		}
		return nil
	}

	if err := db.AutoMigrate(&applied{}); err != nil {
		return fmt.Errorf("prepare schema_migrations: %w", err)
	}

	for _, migration := range pending {
		var count int64
		if err := db.Model(&applied{}).Where("name = ?", migration.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", migration.Name, err)
		}
		if count > 0 {
			continue
		}

		if log != nil {
			log.Info("running migration", slog.String("name", migration.Name))
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Fn(tx); err != nil {
				return err
			}
			return tx.Create(&applied{Name: migration.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		if log != nil {
			log.Info("migration completed", slog.String("name", migration.Name))
		}
	}

	return nil
}
