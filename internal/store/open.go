package store

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"lumonew/internal/audit"
	"lumonew/internal/config"
)

// Open returns the AuditStore selected by AUDIT_STORE. db is required only
// for the database backend.
func Open(cfg *config.Config, db *gorm.DB, clock audit.Clock) (AuditStore, error) {
	switch cfg.AuditStore {
	case config.StoreREST:
		client := &http.Client{Timeout: cfg.RequestTimeout}
		return NewRESTStore(cfg.StoreURL, cfg.StoreAPIKey, client, clock), nil
	case config.StoreDatabase, "":
		if db == nil {
			return nil, fmt.Errorf("audit store %q needs a database connection", config.StoreDatabase)
		}
		return NewGormStore(db, clock), nil
	default:
		return nil, fmt.Errorf("unknown audit store %q", cfg.AuditStore)
	}
}
