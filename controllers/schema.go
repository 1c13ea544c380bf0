package controllers

import (
	"sync"

	"gorm.io/gorm"

	"dojoadmin_go/migrations"
)

// coreTables are the tables whose write paths go through the normalizer.
var coreTables = []string{"students", "payments", "expenses", "leads", "attendance"}

var (
	schemaMu       sync.RWMutex
	schemaSnapshot map[string]map[string]bool
)

// InitSchema captures the live column sets once, after migration, so
// write requests validate against a stable snapshot instead of
// re-introspecting the store on every call.
func InitSchema(db *gorm.DB) error {
	snapshot := make(map[string]map[string]bool, len(coreTables))
	for _, table := range coreTables {
		cols, err := migrations.TableColumns(db, table)
		if err != nil {
			return err
		}
		snapshot[table] = cols
	}

	schemaMu.Lock()
	schemaSnapshot = snapshot
	schemaMu.Unlock()
	return nil
}

// tableColumns returns the snapshot column set for a table, falling back
// to a live lookup if the snapshot was never initialized (tests).
func tableColumns(db *gorm.DB, table string) (map[string]bool, error) {
	schemaMu.RLock()
	cols, ok := schemaSnapshot[table]
	schemaMu.RUnlock()
	if ok {
		return cols, nil
	}
	return migrations.TableColumns(db, table)
}
