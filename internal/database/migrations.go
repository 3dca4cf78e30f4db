package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddIndexes adds indexes beyond what AutoMigrate declares: query indexes
// plus the partial unique backstop for live task titles. Postgres only;
// elsewhere the service-layer checks are the sole enforcement.
func AddIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		table   string
		name    string
		columns string
		unique  bool
		where   string
	}{
		// Titles are unique among live tasks only; a soft-deleted row
		// releases its title
		{"tasks", "uniq_tasks_live_title", "title", true, "deleted_at IS NULL"},

		// Task indexes for board queries and the auto-assigner
		{"tasks", "idx_tasks_org_status", "organization_id, status", false, ""},
		{"tasks", "idx_tasks_org_assigned", "organization_id, assigned_user_id", false, ""},
		{"tasks", "idx_tasks_created_at", "created_at", false, ""},

		// Activity feed is always read per-organization, newest first
		{"activities", "idx_activities_org_created", "organization_id, created_at", false, ""},

		// Membership snapshot lookups
		{"organization_members", "idx_org_members_user_id", "user_id", false, ""},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		stmt := "CREATE INDEX"
		if idx.unique {
			stmt = "CREATE UNIQUE INDEX"
		}
		sql := fmt.Sprintf("%s %s ON %s (%s)", stmt, idx.name, idx.table, idx.columns)
		if idx.where != "" {
			sql += " WHERE " + idx.where
		}
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Info("created index")
	}

	return nil
}
