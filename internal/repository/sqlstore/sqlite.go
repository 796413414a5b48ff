package sqlstore

import (
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

// sqliteDialector declares decimal columns as TEXT. A decimal(p,s) column
// has NUMERIC affinity in SQLite, which converts stored values to REAL and
// keeps only 15 significant digits.
type sqliteDialector struct {
	*gormsqlite.Dialector
}

func openSQLite(dsn string) gorm.Dialector {
	return sqliteDialector{Dialector: &gormsqlite.Dialector{DSN: dsn}}
}

func (d sqliteDialector) DataTypeOf(field *schema.Field) string {
	if isDecimalType(field.DataType) {
		return "text"
	}
	return d.Dialector.DataTypeOf(field)
}

// Migrator mirrors gormsqlite's so DDL goes through DataTypeOf above.
func (d sqliteDialector) Migrator(db *gorm.DB) gorm.Migrator {
	return gormsqlite.Migrator{Migrator: migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   d,
		CreateIndexAfterCreateTable: true,
	}}}
}

func isDecimalType(t schema.DataType) bool {
	name := strings.ToLower(strings.TrimSpace(string(t)))
	return strings.HasPrefix(name, "decimal") || strings.HasPrefix(name, "numeric")
}
