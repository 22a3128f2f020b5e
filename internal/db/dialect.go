package db

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dialect identifiers supported by the database layer.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// CaseInsensitiveLikeExpr returns a SQL expression for case-insensitive LIKE.
// The bound pattern is expected in lower case.
func CaseInsensitiveLikeExpr(conn *gorm.DB, column string) string {
	if DialectName(conn) == DialectPostgres {
		return fmt.Sprintf("%s ILIKE ?", column)
	}
	return fmt.Sprintf("LOWER(%s) LIKE ?", column)
}

// JSONArrayContainsExpr returns a SQL expression testing whether a JSON string array holds a value.
func JSONArrayContainsExpr(conn *gorm.DB, column string) string {
	switch DialectName(conn) {
	case DialectPostgres:
		return fmt.Sprintf("%s @> ?", column)
	case DialectMySQL:
		return fmt.Sprintf("JSON_CONTAINS(%s, ?)", column)
	default:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE value = ?)", column)
	}
}

// JSONArrayContainsValue returns the bind value matching JSONArrayContainsExpr.
func JSONArrayContainsValue(conn *gorm.DB, value string) any {
	switch DialectName(conn) {
	case DialectPostgres:
		b, _ := json.Marshal([]string{value})
		return datatypes.JSON(b)
	case DialectMySQL:
		b, _ := json.Marshal(value)
		return string(b)
	default:
		return value
	}
}
