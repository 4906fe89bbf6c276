// Package sqldb implements the core storage interfaces with prepared
// statements over database/sql. Statements are written with "?"
// placeholders and rewritten for the postgres driver.
package sqldb

import (
	"database/sql"
	"fmt"
	"strings"
)

func mustPrepare(db *sql.DB, driver, query string) *sql.Stmt {
	stmt, err := db.Prepare(rebind(driver, query))
	if err != nil {
		panic(fmt.Sprintf("preparing %q: %v", query, err))
	}
	return stmt
}

// rebind rewrites "?" placeholders to "$1".."$n" for postgres.
// None of our statements contain a literal question mark.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	var n int
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// idColumn returns the auto-increment primary key DDL for the driver.
func idColumn(driver string) string {
	switch driver {
	case "postgres":
		return "id SERIAL PRIMARY KEY"
	case "mysql":
		return "id INTEGER PRIMARY KEY AUTO_INCREMENT"
	default: // sqlite3
		return "id INTEGER PRIMARY KEY"
	}
}
