package jareth

import (
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// bindvar returns the n-th (1-based) positional placeholder for a driver's
// bindvar type, as reported by sqlx.BindType.
func bindvar(bindType, n int) string {
	switch bindType {
	case sqlx.DOLLAR:
		return "$" + strconv.Itoa(n)
	case sqlx.AT:
		return "@p" + strconv.Itoa(n)
	case sqlx.NAMED:
		return ":p" + strconv.Itoa(n)
	}
	return "?"
}

// quoteIdentifier quotes name as an SQL identifier for the driver.
func quoteIdentifier(driverName, name string) string {
	switch sqlx.BindType(driverName) {
	case sqlx.DOLLAR:
		return pq.QuoteIdentifier(name)
	}
	if driverName == "mysql" {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
