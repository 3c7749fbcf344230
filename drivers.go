package jareth

// Drivers for the connection string schemes New understands.  postgres and
// mysql are registered by the packages imported elsewhere for quoting and DSN
// handling.
import (
	_ "github.com/mattn/go-sqlite3"
)
