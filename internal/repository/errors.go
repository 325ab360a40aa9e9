// Package repository implements the reservation storage ports on MySQL.
// Driver errors are wrapped with context; the few conditions the core
// reacts to are translated to the reservation package's sentinels.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlDuplicateEntry  = 1062
)

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool {
	return mysqlErrorIs(err, mysqlDuplicateEntry)
}

// isLockConflict reports whether InnoDB aborted the statement because of a
// competing lock.  The transaction has been rolled back by the server.
func isLockConflict(err error) bool {
	return mysqlErrorIs(err, mysqlDeadlock, mysqlLockWaitTimeout)
}

func mysqlErrorIs(err error, numbers ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, n := range numbers {
		if me.Number == n {
			return true
		}
	}
	return false
}
