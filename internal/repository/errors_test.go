package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsMySQLErrMatchesByNumber(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'abc123' for key 'sales.access_code'"}
	if !isMySQLErr(dup, mysqlErrDupEntry) {
		t.Fatal("duplicate entry error not recognized")
	}
	if isMySQLErr(dup, mysqlErrRowReferenced) {
		t.Fatal("1062 matched the 1451 check")
	}

	wrapped := fmt.Errorf("sale create: %w", dup)
	if !isMySQLErr(wrapped, mysqlErrDupEntry) {
		t.Fatal("wrapped driver error not recognized")
	}
}

func TestIsMySQLErrIgnoresErrorText(t *testing.T) {
	// An error that merely mentions the number in its text is not a
	// server error and must not be classified as one.
	impostor := errors.New("write failed after 1062 ms")
	if isMySQLErr(impostor, mysqlErrDupEntry) {
		t.Fatal("plain error text mistaken for a MySQL error number")
	}
}
