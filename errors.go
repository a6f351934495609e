package tablesync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrClosed   = errors.New("tablesync: database closed")
	errReadOnly = errors.New("tx not writable")
	errEmptyKey = errors.New("empty key")
)

type TableError struct {
	Table *Table
	Key   string
	Msg   string
	Err   error
}

func tableErrf(tbl *Table, key string, err error, format string, args ...any) error {
	return &TableError{tbl, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table.Name())
	if e.Key != "" {
		buf.WriteByte('/')
		buf.WriteString(e.Key)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
