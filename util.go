package tablesync

import (
	"encoding/json"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func loggableRow(tbl *Table, row any) string {
	if row == nil {
		return "<none>"
	}
	if tbl.suppressContent {
		return "<suppressed>"
	}
	data, err := json.Marshal(row)
	if err != nil {
		return "<unmarshalable>"
	}
	return string(data)
}
