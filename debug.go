package tablesync

import (
	"encoding/json"
	"fmt"
	"strings"
)

var dumpSep = strings.Repeat("=", 80)

// FormatChanges renders a batch on one line, e.g. "delete(0.1), update(0.2)".
func FormatChanges(changes []Change) string {
	var buf strings.Builder
	for i, chg := range changes {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(chg.String())
	}
	return buf.String()
}

// Dump renders the rows of the given tables, one line per row. Row contents
// are decoded into generic msgpack values.
func (tx *Tx) Dump(tables ...*Table) string {
	var buf strings.Builder
	for _, tbl := range tables {
		fmt.Fprintln(&buf, dumpSep)
		fmt.Fprintf(&buf, "%s (%d rows)\n", tbl.Name(), Count(tx, tbl))
		var pos int
		scanRaw(tx, tbl, func(key string, data []byte) bool {
			pos++
			row, err := decodeRow[map[string]any](tbl, key, data)
			if err != nil {
				fmt.Fprintf(&buf, "%s.%d %s ** ERROR: %v\n", tbl.Name(), pos, key, err)
				return true
			}
			if tbl.suppressContent {
				fmt.Fprintf(&buf, "%s.%d %s = <suppressed>\n", tbl.Name(), pos, key)
			} else {
				fmt.Fprintf(&buf, "%s.%d %s = %s\n", tbl.Name(), pos, key, must(json.Marshal(*row)))
			}
			return true
		})
	}
	return buf.String()
}
