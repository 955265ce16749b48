package storage

import (
	"strconv"
	"strings"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name          string
	driver        string
	numbered      bool // $1, $2 placeholders instead of ?
	serialPK      string
	timestampType string
	isConflict    func(error) bool
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
