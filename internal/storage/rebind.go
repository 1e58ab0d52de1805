package storage

import (
	"strconv"
	"strings"
)

// Bind styles for Rebind.
const (
	BindQuestion = iota // ? (sqlite)
	BindDollar          // $1 (postgres)
	BindAt              // @p1 (sqlserver)
)

// Rebind rewrites '?' placeholders in query to the target bind style.
//
// Quoted regions are respected for single quotes and double quotes; the
// query catalog never embeds '?' in literals, but resolver SQL quotes
// identifiers that could in principle contain one.
func Rebind(style int, query string) string {
	if style == BindQuestion {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 10)

	n := 0
	inSingle, inDouble := false, false
	for _, r := range query {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == '?' && !inSingle && !inDouble:
			n++
			if style == BindDollar {
				b.WriteByte('$')
			} else {
				b.WriteString("@p")
			}
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
