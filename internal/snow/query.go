package snow

import (
	"regexp"
	"strings"
)

var sysIDRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// IsSysID reports whether id has the shape of a sys_id (32 lowercase hex
// characters) rather than a record number.
func IsSysID(id string) bool {
	return sysIDRegex.MatchString(id)
}

// Query builds a sysparm_query expression: predicates joined by carets,
// with ^OR for disjunction within a predicate.
type Query struct {
	parts []string
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Eq appends a field-equality predicate.
func (q *Query) Eq(field, value string) *Query {
	q.parts = append(q.parts, field+"="+value)
	return q
}

// Like appends a substring-match predicate.
func (q *Query) Like(field, value string) *Query {
	q.parts = append(q.parts, field+"LIKE"+value)
	return q
}

// OrLike extends the most recent predicate with a LIKE disjunct.
func (q *Query) OrLike(field, value string) *Query {
	if len(q.parts) == 0 {
		return q.Like(field, value)
	}
	last := len(q.parts) - 1
	q.parts[last] += "^OR" + field + "LIKE" + value
	return q
}

// Empty reports whether no predicates have been added.
func (q *Query) Empty() bool {
	return q == nil || len(q.parts) == 0
}

func (q *Query) String() string {
	if q == nil {
		return ""
	}
	return strings.Join(q.parts, "^")
}
