package repository

import "strings"

// Page is a LIMIT/OFFSET window.  Callers validate the bounds.
type Page struct {
	Limit  int
	Offset int
}

// Order is an ORDER BY instruction on a whitelisted column.  An empty
// Column falls back to the query's default order.
type Order struct {
	Column string
	Desc   bool
}

// sql renders the ORDER BY list.  idCol is appended as a tie-break so that
// LIMIT/OFFSET windows stay stable when sort keys repeat.
func (o Order) sql(allowed map[string]string, fallback, idCol string) string {
	col, ok := allowed[o.Column]
	if !ok {
		return fallback + ", " + idCol + " ASC"
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", " + idCol + " ASC"
}

// conds accumulates AND-combined predicates and their arguments.
type conds struct {
	where []string
	args  []any
}

// contains adds a case-insensitive substring match on col.  LIKE wildcards
// in v are escaped so they match literally.
func (c *conds) contains(col, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	c.where = append(c.where, "LOWER("+col+") LIKE ? ESCAPE '!'")
	c.args = append(c.args, likeArg(v))
}

// anyContains adds one predicate matching v in any of cols.
func (c *conds) anyContains(v string, cols ...string) {
	v = strings.TrimSpace(v)
	if v == "" || len(cols) == 0 {
		return
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, "LOWER("+col+") LIKE ? ESCAPE '!'")
		c.args = append(c.args, likeArg(v))
	}
	c.where = append(c.where, "("+strings.Join(parts, " OR ")+")")
}

func (c *conds) equals(col string, v any) {
	c.where = append(c.where, col+" = ?")
	c.args = append(c.args, v)
}

func (c *conds) sql() string {
	if len(c.where) == 0 {
		return "1=1"
	}
	return strings.Join(c.where, " AND ")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likeArg(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}
