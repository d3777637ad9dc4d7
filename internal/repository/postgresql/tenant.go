package postgresql

import (
	"fmt"
	"strings"
)

// whereBuilder assembles a numbered-placeholder WHERE clause. The first condition is always the
// tenant column, so every query it builds is scoped to one company.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func tenantWhere(column, companyID string) *whereBuilder {
	return &whereBuilder{
		conds: []string{column + " = $1"},
		args:  []interface{}{companyID},
	}
}

// and appends cond, where %d is replaced by the next placeholder index.
func (b *whereBuilder) and(cond string, arg interface{}) *whereBuilder {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf(cond, len(b.args)))
	return b
}

// raw appends a condition that takes no argument.
func (b *whereBuilder) raw(cond string) *whereBuilder {
	b.conds = append(b.conds, cond)
	return b
}

func (b *whereBuilder) String() string {
	return strings.Join(b.conds, " AND ")
}

// next returns the next free placeholder index, used for LIMIT/OFFSET.
func (b *whereBuilder) next() int {
	return len(b.args) + 1
}

// paged appends limit and offset and returns the "LIMIT $n OFFSET $m" suffix.
func (b *whereBuilder) paged(limit, offset int) (string, []interface{}) {
	n := b.next()
	args := append(append([]interface{}{}, b.args...), limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n, n+1), args
}
