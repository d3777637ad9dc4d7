package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantWhere(t *testing.T) {
	b := tenantWhere("a.company_id", "c1").
		and("a.employee_id = $%d", "e1").
		and("a.date >= $%d::date", "2025-03-01")

	assert.Equal(t, "a.company_id = $1 AND a.employee_id = $2 AND a.date >= $3::date", b.String())

	suffix, args := b.paged(20, 40)
	assert.Equal(t, "LIMIT $4 OFFSET $5", suffix)
	assert.Equal(t, []interface{}{"c1", "e1", "2025-03-01", 20, 40}, args)
	// the builder's own args are untouched
	assert.Len(t, b.args, 3)
}

func TestTenantWhere_OnlyTenant(t *testing.T) {
	b := tenantWhere("company_id", "c2")
	assert.Equal(t, "company_id = $1", b.String())
	assert.Equal(t, []interface{}{"c2"}, b.args)
}
