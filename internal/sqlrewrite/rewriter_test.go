package sqlrewrite

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantsql/internal/sqlast"
	"tenantsql/internal/sqlparse"
	"tenantsql/internal/tenant"
)

func testPolicy() tenant.Policy {
	p := tenant.DefaultPolicy()
	p.IgnoredTables = tenant.NewTableSet("blade_region", "Blade_Log")
	return p
}

func userCtx() *tenant.Context  { return testPolicy().NewContext("T1", false) }
func adminCtx() *tenant.Context { return testPolicy().NewContext("000000", true) }

type rewriteCase struct {
	name string
	sql  string
	want string
}

func runRewriteCases(t *testing.T, tc *tenant.Context, tests []rewriteCase) {
	t.Helper()
	rw := New(slog.New(slog.DiscardHandler))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rw.RewriteSQL(tt.sql, tc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SQL)
		})
	}
}

func TestRewriteSQL_Select(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "existing_where",
			sql:  "SELECT * FROM orders WHERE id = 1",
			want: "SELECT * FROM orders WHERE id = 1 AND tenant_id = 'T1'",
		},
		{
			name: "or_is_parenthesized",
			sql:  "SELECT * FROM orders WHERE a = 1 OR b = 2",
			want: "SELECT * FROM orders WHERE (a = 1 OR b = 2) AND tenant_id = 'T1'",
		},
		{
			name: "no_where",
			sql:  "SELECT * FROM orders",
			want: "SELECT * FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "alias",
			sql:  "SELECT o.id FROM orders o",
			want: "SELECT o.id FROM orders o WHERE o.tenant_id = 'T1'",
		},
		{
			name: "keeps_trailing_clauses",
			sql:  "SELECT status, count(*) FROM orders GROUP BY status ORDER BY status LIMIT 5",
			want: "SELECT status, count(*) FROM orders WHERE tenant_id = 'T1' GROUP BY status ORDER BY status LIMIT 5",
		},
		{
			name: "where_in_subquery",
			sql:  "SELECT * FROM orders WHERE user_id IN (SELECT id FROM users WHERE active = true)",
			want: "SELECT * FROM orders WHERE user_id IN (SELECT id FROM users WHERE active = TRUE AND tenant_id = 'T1') AND tenant_id = 'T1'",
		},
		{
			name: "where_exists",
			sql:  "SELECT * FROM orders o WHERE EXISTS (SELECT 1 FROM users u WHERE u.id = o.user_id)",
			want: "SELECT * FROM orders o WHERE EXISTS (SELECT 1 FROM users u WHERE u.id = o.user_id AND u.tenant_id = 'T1') AND o.tenant_id = 'T1'",
		},
		{
			name: "derived_table",
			sql:  "SELECT * FROM (SELECT id FROM orders) sub",
			want: "SELECT * FROM (SELECT id FROM orders WHERE tenant_id = 'T1') sub",
		},
		{
			name: "scalar_subquery_item",
			sql:  "SELECT id, (SELECT count(*) FROM items i WHERE i.order_id = o.id) AS n FROM orders o",
			want: "SELECT id, (SELECT count(*) FROM items i WHERE i.order_id = o.id AND i.tenant_id = 'T1') AS n FROM orders o WHERE o.tenant_id = 'T1'",
		},
		{
			name: "function_argument_subquery",
			sql:  "SELECT coalesce((SELECT max(amount) FROM payments), 0) FROM orders",
			want: "SELECT COALESCE((SELECT max(amount) FROM payments WHERE tenant_id = 'T1'), 0) FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "union_branches",
			sql:  "SELECT id FROM orders UNION SELECT id FROM archived_orders",
			want: "SELECT id FROM orders WHERE tenant_id = 'T1' UNION SELECT id FROM archived_orders WHERE tenant_id = 'T1'",
		},
		{
			name: "cte_reference_not_filtered",
			sql:  "WITH recent AS (SELECT id FROM orders WHERE created > 10) SELECT * FROM recent",
			want: "WITH recent AS (SELECT id FROM orders WHERE created > 10 AND tenant_id = 'T1') SELECT * FROM recent",
		},
		{
			name: "cte_joined_with_table",
			sql:  "WITH r AS (SELECT id FROM orders) SELECT * FROM r JOIN users u ON u.id = r.id",
			want: "WITH r AS (SELECT id FROM orders WHERE tenant_id = 'T1') SELECT * FROM r JOIN users u ON u.id = r.id AND u.tenant_id = 'T1'",
		},
	})
}

func TestRewriteSQL_Joins(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "inner_join_each_alias",
			sql:  "SELECT * FROM orders o JOIN users u ON o.user_id = u.id",
			want: "SELECT * FROM orders o JOIN users u ON o.user_id = u.id AND u.tenant_id = 'T1' WHERE o.tenant_id = 'T1'",
		},
		{
			name: "left_join_or_condition",
			sql:  "SELECT * FROM orders o LEFT JOIN users u ON o.user_id = u.id OR o.owner_id = u.id",
			want: "SELECT * FROM orders o LEFT JOIN users u ON (o.user_id = u.id OR o.owner_id = u.id) AND u.tenant_id = 'T1' WHERE o.tenant_id = 'T1'",
		},
		{
			name: "ignored_joined_table",
			sql:  "SELECT * FROM orders o JOIN blade_region r ON o.region_id = r.id",
			want: "SELECT * FROM orders o JOIN blade_region r ON o.region_id = r.id WHERE o.tenant_id = 'T1'",
		},
		{
			name: "comma_join",
			sql:  "SELECT * FROM orders o, users u WHERE o.user_id = u.id",
			want: "SELECT * FROM orders o, users u WHERE o.user_id = u.id AND o.tenant_id = 'T1' AND u.tenant_id = 'T1'",
		},
		{
			name: "join_using",
			sql:  "SELECT * FROM orders JOIN order_notes USING (order_id)",
			want: "SELECT * FROM orders JOIN order_notes USING (order_id) WHERE orders.tenant_id = 'T1' AND order_notes.tenant_id = 'T1'",
		},
		{
			name: "join_subquery",
			sql:  "SELECT * FROM orders o JOIN (SELECT id FROM users) u ON u.id = o.user_id",
			want: "SELECT * FROM orders o JOIN (SELECT id FROM users WHERE tenant_id = 'T1') u ON u.id = o.user_id WHERE o.tenant_id = 'T1'",
		},
		{
			name: "on_clause_subquery",
			sql:  "SELECT * FROM orders o JOIN users u ON u.id = o.user_id AND u.id IN (SELECT user_id FROM vips)",
			want: "SELECT * FROM orders o JOIN users u ON u.id = o.user_id AND u.id IN (SELECT user_id FROM vips WHERE tenant_id = 'T1') AND u.tenant_id = 'T1' WHERE o.tenant_id = 'T1'",
		},
	})
}

func TestRewriteSQL_TrailingClauseSubqueries(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "order_by",
			sql:  "SELECT id FROM orders ORDER BY (SELECT max(amount) FROM invoices)",
			want: "SELECT id FROM orders WHERE tenant_id = 'T1' ORDER BY (SELECT max(amount) FROM invoices WHERE tenant_id = 'T1')",
		},
		{
			name: "group_by",
			sql:  "SELECT count(*) FROM orders GROUP BY (SELECT max(code) FROM regions)",
			want: "SELECT count(*) FROM orders WHERE tenant_id = 'T1' GROUP BY (SELECT max(code) FROM regions WHERE tenant_id = 'T1')",
		},
		{
			name: "limit",
			sql:  "SELECT id FROM orders LIMIT (SELECT count(*) FROM invoices)",
			want: "SELECT id FROM orders WHERE tenant_id = 'T1' LIMIT (SELECT count(*) FROM invoices WHERE tenant_id = 'T1')",
		},
		{
			name: "offset",
			sql:  "SELECT id FROM orders LIMIT 10 OFFSET (SELECT count(*) FROM invoices)",
			want: "SELECT id FROM orders WHERE tenant_id = 'T1' LIMIT 10 OFFSET (SELECT count(*) FROM invoices WHERE tenant_id = 'T1')",
		},
		{
			name: "delete_returning",
			sql:  "DELETE FROM orders WHERE id = 1 RETURNING (SELECT secret FROM invoices LIMIT 1)",
			want: "DELETE FROM orders WHERE id = 1 AND tenant_id = 'T1' RETURNING (SELECT secret FROM invoices WHERE tenant_id = 'T1' LIMIT 1)",
		},
		{
			name: "update_returning",
			sql:  "UPDATE orders SET status = 'paid' WHERE id = 1 RETURNING (SELECT secret FROM invoices LIMIT 1)",
			want: "UPDATE orders SET status = 'paid' WHERE id = 1 AND tenant_id = 'T1' RETURNING (SELECT secret FROM invoices WHERE tenant_id = 'T1' LIMIT 1)",
		},
		{
			name: "insert_values_subquery",
			sql:  "INSERT INTO orders (id, note) VALUES (1, (SELECT secret FROM invoices LIMIT 1))",
			want: "INSERT INTO orders (id, note, tenant_id) VALUES (1, (SELECT secret FROM invoices WHERE tenant_id = 'T1' LIMIT 1), 'T1')",
		},
		{
			name: "insert_returning",
			sql:  "INSERT INTO orders (id) VALUES (1) RETURNING (SELECT count(*) FROM invoices)",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, 'T1') RETURNING (SELECT count(*) FROM invoices WHERE tenant_id = 'T1')",
		},
	})
}

func TestRewriteSQL_InsertSourceAlwaysFiltered(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "ignored_target",
			sql:  "INSERT INTO blade_region (id) SELECT id FROM orders",
			want: "INSERT INTO blade_region (id) SELECT id FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "positional_insert",
			sql:  "INSERT INTO archive SELECT * FROM orders",
			want: "INSERT INTO archive SELECT * FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "tenant_column_present",
			sql:  "INSERT INTO archive (id, tenant_id) SELECT id, tenant_id FROM orders",
			want: "INSERT INTO archive (id, tenant_id) SELECT id, tenant_id FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "ignored_target_values_subquery",
			sql:  "INSERT INTO blade_region (id) VALUES ((SELECT max(id) FROM orders))",
			want: "INSERT INTO blade_region (id) VALUES ((SELECT max(id) FROM orders WHERE tenant_id = 'T1'))",
		},
	})
}

func TestRewriteSQL_IgnoredTablesUntouched(t *testing.T) {
	rw := New(nil)
	for _, tc := range []*tenant.Context{userCtx(), adminCtx()} {
		for _, sql := range []string{
			"SELECT * FROM blade_region WHERE id = 1",
			`SELECT * FROM "BLADE_LOG"`,
			"INSERT INTO blade_region (id) VALUES (1)",
			"UPDATE blade_region SET name = 'x' WHERE a = 1 OR b = 2",
			"DELETE FROM blade_region WHERE id IN (SELECT region_id FROM orders)",
		} {
			res, err := rw.RewriteSQL(sql, tc)
			require.NoError(t, err)
			assert.False(t, res.Changed, sql)
			assert.Equal(t, sql, res.SQL)
		}
	}
}

func TestRewriteSQL_Administrator(t *testing.T) {
	runRewriteCases(t, adminCtx(), []rewriteCase{
		{
			name: "select_tautology",
			sql:  "SELECT * FROM orders WHERE id = 1",
			want: "SELECT * FROM orders WHERE id = 1 AND '1' = '1'",
		},
		{
			name: "privileged_table_filtered",
			sql:  "SELECT * FROM blade_top_menu WHERE id = 1",
			want: "SELECT * FROM blade_top_menu WHERE id = 1 AND tenant_id = '000000'",
		},
		{
			name: "mixed_join",
			sql:  "SELECT * FROM orders o JOIN blade_dict_biz d ON d.code = o.status",
			want: "SELECT * FROM orders o JOIN blade_dict_biz d ON d.code = o.status AND d.tenant_id = '000000' WHERE '1' = '1'",
		},
		{
			name: "update_skipped",
			sql:  "UPDATE orders SET status = 'paid' WHERE id = 1",
			want: "UPDATE orders SET status = 'paid' WHERE id = 1",
		},
		{
			name: "delete_skipped",
			sql:  "DELETE FROM orders WHERE id = 1",
			want: "DELETE FROM orders WHERE id = 1",
		},
		{
			name: "update_privileged",
			sql:  "UPDATE blade_dict_biz SET v = 1",
			want: "UPDATE blade_dict_biz SET v = 1 WHERE tenant_id = '000000'",
		},
		{
			name: "insert_still_stamped",
			sql:  "INSERT INTO orders (id) VALUES (1)",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, '000000')",
		},
	})
}

func TestRewriteSQL_Insert(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "values",
			sql:  "INSERT INTO orders (id, amount) VALUES (1, 10)",
			want: "INSERT INTO orders (id, amount, tenant_id) VALUES (1, 10, 'T1')",
		},
		{
			name: "multi_row",
			sql:  "INSERT INTO orders (id) VALUES (1), (2), (3)",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, 'T1'), (2, 'T1'), (3, 'T1')",
		},
		{
			name: "tenant_column_present",
			sql:  "INSERT INTO orders (id, tenant_id) VALUES (1, 'T9')",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, 'T9')",
		},
		{
			name: "tenant_column_present_other_case",
			sql:  `INSERT INTO orders (id, "TENANT_ID") VALUES (1, 'T9')`,
			want: `INSERT INTO orders (id, "TENANT_ID") VALUES (1, 'T9')`,
		},
		{
			name: "no_column_list",
			sql:  "INSERT INTO orders VALUES (1, 10)",
			want: "INSERT INTO orders VALUES (1, 10)",
		},
		{
			name: "select_source",
			sql:  "INSERT INTO orders (id) SELECT id FROM staged_orders WHERE ok = true",
			want: "INSERT INTO orders (id, tenant_id) SELECT id, 'T1' FROM staged_orders WHERE ok = TRUE AND tenant_id = 'T1'",
		},
		{
			name: "select_source_union",
			sql:  "INSERT INTO orders (id) SELECT id FROM a UNION ALL SELECT id FROM b",
			want: "INSERT INTO orders (id, tenant_id) SELECT id, 'T1' FROM a WHERE tenant_id = 'T1' UNION ALL SELECT id, 'T1' FROM b WHERE tenant_id = 'T1'",
		},
		{
			name: "returning_kept",
			sql:  "INSERT INTO orders (id) VALUES (1) RETURNING id",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, 'T1') RETURNING id",
		},
	})
}

func TestRewriteSQL_LegacyInsert(t *testing.T) {
	p := testPolicy()
	p.EnhanceInsert = false

	runRewriteCases(t, p.NewContext("T1", false), []rewriteCase{
		{
			name: "appends_without_presence_check",
			sql:  "INSERT INTO orders (id, tenant_id) VALUES (1, 'T9')",
			want: "INSERT INTO orders (id, tenant_id, tenant_id) VALUES (1, 'T9', 'T1')",
		},
		{
			name: "values",
			sql:  "INSERT INTO orders (id) VALUES (1), (2)",
			want: "INSERT INTO orders (id, tenant_id) VALUES (1, 'T1'), (2, 'T1')",
		},
		{
			name: "ignored_table",
			sql:  "INSERT INTO blade_region (id) VALUES (1)",
			want: "INSERT INTO blade_region (id) VALUES (1)",
		},
		{
			name: "no_column_list",
			sql:  "INSERT INTO orders VALUES (1)",
			want: "INSERT INTO orders VALUES (1)",
		},
	})
}

func TestRewrite_InsertRowsGetOwnLiteral(t *testing.T) {
	stmt, err := sqlparse.Parse("INSERT INTO orders (id) VALUES (1), (2)")
	require.NoError(t, err)

	_, err = New(nil).Rewrite(stmt, userCtx())
	require.NoError(t, err)

	ins := stmt.(*sqlast.InsertStmt)
	require.Len(t, ins.Values, 2)
	first := ins.Values[0][1]
	second := ins.Values[1][1]
	assert.Equal(t, sqlast.StringLit("T1"), first)
	assert.NotSame(t, first, second)
}

func TestRewrite_AmbiguousInsert(t *testing.T) {
	for _, enhance := range []bool{true, false} {
		p := testPolicy()
		p.EnhanceInsert = enhance

		stmt := &sqlast.InsertStmt{
			Table:   &sqlast.Table{Name: "orders"},
			Columns: []string{"id"},
		}
		_, err := New(nil).Rewrite(stmt, p.NewContext("T1", false))

		var ambiguous *AmbiguousInsertError
		require.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, "orders", ambiguous.Table)
		assert.Equal(t, []string{"id"}, stmt.Columns, "columns must not be touched on failure")
	}
}

func TestRewriteSQL_UpdateDelete(t *testing.T) {
	runRewriteCases(t, userCtx(), []rewriteCase{
		{
			name: "update",
			sql:  "UPDATE orders SET status = 'paid' WHERE id = 1",
			want: "UPDATE orders SET status = 'paid' WHERE id = 1 AND tenant_id = 'T1'",
		},
		{
			name: "update_or_where",
			sql:  "UPDATE orders SET status = 'x' WHERE a = 1 OR b = 2",
			want: "UPDATE orders SET status = 'x' WHERE (a = 1 OR b = 2) AND tenant_id = 'T1'",
		},
		{
			name: "update_alias_set_subquery",
			sql:  "UPDATE orders o SET total = (SELECT sum(amount) FROM items i WHERE i.order_id = o.id)",
			want: "UPDATE orders o SET total = (SELECT sum(amount) FROM items i WHERE i.order_id = o.id AND i.tenant_id = 'T1') WHERE o.tenant_id = 'T1'",
		},
		{
			name: "update_from",
			sql:  "UPDATE orders o SET status = u.status FROM users u WHERE u.id = o.user_id",
			want: "UPDATE orders o SET status = u.status FROM users u WHERE u.id = o.user_id AND o.tenant_id = 'T1' AND u.tenant_id = 'T1'",
		},
		{
			name: "delete_no_where",
			sql:  "DELETE FROM orders",
			want: "DELETE FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name: "delete_where_subquery",
			sql:  "DELETE FROM orders WHERE user_id IN (SELECT id FROM users WHERE banned = true)",
			want: "DELETE FROM orders WHERE user_id IN (SELECT id FROM users WHERE banned = TRUE AND tenant_id = 'T1') AND tenant_id = 'T1'",
		},
		{
			name: "update_from_unaliased",
			sql:  "UPDATE orders SET status = staged.status FROM staged WHERE staged.id = orders.id",
			want: "UPDATE orders SET status = staged.status FROM staged WHERE staged.id = orders.id AND orders.tenant_id = 'T1' AND staged.tenant_id = 'T1'",
		},
		{
			name: "delete_using_ignored",
			sql:  "DELETE FROM orders o USING blade_region r WHERE r.id = o.region_id",
			want: "DELETE FROM orders o USING blade_region r WHERE r.id = o.region_id AND o.tenant_id = 'T1'",
		},
	})
}

func TestRewriteSQL_QualifyUnaliased(t *testing.T) {
	p := testPolicy()
	p.QualifyUnaliased = true

	runRewriteCases(t, p.NewContext("T1", false), []rewriteCase{
		{
			name: "select",
			sql:  "SELECT * FROM orders",
			want: "SELECT * FROM orders WHERE orders.tenant_id = 'T1'",
		},
		{
			name: "alias_wins",
			sql:  "SELECT * FROM orders o",
			want: "SELECT * FROM orders o WHERE o.tenant_id = 'T1'",
		},
	})
}

func TestRewriteSQL_CustomColumn(t *testing.T) {
	p := testPolicy()
	p.Column = "org_id"

	runRewriteCases(t, p.NewContext("acme", false), []rewriteCase{
		{"select", "SELECT * FROM orders", "SELECT * FROM orders WHERE org_id = 'acme'"},
		{"insert", "INSERT INTO orders (id) VALUES (1)", "INSERT INTO orders (id, org_id) VALUES (1, 'acme')"},
		{"alias", "SELECT * FROM orders o", "SELECT * FROM orders o WHERE o.org_id = 'acme'"},
	})
}

func TestRewriteSQL_IgnoreScope(t *testing.T) {
	tc := userCtx()
	tc.Ignore = true

	res, err := New(nil).RewriteSQL("SELECT * FROM orders", tc)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "SELECT * FROM orders", res.SQL)
}

func TestRewriteSQL_Result(t *testing.T) {
	res, err := New(nil).RewriteSQL("SELECT * FROM orders o JOIN users u ON u.id = o.user_id", userCtx())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, sqlast.StmtTypeSelect, res.Type)
	assert.Equal(t, []string{"orders", "users"}, res.Tables)
}

func TestRewriteSQL_Errors(t *testing.T) {
	rw := New(nil)

	_, err := rw.RewriteSQL("SELECT 1", nil)
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = rw.RewriteSQL("SELECT * FROM orders", testPolicy().NewContext("", false))
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = rw.RewriteSQL("SELECT 1; SELECT 2", userCtx())
	assert.ErrorIs(t, err, sqlparse.ErrMultipleStatements)

	_, err = rw.RewriteSQL("SELEKT", userCtx())
	assert.Error(t, err)
}

func TestRewriteSQL_LogsRewrite(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(logger).RewriteSQL("SELECT * FROM orders", userCtx())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "tenant rewrite")
	assert.Contains(t, out, "tenant_id=T1")
	assert.Contains(t, out, "changed=true")
}

// --- Predicate builder ---

func TestBuildTenantEquality(t *testing.T) {
	tests := []struct {
		name  string
		tc    *tenant.Context
		table *sqlast.Table
		want  string
	}{
		{"plain", userCtx(), &sqlast.Table{Name: "orders"}, "tenant_id = 'T1'"},
		{"alias", userCtx(), &sqlast.Table{Name: "orders", Alias: "o"}, "o.tenant_id = 'T1'"},
		{"admin", adminCtx(), &sqlast.Table{Name: "orders", Alias: "o"}, "'1' = '1'"},
		{"admin_privileged", adminCtx(), &sqlast.Table{Name: "blade_top_menu"}, "tenant_id = '000000'"},
		{"quote_in_tenant", testPolicy().NewContext("o'hara", false), &sqlast.Table{Name: "orders"}, "tenant_id = 'o''hara'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlast.FormatExpr(BuildTenantEquality(tt.table, tt.tc)))
		})
	}
}

func TestCombineWithExisting(t *testing.T) {
	pred := sqlast.Equals(&sqlast.ColumnRef{Column: "tenant_id"}, sqlast.StringLit("T1"))
	a := sqlast.Equals(&sqlast.ColumnRef{Column: "a"}, sqlast.NumberLit("1"))
	b := sqlast.Equals(&sqlast.ColumnRef{Column: "b"}, sqlast.NumberLit("2"))

	assert.Same(t, pred, CombineWithExisting(nil, pred))
	assert.Equal(t, "a = 1 AND tenant_id = 'T1'", sqlast.FormatExpr(CombineWithExisting(a, pred)))
	assert.Equal(t, "(a = 1 OR b = 2) AND tenant_id = 'T1'", sqlast.FormatExpr(CombineWithExisting(sqlast.Or(a, b), pred)))
	assert.Equal(t, "a = 1 AND b = 2 AND tenant_id = 'T1'", sqlast.FormatExpr(CombineWithExisting(sqlast.And(a, b), pred)))
}

func TestShouldBypass(t *testing.T) {
	assert.True(t, ShouldBypass("blade_region", userCtx()))
	assert.False(t, ShouldBypass("orders", userCtx()))
	assert.True(t, ShouldBypass("orders", adminCtx()))
	assert.False(t, ShouldBypass("blade_top_menu", adminCtx()))
	assert.True(t, ShouldBypass("blade_region", adminCtx()))
}
