package gormstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"

	"github.com/Alp4ka/metapager"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// join is an INNER JOIN of the attribute table under an alias.
type join struct {
	Alias     string
	Attribute string
}

// renderer translates orderings and predicate trees into SQL for one
// dialect. The same operand expression is used for ORDER BY and for the
// continuation predicate, so both compare in the same domain.
type renderer struct {
	dialect string
	joins   []join
	aliases map[string]string
}

// newRenderer assigns a join alias to every attribute that is ordered by or
// compared against, in order of first appearance.
func newRenderer(dialect string, order metapager.OrderSpec, where metapager.Predicate) *renderer {
	r := &renderer{
		dialect: dialect,
		aliases: make(map[string]string),
	}

	for _, attr := range order.Attributes() {
		r.alias(attr)
	}

	metapager.Walk(where, func(p metapager.Predicate) {
		if c, ok := p.(metapager.Comparison); ok && c.Operand.IsAttribute() {
			r.alias(c.Operand.Attribute)
		}
	})

	return r
}

func (r *renderer) alias(attribute string) string {
	if a, ok := r.aliases[attribute]; ok {
		return a
	}

	a := fmt.Sprintf("mt%d", len(r.joins))
	r.aliases[attribute] = a
	r.joins = append(r.joins, join{Alias: a, Attribute: attribute})

	return a
}

// joinSQL returns the JOIN clause of a join and its argument.
func (j join) joinSQL() (string, any) {
	return fmt.Sprintf(
		"INNER JOIN %s AS %s ON %s.record_id = %s.%s AND %s.meta_key = ?",
		TableRecordMeta, j.Alias, j.Alias, TableRecords, ColumnID, j.Alias,
	), j.Attribute
}

// operand returns the SQL expression of a value source, cast into the
// comparison domain of its type.
//
// Example (mysql):
//
//	Source{Attribute: "price", Type: UNSIGNED} -> "CAST(mt0.meta_value AS UNSIGNED)"
func (r *renderer) operand(src metapager.Source) string {
	if !src.IsAttribute() {
		expr := TableRecords + "." + src.Column
		if src.Type == metapager.TypeDate || (r.dialect == DialectSQLite && src.Type == metapager.TypeDateTime) {
			return wrap(expr, r.castType(src.Type))
		}

		return expr
	}

	return wrap(r.alias(src.Attribute)+".meta_value", r.castType(src.Type))
}

// wrap applies the result of castType to an expression.
func wrap(expr, cast string) string {
	switch {
	case cast == "":
		return expr
	case strings.Contains(cast, "%s"):
		return fmt.Sprintf(cast, expr)
	default:
		return fmt.Sprintf("CAST(%s AS %s)", expr, cast)
	}
}

// castType returns the target type of a CAST, a "fn(%s)" format to wrap
// the expression into, or "" when no conversion is needed. Datetimes keep
// their fractional seconds; SQLite compares them as millisecond text.
func (r *renderer) castType(t metapager.ValueType) string {
	switch r.dialect {
	case DialectPostgres:
		switch t {
		case metapager.TypeSigned:
			return "BIGINT"
		case metapager.TypeUnsigned:
			return "NUMERIC(20,0)"
		case metapager.TypeDecimal:
			return "NUMERIC"
		case metapager.TypeDate:
			return "DATE"
		case metapager.TypeDateTime:
			return "TIMESTAMP"
		}
	case DialectSQLite:
		switch t {
		case metapager.TypeSigned, metapager.TypeUnsigned:
			return "INTEGER"
		case metapager.TypeDecimal:
			return "REAL"
		case metapager.TypeDate:
			return "date(%s)"
		case metapager.TypeDateTime:
			return "strftime('" + sqliteDateTimeFormat + "', %s)"
		}
	default:
		switch t {
		case metapager.TypeSigned:
			return "SIGNED"
		case metapager.TypeUnsigned:
			return "UNSIGNED"
		case metapager.TypeDecimal:
			return "DECIMAL(65,10)"
		case metapager.TypeDate:
			return "DATE"
		case metapager.TypeDateTime:
			return "DATETIME(6)"
		}
	}

	return ""
}

// sqliteDateTimeFormat and sqliteDateTimeLayout describe the same text:
// SQLite rounds datetimes to milliseconds.
const (
	sqliteDateTimeFormat = "%Y-%m-%d %H:%M:%f"
	sqliteDateTimeLayout = "2006-01-02 15:04:05.000"
)

// bind converts a coerced value into the representation the dialect
// compares the operand with. SQLite compares dates as canonical text and has
// no unsigned integers.
func (r *renderer) bind(src metapager.Source, v any) any {
	if r.dialect != DialectSQLite {
		return v
	}

	switch vt := v.(type) {
	case time.Time:
		if src.Type == metapager.TypeDate {
			return vt.Format(metapager.DateLayout)
		}

		return vt.Round(time.Millisecond).Format(sqliteDateTimeLayout)
	case uint64:
		return int64(vt)
	default:
		return v
	}
}

// Stored numbers an ordering attribute must match, by type.
var _numberPatterns = map[metapager.ValueType]string{
	metapager.TypeSigned:   `^[-+]?[0-9]+$`,
	metapager.TypeUnsigned: `^[0-9]+$`,
	metapager.TypeDecimal:  `^[-+]?([0-9]+[.]?[0-9]*|[.][0-9]+)([eE][-+]?[0-9]+)?$`,
}

// conditions returns the top-level conjuncts of the WHERE clause: those of
// the predicate followed by wellFormed of the ordering.
func (r *renderer) conditions(where metapager.Predicate, order metapager.OrderSpec) []clause.Expression {
	var ret []clause.Expression
	switch exp := r.toGORMExpression(where).(type) {
	case nil:
	case clause.AndConditions:
		ret = append(ret, exp.Exprs...)
	default:
		ret = append(ret, exp)
	}

	return append(ret, r.wellFormed(order)...)
}

// wellFormed excludes rows whose ordering attributes do not hold a value of
// the key's type. Databases cast such text to 0 or NULL, which would sort
// the row among valid ones without a boundary the cursor can carry.
// Postgres rejects malformed dates itself.
func (r *renderer) wellFormed(order metapager.OrderSpec) []clause.Expression {
	var ret []clause.Expression

	seen := make(map[metapager.Source]struct{})
	for _, key := range order {
		src := key.Source
		if _, ok := seen[src]; ok || !src.IsAttribute() {
			continue
		}
		seen[src] = struct{}{}

		value := r.alias(src.Attribute) + ".meta_value"
		if src.Type.IsTemporal() {
			if r.dialect != DialectPostgres {
				ret = append(ret, clause.Expr{SQL: r.operand(src) + " IS NOT NULL"})
			}
			continue
		}

		pattern, ok := _numberPatterns[src.Type]
		if !ok {
			continue
		}

		switch r.dialect {
		case DialectSQLite:
			ret = append(ret, sqliteNumberExpr(value, src.Type))
		case DialectPostgres:
			ret = append(ret, clause.Expr{SQL: value + " ~ ?", Vars: []any{pattern}})
		default:
			ret = append(ret, clause.Expr{SQL: value + " REGEXP ?", Vars: []any{pattern}})
		}
	}

	return ret
}

// sqliteNumberExpr approximates _numberPatterns with GLOB, SQLite having no
// REGEXP by default. Decimals are only checked for their characters.
func sqliteNumberExpr(value string, t metapager.ValueType) clause.Expr {
	switch t {
	case metapager.TypeSigned:
		return clause.Expr{
			SQL:  fmt.Sprintf("(%[1]s GLOB ? OR %[1]s GLOB ?) AND substr(%[1]s, 2) NOT GLOB ?", value),
			Vars: []any{"[0-9]*", "[-+][0-9]*", "*[^0-9]*"},
		}
	case metapager.TypeUnsigned:
		return clause.Expr{
			SQL:  fmt.Sprintf("%[1]s GLOB ? AND %[1]s NOT GLOB ?", value),
			Vars: []any{"[0-9]*", "*[^0-9]*"},
		}
	default:
		return clause.Expr{
			SQL:  fmt.Sprintf("%[1]s GLOB ? AND %[1]s NOT GLOB ?", value),
			Vars: []any{"*[0-9]*", "*[^0-9.eE+-]*"},
		}
	}
}

// orderBy renders an ordering as "expr1 ASC, expr2 DESC" suitable for
// db.Order.
func (r *renderer) orderBy(spec metapager.OrderSpec) string {
	return strings.Join(lo.Map(spec, func(k metapager.SortKey, _ int) string {
		return fmt.Sprintf("%s %s", r.operand(k.Source), k.Direction)
	}), ", ")
}

// toGORMExpression converts a predicate tree into a clause.Expression. It
// returns nil for an empty tree.
//
// IMPORTANT: The method uses the SQL placeholder "?".
//
// Example:
//
//	Or{Comparison{id > 5}, And{Comparison{id = 5}, Comparison{title > "abc"}}}
//
// Result:
//
//	"(records.id > ? OR (records.id = ? AND records.title > ?))"
func (r *renderer) toGORMExpression(p metapager.Predicate) clause.Expression {
	switch pt := p.(type) {
	case nil:
		return nil
	case metapager.Comparison:
		sqlClause, arg := r.toSQLClause(pt)

		return clause.Expr{SQL: sqlClause, Vars: []any{arg}}
	case metapager.Exists:
		return clause.Expr{SQL: existsSQL(pt.Negate), Vars: []any{pt.Attribute}}
	case metapager.And:
		exprs := r.children(pt)
		if len(exprs) == 1 {
			return exprs[0]
		} else if len(exprs) > 1 {
			return clause.And(exprs...)
		}
	case metapager.Or:
		exprs := r.children(pt)
		if len(exprs) == 1 {
			return exprs[0]
		} else if len(exprs) > 1 {
			return clause.Or(exprs...)
		}
	}

	return nil
}

func (r *renderer) children(ps []metapager.Predicate) []clause.Expression {
	return lo.FilterMap(ps, func(p metapager.Predicate, _ int) (clause.Expression, bool) {
		expr := r.toGORMExpression(p)
		return expr, expr != nil
	})
}

// toSQLClause converts a comparison to an SQL condition of the form
// "Operand Operator ?" with a corresponding value.
//
// Example:
//
//	Comparison{Operand: id, Operator: ">", Value: 123}
//
// Result:
//
//	("records.id > ?", 123)
func (r *renderer) toSQLClause(c metapager.Comparison) (string, any) {
	op := string(c.Operator)
	if c.Operator == metapager.OperatorNeq {
		op = "<>"
	}

	return fmt.Sprintf("%s %s ?", r.operand(c.Operand), op), r.bind(c.Operand, c.Value)
}

func existsSQL(negate bool) string {
	sql := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s em WHERE em.record_id = %s.%s AND em.meta_key = ?)",
		TableRecordMeta, TableRecords, ColumnID,
	)
	if negate {
		return "NOT " + sql
	}

	return sql
}
