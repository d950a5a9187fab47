// Package pgxcasbin persists casbin policies in PostgreSQL through pgx.
package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

const (
	DefaultTableName = "identity_casbin_rules"

	fieldCount = 6
)

var (
	ErrEmptyPtype   = errors.New("pgxcasbin: ptype is empty")
	ErrRuleTooLong  = errors.New("pgxcasbin: rule length exceeds field count")
	ErrFieldIndex   = errors.New("pgxcasbin: field index out of range")
	ErrSavePolicies = errors.New("pgxcasbin: failed to save policies")
)

// Commander is the pgx surface the adapter needs; *pgxpool.Pool satisfies it.
type Commander interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Adapter implements persist.Adapter over a single rules table.
type Adapter struct {
	db     Commander
	table  string
	loaded *atomic.Int64
}

var _ persist.Adapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithTableName(name string) Option {
	return func(a *Adapter) { a.table = lo.SnakeCase(name) }
}

func NewAdapter(db Commander, opts ...Option) *Adapter {
	a := &Adapter{db: db, table: DefaultTableName, loaded: atomic.NewInt64(0)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Loaded returns the number of rules read by the last LoadPolicy.
func (a *Adapter) Loaded() int64 { return a.loaded.Load() }

var columns = strings.Join(lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) }), ", ")

func (a *Adapter) LoadPolicy(m model.Model) error {
	ctx := context.Background()
	rows, err := a.db.Query(ctx, fmt.Sprintf("SELECT ptype, %s FROM %s ORDER BY id", columns, a.table))
	if err != nil {
		return fmt.Errorf("pgxcasbin: load policy: %w", err)
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		line := make([]string, fieldCount+1)
		if err := rows.Scan(lo.ToAnySlice(lo.Map(line, func(_ string, i int) *string { return &line[i] }))...); err != nil {
			return fmt.Errorf("pgxcasbin: scan policy: %w", err)
		}
		line = trimEmptyTail(line)
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("pgxcasbin: load policy: %w", err)
	}

	a.loaded.Store(n)
	return nil
}

func (a *Adapter) SavePolicy(m model.Model) error {
	ctx := context.Background()
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrSavePolicies, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM "+a.table); err != nil {
		return errors.Join(ErrSavePolicies, err)
	}

	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				if err := a.insert(ctx, tx, ptype, rule); err != nil {
					return errors.Join(ErrSavePolicies, err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrSavePolicies, err)
	}
	return nil
}

func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	return a.insert(context.Background(), a.db, ptype, rule)
}

func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	args, err := ruleArgs(ptype, rule)
	if err != nil {
		return err
	}

	conds := lo.Times(fieldCount, func(i int) string { return fmt.Sprintf("v%d = $%d", i, i+2) })
	_, err = a.db.Exec(context.Background(),
		fmt.Sprintf("DELETE FROM %s WHERE ptype = $1 AND %s", a.table, strings.Join(conds, " AND ")),
		args...)
	return err
}

func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}
	if fieldIndex < 0 || fieldIndex+len(fieldValues) > fieldCount {
		return ErrFieldIndex
	}

	query := "DELETE FROM " + a.table + " WHERE ptype = $1"
	args := []any{ptype}
	for i, v := range fieldValues {
		if v == "" {
			continue
		}
		args = append(args, v)
		query += fmt.Sprintf(" AND v%d = $%d", fieldIndex+i, len(args))
	}

	_, err := a.db.Exec(context.Background(), query, args...)
	return err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (a *Adapter) insert(ctx context.Context, db execer, ptype string, rule []string) error {
	args, err := ruleArgs(ptype, rule)
	if err != nil {
		return err
	}

	placeholders := strings.Join(lo.Times(fieldCount+1, func(i int) string { return "$" + strconv.Itoa(i+1) }), ", ")
	_, err = db.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (ptype, %s) VALUES (%s) ON CONFLICT DO NOTHING", a.table, columns, placeholders),
		args...)
	return err
}

func ruleArgs(ptype string, rule []string) ([]any, error) {
	if ptype == "" {
		return nil, ErrEmptyPtype
	}
	if len(rule) > fieldCount {
		return nil, ErrRuleTooLong
	}

	padded := make([]string, fieldCount)
	copy(padded, rule)
	return append([]any{ptype}, lo.ToAnySlice(padded)...), nil
}

func trimEmptyTail(line []string) []string {
	end := len(line)
	for end > 1 && line[end-1] == "" {
		end--
	}
	return line[:end]
}
