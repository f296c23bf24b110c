// package envdb stores inductive declarations in a SQL database.
//
// Declarations are stored in their printed form, and parsed again when they are loaded.
// Env implements inductive.Interface on top of the database with an LRU cache in front of it.
package envdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/surface"
	"myceliumweb.org/eqnc/term"
)

const DefaultCacheSize = 256

// Open opens a sqlite database at p.
// p may be ":memory:"
func Open(p string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if p == ":memory:" {
		// every connection to :memory: is a different database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Setup creates the tables used by Env, if they do not exist.
func Setup(ctx context.Context, db *sqlx.DB) error {
	return DoTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS inductives (
		name TEXT NOT NULL,
		num_params INTEGER NOT NULL,
		num_indices INTEGER NOT NULL,
		source TEXT NOT NULL,
		fingerprint BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		PRIMARY KEY(name)
	)`,
	`CREATE TABLE IF NOT EXISTS constructors (
		name TEXT NOT NULL,
		inductive TEXT NOT NULL,
		idx INTEGER NOT NULL,

		FOREIGN KEY(inductive) REFERENCES inductives(name),
		PRIMARY KEY(name)
	)`,
}

// DoTx runs fn in a transaction, and commits if fn returns nil.
func DoTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DoTx1 is DoTx for functions which return a value.
func DoTx1[T any](ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) (T, error)) (ret T, _ error) {
	err := DoTx(ctx, db, func(tx *sqlx.Tx) error {
		var err error
		ret, err = fn(tx)
		return err
	})
	return ret, err
}

// ErrAlreadyDeclared is returned when adding a declaration which reuses a name.
type ErrAlreadyDeclared struct {
	Name term.Name
}

func (e ErrAlreadyDeclared) Error() string {
	return fmt.Sprintf("%s is already declared", e.Name)
}

func IsAlreadyDeclared(err error) bool {
	return errors.As(err, &ErrAlreadyDeclared{})
}

var _ inductive.Interface = &Env{}

// Env is an environment of inductive declarations backed by a database.
// It is safe for concurrent use.
type Env struct {
	ctx context.Context
	db  *sqlx.DB

	// a nil value records that the name is not an inductive
	inds *lru.Cache[term.Name, *inductive.Inductive]
	// an empty value records that the name is not a constructor
	ctors *lru.Cache[term.Name, term.Name]
}

// New creates an Env using db, which must have been passed to Setup.
// ctx is used for the queries made by the inductive.Interface methods, which cannot report errors.
func New(ctx context.Context, db *sqlx.DB, cacheSize int) (*Env, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	inds, err := lru.New[term.Name, *inductive.Inductive](cacheSize)
	if err != nil {
		return nil, err
	}
	ctors, err := lru.New[term.Name, term.Name](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Env{ctx: ctx, db: db, inds: inds, ctors: ctors}, nil
}

// Add validates and stores a declaration.
// Names of inductives and constructors must be unique across the database.
func (e *Env) Add(ctx context.Context, ind inductive.Inductive) error {
	if err := ind.Validate(); err != nil {
		return err
	}
	src := surface.FormatInductive(ind)
	fp := term.Fingerprint(ind.Type)
	err := DoTx(ctx, e.db, func(tx *sqlx.Tx) error {
		names := []term.Name{ind.Name}
		for _, c := range ind.Constructors {
			names = append(names, c.Name)
		}
		for _, name := range names {
			var count int
			if err := tx.GetContext(ctx, &count, `SELECT
				(SELECT count(*) FROM inductives WHERE name = ?) +
				(SELECT count(*) FROM constructors WHERE name = ?)`, name, name); err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyDeclared{Name: name}
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO inductives (name, num_params, num_indices, source, fingerprint)
			VALUES (?, ?, ?, ?, ?)`, ind.Name, ind.NumParams, ind.NumIndices, src, fp[:]); err != nil {
			return err
		}
		for i, c := range ind.Constructors {
			if _, err := tx.ExecContext(ctx, `INSERT INTO constructors (name, inductive, idx) VALUES (?, ?, ?)`,
				c.Name, ind.Name, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.inds.Remove(ind.Name)
	for _, c := range ind.Constructors {
		e.ctors.Remove(c.Name)
	}
	logctx.Debug(ctx, "added inductive", zap.String("name", string(ind.Name)), zap.Int("constructors", len(ind.Constructors)))
	return nil
}

// AddAll adds every declaration in decls which is not already in the database.
// Declarations already present under the same name are skipped.
func (e *Env) AddAll(ctx context.Context, decls []inductive.Inductive) (added int, _ error) {
	for _, ind := range decls {
		if _, exists, err := e.Lookup(ctx, ind.Name); err != nil {
			return added, err
		} else if exists {
			continue
		}
		if err := e.Add(ctx, ind); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Lookup loads the declaration for name.
func (e *Env) Lookup(ctx context.Context, name term.Name) (inductive.Inductive, bool, error) {
	if ind, ok := e.inds.Get(name); ok {
		if ind == nil {
			return inductive.Inductive{}, false, nil
		}
		return *ind, true, nil
	}
	var src string
	if err := e.db.GetContext(ctx, &src, `SELECT source FROM inductives WHERE name = ?`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			e.inds.Add(name, nil)
			return inductive.Inductive{}, false, nil
		}
		return inductive.Inductive{}, false, err
	}
	ind, err := parseDecl(name, src)
	if err != nil {
		return inductive.Inductive{}, false, err
	}
	e.inds.Add(name, &ind)
	return ind, true, nil
}

// Names returns the names of every stored inductive, sorted.
func (e *Env) Names(ctx context.Context) ([]term.Name, error) {
	var names []term.Name
	err := e.db.SelectContext(ctx, &names, `SELECT name FROM inductives ORDER BY name`)
	return names, err
}

// Snapshot loads every declaration into an immutable environment.
func (e *Env) Snapshot(ctx context.Context) (*inductive.Env, error) {
	return DoTx1(ctx, e.db, func(tx *sqlx.Tx) (*inductive.Env, error) {
		type row struct {
			Name   term.Name `db:"name"`
			Source string    `db:"source"`
		}
		var rows []row
		if err := tx.SelectContext(ctx, &rows, `SELECT name, source FROM inductives ORDER BY created_at, name`); err != nil {
			return nil, err
		}
		ret := &inductive.Env{}
		for _, r := range rows {
			ind, err := parseDecl(r.Name, r.Source)
			if err != nil {
				return nil, err
			}
			if ret, err = ret.With(ind); err != nil {
				return nil, err
			}
		}
		return ret, nil
	})
}

func (e *Env) IsInductive(name term.Name) bool {
	_, ok := e.lookup(name)
	return ok
}

func (e *Env) IsInductiveTerm(t term.Term) bool {
	k, ok := term.GetAppFn(t).(term.Const)
	return ok && e.IsInductive(k.Name)
}

func (e *Env) IsConstructor(t term.Term) (term.Name, bool) {
	k, ok := term.GetAppFn(t).(term.Const)
	if !ok {
		return "", false
	}
	if ind, ok := e.ctors.Get(k.Name); ok {
		return k.Name, ind != ""
	}
	var ind term.Name
	if err := e.db.GetContext(e.ctx, &ind, `SELECT inductive FROM constructors WHERE name = ?`, k.Name); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logctx.Error(e.ctx, "looking up constructor", zap.String("name", string(k.Name)), zap.Error(err))
			return "", false
		}
	}
	e.ctors.Add(k.Name, ind)
	return k.Name, ind != ""
}

func (e *Env) NumParams(name term.Name) int {
	ind, _ := e.lookup(name)
	return ind.NumParams
}

func (e *Env) NumIndices(name term.Name) int {
	ind, _ := e.lookup(name)
	return ind.NumIndices
}

// lookup is Lookup for the methods which cannot return errors
func (e *Env) lookup(name term.Name) (inductive.Inductive, bool) {
	ind, ok, err := e.Lookup(e.ctx, name)
	if err != nil {
		logctx.Error(e.ctx, "looking up inductive", zap.String("name", string(name)), zap.Error(err))
		return inductive.Inductive{}, false
	}
	return ind, ok
}

func parseDecl(name term.Name, src string) (inductive.Inductive, error) {
	f, err := surface.ParseFile(string(name), src)
	if err != nil {
		return inductive.Inductive{}, fmt.Errorf("envdb: loading %s: %w", name, err)
	}
	if len(f.Inductives) != 1 || f.Inductives[0].Name != name {
		return inductive.Inductive{}, fmt.Errorf("envdb: stored source for %s does not declare it", name)
	}
	return f.Inductives[0], nil
}
