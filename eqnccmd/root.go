// package eqnccmd implements the eqnc command line tool.
package eqnccmd

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/star"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"myceliumweb.org/eqnc/inductive/envdb"
	"myceliumweb.org/eqnc/surface"
)

func Root() star.Command {
	return root
}

var root = star.NewDir(star.Metadata{
	Short: "equations compiler front end",
}, map[star.Symbol]star.Command{
	"check": checkCmd,
	"fmt":   fmtCmd,
	"env":   envCmd,
})

var dbParam = star.Param[*sqlx.DB]{
	Name:    "db",
	Default: star.Ptr(":memory:"),
	Parse: func(x string) (*sqlx.DB, error) {
		db, err := envdb.Open(x)
		if err != nil {
			return nil, err
		}
		if err := envdb.Setup(context.Background(), db); err != nil {
			return nil, err
		}
		return db, nil
	},
}

var verboseParam = star.Param[bool]{
	Name:    "v",
	Default: star.Ptr("false"),
	Parse:   strconv.ParseBool,
}

var filesParam = star.Param[string]{
	Name:     "f",
	Repeated: true,
	Parse:    star.ParseString,
}

var fileParam = star.Param[string]{
	Name:  "f",
	Parse: star.ParseString,
}

var nameParam = star.Param[string]{
	Name:  "name",
	Parse: star.ParseString,
}

// newContext returns the command's context with a logger.
// Only warnings and errors are logged unless -v is set.
func newContext(c star.Context) context.Context {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verboseParam.Load(c) {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return logctx.NewContext(c.Context, l)
}

// openEnv opens the environment in the database, adding the prelude if it is missing.
func openEnv(ctx context.Context, c star.Context) (*envdb.Env, error) {
	env, err := envdb.New(ctx, dbParam.Load(c), envdb.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	if n, err := env.AddAll(ctx, surface.Prelude()); err != nil {
		return nil, err
	} else if n > 0 {
		logctx.Debug(ctx, "added prelude", zap.Int("count", n))
	}
	return env, nil
}
