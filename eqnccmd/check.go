package eqnccmd

import (
	"fmt"
	"os"
	"strings"

	"go.brendoncarroll.net/exp/slices2"
	"go.brendoncarroll.net/star"
	"golang.org/x/sync/errgroup"

	"myceliumweb.org/eqnc"
	"myceliumweb.org/eqnc/eqns"
	"myceliumweb.org/eqnc/surface"
)

var checkCmd = star.Command{
	Metadata: star.Metadata{
		Short: "checks the equation bundles in each file and reports on each function",
	},
	Flags: []star.IParam{dbParam, verboseParam, filesParam},
	F: func(c star.Context) error {
		ctx := newContext(c)
		env, err := openEnv(ctx, c)
		if err != nil {
			return err
		}
		paths := filesParam.LoadAll(c)
		results := make([][]eqnc.Report, len(paths))
		eg, ctx := errgroup.WithContext(ctx)
		for i, p := range paths {
			eg.Go(func() error {
				src, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				results[i], err = eqnc.CheckSource(ctx, env, p, string(src))
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		for _, rs := range results {
			for _, r := range rs {
				c.Printf("%s", formatReport(r))
			}
		}
		return nil
	},
}

func formatReport(r eqnc.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%v: %s id=%v", r.Filename, r.Loc, joinNames(r.Header.FnNames), r.ID)
	if r.Recursive {
		sb.WriteString(" recursive")
	}
	sb.WriteString("\n")
	for _, fn := range r.Fns {
		fmt.Fprintf(&sb, "  %s : %s\n", fn.Name, surface.PrintTerm(fn.Type))
		fmt.Fprintf(&sb, "    arity=%d equations=%d", fn.Arity, fn.NumEqns)
		if len(fn.Splits) > 0 {
			sb.WriteString(" splits=")
			sb.WriteString(strings.Join(slices2.Map(fn.Splits, formatSplit), ","))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatSplit(s eqns.Split) string {
	return fmt.Sprintf("%d:%s", s.Arg, s.Inductive)
}

func joinNames[T ~string](xs []T) string {
	return strings.Join(slices2.Map(xs, func(x T) string { return string(x) }), ",")
}
