package eqnccmd

import (
	"fmt"
	"os"

	"go.brendoncarroll.net/star"

	"myceliumweb.org/eqnc/surface"
	"myceliumweb.org/eqnc/term"
)

var envCmd = star.NewDir(star.Metadata{
	Short: "manage the inductive datatypes in the database",
}, map[star.Symbol]star.Command{
	"list": envListCmd,
	"show": envShowCmd,
	"add":  envAddCmd,
})

var envListCmd = star.Command{
	Metadata: star.Metadata{
		Short: "lists the inductive datatypes",
	},
	Flags: []star.IParam{dbParam, verboseParam},
	F: func(c star.Context) error {
		ctx := newContext(c)
		env, err := openEnv(ctx, c)
		if err != nil {
			return err
		}
		names, err := env.Names(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			c.Printf("%-16s params=%d indices=%d\n", name, env.NumParams(name), env.NumIndices(name))
		}
		return nil
	},
}

var envShowCmd = star.Command{
	Metadata: star.Metadata{
		Short: "prints the declaration of an inductive datatype",
	},
	Flags: []star.IParam{dbParam, verboseParam},
	Pos:   []star.IParam{nameParam},
	F: func(c star.Context) error {
		ctx := newContext(c)
		env, err := openEnv(ctx, c)
		if err != nil {
			return err
		}
		name := term.Name(nameParam.Load(c))
		ind, ok, err := env.Lookup(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not an inductive datatype", name)
		}
		c.Printf("%s\n", surface.FormatInductive(ind))
		return nil
	},
}

var envAddCmd = star.Command{
	Metadata: star.Metadata{
		Short: "adds the inductive declarations in a file",
	},
	Flags: []star.IParam{dbParam, verboseParam, fileParam},
	F: func(c star.Context) error {
		ctx := newContext(c)
		env, err := openEnv(ctx, c)
		if err != nil {
			return err
		}
		p := fileParam.Load(c)
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		f, err := surface.ParseFile(p, string(src))
		if err != nil {
			return err
		}
		for _, ind := range f.Inductives {
			if err := env.Add(ctx, ind); err != nil {
				return err
			}
			c.Printf("added %s\n", ind.Name)
		}
		return nil
	},
}
