package eqnccmd

import (
	"os"

	"go.brendoncarroll.net/star"

	"myceliumweb.org/eqnc/surface"
)

var fmtCmd = star.Command{
	Metadata: star.Metadata{
		Short: "prints the declarations in a file in canonical form",
	},
	Flags: []star.IParam{fileParam},
	F: func(c star.Context) error {
		p := fileParam.Load(c)
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		f, err := surface.ParseFile(p, string(src))
		if err != nil {
			return err
		}
		_, err = c.StdOut.Write([]byte(surface.FormatFile(f)))
		return err
	},
}
