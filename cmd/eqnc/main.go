package main

import (
	"go.brendoncarroll.net/star"

	"myceliumweb.org/eqnc/eqnccmd"
)

func main() {
	star.Main(eqnccmd.Root())
}
