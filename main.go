// Package main provides the entry point for phasesim, a sampled
// CPU simulator: it fast-forwards whole programs in a functional
// execution model and measures representative intervals (SimPoints)
// in a cycle-accurate timing model.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/phasesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
