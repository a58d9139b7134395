package main

import (
	"github.com/speakeasy-api/pkgmerge/cmd"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	version      = "0.0.1"
	artifactArch = "linux_x86_64"
)

func main() {
	// Respect container CPU quotas
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))

	cmd.Execute(version, artifactArch)
}
