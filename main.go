package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/lehigh-university-libraries/halloween/cmd"
)

var version = "0.1.0"

func main() {
	options := []fang.Option{
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	}
	if commit := vcsRevision(); commit != "" {
		options = append(options, fang.WithCommit(commit))
	}

	if err := fang.Execute(context.Background(), cmd.NewRootCmd(), options...); err != nil {
		os.Exit(1)
	}
}

// vcsRevision returns the commit stamped by `go build`, if any.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
