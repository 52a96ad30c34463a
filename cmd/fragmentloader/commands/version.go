package commands

import (
	"fmt"

	"git.home.luguber.info/inful/fragmentloader/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("fragmentloader %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	return nil
}
