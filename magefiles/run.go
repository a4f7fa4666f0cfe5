//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the viewer and replays the demo scene for a few seconds.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	fmt.Println("Run viewer...")
	if _, err := executeCmd("bin/anima-ar", withArgs("-config", "config.toml", "-frames", "300"), withStream()); err != nil {
		return err
	}
	return nil
}
