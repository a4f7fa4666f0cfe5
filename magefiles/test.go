//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the tests that do not need a display or cgo.
func (Test) Core() error {
	_, err := executeCmd("go", withArgs("test", "-count=1",
		"./engine/math/...", "./engine/tracking/...", "./engine/overlay/...",
		"./engine/placement/...", "./engine/compositor/...", "./engine/systems/...",
		"./engine/resources/...", "./engine/input/...", "./testbed/..."), withStream())
	return err
}
