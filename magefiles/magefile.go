//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

var Default = Build

// Build compiles the dmap binary into bin/.
func Build() error {
	mg.Deps(Vet)
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}
	out := filepath.Join(binDir, "dmap")
	fmt.Println("Building", out)
	return sh.RunV("go", "build", "-o", out, "./cmd/dmap")
}

// Test runs every package test. Set MAGEFILE_VERBOSE for per-test output.
func Test() error {
	args := []string{"test", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
