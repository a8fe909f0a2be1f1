package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

const (
	enginePkg      = "./internal/engine"
	storePkg       = "./internal/store"
	coverFile      = "coverage.out"
	postgresDSNEnv = "FACETS_TEST_POSTGRES_DSN"
)

// All runs every test package verbosely.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs every package except the magefiles with the race detector.
func (Test) Unit() error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var unitPkgs []string
	for pkg := range strings.SplitSeq(pkgs, "\n") {
		if pkg != "" && !strings.HasSuffix(pkg, "/magefiles") {
			unitPkgs = append(unitPkgs, pkg)
		}
	}
	if len(unitPkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	args := append([]string{"test", "-race"}, unitPkgs...)
	return sh.RunV(binGo, args...)
}

// Engine runs the engine package with verbose ginkgo output.
func (Test) Engine() error {
	return sh.RunV(binGo, "test", enginePkg, "-ginkgo.v")
}

// Cover writes a coverage profile to bin/coverage.out and prints the
// per-function summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, coverFile)
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}

// Postgres starts the PostgreSQL container and runs the store tests
// against it as well as against SQLite.
func (Test) Postgres() error {
	mg.Deps(Postgres.Start)
	env := map[string]string{postgresDSNEnv: postgresDSN()}
	return sh.RunWithV(env, binGo, "test", "-v", storePkg)
}
