package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
)

// PostgreSQL test container settings.
const (
	postgresImage     = "postgres:16-alpine"
	postgresContainer = "facets-postgres"
	postgresPort      = "55432"
	postgresPassword  = "facets"
	postgresDB        = "facets"
	postgresWait      = 30 * time.Second
)

// Postgres groups the PostgreSQL test container targets.
type Postgres mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// postgresDSN is the connection string of the test container.
func postgresDSN() string {
	return fmt.Sprintf("postgres://postgres:%s@localhost:%s/%s?sslmode=disable", postgresPassword, postgresPort, postgresDB)
}

// Start runs the PostgreSQL container, replacing a previous one, and waits
// until it accepts connections.
func (Postgres) Start() error {
	rt := containerRuntime()
	if rt == "" {
		return errors.New("no container runtime found (tried podman, docker)")
	}
	_ = exec.Command(rt, "rm", "-f", postgresContainer).Run()

	fmt.Fprintln(os.Stderr, "Starting PostgreSQL container...")
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", postgresContainer,
		"-e", "POSTGRES_PASSWORD="+postgresPassword,
		"-e", "POSTGRES_DB="+postgresDB,
		"-p", postgresPort+":5432",
		postgresImage)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("starting container: %w", err)
	}

	deadline := time.Now().Add(postgresWait)
	for time.Now().Before(deadline) {
		if exec.Command(rt, "exec", postgresContainer, "pg_isready", "-U", "postgres", "-d", postgresDB).Run() == nil {
			fmt.Fprintln(os.Stderr, "PostgreSQL ready at", postgresDSN())
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("postgres not ready after %s", postgresWait)
}

// Stop removes the PostgreSQL container. Errors are ignored because the
// container may not exist.
func (Postgres) Stop() {
	if rt := containerRuntime(); rt != "" {
		fmt.Fprintln(os.Stderr, "Removing PostgreSQL container...")
		_ = exec.Command(rt, "rm", "-f", postgresContainer).Run()
	}
}
