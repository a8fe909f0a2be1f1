// Package main provides build targets for the facets project using Mage.
//
// Usage:
//
//	mage build            Compile the facets binary to bin/
//	mage test:all         Run every test package
//	mage test:unit        Run tests without the ginkgo suite output
//	mage test:engine      Run the engine ginkgo suite verbosely
//	mage test:postgres    Run the store tests against a PostgreSQL container
//	mage test:cover       Write a coverage profile to bin/coverage.out
//	mage postgres:start   Start the PostgreSQL test container
//	mage postgres:stop    Remove the PostgreSQL test container
//	mage lint             Run golangci-lint
//	mage vet              Run go vet
//	mage clean            Remove build artifacts
//	mage install          Install facets to GOPATH/bin
//	mage stats            Print Go line counts as JSON
package main

const (
	binGo      = "go"
	binaryName = "facets"
	binaryDir  = "bin"
	cmdDir     = "./cmd/facets"
)
