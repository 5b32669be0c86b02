//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "parrot"
	mainPkg    = "./cmd/parrot"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the parrot binary into ./bin
func Build() error {
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", filepath.Join("bin", binaryName), mainPkg)
}

// Install installs parrot into GOPATH/bin
func Install() error {
	return sh.RunV("go", "install", mainPkg)
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all unit tests with the race detector
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Integration runs the tests that talk to the real Gemini API
func Integration() error {
	if os.Getenv("GENAI_API_KEY") == "" {
		return fmt.Errorf("GENAI_API_KEY must be set for integration tests")
	}
	return sh.RunV("go", "test", "-run", "Integration", "./...")
}

// Lint runs go vet and gofmt
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", "cmd", "internal")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Serve builds and starts the proxy
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join("bin", binaryName), "serve")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}
