// Package aapt2 runs the Android Asset Packaging Tool.
//
// aapt2 is treated as a black box: compile turns resource files into .flat
// artifacts and link turns artifacts plus a manifest into a resource
// package. This package only builds command lines, runs them, and checks
// that the expected artifacts appeared.
package aapt2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/codes"
)

// DefaultPackageID is the package id of a standard application, required
// for resources loaded at runtime through new Resources()
const DefaultPackageID = "0x7f"

// Commander interface for testing
type Commander interface {
	CombinedOutput() ([]byte, error)
}

// exitCoder is satisfied by *exec.ExitError
type exitCoder interface {
	ExitCode() int
}

// Result is the outcome of one aapt2 invocation that ran to completion
type Result struct {
	Args     []string
	Output   string
	ExitCode int
}

// Success reports whether aapt2 exited cleanly
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Aapt2 runs a specific aapt2 binary
type Aapt2 struct {
	path        string
	logger      *zap.Logger
	execCommand func(ctx context.Context, name string, args ...string) Commander
}

// New creates a runner for the aapt2 binary at path. An empty path is
// resolved with Find.
func New(path string, logger *zap.Logger) (*Aapt2, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path == "" {
		found, err := Find()
		if err != nil {
			return nil, err
		}
		path = found
	} else if _, err := os.Stat(path); err != nil {
		return nil, codes.Wrap(err, codes.Config, "aapt2 not found at %s", path)
	}

	logger.Debug("using aapt2", zap.String("path", path))

	return &Aapt2{
		path:   path,
		logger: logger,
		execCommand: func(ctx context.Context, name string, args ...string) Commander {
			return exec.CommandContext(ctx, name, args...)
		},
	}, nil
}

// Find locates aapt2 on PATH, then in the newest build-tools directory of
// the Android SDK named by ANDROID_HOME
func Find() (string, error) {
	if path, err := exec.LookPath(binaryName()); err == nil {
		return path, nil
	}

	if home := os.Getenv("ANDROID_HOME"); home != "" {
		entries, err := os.ReadDir(filepath.Join(home, "build-tools"))
		if err == nil {
			var versions []string
			for _, e := range entries {
				if e.IsDir() {
					versions = append(versions, e.Name())
				}
			}

			sort.Sort(sort.Reverse(sort.StringSlice(versions)))
			for _, v := range versions {
				candidate := filepath.Join(home, "build-tools", v, binaryName())
				if _, err := os.Stat(candidate); err == nil {
					return candidate, nil
				}
			}
		}
	}

	return "", codes.New(codes.Config,
		"aapt2 not found: install the Android SDK build tools and set ANDROID_HOME, or set aapt2Path")
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "aapt2.exe"
	}

	return "aapt2"
}

// Path returns the binary being run
func (a *Aapt2) Path() string {
	return a.path
}

// Version returns the version string reported by aapt2
func (a *Aapt2) Version(ctx context.Context) (string, error) {
	res, err := a.run(ctx, "version")
	if err != nil {
		return "", err
	}

	if !res.Success() {
		return "", fmt.Errorf("aapt2 version exited with code %d: %s", res.ExitCode, res.Output)
	}

	return strings.TrimSpace(res.Output), nil
}

// run executes aapt2 with args. A non-zero exit is reported through the
// Result; an error means the process could not be run at all.
func (a *Aapt2) run(ctx context.Context, args ...string) (*Result, error) {
	a.logger.Debug("running aapt2", zap.String("command", a.path+" "+strings.Join(args, " ")))

	out, err := a.execCommand(ctx, a.path, args...).CombinedOutput()
	res := &Result{Args: args, Output: string(bytes.TrimSpace(out))}

	if err != nil {
		var ec exitCoder
		if errors.As(err, &ec) && ctx.Err() == nil {
			res.ExitCode = ec.ExitCode()
			return res, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("aapt2 %s: %w", args[0], ctxErr)
		}

		return nil, codes.Wrap(err, codes.IO, "failed to run %s", a.path)
	}

	return res, nil
}
