package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	launcher "github.com/ligne12/nockpool-miner-launcher"
	"github.com/ligne12/nockpool-miner-launcher/gpu"
)

// DoctorCmd checks the host for a usable GPU driver stack and reports
// the install state.
type DoctorCmd struct{}

// Run executes the doctor command.
func (c *DoctorCmd) Run(cli *CLI) error {
	dirs, err := cli.Dirs()
	if err != nil {
		return err
	}

	platform := launcher.HostPlatform()
	fmt.Printf("Platform:  %s/%s (%s)\n", platform.OS, platform.Arch, platform.PackageName())
	fmt.Printf("Install:   %s\n", dirs.Base())

	if version := currentVersion(dirs.Current()); version != "" {
		fmt.Printf("Installed: %s\n", version)
	} else {
		fmt.Println("Installed: none")
	}

	if path, ok := shimLibrary(dirs.Base()); ok {
		fmt.Printf("Shim:      %s\n", path)
	} else {
		fmt.Println("Shim:      libptxshim.so not found (PTX retargeting unavailable)")
	}
	fmt.Println()

	failures := 0
	for _, check := range gpu.Probe() {
		status := "ok"
		if !check.OK {
			status = "MISSING"
			failures++
		}
		fmt.Printf("  %-14s %-8s %s\n", check.Name, status, check.Detail)
	}

	if failures > 0 {
		return errors.New("some GPU checks failed; the miner may not start")
	}
	fmt.Println("\nAll GPU checks passed.")
	return nil
}

// shimLibrary looks for the PTX retargeting shim next to the launcher
// executable and under the install base.
func shimLibrary(base string) (string, bool) {
	candidates := []string{filepath.Join(base, "libptxshim.so")}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "libptxshim.so"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
