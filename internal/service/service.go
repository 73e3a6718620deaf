// Package service installs nudge as a launchd agent so it runs on login and
// restarts if it exits.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/joho/godotenv"

	"github.com/chris/nudge/config"
)

const (
	label   = "com.nudge.bot"
	binDest = "/usr/local/bin/nudge"
)

// layout is where the service's files live under a home directory.
type layout struct {
	home string
}

func defaultLayout() layout {
	home, _ := os.UserHomeDir()
	return layout{home: home}
}

func (l layout) plistPath() string {
	return filepath.Join(l.home, "Library", "LaunchAgents", label+".plist")
}

func (l layout) stdoutLog() string {
	return filepath.Join(l.home, "Library", "Logs", "nudge-stdout.log")
}

func (l layout) stderrLog() string {
	return filepath.Join(l.home, "Library", "Logs", "nudge-stderr.log")
}

// Install copies the binary to /usr/local/bin, seeds ~/.nudge/config from
// .env if needed, writes the launchd plist and loads it.
func Install() error {
	l := defaultLayout()

	if err := installBinary(); err != nil {
		return err
	}
	if err := seedConfig(".env", config.ConfigFile()); err != nil {
		return err
	}

	plist, err := renderPlist(l, workDir(config.ConfigFile()))
	if err != nil {
		return fmt.Errorf("generating plist: %w", err)
	}

	// Unload a previous install so the new plist takes effect.
	if _, err := os.Stat(l.plistPath()); err == nil {
		_ = launchctl("unload", l.plistPath())
	}
	if err := os.MkdirAll(filepath.Dir(l.plistPath()), 0755); err != nil {
		return fmt.Errorf("creating LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(l.plistPath(), []byte(plist), 0644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	fmt.Printf("wrote plist to %s\n", l.plistPath())

	if err := launchctl("load", l.plistPath()); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	fmt.Println("service loaded and will start on login")
	return nil
}

func installBinary() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	data, err := os.ReadFile(exe)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(binDest), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(binDest), err)
	}
	if err := os.WriteFile(binDest, data, 0755); err != nil {
		return fmt.Errorf("copying binary to %s: %w", binDest, err)
	}
	fmt.Printf("installed binary to %s\n", binDest)
	return nil
}

// seedConfig copies envFile to configFile unless configFile already exists.
// The file holds the bot token, so it is private to the user.
func seedConfig(envFile, configFile string) error {
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("config already exists at %s\n", configFile)
		return nil
	}
	data, err := os.ReadFile(envFile)
	if err != nil {
		return nil // nothing to seed from
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("seeded config from %s -> %s\n", envFile, configFile)
	return nil
}

// workDir picks the service's working directory. A relative DATABASE_PATH is
// resolved against the directory install ran from; anything else runs in the
// config directory. A postgres DATABASE_URL makes the path irrelevant.
func workDir(configFile string) string {
	vars, _ := godotenv.Read(configFile)
	if vars["DATABASE_URL"] == "" {
		if p := vars["DATABASE_PATH"]; p != "" && !filepath.IsAbs(p) {
			if wd, err := os.Getwd(); err == nil {
				return wd
			}
		}
	}
	return filepath.Dir(configFile)
}

// Uninstall unloads and removes the plist, then removes the binary.
func Uninstall() error {
	l := defaultLayout()

	if _, err := os.Stat(l.plistPath()); err == nil {
		if err := launchctl("unload", l.plistPath()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: unload failed: %v\n", err)
		}
		if err := os.Remove(l.plistPath()); err != nil {
			return fmt.Errorf("removing plist: %w", err)
		}
		fmt.Printf("removed %s\n", l.plistPath())
	} else {
		fmt.Println("plist not found, skipping")
	}

	if _, err := os.Stat(binDest); err == nil {
		if err := os.Remove(binDest); err != nil {
			return fmt.Errorf("removing binary: %w", err)
		}
		fmt.Printf("removed %s\n", binDest)
	} else {
		fmt.Println("binary not found in /usr/local/bin, skipping")
	}

	fmt.Println("uninstalled")
	return nil
}

func Start() error {
	return launchctl("start", label)
}

func Stop() error {
	return launchctl("stop", label)
}

func Restart() error {
	_ = Stop()
	return Start()
}

func Status() error {
	cmd := exec.Command("launchctl", "list", label)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("service is not loaded")
	}
	return nil
}

// Logs follows the service's stdout and stderr logs.
func Logs() error {
	l := defaultLayout()
	cmd := exec.Command("tail", "-f", l.stdoutLog(), l.stderrLog())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func launchctl(args ...string) error {
	cmd := exec.Command("launchctl", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("launchctl %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinPath}}</string>
		<string>run</string>
	</array>
	<key>WorkingDirectory</key>
	<string>{{.WorkDir}}</string>
	<key>EnvironmentVariables</key>
	<dict>
		<key>ENV</key>
		<string>prod</string>
	</dict>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.StdoutLog}}</string>
	<key>StandardErrorPath</key>
	<string>{{.StderrLog}}</string>
</dict>
</plist>
`))

func renderPlist(l layout, workDir string) (string, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label, BinPath, WorkDir, StdoutLog, StderrLog string
	}{
		Label:     label,
		BinPath:   binDest,
		WorkDir:   workDir,
		StdoutLog: l.stdoutLog(),
		StderrLog: l.stderrLog(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
