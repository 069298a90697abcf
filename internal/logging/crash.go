package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"manoonchai/internal/config"
)

// CrashReport represents information about a crash.
type CrashReport struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	GOOS         string         `json:"goos"`
	GOARCH       string         `json:"goarch"`
	NumGoroutine int            `json:"num_goroutine"`
	PanicValue   string         `json:"panic_value"`
	StackTrace   string         `json:"stack_trace"`
	Component    string         `json:"component,omitempty"`
	Args         []string       `json:"args,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// CrashHandler writes a JSON crash dump for a recovered panic.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	stderr    io.Writer
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory to write crash dumps.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// Stderr receives a short notice. Defaults to os.Stderr.
	Stderr io.Writer
}

// DefaultCrashDir returns the default crash directory.
func DefaultCrashDir() string {
	return filepath.Join(config.DataDir(), "crashes")
}

// NewCrashHandler creates a new CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	h := &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		stderr:    cfg.Stderr,
	}
	if h.crashDir == "" {
		h.crashDir = DefaultCrashDir()
	}
	if h.component == "" {
		h.component = "manoonchai"
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}
	return h
}

// Recover runs fn and turns a panic into a crash report. It reports
// whether fn panicked.
func (h *CrashHandler) Recover(fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			h.HandlePanic(r, nil)
		}
	}()
	fn()
	return false
}

// RecoverAndExit is deferred at the top of main. A panic is written to a
// crash report and the process exits with code.
func (h *CrashHandler) RecoverAndExit(code int) {
	if r := recover(); r != nil {
		h.HandlePanic(r, nil)
		os.Exit(code)
	}
}

// HandlePanic processes a panic and writes a crash report.
func (h *CrashHandler) HandlePanic(panicValue any, contextInfo map[string]any) CrashReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
		Args:         os.Args,
		Context:      contextInfo,
	}

	path, err := h.writeCrashDump(report)
	if err != nil {
		fmt.Fprintf(h.stderr, "panic: %s (crash dump failed: %v)\n%s\n", report.PanicValue, err, report.StackTrace)
		return report
	}
	fmt.Fprintf(h.stderr, "panic: %s\ncrash report written to %s\n", report.PanicValue, path)
	return report
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if err := os.MkdirAll(h.crashDir, 0750); err != nil {
		return "", fmt.Errorf("create crash directory: %w", err)
	}

	filename := fmt.Sprintf("crash-%s-%s.json",
		report.Component,
		report.Timestamp.Format("20060102-150405.000000000"))
	path := filepath.Join(h.crashDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Dir returns the directory crash reports are written to.
func (h *CrashHandler) Dir() string { return h.crashDir }

func (h *CrashHandler) reportFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
}

// Reports returns the stored crash reports, newest first. Files that cannot
// be read or parsed are skipped.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	files, err := h.reportFiles()
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var r CrashReport
		if json.Unmarshal(data, &r) != nil {
			continue
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})
	return reports, nil
}

// ClearReports removes every stored crash report and returns how many were
// removed.
func (h *CrashHandler) ClearReports() (int, error) {
	files, err := h.reportFiles()
	if err != nil {
		return 0, err
	}
	var errs []error
	removed := 0
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
