package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gravcore/pkg/project"
	fixtures "gravcore/testutil/fixtures/project"
)

func writeTempDocument(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dgp.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp document: %v", err)
	}
	return path
}

func TestRunSummarizesAirborneProject(t *testing.T) {
	path := writeTempDocument(t, fixtures.Airborne())
	var out bytes.Buffer
	if err := run(path, project.ProjectKindAirborne, false, &out); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Project:     Scotia Bay",
		"Gravimeters: 1",
		"Flights:     1",
		"Data sets:   1",
		"Data files:  2",
		"Segments:    2",
		"Validation:  clean",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRunSummarizesMarineProject(t *testing.T) {
	path := writeTempDocument(t, fixtures.Marine())
	var out bytes.Buffer
	if err := run(path, project.ProjectKindMarine, false, &out); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Project:     Drake Passage") {
		t.Fatalf("expected marine project name, got:\n%s", text)
	}
	if strings.Contains(text, "Flights") {
		t.Fatalf("marine summary must not list flights, got:\n%s", text)
	}
}

func TestRunQuietPrintsFindingsOnly(t *testing.T) {
	path := writeTempDocument(t, fixtures.Airborne())
	var out bytes.Buffer
	if err := run(path, project.ProjectKindAirborne, true, &out); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	text := out.String()
	if strings.Contains(text, "Project:") {
		t.Fatalf("quiet output must omit the summary, got:\n%s", text)
	}
	if !strings.Contains(text, "Validation:  clean") {
		t.Fatalf("expected validation line, got:\n%s", text)
	}
}

func TestRunKindMismatch(t *testing.T) {
	path := writeTempDocument(t, fixtures.Airborne())
	err := run(path, project.ProjectKindMarine, false, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "decode project document") {
		t.Fatalf("expected decode error for kind mismatch, got %v", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "missing.json"), project.ProjectKindAirborne, false, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "read project document") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestRunInvalidDocument(t *testing.T) {
	path := writeTempDocument(t, []byte("not a document"))
	err := run(path, project.ProjectKindAirborne, false, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "decode project document") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRunBlockingViolations(t *testing.T) {
	path := writeTempDocument(t, fixtures.AirborneDuplicateUID())
	var out bytes.Buffer
	err := run(path, project.ProjectKindAirborne, false, &out)
	if err == nil || !strings.Contains(err.Error(), "blocking validation findings") {
		t.Fatalf("expected blocking findings error, got %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "unique_oid") {
		t.Fatalf("expected unique_oid finding in output, got:\n%s", text)
	}
	if !strings.Contains(text, "block") {
		t.Fatalf("expected block severity in output, got:\n%s", text)
	}
}

func TestCLI(t *testing.T) {
	path := writeTempDocument(t, fixtures.Airborne())
	var out, errBuf bytes.Buffer
	code := cli([]string{path}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%s)", code, errBuf.String())
	}
	if !strings.Contains(out.String(), "Scotia Bay") {
		t.Fatalf("expected summary output, got %q", out.String())
	}

	marinePath := writeTempDocument(t, fixtures.Marine())
	out.Reset()
	code = cli([]string{"-marine", marinePath}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("expected exit code 0 for marine document, got %d (stderr=%s)", code, errBuf.String())
	}

	code = cli([]string{filepath.Join(t.TempDir(), "missing.json")}, &out, &errBuf)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errBuf.String(), "project-info:") {
		t.Fatalf("expected failure message, got %q", errBuf.String())
	}

	errBuf.Reset()
	code = cli([]string{"--invalid-flag"}, &out, &errBuf)
	if code != 2 {
		t.Fatalf("expected exit code 2 for flag error, got %d", code)
	}
}

func TestMainFunction(t *testing.T) {
	path := writeTempDocument(t, fixtures.Airborne())
	origExit := exitFunc
	defer func() { exitFunc = origExit }()
	exitCode := -1
	exitFunc = func(code int) { exitCode = code }
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"project-info", path}
	main()
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
}
