// Command project-info summarizes a gravity-survey project document: the
// concrete project kind, entity counts, and every failed graph invariant.
// It exits non-zero when the document cannot be decoded or carries
// blocking validation findings.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gravcore/pkg/project"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("project-info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	marine := fs.Bool("marine", false, "decode the document as a marine project")
	quiet := fs.Bool("quiet", false, "print validation findings only")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := fs.Arg(0)
	if path == "" {
		path = "dgp.json"
	}
	kind := project.ProjectKindAirborne
	if *marine {
		kind = project.ProjectKindMarine
	}
	if err := run(path, kind, *quiet, stdout); err != nil {
		fmt.Fprintf(stderr, "project-info: %v\n", err)
		return 1
	}
	return 0
}

type summary struct {
	flights     int
	gravimeters int
	datasets    int
	datafiles   int
	segments    int
}

// run reads and decodes the document at path, prints its summary and
// validation findings, and fails on blocking findings.
func run(path string, kind project.ProjectKind, quiet bool, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read project document: %w", err)
	}
	p, err := project.NewDecoder(nil).Decode(data, kind)
	if err != nil {
		return fmt.Errorf("decode project document: %w", err)
	}

	if !quiet {
		printSummary(stdout, p, summarize(p))
	}

	violations := project.Validate(p)
	printViolations(stdout, violations)
	if project.HasBlocking(violations) {
		return fmt.Errorf("%d blocking validation findings", countBlocking(violations))
	}
	return nil
}

func summarize(p project.Project) summary {
	s := summary{gravimeters: len(p.Gravimeters())}
	airborne, ok := p.(*project.AirborneProject)
	if !ok {
		return s
	}
	s.flights = len(airborne.Flights())
	for _, flight := range airborne.Flights() {
		for _, ds := range flight.DataSets() {
			s.datasets++
			if ds.Gravity() != nil {
				s.datafiles++
			}
			if ds.Trajectory() != nil {
				s.datafiles++
			}
			s.segments += len(ds.Segments())
		}
	}
	return s
}

func printSummary(w io.Writer, p project.Project, s summary) {
	fmt.Fprintf(w, "Project:     %s\n", p.Name())
	fmt.Fprintf(w, "Identifier:  %s\n", p.UID())
	if path := p.Path(); path != "" {
		fmt.Fprintf(w, "Path:        %s\n", path)
	}
	if desc := p.Description(); desc != "" {
		fmt.Fprintf(w, "Description: %s\n", desc)
	}
	fmt.Fprintf(w, "Created:     %s\n", p.CreateDate().Format(time.RFC3339))
	fmt.Fprintf(w, "Modified:    %s\n", p.ModifyDate().Format(time.RFC3339))
	fmt.Fprintf(w, "Gravimeters: %d\n", s.gravimeters)
	if _, ok := p.(*project.AirborneProject); ok {
		fmt.Fprintf(w, "Flights:     %d\n", s.flights)
		fmt.Fprintf(w, "Data sets:   %d\n", s.datasets)
		fmt.Fprintf(w, "Data files:  %d\n", s.datafiles)
		fmt.Fprintf(w, "Segments:    %d\n", s.segments)
	}
}

func printViolations(w io.Writer, violations []project.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(w, "Validation:  clean")
		return
	}
	fmt.Fprintf(w, "Validation:  %d findings\n", len(violations))
	for _, v := range violations {
		line := fmt.Sprintf("  %-5s %-15s %s", v.Severity, v.Rule, v.Message)
		if v.UID != "" {
			line += fmt.Sprintf(" (%s)", v.UID)
		}
		fmt.Fprintln(w, line)
	}
}

func countBlocking(violations []project.Violation) int {
	n := 0
	for _, v := range violations {
		if v.Severity == project.SeverityBlock {
			n++
		}
	}
	return n
}
