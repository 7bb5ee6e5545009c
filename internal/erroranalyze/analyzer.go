// internal/erroranalyze/analyzer.go
//
// Package erroranalyze parses raw build diagnostics into a structured
// BuildErrorReport. Parsing is line oriented: each line is matched against a
// fixed rule table, lines that match no rule are kept under the "unknown"
// category so the repair stage still sees the raw signal, and entries are
// never deduplicated because distinct diagnostics for the same file may need
// distinct fixes.
package erroranalyze

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
)

// Analyzer converts raw diagnostic text into a BuildErrorReport.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a diagnostics analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger.Named("error_analyzer")}
}

// categoryRule maps a diagnostic pattern to its category. Rules are evaluated
// in order; the first match wins.
type categoryRule struct {
	pattern  *regexp.Regexp
	category schemas.ErrorCategory
}

var categoryRules = []categoryRule{
	// Unresolved modules come before type errors: tsc reports them as
	// "error TS2307: Cannot find module", which would otherwise match the
	// generic type-error rule.
	{regexp.MustCompile(`(?i)cannot find module|module not found|can't resolve|could not resolve`), schemas.CategoryMissingDependency},
	{regexp.MustCompile(`(?i)has no exported member|is not exported from|was not found in|import .* not found`), schemas.CategoryMissingImport},
	{regexp.MustCompile(`(?i)unexpected token|unterminated|unexpected end of file|expected ("[^"]+"|'[^']+'|[;,)\]}])|parsing error|syntax error`), schemas.CategorySyntaxError},
	{regexp.MustCompile(`(?i)is not assignable to|cannot find name|does not exist on type|argument of type|type error|error TS\d+`), schemas.CategoryTypeError},
}

// tscLocation matches "path/file.tsx:12:5" and "path/file.tsx(12,5)" forms.
var tscLocation = regexp.MustCompile(`^([\w@./\[\]-]+\.[a-z]+)(?::(\d+):(\d+)|\((\d+),(\d+)\))`)

// bareFile matches a line that is just a source path, the form the bundler
// uses to introduce a block of diagnostics for one file.
var bareFile = regexp.MustCompile(`^\.?/?[\w@./\[\]-]+\.(?:tsx?|jsx?|mjs|css|json)$`)

// noiseLine matches build-tool progress output that carries no diagnostic
// content at all.
var noiseLine = regexp.MustCompile(`(?i)^(?:npm |> |\$ |- info|- warn|info |warn |▲ Next\.js|creating an optimized|compiled |linting |collecting |generating |route \(|○ |λ |✓ )`)

// Analyze parses raw diagnostics into a fresh report. Reports are never
// merged across verification passes.
func (a *Analyzer) Analyze(rawDiagnostics string) schemas.BuildErrorReport {
	var report schemas.BuildErrorReport
	currentFile := ""

	for _, line := range strings.Split(rawDiagnostics, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || noiseLine.MatchString(trimmed) {
			continue
		}

		if bareFile.MatchString(trimmed) {
			currentFile = strings.TrimPrefix(trimmed, "./")
			continue
		}

		entry := schemas.BuildError{
			File:     currentFile,
			Message:  trimmed,
			Category: schemas.CategoryUnknown,
		}

		if loc := tscLocation.FindStringSubmatch(trimmed); loc != nil {
			entry.File = strings.TrimPrefix(loc[1], "./")
			entry.Line = atoiOr(loc[2], loc[4])
			entry.Column = atoiOr(loc[3], loc[5])
		}

		for _, rule := range categoryRules {
			if rule.pattern.MatchString(trimmed) {
				entry.Category = rule.category
				break
			}
		}

		report.Errors = append(report.Errors, entry)
	}

	a.logger.Debug("Diagnostics analyzed",
		zap.Int("entries", len(report.Errors)),
		zap.Int("raw_bytes", len(rawDiagnostics)),
	)
	return report
}

func atoiOr(values ...string) int {
	for _, v := range values {
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
