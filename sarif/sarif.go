// Package sarif renders scan results as SARIF 2.1.0 documents for
// consumption by code-scanning dashboards and CI annotations.
package sarif

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/NOMARJ/sigil/finding"
)

// SchemaURI is the published SARIF 2.1.0 JSON schema location.
const SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// SchemaVersion is the SARIF format version emitted by this package.
const SchemaVersion = "2.1.0"

const (
	toolName       = "sigil"
	informationURI = "https://github.com/NOMARJ/sigil"
	srcRootBaseID  = "%SRCROOT%"
)

// snippetPreviewLen bounds rule short descriptions, which reuse the
// first matched snippet.
const snippetPreviewLen = 100

// Document is a complete SARIF log file.
type Document struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run is a single tool invocation within a Document.
type Run struct {
	Tool        Tool         `json:"tool"`
	Results     []Result     `json:"results"`
	Invocations []Invocation `json:"invocations"`
	Artifacts   []Artifact   `json:"artifacts"`
}

// Tool wraps the driver descriptor.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver describes the scanner and its rule catalogue.
type Driver struct {
	Name           string           `json:"name"`
	Version        string           `json:"version"`
	InformationURI string           `json:"informationUri"`
	Rules          []RuleDescriptor `json:"rules"`
}

// RuleDescriptor is one catalogue entry, deduplicated by rule id.
type RuleDescriptor struct {
	ID                   string         `json:"id"`
	ShortDescription     Message        `json:"shortDescription"`
	DefaultConfiguration Configuration  `json:"defaultConfiguration"`
	Properties           map[string]any `json:"properties,omitempty"`
}

// Message is SARIF's text wrapper.
type Message struct {
	Text string `json:"text"`
}

// Configuration carries a rule's default reporting level.
type Configuration struct {
	Level string `json:"level"`
}

// Result is one reported finding.
type Result struct {
	RuleID     string         `json:"ruleId"`
	Level      string         `json:"level"`
	Message    Message        `json:"message"`
	Locations  []Location     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Location wraps a physical file location.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation names a file region within the scanned root.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation is a URI relative to the scan root.
type ArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

// Region is a start position within a file.
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}

// Invocation records run-level outcome properties.
type Invocation struct {
	ExecutionSuccessful bool           `json:"executionSuccessful"`
	Properties          map[string]any `json:"properties,omitempty"`
}

// Artifact names a scanned input.
type Artifact struct {
	Location ArtifactLocation `json:"location"`
}

// Level maps a severity to its SARIF reporting level.
func Level(severity finding.Severity) string {
	switch severity {
	case finding.SeverityLow:
		return "note"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "error"
	}
}

// FromResult converts a scan result into a single-run SARIF document.
// target is the scanned root recorded as the run's artifact, and
// version is the scanner version stamped on the driver.
func FromResult(result finding.ScanResult, target, version string) Document {
	results := make([]Result, 0, len(result.Findings))
	for _, f := range result.Findings {
		line := f.Line
		if line == 0 {
			line = 1
		}
		results = append(results, Result{
			RuleID:  f.Rule,
			Level:   Level(f.Severity),
			Message: Message{Text: f.Snippet},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI:       f.File,
						URIBaseID: srcRootBaseID,
					},
					Region: Region{StartLine: line, StartColumn: 1},
				},
			}},
			Properties: map[string]any{
				"phase":  f.Phase.String(),
				"weight": f.Weight,
			},
		})
	}

	return Document{
		Schema:  SchemaURI,
		Version: SchemaVersion,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:           toolName,
				Version:        version,
				InformationURI: informationURI,
				Rules:          ruleCatalogue(result.Findings),
			}},
			Results: results,
			Invocations: []Invocation{{
				ExecutionSuccessful: true,
				Properties: map[string]any{
					"riskScore":    result.Score,
					"verdict":      result.Verdict.String(),
					"filesScanned": result.FilesScanned,
					"durationMs":   result.DurationMS,
				},
			}},
			Artifacts: []Artifact{{
				Location: ArtifactLocation{URI: target, URIBaseID: srcRootBaseID},
			}},
		}},
	}
}

// ruleCatalogue builds one descriptor per distinct rule id, in first
// occurrence order.
func ruleCatalogue(findings []finding.Finding) []RuleDescriptor {
	seen := make(map[string]bool, len(findings))
	rules := make([]RuleDescriptor, 0, len(findings))
	for _, f := range findings {
		if seen[f.Rule] {
			continue
		}
		seen[f.Rule] = true

		preview := truncatePreview(f.Snippet, snippetPreviewLen)
		rules = append(rules, RuleDescriptor{
			ID:                   f.Rule,
			ShortDescription:     Message{Text: preview},
			DefaultConfiguration: Configuration{Level: Level(f.Severity)},
			Properties:           map[string]any{"phase": f.Phase.String()},
		})
	}
	return rules
}

// truncatePreview shortens s to at most limit bytes, backing off to a
// rune boundary so a multi-byte character is never split.
func truncatePreview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Encode writes the document as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
