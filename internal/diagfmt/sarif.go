package diagfmt

import (
	"encoding/json"
	"io"
	"slices"

	"qir/internal/diag"
	"qir/internal/source"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
}

// Sarif writes diagnostics as a SARIF v2.1.0 log with a single run.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion}},
		Results: make([]sarifResult, 0, bag.Len()),
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !bag.HasErrors()}}
	}

	var codes []diag.Code
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		if !slices.Contains(codes, d.Code) {
			codes = append(codes, d.Code)
		}
		res := sarifResult{
			RuleID:  d.Code.ID(),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if loc, ok := resolve(fs, d.Primary, PathModeRelative); ok {
			res.Locations = []sarifLocation{{PhysicalLocation: sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: loc.path},
				Region: sarifRegion{
					StartLine:   loc.start.Line,
					StartColumn: loc.start.Col,
					EndLine:     loc.end.Line,
					EndColumn:   loc.end.Col,
				},
			}}}
		}
		run.Results = append(run.Results, res)
	}
	slices.Sort(codes)
	for _, c := range codes {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: c.ID(), ShortDescription: sarifMessage{Text: c.Title()}})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
