package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"qir/internal/version"
)

type versionInfo struct {
	Version    string
	GitCommit  string
	GitMessage string
	BuildDate  string
}

type versionOptions struct {
	format      string
	showHash    bool
	showMessage bool
	showDate    bool
}

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var (
		format string
		opts   versionOptions
		full   bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show qirc build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.format = strings.ToLower(format)
			opts.showHash = opts.showHash || full
			opts.showMessage = opts.showMessage || full
			opts.showDate = opts.showDate || full

			info := collectVersionInfo()
			switch opts.format {
			case "json":
				return renderVersionJSON(cmd.OutOrStdout(), info, opts)
			case "pretty":
				renderVersionPretty(cmd.OutOrStdout(), info, opts)
				return nil
			}
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		},
	}
	cmd.Flags().BoolVar(&opts.showHash, "hash", false, "include git commit hash")
	cmd.Flags().BoolVar(&opts.showMessage, "message", false, "include git commit message")
	cmd.Flags().BoolVar(&opts.showDate, "date", false, "include build timestamp")
	cmd.Flags().BoolVar(&full, "full", false, "show every recorded bit of build metadata")
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:    v,
		GitCommit:  strings.TrimSpace(version.GitCommit),
		GitMessage: strings.TrimSpace(version.GitMessage),
		BuildDate:  strings.TrimSpace(version.BuildDate),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if v == version.Version {
		v = version.Pretty()
	}
	fmt.Fprintf(out, "qirc %s\n", v)
	if opts.showHash {
		fmt.Fprintf(out, "commit:  %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showMessage {
		fmt.Fprintf(out, "message: %s\n", valueOrUnknown(info.GitMessage))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{Tool: "qirc", Version: info.Version}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showMessage {
		payload.GitMessage = valueOrUnknown(info.GitMessage)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
