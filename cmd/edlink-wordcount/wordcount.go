package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/edlink/internal/version"
	"github.com/jmylchreest/edlink/pkg/plugin"
)

// Stats holds the counts for a piece of text.
type Stats struct {
	Lines int `json:"lines"`
	Words int `json:"words"`
	Chars int `json:"chars"`
	Bytes int `json:"bytes"`
}

// Count computes Stats for text. A final line without a newline counts.
func Count(text string) Stats {
	s := Stats{
		Words: len(strings.Fields(text)),
		Chars: utf8.RuneCountInString(text),
		Bytes: len(text),
	}
	s.Lines = strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		s.Lines++
	}
	return s
}

type options struct {
	selection bool
	format    string
	inPlace   bool
}

func newRootCmd(client *plugin.Client, ctx plugin.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "edlink-wordcount",
		Short:         "Count lines, words and characters in the current document",
		Version:       version.For("edlink-wordcount"),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client, ctx, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.selection, "selection", "s", false, "count the selection instead of the whole document")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "report format (text or json)")
	cmd.Flags().BoolVar(&opts.inPlace, "append", false, "append the report to the document instead of opening a new one")
	return cmd
}

func run(client *plugin.Client, ctx plugin.Context, opts *options) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", opts.format)
	}

	doc, err := client.CurrentDocument(ctx)
	if err != nil {
		return err
	}
	if doc == 0 {
		return errors.New("no current document")
	}

	var text string
	if opts.selection {
		text, err = client.SelectionText(doc)
		if err == nil && text == "" {
			err = errors.New("nothing selected")
		}
	} else {
		text, err = client.Text(doc)
	}
	if err != nil {
		return err
	}

	name, err := client.DocumentFilename(doc)
	if err != nil {
		return err
	}
	if name == "" {
		name = "untitled"
	}

	report, err := formatReport(filepath.Base(name), Count(text), opts.format)
	if err != nil {
		return err
	}

	if opts.inPlace {
		return client.AppendText(doc, "\n"+report)
	}

	out, err := client.NewDocument(ctx, "Word Count: "+filepath.Base(name))
	if err != nil {
		return err
	}
	if err := client.AppendText(out, report); err != nil {
		return err
	}
	return client.ShowDocument(out)
}

func formatReport(name string, s Stats, format string) (string, error) {
	if format == "json" {
		b, err := json.MarshalIndent(struct {
			Document string `json:"document"`
			Stats
		}{name, s}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		return string(b) + "\n", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", name)
	fmt.Fprintf(&sb, "  lines: %d\n", s.Lines)
	fmt.Fprintf(&sb, "  words: %d\n", s.Words)
	fmt.Fprintf(&sb, "  chars: %d\n", s.Chars)
	fmt.Fprintf(&sb, "  bytes: %d\n", s.Bytes)
	return sb.String(), nil
}
