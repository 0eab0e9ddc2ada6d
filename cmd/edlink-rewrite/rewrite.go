package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/edlink/internal/version"
	"github.com/jmylchreest/edlink/pkg/plugin"
)

const defaultInstruction = "Fix spelling and grammar. Keep the meaning, tone and formatting."

type rewrite struct {
	client   *plugin.Client
	ctx      plugin.Context
	logger   hclog.Logger
	newModel func(backend string) (Model, error)

	instruction string
	model       string
	backend     string
	timeout     time.Duration
	whole       bool
}

func (r *rewrite) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "edlink-rewrite",
		Short:         "Rewrite the selection with a Gen AI model",
		Version:       version.For("edlink-rewrite"),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&r.instruction, "instruction", "i", defaultInstruction, "what to do with the text")
	cmd.Flags().StringVar(&r.model, "model", defaultModel, "model to use")
	cmd.Flags().StringVar(&r.backend, "genai-backend", defaultBackend, "Google Gen AI backend (gemini-api or vertex-ai)")
	cmd.Flags().DurationVar(&r.timeout, "timeout", time.Minute, "how long to wait for the model")
	cmd.Flags().BoolVar(&r.whole, "whole", false, "rewrite the whole document into a new one when nothing is selected")
	return cmd
}

func (r *rewrite) run(ctx context.Context) error {
	doc, err := r.client.CurrentDocument(r.ctx)
	if err != nil {
		return err
	}
	if doc == 0 {
		return errors.New("no current document")
	}

	sel, err := r.client.SelectionRange(doc)
	if err != nil {
		return err
	}

	var text string
	switch {
	case !sel.Empty():
		text, err = r.client.SelectionText(doc)
	case r.whole:
		text, err = r.client.Text(doc)
	default:
		return errors.New("nothing selected (use --whole to rewrite the document)")
	}
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("nothing to rewrite")
	}

	model, err := r.newModel(r.backend)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info("rewriting", "model", r.model, "chars", len([]rune(text)))
	reply, err := model.Rewrite(ctx, r.model, r.instruction, text)
	if err != nil {
		return fmt.Errorf("rewrite failed: %w", err)
	}
	out := cleanReply(reply, text)
	if out == text {
		r.logger.Info("text unchanged")
		return nil
	}

	if !sel.Empty() {
		return r.client.SetSelectionText(doc, out)
	}
	return r.toNewDocument(doc, out)
}

func (r *rewrite) toNewDocument(from plugin.DocID, text string) error {
	name, err := r.client.DocumentFilename(from)
	if err != nil {
		return err
	}
	title := "Rewrite"
	if name != "" {
		title = "Rewrite of " + filepath.Base(name)
	}

	doc, err := r.client.NewDocument(r.ctx, title)
	if err != nil {
		return err
	}
	if err := r.client.AppendText(doc, text); err != nil {
		return err
	}
	if err := r.client.SetWordWrap(doc, true); err != nil {
		return err
	}
	return r.client.ShowDocument(doc)
}
