package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/edlink/internal/version"
	"github.com/jmylchreest/edlink/pkg/plugin"
)

const (
	copyExt = ".txt.xz"

	// stampLayout sorts lexically in time order.
	stampLayout = "20060102T150405.000Z"

	// maxRestore bounds the decompressed size of a restored copy.
	maxRestore = 64 << 20
)

type saveCopy struct {
	client *plugin.Client
	ctx    plugin.Context
	logger hclog.Logger
	now    func() time.Time

	dir      string
	keep     int
	restore  bool
	writable bool
}

func (sc *saveCopy) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "edlink-savecopy",
		Short:         "Save a compressed copy of the current document",
		Version:       version.For("edlink-savecopy"),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if sc.restore {
				return sc.restoreLatest()
			}
			return sc.save()
		},
	}
	sc.registerFlags(cmd.Flags())
	return cmd
}

func (sc *saveCopy) registerFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&sc.dir, "dir", "d", defaultDir(), "directory holding the copies")
	fs.IntVarP(&sc.keep, "keep", "k", 10, "copies to keep per document, 0 keeps all")
	fs.BoolVar(&sc.restore, "restore", false, "open the newest copy in a new document")
	fs.BoolVar(&sc.writable, "writable", false, "leave a restored copy editable")
}

func defaultDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "edlink", "copies")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "edlink-copies")
	}
	return filepath.Join(home, ".local", "state", "edlink", "copies")
}

// current returns the current document and the base name its copies use.
func (sc *saveCopy) current() (plugin.DocID, string, error) {
	doc, err := sc.client.CurrentDocument(sc.ctx)
	if err != nil {
		return 0, "", err
	}
	if doc == 0 {
		return 0, "", errors.New("no current document")
	}
	name, err := sc.client.DocumentFilename(doc)
	if err != nil {
		return 0, "", err
	}
	if name == "" {
		return doc, fmt.Sprintf("untitled-%d", doc), nil
	}
	return doc, filepath.Base(name), nil
}

func (sc *saveCopy) save() error {
	doc, base, err := sc.current()
	if err != nil {
		return err
	}
	text, err := sc.client.Text(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(sc.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create copy directory: %w", err)
	}
	path := filepath.Join(sc.dir, base+"."+sc.now().UTC().Format(stampLayout)+copyExt)
	if err := writeXz(path, []byte(text)); err != nil {
		return err
	}
	sc.logger.Info("saved copy", "path", path, "bytes", len(text))

	return sc.prune(base)
}

func (sc *saveCopy) prune(base string) error {
	if sc.keep <= 0 {
		return nil
	}
	copies, err := sc.copies(base)
	if err != nil {
		return err
	}
	for len(copies) > sc.keep {
		if err := os.Remove(copies[0]); err != nil {
			return fmt.Errorf("failed to remove old copy: %w", err)
		}
		sc.logger.Debug("removed old copy", "path", copies[0])
		copies = copies[1:]
	}
	return nil
}

// copies lists the copies of base, oldest first.
func (sc *saveCopy) copies(base string) ([]string, error) {
	entries, err := os.ReadDir(sc.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read copy directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		stamp, ok := strings.CutPrefix(e.Name(), base+".")
		if !ok || e.IsDir() {
			continue
		}
		stamp, ok = strings.CutSuffix(stamp, copyExt)
		if !ok {
			continue
		}
		if _, err := time.Parse(stampLayout, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(sc.dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (sc *saveCopy) restoreLatest() error {
	_, base, err := sc.current()
	if err != nil {
		return err
	}
	copies, err := sc.copies(base)
	if err != nil {
		return err
	}
	if len(copies) == 0 {
		return fmt.Errorf("no copies of %s in %s", base, sc.dir)
	}
	latest := copies[len(copies)-1]

	data, err := readXz(latest)
	if err != nil {
		return err
	}

	doc, err := sc.client.NewDocument(sc.ctx, base+" (restored)")
	if err != nil {
		return err
	}
	if err := sc.client.AppendText(doc, string(data)); err != nil {
		return err
	}
	if !sc.writable {
		if err := sc.client.SetReadOnly(doc, true); err != nil {
			return err
		}
	}
	sc.logger.Info("restored copy", "path", latest, "document", doc)
	return sc.client.ShowDocument(doc)
}

func writeXz(path string, data []byte) error {
	out, err := os.Create(path) // #nosec G304 - path built from the configured copy directory
	if err != nil {
		return fmt.Errorf("failed to create copy: %w", err)
	}

	xzw, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	_, writeErr := xzw.Write(data)
	xzErr := xzw.Close()
	closeErr := out.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to compress copy: %w", writeErr)
	}
	if xzErr != nil {
		return fmt.Errorf("failed to finish xz stream: %w", xzErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close copy: %w", closeErr)
	}
	return nil
}

func readXz(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path listed from the configured copy directory
	if err != nil {
		return nil, fmt.Errorf("failed to read copy: %w", err)
	}

	xzr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	text, err := io.ReadAll(io.LimitReader(xzr, maxRestore+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress copy: %w", err)
	}
	if len(text) > maxRestore {
		return nil, fmt.Errorf("copy %s exceeds %d bytes", filepath.Base(path), maxRestore)
	}
	return text, nil
}
