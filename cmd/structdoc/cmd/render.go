package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/twinfer/structdoc/pkg/doc"
	"github.com/twinfer/structdoc/pkg/structdoc"
)

var exampleForRenderCmd = `
render one entry file as tables:
  structdoc render docs/header.entry.yaml

render several entries as JSON:
  structdoc render -o json docs/*.entry.yaml

render a type straight from a schema file:
  structdoc render --schema formats/header.yaml --type Header --offsets
`

type renderOpts struct {
	format      string
	schema      string
	typeName    string
	id          string
	showOffsets bool
	concurrency int
}

func newRenderCmd(a *app) *cobra.Command {
	opts := &renderOpts{}
	renderCmd := &cobra.Command{
		Use:     "render [ENTRY_FILE...]",
		Short:   "render documentation tables for entries",
		Example: exampleForRenderCmd,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := opts.entries(args)
			if err != nil {
				return err
			}
			nodes, err := a.renderAll(cmd.Context(), entries, opts.concurrency)
			if err != nil {
				return err
			}
			return writeNodes(cmd.OutOrStdout(), opts.format, nodes)
		},
	}

	flags := renderCmd.Flags()
	flags.StringVarP(&opts.format, "output", "o", "text", "output format: text or json")
	flags.StringVar(&opts.schema, "schema", "", "schema file to render --type from instead of entry files")
	flags.StringVarP(&opts.typeName, "type", "t", "", "type to render from --schema")
	flags.StringVar(&opts.id, "id", "", "anchor id of the rendered root when using --type")
	flags.BoolVar(&opts.showOffsets, "offsets", false, "show the offset column in every struct table")
	flags.IntVar(&opts.concurrency, "concurrency", 4, "number of entries rendered at once")
	return renderCmd
}

func (o *renderOpts) entries(args []string) ([]*structdoc.Entry, error) {
	var entries []*structdoc.Entry
	if o.typeName != "" {
		entry := &structdoc.Entry{EntryType: o.typeName, ID: o.id}
		if o.schema != "" {
			entry.TypeDefs = structdoc.Sources{{Path: o.schema}}
		}
		entries = append(entries, entry)
	} else if o.schema != "" {
		return nil, errors.New("--schema needs --type")
	}
	for _, path := range args {
		entry, err := structdoc.ReadEntry(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.New("no entry files given")
	}
	if o.showOffsets {
		for _, entry := range entries {
			entry.ShowOffsets = true
		}
	}
	return entries, nil
}

// renderAll renders entries in parallel, keeping their order.
func (a *app) renderAll(ctx context.Context, entries []*structdoc.Entry, limit int) ([]*doc.Node, error) {
	nodes := make([]*doc.Node, len(entries))
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, entry := range entries {
		eg.Go(func() error {
			node, err := a.renderer.Render(ctx, entry)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", entry.EntryType, err)
			}
			nodes[i] = node
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func writeNodes(w io.Writer, format string, nodes []*doc.Node) error {
	switch format {
	case "json":
		var v any = nodes
		if len(nodes) == 1 {
			v = nodes[0]
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling to JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "text":
		for _, node := range nodes {
			writeText(w, node)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q, want text or json", format)
	}
}
