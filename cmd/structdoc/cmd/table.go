package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"

	"github.com/twinfer/structdoc/pkg/doc"
)

// writeText prints node as a table followed by the tables it embeds.
func writeText(w io.Writer, node *doc.Node) {
	title := node.TypeName
	if anchor := node.PathID.Anchor(); anchor != "" {
		title += " #" + anchor
	}
	fmt.Fprintf(w, "%s (%s, %s)\n", title, node.Class, units.BytesSize(float64(node.Size)))
	if text := commentText(node.Comments); text != "" {
		fmt.Fprintln(w, text)
	}

	header := make([]string, len(node.Columns))
	for i, col := range node.Columns {
		header[i] = col.Label
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	for _, row := range node.Rows {
		cells := make([]string, len(node.Columns))
		for i, col := range node.Columns {
			cells[i] = cell(row, col.Key)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintln(w)

	for _, row := range node.Rows {
		if row.Embedded != nil {
			writeText(w, row.Embedded)
		}
	}
}

func cell(row doc.Row, key string) string {
	switch key {
	case "field", "bit", "option":
		return row.Name
	case "offset":
		if row.Offset != nil {
			return strconv.Itoa(*row.Offset)
		}
	case "type":
		if row.Type == nil {
			return ""
		}
		text := fmt.Sprintf("%s (%s)", row.Type, units.BytesSize(float64(row.Size)))
		if row.Ref != nil {
			target := row.Ref.TypeName
			if row.Ref.Anchor != "" {
				target = "#" + row.Ref.Anchor
			}
			text += ", see " + target
		}
		return text
	case "mask":
		return fmt.Sprintf("0x%X", row.Mask)
	case "value":
		if row.Value != nil {
			return strconv.FormatInt(*row.Value, 10)
		}
	case "comments":
		return commentText(row.Comments)
	}
	return ""
}

func commentText(c doc.Comments) string {
	parts := make([]string, 0, len(c.Labels)+1)
	for _, badge := range c.Labels {
		parts = append(parts, "["+badge.Text+"]")
	}
	if c.Prose != "" {
		parts = append(parts, c.Prose)
	}
	return strings.Join(parts, " ")
}
