package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"qir/internal/address"
	"qir/internal/ir"
	"qir/internal/schedule"
)

// DumpOpts configures the address map and schedule listings.
type DumpOpts struct {
	Color bool
	// All includes values whose address is not-qubit.
	All bool
}

var (
	funcStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	anyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (o DumpOpts) render(s lipgloss.Style, text string) string {
	if !o.Color {
		return text
	}
	return s.Render(text)
}

// AddressMap lists the address of every value of fn in definition order,
// names aligned in one column.
func AddressMap(w io.Writer, fn *ir.Func, res *address.Result, opts DumpOpts) error {
	type row struct{ name, addr string }
	var rows []row
	width := 0
	for i := range fn.Values {
		v := ir.ValueID(i) //nolint:gosec // bounded by value count
		a := res.Get(fn.ID, v)
		if a.Kind() == address.NotQubit && !opts.All {
			continue
		}
		name := fn.ValueName(v)
		width = max(width, runewidth.StringWidth(name))
		style := addrStyle
		if a.ContainsAny() {
			style = anyStyle
		}
		rows = append(rows, row{name: name, addr: opts.render(style, a.String())})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opts.render(funcStyle, "@"+fn.Name))
	if len(rows) == 0 {
		fmt.Fprintf(&b, "  %s\n", opts.render(dimStyle, "(no qubit values)"))
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s  %s\n", runewidth.FillRight(r.name, width), r.addr)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// AddressSummary writes the one-line totals of an analysis.
func AddressSummary(w io.Writer, entry *ir.Func, res *address.Result) error {
	line := fmt.Sprintf("entry @%s: %d qubits", entry.Name, res.QubitCount)
	if res.Unreliable {
		line += fmt.Sprintf(" (ids from q%d are approximate)", res.UnreliableFrom)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// Schedule lists the segments of every block of m.Func(). Each node shows
// its layer and the statements it waits for.
func Schedule(w io.Writer, prog *ir.Program, m *schedule.Map, opts DumpOpts) error {
	fn := m.Func()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opts.render(funcStyle, "@"+fn.Name))
	for i := range fn.Blocks {
		bb := ir.BlockID(i) //nolint:gosec // bounded by block count
		for k, dag := range m.Block(bb) {
			header := fmt.Sprintf("%s segment %d (depth %d, %d edges)", fn.BlockName(bb), k, dag.Depth(), len(dag.Edges()))
			fmt.Fprintf(&b, "  %s\n", opts.render(labelStyle, header))
			for l, layer := range dag.Layers() {
				for _, s := range layer {
					writeNode(&b, prog, fn, dag, s, fmt.Sprintf("L%d", l), opts)
				}
			}
			if t := dag.Terminator(); t != ir.NoStmtID {
				writeNode(&b, prog, fn, dag, t, "T", opts)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, prog *ir.Program, fn *ir.Func, dag *schedule.StmtDag, s ir.StmtID, tag string, opts DumpOpts) {
	fmt.Fprintf(b, "    %-3s #%-3d %s", tag, s, ir.FormatStmt(prog, fn, fn.Stmt(s)))
	if parents := dag.Parents(s); len(parents) > 0 {
		ids := make([]string, len(parents))
		for i, p := range parents {
			ids[i] = fmt.Sprintf("#%d", p)
		}
		b.WriteString(opts.render(dimStyle, "  <- "+strings.Join(ids, ", ")))
	}
	b.WriteByte('\n')
}
