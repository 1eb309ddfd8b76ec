package render

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"

	"sysgen/internal/model"
)

func init() { Register(&htmlRenderer{}) }

// htmlRenderer emits syscalls.html: one table row per syscall with the
// merged prototype, contributing sources, and any recorded conflicts.
type htmlRenderer struct{}

func (r *htmlRenderer) Name() string    { return "html" }
func (r *htmlRenderer) Files() []string { return []string{"syscalls.html"} }

func (r *htmlRenderer) Render(dir string, t *model.Table) error {
	f, err := os.Create(filepath.Join(dir, "syscalls.html"))
	if err != nil {
		return fmt.Errorf("render: create syscalls.html: %w", err)
	}
	defer f.Close()

	writeHTML(f, t)
	return nil
}

func writeHTML(w io.Writer, t *model.Table) {
	fmt.Fprint(w, `<!-- This table was generated automatically by sysgen. -->
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Linux x86_64 syscalls</title>
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; font-size: 14px; color: #1A1A1A; background: #F5F5F5; margin: 2em; }
table { border-collapse: collapse; }
th, td { text-align: left; padding: 3px 12px 3px 0; font-size: 13px; vertical-align: top; }
th { font-weight: 600; border-bottom: 1px solid #ddd; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
code { font-family: "Courier New", monospace; font-size: 12px; }
.src { color: #555; }
.conflict { color: #8B1A1A; }
</style>
</head>
<body>
<table id="syscalls">
  <tr>
    <th>Number</th>
    <th>Name</th>
    <th>Kernel entrypoint</th>
    <th>Declaration</th>
    <th>Sources</th>
    <th>Conflicts</th>
  </tr>
`)

	for i := range t.Records {
		rec := &t.Records[i]
		fmt.Fprintln(w, "  <tr>")
		fmt.Fprintf(w, "    <td class=\"num\">%d</td>\n", rec.Number)
		fmt.Fprintf(w, "    <td>%s</td>\n", html.EscapeString(rec.Name.Or("")))
		if rec.Entry.Known {
			fmt.Fprintf(w, "    <td><code>%s</code></td>\n", html.EscapeString(rec.Entry.Value))
		} else {
			fmt.Fprintln(w, "    <td></td>")
		}
		fmt.Fprintf(w, "    <td><code>%s</code></td>\n", html.EscapeString(rec.Prototype()))
		fmt.Fprint(w, "    <td class=\"src\">")
		for j, s := range rec.Sources {
			if j > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprint(w, html.EscapeString(s))
		}
		fmt.Fprintln(w, "</td>")
		if len(rec.Conflicts) > 0 {
			fmt.Fprintln(w, "    <td class=\"conflict\"><dl>")
			for _, c := range rec.Conflicts {
				fmt.Fprintf(w, "      <dt>%s</dt>\n", html.EscapeString(c.Field))
				fmt.Fprintf(w, "      <dd><code>%s</code> (%s) vs <code>%s</code> (%s)</dd>\n",
					html.EscapeString(c.Accepted), html.EscapeString(c.AcceptedSource),
					html.EscapeString(c.Rejected), html.EscapeString(c.RejectedSource))
			}
			fmt.Fprintln(w, "    </dl></td>")
		} else {
			fmt.Fprintln(w, "    <td></td>")
		}
		fmt.Fprintln(w, "  </tr>")
	}
	fmt.Fprint(w, "</table>\n</body>\n</html>\n")
}
