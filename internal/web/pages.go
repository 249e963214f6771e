package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/doorsync/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
h1{font-size:1.5rem}label{display:block;margin:.75rem 0 .25rem;font-weight:600}
code{background:#f3f4f6;padding:.1rem .3rem;border-radius:.25rem;font-size:.85rem}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.5rem}
.hint{color:#6b7280;font-size:.875rem}button{margin-top:1rem;padding:.5rem 1rem}`

// layout wraps body in the shared page shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

// indexPage is the upload form for the configured account.
func indexPage(account string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<h1>DoorKing sync: %s</h1>", templ.EscapeString(account))
		b.WriteString(`<p class="hint">Upload the household directory and code assignments as CSV or XLSX. The deleted codes table is optional.</p>`)
		b.WriteString(`<form method="post" action="/api/reconcile" enctype="multipart/form-data">`)
		for _, f := range []struct{ name, label string }{
			{fieldDirectory, "Directory"},
			{fieldCodes, "Codes"},
			{fieldDeleted, "Deleted codes"},
		} {
			fmt.Fprintf(&b, `<label for="%[1]s">%[2]s</label><input type="file" id="%[1]s" name="%[1]s" accept=".csv,.xlsx">`, f.name, f.label)
		}
		fmt.Fprintf(&b, `<label for="%[1]s">Account name</label><input type="text" id="%[1]s" name="%[1]s" value="%[2]s">`,
			fieldAccount, templ.EscapeString(account))
		fmt.Fprintf(&b, `<label for="%[1]s">Header rows to skip</label><input type="number" id="%[1]s" name="%[1]s" min="0" value="1">`, fieldSkipRows)
		fmt.Fprintf(&b, `<label for="%[1]s">Format</label><select id="%[1]s" name="%[1]s"><option value="csv">CSV</option><option value="xlsx">XLSX</option></select>`, fieldFormat)
		b.WriteString(`<button type="submit">Download import file</button></form>`)
		fmt.Fprintf(&b, `<p class="hint">Columns: <code>ACCOUNT,%s</code></p>`, templ.EscapeString(core.HeaderLine()))

		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout("DoorKing sync", body)
}

// errorAlert renders a user message and, for input errors, the detail.
func errorAlert(msg core.UserMessage, detail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert" role="alert">`)
		fmt.Fprintf(&b, "<strong>%s</strong>", templ.EscapeString(msg.Message))
		if detail != "" {
			fmt.Fprintf(&b, "<p><code>%s</code></p>", templ.EscapeString(detail))
		}
		if msg.Action != "" {
			fmt.Fprintf(&b, "<p>%s</p>", templ.EscapeString(msg.Action))
		}
		fmt.Fprintf(&b, `<p class="hint">Reference: %s</p></div>`, templ.EscapeString(msg.Code))

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// errorPage is a full page around errorAlert.
func errorPage(msg core.UserMessage, detail string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := errorAlert(msg, detail).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<p><a href="/">Back</a></p>`)
		return err
	})
	return layout("DoorKing sync: error", body)
}
