// Package templates renders the HTML fragments served by the web layer.
// Components are plain templ.ComponentFuncs so the package builds without
// the templ code generator.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/listcheck/internal/core"
)

// writer collects the first write error so components can render in a
// straight line.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

var toneClass = map[core.Color]string{
	core.ColorGreen:  "bg-green-100 text-green-800",
	core.ColorYellow: "bg-yellow-100 text-yellow-800",
	core.ColorRed:    "bg-red-100 text-red-800",
}

// ErrorAlert is the inline error box swapped in by HTMX requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="rounded-md bg-red-50 p-4 text-sm text-red-800" role="alert">`)
		w.raw(`<p class="font-medium">`)
		w.text(message)
		if code != "" {
			w.raw(` <span class="text-red-500">(`)
			w.text(code)
			w.raw(`)</span>`)
		}
		w.raw(`</p>`)
		if action != "" {
			w.raw(`<p class="mt-1">`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}

// NotFound is shown for a results page whose job cannot be loaded.
func NotFound(jobID string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section class="p-8 text-center"><h1 class="text-xl font-semibold">Results not found</h1>`)
		w.raw(`<p class="mt-2 text-gray-500">No results could be loaded for job <code>`)
		w.text(jobID)
		w.raw(`</code>.</p><a class="mt-4 inline-block underline" href="/">Back to upload</a></section>`)
		return w.err
	})
}

// ResultsTable renders one filtered results page with its counters and
// pagination links.
func ResultsTable(view core.ResultsView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		p := view.Page

		w.raw(`<section id="results" data-job="`)
		w.text(p.JobID)
		w.raw(`"><header class="mb-4"><h1 class="text-xl font-semibold">`)
		w.text(p.FileName)
		w.raw(`</h1><dl class="flex gap-4 text-sm">`)
		for _, c := range []struct {
			label string
			n     int
		}{{"Total", p.Total}, {"Valid", p.Valid}, {"Invalid", p.Invalid}, {"Accept All", p.AcceptAll}} {
			w.raw(`<div><dt>`)
			w.text(c.label)
			w.raw(`</dt><dd>`)
			w.text(strconv.Itoa(c.n))
			w.raw(`</dd></div>`)
		}
		w.raw(`</dl></header>`)

		w.raw(`<table class="min-w-full text-sm"><thead><tr><th>Email</th><th>Status</th><th>Reason</th></tr></thead><tbody>`)
		if len(view.Rows) == 0 {
			w.raw(`<tr><td colspan="3" class="py-4 text-center text-gray-500">No results match the current filter</td></tr>`)
		}
		for _, row := range view.Rows {
			w.raw(`<tr><td>`)
			w.text(row.RowEmail())
			w.raw(`</td>`)
			if v, ok := row.(core.VerificationRow); ok {
				badge := core.StatusBadge(v.Status)
				w.raw(`<td><span class="rounded px-2 py-0.5 `)
				w.raw(toneClass[badge.Color])
				w.raw(`">`)
				w.text(badge.Text)
				w.raw(`</span></td><td>`)
				w.text(v.Reason)
				w.raw(`</td>`)
			} else {
				w.raw(`<td></td><td></td>`)
			}
			w.raw(`</tr>`)
		}
		w.raw(`</tbody></table>`)

		w.raw(`<nav class="mt-4 flex items-center gap-2 text-sm">`)
		q := "&q=" + url.QueryEscape(view.Filter.Query) + "&status=" + url.QueryEscape(view.Filter.Status)
		if p.Page > 1 {
			w.raw(`<a href="?page=` + strconv.Itoa(p.Page-1))
			w.text(q)
			w.raw(`">Previous</a>`)
		}
		w.raw(`<span>Page `)
		w.text(fmt.Sprintf("%d of %d", p.Page, view.TotalPages))
		w.raw(`</span>`)
		if p.Page < view.TotalPages {
			w.raw(`<a href="?page=` + strconv.Itoa(p.Page+1))
			w.text(q)
			w.raw(`">Next</a>`)
		}
		w.raw(`</nav></section>`)
		return w.err
	})
}

// EventToasts renders queued UI events as toasts.
func EventToasts(events []core.UiEvent) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div id="toasts" class="fixed bottom-4 right-4 space-y-2">`)
		for _, ev := range events {
			tone := core.ColorGreen
			switch ev.Kind {
			case core.EventError:
				tone = core.ColorRed
			case core.EventInfo:
				tone = core.ColorYellow
			}
			w.raw(`<div class="rounded px-4 py-2 shadow `)
			w.raw(toneClass[tone])
			w.raw(`" data-kind="`)
			w.text(string(ev.Kind))
			w.raw(`">`)
			w.text(ev.Message)
			if ev.Action != "" {
				w.raw(`<span class="block text-xs">`)
				w.text(ev.Action)
				w.raw(`</span>`)
			}
			w.raw(`</div>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}
