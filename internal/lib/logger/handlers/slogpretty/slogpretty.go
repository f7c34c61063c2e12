package slogpretty

import (
	"context"
	"encoding/json"
	"io"
	stdLog "log"
	"log/slog"

	"github.com/fatih/color"
)

type PrettyHandlerOptions struct {
	SlogOpts *slog.HandlerOptions
}

// PrettyHandler prints one colored line per record followed by its attributes
// as indented JSON. Meant for local development only.
type PrettyHandler struct {
	opts PrettyHandlerOptions
	slog.Handler
	l      *stdLog.Logger
	attrs  map[string]any
	groups []string
}

func NewPrettyHandler(out io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:    PrettyHandlerOptions{SlogOpts: opts},
		Handler: slog.NewJSONHandler(out, opts),
		l:       stdLog.New(out, "", 0),
		attrs:   map[string]any{},
	}
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := cloneFields(h.attrs)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	insertAttrs(fields, h.groups, attrs)

	var b []byte
	var err error
	if len(fields) > 0 {
		b, err = json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
	}

	timeStr := r.Time.Format("[15:04:05.000]")
	msg := color.CyanString(r.Message)

	h.l.Println(
		timeStr,
		level,
		msg,
		color.WhiteString(string(b)),
	)
	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := cloneFields(h.attrs)
	insertAttrs(fields, h.groups, attrs)
	return &PrettyHandler{
		opts:    h.opts,
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		attrs:   fields,
		groups:  h.groups,
	}
}

// WithGroup nests every attribute added afterwards under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{
		opts:    h.opts,
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		attrs:   h.attrs,
		groups:  append(append([]string{}, h.groups...), name),
	}
}

func insertAttrs(fields map[string]any, groups []string, attrs []slog.Attr) {
	if len(attrs) == 0 {
		return
	}
	for _, g := range groups {
		sub, ok := fields[g].(map[string]any)
		if !ok {
			sub = map[string]any{}
			fields[g] = sub
		}
		fields = sub
	}
	for _, a := range attrs {
		fields[a.Key] = attrValue(a.Value)
	}
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	if v.Kind() != slog.KindGroup {
		return v.Any()
	}
	group := make(map[string]any, len(v.Group()))
	for _, a := range v.Group() {
		group[a.Key] = attrValue(a.Value)
	}
	return group
}

func cloneFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			v = cloneFields(sub)
		}
		out[k] = v
	}
	return out
}
