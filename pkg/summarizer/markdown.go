package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		if fn != nil {
			f.translate = fn
		}
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a formatter. Labels are English unless a
// translator is given.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Run Summary"))

	fmt.Fprintf(&b, "| %s | %s |\n", t("Item"), t("Value"))
	b.WriteString("|---|---|\n")
	if s.RunID != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Run ID"), s.RunID)
	}
	fmt.Fprintf(&b, "| %s | %s |\n", t("Generated At"), s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Duration"), formatDuration(s.Duration))
	fmt.Fprintf(&b, "| %s | %d |\n", t("Workers"), s.Settings.Workers)
	if s.Settings.ClonePolicy != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Clone Policy"), s.Settings.ClonePolicy)
	}
	if s.Settings.Debug {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Debug"), t("Enabled"))
	}
	fmt.Fprintf(&b, "| %s | %d / %d |\n", t("Failed Streams"), s.FailedCount(), len(s.Streams))
	if s.Aborted {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Status"), t("Aborted"))
	}

	if len(s.Streams) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Streams"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t("Stream"), t("Plugin"), t("Format"), t("Size"), t("Mode"),
			t("Frames In"), t("Frames Out"), t("Flushed"), t("State"))
		b.WriteString("|---|---|---|---|---|---:|---:|---:|---|\n")
		for _, st := range s.Streams {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d | %d | %d | %s |\n",
				st.ID, st.Plugin, orDash(st.PixelFormat), formatSize(st),
				orDash(st.ProcessMode), st.FramesIn, st.FramesOut, st.Flushed, orDash(st.State))
		}

		totals := s.Totals()
		fmt.Fprintf(&b, "\n## %s\n\n", t("Totals"))
		fmt.Fprintf(&b, "- %s: %d\n", t("Frames In"), totals.FramesIn)
		fmt.Fprintf(&b, "- %s: %d\n", t("Frames Out"), totals.FramesOut)
		fmt.Fprintf(&b, "- %s: %d\n", t("Flushed"), totals.Flushed)
		fmt.Fprintf(&b, "- %s: %s\n", t("Output Size"), formatBytes(totals.BytesOut))
		if totals.ArityWarnings > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", t("Arity Warnings"), totals.ArityWarnings)
		}
	}

	if s.FailedCount() > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Errors"))
		for _, st := range s.Streams {
			if st.Failed() {
				fmt.Fprintf(&b, "- `%s`: %s\n", st.ID, st.Error)
			}
		}
	}

	b.WriteString("\n---\n\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s framehost %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s framehost\n", t("Generated by"))
	}
	return b.String()
}

func formatSize(st StreamInfo) string {
	if st.Width == 0 || st.Height == 0 {
		return "-"
	}
	if st.InputWidth != 0 && (st.InputWidth != st.Width || st.InputHeight != st.Height) {
		return fmt.Sprintf("%dx%d → %dx%d", st.InputWidth, st.InputHeight, st.Width, st.Height)
	}
	return fmt.Sprintf("%dx%d", st.Width, st.Height)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMG"[exp])
}
