package build

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/Norgate-AV/spvc/internal/compiler"
)

// Report holds one result per shader, in shader list order
type Report struct {
	Results []*compiler.Result
}

// Succeeded returns the shaders whose artifact is up to date, compiled or cached
func (r *Report) Succeeded() []*compiler.Result {
	return r.filter(func(res *compiler.Result) bool { return res.Success() })
}

// Failed returns the shaders the compiler rejected or could not run for
func (r *Report) Failed() []*compiler.Result {
	return r.filter(func(res *compiler.Result) bool { return res.Err != nil && !res.Skipped })
}

// Cached returns the shaders restored from the build cache
func (r *Report) Cached() []*compiler.Result {
	return r.filter(func(res *compiler.Result) bool { return res.Cached })
}

// Skipped returns the shaders not attempted or killed because the build was cancelled
func (r *Report) Skipped() []*compiler.Result {
	return r.filter(func(res *compiler.Result) bool { return res.Skipped })
}

// Err returns nil when every shader succeeded, otherwise an error naming
// every failed and skipped shader in list order
func (r *Report) Err() error {
	failed := r.Failed()
	skipped := r.Skipped()

	if len(failed) == 0 && len(skipped) == 0 {
		return nil
	}

	var parts []string
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d shaders failed: %s",
			len(failed), len(r.Results), strings.Join(sources(failed), ", ")))
	}

	if len(skipped) > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped: %s",
			len(skipped), strings.Join(sources(skipped), ", ")))
	}

	return eris.New(strings.Join(parts, "; "))
}

// Print writes a per-shader summary table to w
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "SHADER\tOUTPUT\tSTATUS")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Source, res.Output, status(res))
	}

	fmt.Fprintf(tw, "\n%d compiled, %d cached, %d failed, %d skipped\n",
		len(r.Succeeded())-len(r.Cached()), len(r.Cached()), len(r.Failed()), len(r.Skipped()))

	return tw.Flush()
}

func status(res *compiler.Result) string {
	switch {
	case res.Skipped:
		return "skipped"
	case res.Cached:
		return "cached"
	case res.Err != nil && res.ExitCode > 0:
		return fmt.Sprintf("failed (exit code %d)", res.ExitCode)
	case res.Err != nil:
		return "failed"
	default:
		return "ok"
	}
}

func (r *Report) filter(keep func(*compiler.Result) bool) []*compiler.Result {
	var out []*compiler.Result
	for _, res := range r.Results {
		if keep(res) {
			out = append(out, res)
		}
	}

	return out
}

func sources(results []*compiler.Result) []string {
	names := make([]string, len(results))
	for i, res := range results {
		names[i] = res.Source
	}

	return names
}
