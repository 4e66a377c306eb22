package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/reconcile"
)

var _ reconcile.Reviewer = (*Reviewer)(nil)

// Reviewer shows imports that matched no stored entry. On a terminal it asks
// whether to list them; otherwise the entries are only logged.
type Reviewer struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	logger      *zerolog.Logger
}

// NewReviewer creates a Reviewer reading answers from in and writing prompts to out.
func NewReviewer(in io.Reader, out io.Writer, interactive bool, logger *zerolog.Logger) *Reviewer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Reviewer{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		logger:      logger,
	}
}

// Review implements reconcile.Reviewer.
func (r *Reviewer) Review(ctx context.Context, category string, discarded entries.Entries) error {
	if !r.interactive {
		r.logger.Debug().
			Str("category", category).
			Strs("entries", labels(discarded)).
			Msg("Imports not found")
		return nil
	}

	fmt.Fprintf(r.out, "%d entries not found for category %s\n", len(discarded), category)
	fmt.Fprint(r.out, "Do you want to see them? [y/N]: ")

	answer, err := r.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return r.list(discarded)
	}
	return nil
}

// list prints each record as one line of JSON, extra fields included.
func (r *Reviewer) list(discarded entries.Entries) error {
	enc := json.NewEncoder(r.out)
	enc.SetEscapeHTML(false)
	for _, e := range discarded {
		fmt.Fprint(r.out, "  - ")
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func labels(list entries.Entries) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Label())
	}
	return out
}
