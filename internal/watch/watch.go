// Package watch streams live front-desk activity to a terminal: room changes
// derived from successive state broadcasts, and every ledger write.
package watch

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// OutputFormat specifies how activity is rendered.
type OutputFormat string

const (
	// OutputFormatDefault prints one human-readable line per change
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON prints one JSON object per change
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault:
		return OutputFormatDefault, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	default:
		return "", errors.Errorf("unknown output format: %s (must be 'default' or 'json')", s)
	}
}

// StreamActivity subscribes to state and ledger events for the client's hotel
// and writes each change to w until ctx is cancelled.
// The current state, if any, is used as the baseline so only later changes are shown.
func StreamActivity(ctx context.Context, client *desk.Client, hotel string, format OutputFormat, w io.Writer) error {
	var formatter eventFormatter
	switch format {
	case "", OutputFormatDefault:
		formatter = &defaultFormatter{writer: w}
	case OutputFormatJSON:
		formatter = &jsonFormatter{writer: w}
	default:
		return errors.Errorf("unknown output format: %s", format)
	}

	// Subscribe before reading the baseline so nothing in between is missed.
	states, err := client.SubscribeStateEvents(ctx)
	if err != nil {
		return err
	}
	defer states.Close()

	ledger, err := client.SubscribeLedgerEvents(ctx)
	if err != nil {
		return err
	}
	defer ledger.Close()

	prev, err := client.LoadState(ctx)
	if err != nil && !desk.IsNotFound(err) {
		return errors.Errorf("failed to load current state: %w", err)
	}

	if format != OutputFormatJSON {
		fmt.Fprintf(w, "Watching hotel '%s' (Ctrl+C to stop)\n", hotel)
	}

	stateCh, stateErrs := states.Events(), states.Errors()
	ledgerCh, ledgerErrs := ledger.Events(), ledger.Errors()

	for {
		if stateCh == nil && ledgerCh == nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("event subscriptions closed unexpectedly")
		}

		select {
		case <-ctx.Done():
			return nil

		case next, ok := <-stateCh:
			if !ok {
				stateCh = nil
				continue
			}
			if err := formatter.FormatState(prev, next); err != nil {
				return err
			}
			prev = next

		case ev, ok := <-ledgerCh:
			if !ok {
				ledgerCh = nil
				continue
			}
			if err := formatter.FormatLedger(ev); err != nil {
				return err
			}

		case err, ok := <-stateErrs:
			if !ok {
				stateErrs = nil
				continue
			}
			if ferr := formatter.FormatError(err); ferr != nil {
				return ferr
			}

		case err, ok := <-ledgerErrs:
			if !ok {
				ledgerErrs = nil
				continue
			}
			if ferr := formatter.FormatError(err); ferr != nil {
				return ferr
			}
		}
	}
}
