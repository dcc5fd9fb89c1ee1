package ledger

import (
	"context"
	"io"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// OutputFormat specifies how to format a ledger listing.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with totals
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault:
		return OutputFormatDefault, nil
	case OutputFormatJSONL:
		return OutputFormatJSONL, nil
	default:
		return "", errors.Errorf("unknown output format: %s (must be 'default' or 'jsonl')", s)
	}
}

// Options controls which page of a listing is shown and how.
type Options struct {
	Format   OutputFormat
	Filter   *Filter
	Page     int
	PageSize int
}

// ListRent reads the rent ledger, applies the filter and page, and writes the result.
func ListRent(ctx context.Context, client *desk.Client, opts Options, w io.Writer) error {
	payments, err := client.ListRentPayments(ctx)
	if err != nil {
		return errors.Errorf("failed to read rent ledger: %w", err)
	}
	return WriteRent(w, payments, client.Hotel(), opts)
}

// WriteRent filters, pages and formats payments from any source.
func WriteRent(w io.Writer, payments []desk.RentPayment, hotel string, opts Options) error {
	selected := Page(FilterRent(payments, opts.Filter), opts.Page, opts.PageSize)

	switch opts.Format {
	case "", OutputFormatDefault:
		FormatRentTable(w, selected, hotel)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, selected); err != nil {
			return errors.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return errors.Errorf("unknown output format: %s", opts.Format)
	}
	return nil
}

// ListExpenses reads the expense ledger, applies the filter and page, and writes the result.
func ListExpenses(ctx context.Context, client *desk.Client, opts Options, w io.Writer) error {
	expenses, err := client.ListExpenses(ctx)
	if err != nil {
		return errors.Errorf("failed to read expense ledger: %w", err)
	}
	return WriteExpenses(w, expenses, client.Hotel(), opts)
}

// WriteExpenses filters, pages and formats expenses from any source.
func WriteExpenses(w io.Writer, expenses []desk.Expense, hotel string, opts Options) error {
	selected := Page(FilterExpenses(expenses, opts.Filter), opts.Page, opts.PageSize)

	switch opts.Format {
	case "", OutputFormatDefault:
		FormatExpenseTable(w, selected, hotel)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, selected); err != nil {
			return errors.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return errors.Errorf("unknown output format: %s", opts.Format)
	}
	return nil
}
