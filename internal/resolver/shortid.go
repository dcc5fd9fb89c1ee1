// Package resolver expands the short ledger ids shown in tables back to full ids.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// ResolveEntryID resolves a short id prefix to the full id of a ledger entry.
// Returns the full id if exactly one entry of the collection matches.
//
// The function handles three cases:
// 1. Input is the id of an existing entry - returned as-is
// 2. Input is too short (< 6 chars) - returns validation error
// 3. Input is a prefix - scans the collection and returns the unique match
func ResolveEntryID(ctx context.Context, client *desk.Client, coll desk.Collection, shortID string) (string, error) {
	shortID = strings.TrimSpace(shortID)

	_, err := client.GetEntry(ctx, coll, shortID)
	if err == nil {
		return shortID, nil
	}
	if !desk.IsNotFound(err) {
		return "", errors.Errorf("failed to verify entry existence: %w", err)
	}

	if len(shortID) < MinShortIDLength {
		return "", errors.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	entries, err := client.ListEntries(ctx, coll)
	if err != nil {
		return "", errors.Errorf("failed to search for entry: %w", err)
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.ID, shortID) {
			matches = append(matches, e.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID, Collection: coll}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no entries matched the short ID.
type NotFoundError struct {
	ShortID    string
	Collection desk.Collection
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s entries found matching '%s'", e.Collection, e.ShortID)
}

// AmbiguousError indicates multiple entries matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d entries", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d entries:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}
	for i := 0; i < displayCount; i++ {
		fmt.Fprintf(&b, "  %s\n", err.Matches[i])
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the entry.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
