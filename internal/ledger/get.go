package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// GetEntry retrieves a single ledger record by id and writes it as pretty-printed JSON.
// Returns a NotFoundError when the entry does not exist.
func GetEntry(ctx context.Context, client *desk.Client, coll desk.Collection, id string, w io.Writer) error {
	if id == "" {
		return errors.New("entry id cannot be empty")
	}

	entry, err := client.GetEntry(ctx, coll, id)
	if err != nil {
		if desk.IsNotFound(err) {
			return &NotFoundError{Collection: coll, ID: id}
		}
		return errors.Errorf("failed to fetch entry: %w", err)
	}

	var record map[string]any
	if err := entry.Decode(&record); err != nil {
		return err
	}
	if record == nil {
		record = map[string]any{}
	}
	if _, ok := record["id"]; !ok {
		record["id"] = entry.ID
	}

	if err := FormatSingleJSON(w, record); err != nil {
		return errors.Errorf("failed to format entry: %w", err)
	}
	return nil
}

// NotFoundError represents a specific "ledger entry not found" error.
// This allows callers to distinguish not-found errors from other failures.
type NotFoundError struct {
	Collection desk.Collection
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s entry with ID '%s' not found", e.Collection, e.ID)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
