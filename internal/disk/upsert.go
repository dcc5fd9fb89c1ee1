package disk

import (
	"fmt"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// Upsert mirrors a document from another source into <Folder>/<date>/<id>.json.
// The date comes from the document's date field, then the first ten
// characters of checkIn, then now. Documents without an id get a generated name.
func (s *Store) Upsert(coll desk.Collection, doc map[string]any, now time.Time) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	if err := coll.Validate(); err != nil {
		return "", err
	}

	date := dateFolder(now)
	if d, ok := doc["date"].(string); ok && len(d) >= len(desk.DateLayout) {
		date = d[:len(desk.DateLayout)]
	} else if c, ok := doc["checkIn"].(string); ok && len(c) >= len(desk.DateLayout) {
		date = c[:len(desk.DateLayout)]
	}
	if _, err := time.Parse(desk.DateLayout, date); err != nil {
		return "", errors.Errorf("document has unusable date %q", date)
	}

	id := fmt.Sprint(doc["id"])
	if doc["id"] == nil || id == "" {
		id = fmt.Sprintf("%s_%d", coll, now.UnixMilli())
	}
	file := SafeName(id) + ".json"

	path, err := writeJSON(s.path(coll.Folder(), date), file, doc)
	if err != nil {
		return "", err
	}
	return s.rel(path), nil
}
