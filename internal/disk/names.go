package disk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/google/uuid"
)

var (
	unsafeChars    = regexp.MustCompile(`[^\w\-]+`)
	nameSeparators = regexp.MustCompile(`[\s_]+`)
	isoDate        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDate        = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// SafeName replaces every run of characters outside [A-Za-z0-9_-] with an underscore.
func SafeName(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// NormalizeName lowercases and trims a guest name and collapses spaces and underscores to one underscore.
// "Asha  Rao" and "asha_rao" normalize to the same value.
func NormalizeName(s string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

// NormalizeFolderDate converts a date folder name to YYYY-MM-DD.
// Accepts YYYY-MM-DD or D-M-YYYY; anything else returns "".
func NormalizeFolderDate(name string) string {
	if isoDate.MatchString(name) {
		return name
	}
	if m := dmyDate.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// CheckinFileName is checkin-<name>-<room>-<date>.json.
func CheckinFileName(name string, room int, date string) string {
	return fmt.Sprintf("checkin-%s-%d-%s.json", SafeName(name), room, date)
}

// CheckoutFileName is checkout-<name>-<room>-<checkInDate>.json.
func CheckoutFileName(name string, room int, checkInDate string) string {
	return fmt.Sprintf("checkout-%s-%d-%s.json", SafeName(name), room, checkInDate)
}

// ReservationFileName is reservation-<room>-<name>.json.
func ReservationFileName(room int, name string) string {
	return fmt.Sprintf("reservation-%d-%s.json", room, SafeName(name))
}

// RentFileName is rent-<name>-<room>-<unixms>-<id>.json, where id is the
// first eight safe characters of the entry id.
func RentFileName(name string, room int, at time.Time, id string) string {
	return fmt.Sprintf("rent-%s-%d-%d-%s.json", SafeName(name), room, at.UnixMilli(), shortID(id))
}

// ExpenseFileName is expense-<description>-<unixms>-<id>.json.
func ExpenseFileName(description string, at time.Time, id string) string {
	return fmt.Sprintf("expense-%s-%d-%s.json", SafeName(description), at.UnixMilli(), shortID(id))
}

// shortID keeps two entries written in the same millisecond apart.
// An empty id gets a random one.
func shortID(id string) string {
	id = strings.Trim(SafeName(id), "_")
	if id == "" {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// ScanFileName is <name>-<room>-<date>.<ext>.
func ScanFileName(name string, room int, date, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s-%d-%s.%s", SafeName(name), room, date, ext)
}

// ScanDir returns the ScannedDocuments path segments for a day: yyyy, mon, dd-mm-yyyy.
func ScanDir(at time.Time) []string {
	return []string{
		strconv.Itoa(at.Year()),
		strings.ToLower(at.Format("Jan")),
		at.Format("02-01-2006"),
	}
}

// parseCheckinFileName splits checkin-<name>-<rooms>-<date>.json for the given date.
// rooms may be a comma-separated list written by older clients.
func parseCheckinFileName(file, date string) (name string, rooms []int, ok bool) {
	lower := strings.ToLower(file)
	suffix := "-" + date + ".json"
	if !strings.HasPrefix(lower, "checkin-") || !strings.HasSuffix(lower, suffix) {
		return "", nil, false
	}

	middle := file[len("checkin-") : len(file)-len(suffix)]
	i := strings.LastIndex(middle, "-")
	if i <= 0 {
		return "", nil, false
	}

	for _, part := range strings.Split(middle[i+1:], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return "", nil, false
		}
		rooms = append(rooms, n)
	}
	return middle[:i], rooms, true
}

func dateFolder(at time.Time) string {
	return at.Format(desk.DateLayout)
}
