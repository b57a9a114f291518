package timeutil

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for ISO local date-times. The platform exchanges local
// date-times without an offset; fractional seconds are optional.
const (
	layoutSeconds    = "2006-01-02T15:04:05"
	layoutFractional = "2006-01-02T15:04:05.999999999"
)

// LocalDateTime is a timezone-naive date-time that serializes as ISO-8601
// local date-time ("2006-01-02T15:04:05", optionally with fractional seconds).
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime strips the monotonic clock so values compare cleanly.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{t.Round(0)}
}

func (l LocalDateTime) String() string {
	if l.Nanosecond() != 0 {
		return l.Format(layoutFractional)
	}
	return l.Format(layoutSeconds)
}

func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

func (l *LocalDateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		l.Time = time.Time{}
		return nil
	}
	// Some producers append a literal Z to a local date-time; drop it.
	s = strings.TrimSuffix(s, "Z")
	parsed, err := time.ParseInLocation(layoutFractional, s, time.Local)
	if err != nil {
		parsed, err = time.ParseInLocation(layoutSeconds, s, time.Local)
	}
	if err != nil {
		return fmt.Errorf("invalid local date-time %q: %w", s, err)
	}
	l.Time = parsed
	return nil
}

// Value implements driver.Valuer so GORM stores the underlying time.
func (l LocalDateTime) Value() (driver.Value, error) {
	if l.IsZero() {
		return nil, nil
	}
	return l.Time, nil
}

// Scan implements sql.Scanner.
func (l *LocalDateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		l.Time = time.Time{}
	case time.Time:
		l.Time = v
	case string:
		return l.scanString(v)
	case []byte:
		return l.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LocalDateTime", src)
	}
	return nil
}

// scanString accepts the formats SQL drivers hand back for datetime columns.
func (l *LocalDateTime) scanString(s string) error {
	layouts := []string{
		layoutFractional,
		layoutSeconds,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			l.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as LocalDateTime", s)
}

// GormDataType maps the type onto a datetime column.
func (LocalDateTime) GormDataType() string {
	return "time"
}
