package runlog

import (
	"fmt"
	"os"
	"time"
)

// Entry is one line of the human-readable run log.
type Entry struct {
	Date      time.Time
	Script    string
	BookTitle string
	Runtime   time.Duration
}

// FormatRuntime renders a duration as MM:SS, truncating sub-second parts.
func FormatRuntime(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// String renders the entry without a trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("Date: %s, Script: %s, Book Title: %s, Runtime: %s (minutes:seconds)",
		e.Date.Format("2006-01-02 15:04:05"), e.Script, e.BookTitle, FormatRuntime(e.Runtime))
}

// Append adds the entry to the log at path, creating the file if needed.
func Append(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, e.String()); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}
