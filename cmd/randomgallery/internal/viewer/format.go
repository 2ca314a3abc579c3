package viewer

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const modifiedLayout = "2006-01-02 15:04:05"

func formatFileSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024.0/1024.0)
}

func formatModified(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	return t.In(loc).Format(modifiedLayout)
}

func formatModifiedRelative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
