package utils

import (
  "fmt"
  "math"
  "time"
)

// Display timezone for human readable timestamps. The product ships to an
// Indian audience, so all formatted times are IST regardless of server zone.
var istLocation = time.FixedZone("IST", int(5.5*60*60))

// FormatDuration renders a duration in seconds as "MM:SS".
func FormatDuration(seconds float64) string {
  if seconds <= 0 || math.IsNaN(seconds) {
    return "00:00"
  }
  totalSeconds := int(seconds)
  minutes := totalSeconds / 60
  secs := totalSeconds % 60
  return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatISTDateTime renders a timestamp as "YYYY-MM-DD HH:mm:ss" in IST.
// Zero timestamps render as "N/A".
func FormatISTDateTime(t time.Time) string {
  if t.IsZero() {
    return "N/A"
  }
  return t.In(istLocation).Format("2006-01-02 15:04:05")
}

// DurationInSeconds returns the whole seconds between start and end,
// truncated toward zero. Returns 0 when either side is missing.
func DurationInSeconds(start, end time.Time) int {
  if start.IsZero() || end.IsZero() {
    return 0
  }
  d := end.Sub(start)
  if d < 0 {
    return 0
  }
  return int(d / time.Second)
}

// ConvertToMinutes converts seconds to minutes rounded to two decimals.
func ConvertToMinutes(seconds float64) float64 {
  if seconds <= 0 {
    return 0
  }
  return math.Round(seconds/60*100) / 100
}
