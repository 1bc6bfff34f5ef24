package location

import (
	"fmt"
	"time"
)

// Location is the time zone used for log timestamps and design timestamps.
var Location = time.UTC

// Load sets Location from an IANA zone name. An empty name keeps UTC.
func Load(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("error while load time location: %w", err)
	}
	Location = loc
	return nil
}

// Now returns the current time in Location.
func Now() time.Time {
	return time.Now().In(Location)
}
