// Package engine implements the deterministic scheduling core: interval
// overlap detection, timetable conflict scanning, workload cap arithmetic,
// substitute candidate ranking, and priority classification. Every function
// is pure and synchronous; callers supply all data and configuration per
// invocation and persist the derived results themselves.
package engine

// Config carries the tunables threaded into every engine call. It is plain
// data passed by the caller, never read from process-wide state.
type Config struct {
	// MaxWeeklyMinutes is the default weekly teaching cap applied when a
	// teacher record does not carry its own.
	MaxWeeklyMinutes int
	// MinTravelMinutes is the minimum gap required between back-to-back
	// slots at different locations.
	MinTravelMinutes int
	// HODMinMinutesPerWeek is the weekly floor protected for heads of
	// department; their remaining capacity is reduced by this reserve.
	HODMinMinutesPerWeek int
}

// Defaults for Config fields.
const (
	DefaultMaxWeeklyMinutes     = 1080
	DefaultMinTravelMinutes     = 15
	DefaultHODMinMinutesPerWeek = 120
)

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxWeeklyMinutes:     DefaultMaxWeeklyMinutes,
		MinTravelMinutes:     DefaultMinTravelMinutes,
		HODMinMinutesPerWeek: DefaultHODMinMinutesPerWeek,
	}
}

// normalized fills zero values with defaults so partially-populated configs
// behave predictably.
func (c Config) normalized() Config {
	if c.MaxWeeklyMinutes <= 0 {
		c.MaxWeeklyMinutes = DefaultMaxWeeklyMinutes
	}
	if c.MinTravelMinutes <= 0 {
		c.MinTravelMinutes = DefaultMinTravelMinutes
	}
	if c.HODMinMinutesPerWeek < 0 {
		c.HODMinMinutesPerWeek = DefaultHODMinMinutesPerWeek
	}
	return c
}
