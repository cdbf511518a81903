package domain

// Location is an immutable geographic point used by depots and orders.
// Lat/Lng are in decimal degrees; Address is an optional human-readable
// label carried for display and, when coordinates are missing, geocoding.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Usable reports whether the location carries coordinates the optimizer
// can route against. A zero-value (0,0) pair is indistinguishable from
// "never set" and is treated as unusable, matching the source system's
// convention for missing geocodes.
func (l Location) Usable() bool {
	if l.Lat == 0 && l.Lng == 0 {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
