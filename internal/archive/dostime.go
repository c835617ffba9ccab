package archive

import "time"

// PackDate encodes t as an MS-DOS date: bits 9-15 years since 1980,
// bits 5-8 month, bits 0-4 day. Years outside 1980-2107 overflow silently.
func PackDate(t time.Time) uint16 {
	return uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
}

// PackTime encodes t as an MS-DOS time: bits 11-15 hour, bits 5-10 minute,
// bits 0-4 seconds/2.
func PackTime(t time.Time) uint16 {
	return uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
}
