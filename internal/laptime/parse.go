// Package laptime turns the textual lap times submitted by marshals into
// comparable numbers of seconds.
package laptime

import (
	"math"
	"strconv"
	"strings"
)

// Unparsable is returned for a time that cannot be read at all. It is the
// largest finite float64 so it never wins a fastest-lap comparison and
// always sorts last.
const Unparsable = math.MaxFloat64

// Seconds parses a lap time written as mm:ss.sss, mm.ss.sss or ss.sss.
//
// Components that fail to parse in the minute/second forms count as zero;
// a plain seconds value that fails to parse yields Unparsable.
func Seconds(time string) float64 {
	if strings.Contains(time, ":") {
		parts := strings.SplitN(time, ":", 2)
		minutes := orZero(parts[0])
		seconds := orZero(parts[1])
		return minutes*60 + seconds
	}

	if strings.Contains(time, ".") {
		parts := strings.Split(time, ".")

		switch len(parts) {
		case 3:
			minutes := orZero(parts[0])
			seconds := orZero(parts[1])
			millis := orZero("0." + parts[2])
			return minutes*60 + seconds + millis
		case 2:
			return orZero(parts[0]) + orZero("0."+parts[1])
		}
	}

	v, err := strconv.ParseFloat(time, 64)
	if err != nil {
		return Unparsable
	}
	return v
}

// Less reports whether lap time a is strictly faster than b.
func Less(a, b string) bool {
	return Seconds(a) < Seconds(b)
}

func orZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
