package anonymize

import (
	"strings"
	"time"
)

const (
	controlCounterLength   = 4
	controlTimestampLength = 14
	controlTimestampLayout = "20060102150405"
)

// ControlID anonymizes message control ids built as
// source id + YYYYMMDDHHMMSS timestamp + 4 digit counter.
// The source id and timestamp are resolved on their own, so they agree with
// the same values elsewhere; the counter is kept. Ids not of that shape are
// passed to fallback.
func ControlID(r *Resolver, timestamp Generator[string], fallback Generator[string]) Generator[string] {
	return func(original string) (string, error) {
		n := len(original)
		if n < controlCounterLength+controlTimestampLength || !isDigits(original) {
			return fallback(original)
		}

		counter := original[n-controlCounterLength:]
		stamp := original[n-controlCounterLength-controlTimestampLength : n-controlCounterLength]
		source := original[:n-controlCounterLength-controlTimestampLength]

		// Plain sequence numbers carry no timestamp
		if _, err := time.Parse(controlTimestampLayout, stamp); err != nil {
			return fallback(original)
		}

		anonSource := source
		if source != "" {
			sourceGen, err := FixedLengthDigits(len(source))
			if err != nil {
				return "", err
			}
			if anonSource, err = r.ResolveString(source, sourceGen); err != nil {
				return "", err
			}
		}

		anonStamp, err := r.ResolveString(stamp, timestamp)
		if err != nil {
			return "", err
		}

		return anonSource + anonStamp + counter, nil
	}
}

// FacilitySubcomponents anonymizes '&' separated facility identifiers such
// as PID-3.4. The name and id parts are resolved under their own values so
// they match the stand-alone components (e.g. MSH-4.1, MSH-4.2); the third
// part (id type) is kept. Values with fewer than three parts are replaced by
// a dotted sequence.
func FacilitySubcomponents(r *Resolver, site Generator[string], dotted Generator[string]) Generator[string] {
	return func(original string) (string, error) {
		parts := strings.Split(original, "&")
		if len(parts) < 3 {
			return dotted(original)
		}

		name, err := r.ResolveString(parts[0], site)
		if err != nil {
			return "", err
		}
		id, err := r.ResolveString(parts[1], dotted)
		if err != nil {
			return "", err
		}

		out := append([]string{name, id}, parts[2:]...)
		return strings.Join(out, "&"), nil
	}
}

// TypeAndMagnitude keeps the look of observation values: integers become
// digits of the same length (sign kept), decimals keep length and point
// position, anything else becomes a short string.
func TypeAndMagnitude(short Generator[string]) Generator[string] {
	return func(original string) (string, error) {
		sign, body := splitSign(original)

		whole, fraction, isDecimal := strings.Cut(body, ".")
		switch {
		case body != "" && !isDecimal && isDigits(body):
			return randomDigits(sign, len(body))
		case isDecimal && (whole != "" || fraction != "") && isDigits(whole+fraction):
			w, err := randomDigits("", len(whole))
			if err != nil {
				return "", err
			}
			f, err := randomDigits("", len(fraction))
			if err != nil {
				return "", err
			}
			return sign + w + "." + f, nil
		default:
			return short(original)
		}
	}
}

// PreservePrefix keeps the first keep characters and randomizes the rest as
// digits, e.g. the three digit zip code area. Values with nothing beyond
// the prefix use fallback.
func PreservePrefix(keep int, fallback Generator[string]) Generator[string] {
	return func(original string) (string, error) {
		if len(original) <= keep {
			return fallback(original)
		}

		for {
			out, err := randomDigits(original[:keep], len(original)-keep)
			if err != nil {
				return "", err
			}
			// A replacement equal to the original would leak it
			if out != original {
				return out, nil
			}
		}
	}
}

func randomDigits(prefix string, length int) (string, error) {
	gen, err := FixedLengthDigits(length)
	if err != nil {
		return "", err
	}
	out, err := gen("")
	if err != nil {
		return "", err
	}
	return prefix + out, nil
}

func splitSign(s string) (string, string) {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		return s[:1], s[1:]
	}
	return "", s
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
