package anonymize

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	digits    = "0123456789"

	// DateDeltaPrefix prefixes the cache keys holding date shift offsets
	DateDeltaPrefix = "date_delta-"

	// Shift offsets are drawn within this fraction of the ballpark
	ballparkFudge = 0.10
)

func randomFrom(alphabet string) byte {
	return alphabet[rand.IntN(len(alphabet))]
}

// FixedLengthString generates strings of exactly length characters:
// prefix followed by random letters, first character upper case, rest lower
func FixedLengthString(length int, prefix string) (Generator[string], error) {
	if len(prefix) > length {
		return nil, lib.ErrInvalidGenerator("fixed_length_string", "length of prefix exceeds total string length")
	}

	return func(string) (string, error) {
		var sb strings.Builder
		sb.Grow(length)
		sb.WriteString(prefix)
		for sb.Len() < length {
			sb.WriteByte(randomFrom(lowercase))
		}
		return capitalize(sb.String()), nil
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// FixedLengthDigits generates strings of exactly length digits
// With a [min, max) point frequency a '.' is dropped in after every run of
// min to max-1 digits, e.g. (1, 7) gives OID-like dotted sequences.
func FixedLengthDigits(length int, pointFrequency ...int) (Generator[string], error) {
	if length < 0 {
		return nil, lib.ErrInvalidGenerator("fixed_length_digits", "negative length")
	}

	// No frequency: the first point would fall at length, i.e. never
	choices := []int{length}
	if len(pointFrequency) > 0 {
		if len(pointFrequency) != 2 {
			return nil, lib.ErrInvalidGenerator("fixed_length_digits", "point frequency must be a min and max pair")
		}
		minRun, maxRun := pointFrequency[0], pointFrequency[1]
		if minRun < 0 || maxRun <= minRun {
			return nil, lib.ErrInvalidGenerator("fixed_length_digits", "point frequency must satisfy 0 <= min < max")
		}
		choices = choices[:0]
		for i := minRun; i < maxRun; i++ {
			choices = append(choices, i)
		}
	}

	return func(string) (string, error) {
		pick := func() int { return choices[rand.IntN(len(choices))] }

		buf := make([]byte, length)
		nextPoint := pick()
		for i := range buf {
			if i == nextPoint {
				buf[i] = '.'
				nextPoint = i + 1 + pick()
				continue
			}
			buf[i] = randomFrom(digits)
		}
		return string(buf), nil
	}, nil
}

// DigitsWithPrefix generates length digits starting with a fixed digit prefix,
// e.g. NPI shaped identifiers: ten digits starting with 1
func DigitsWithPrefix(length int, prefix string) (Generator[string], error) {
	if len(prefix) > length {
		return nil, lib.ErrInvalidGenerator("digits_with_prefix", "length of prefix exceeds total length")
	}
	if strings.Trim(prefix, digits) != "" {
		return nil, lib.ErrInvalidGenerator("digits_with_prefix", "prefix must be digits")
	}
	rest, err := FixedLengthDigits(length - len(prefix))
	if err != nil {
		return nil, err
	}

	return func(original string) (string, error) {
		tail, err := rest(original)
		if err != nil {
			return "", err
		}
		return prefix + tail, nil
	}, nil
}

// DateShift moves timestamps by one campaign-wide offset so event order and
// spacing survive anonymization
type DateShift struct {
	delta  time.Duration
	layout string
}

// NewDateShift loads the offset for ballpark from store, drawing and storing
// a new one the first time. layout is the Go time layout of field values.
func NewDateShift(store Store, ballpark time.Duration, layout string) (*DateShift, error) {
	minimum := time.Duration(models.MinDayShift) * 24 * time.Hour
	if ballpark > -minimum && ballpark < minimum {
		return nil, lib.ErrInsignificantBallpark(ballpark.Hours() / 24)
	}

	key := DateDeltaPrefix + ballpark.String()

	var seconds int64
	found, err := store.Get(key, &seconds)
	if err != nil {
		return nil, err
	}
	if !found {
		seconds = drawDelta(ballpark)
		if err := store.Put(key, seconds, false); err != nil {
			return nil, err
		}
	}

	return &DateShift{delta: time.Duration(seconds) * time.Second, layout: layout}, nil
}

// drawDelta picks an offset in seconds, triangular around ballpark within +-10%
func drawDelta(ballpark time.Duration) int64 {
	center := ballpark.Seconds()
	fudge := math.Abs(ballparkFudge * center)
	low, high := center-fudge, center+fudge

	u := rand.Float64()
	var x float64
	if u < 0.5 {
		x = low + math.Sqrt(u*(high-low)*(center-low))
	} else {
		x = high - math.Sqrt((1-u)*(high-low)*(high-center))
	}
	return int64(x)
}

// Delta returns the offset applied to every timestamp
func (d *DateShift) Delta() time.Duration {
	return d.delta
}

// Time shifts a native timestamp
func (d *DateShift) Time(t time.Time) time.Time {
	return t.Add(d.delta)
}

// Generator returns a field generator parsing and rendering with the layout
func (d *DateShift) Generator() Generator[string] {
	return func(original string) (string, error) {
		t, err := d.parse(original)
		if err != nil {
			return "", lib.ErrUnparsableValue("date shift", err)
		}
		return d.Time(t).Format(d.layout), nil
	}
}

// parse accepts the full layout or, for sloppy senders, a date/minute
// truncated prefix of it (YYYYMMDD, YYYYMMDDHH, YYYYMMDDHHMM)
func (d *DateShift) parse(value string) (time.Time, error) {
	t, err := time.Parse(d.layout, value)
	if err == nil {
		return t, nil
	}
	n := len(value)
	if n < len(d.layout) && (n == 8 || n == 10 || n == 12) {
		if short, shortErr := time.Parse(d.layout[:n], value); shortErr == nil {
			return short, nil
		}
	}
	return time.Time{}, err
}
