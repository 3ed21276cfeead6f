package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trobanga/hl7anon/internal/lib"
)

const (
	dateTermLayout    = "200601021504"
	shiftedTermLayout = "20060102150405"
	commaDateLayout   = "2006,01,02,15,04,05"
	identifierJoin    = "^^^"
)

// TermReader is the read side of the term cache
type TermReader interface {
	GetRaw(key string) ([]byte, bool, error)
}

// LookupTerm returns the cached replacement for term
//
// Two shorthand forms are understood besides a literal key:
//
//	2030,12,10,9,8          a timestamp given as year,month,day,hour,minute;
//	                        the shifted value is printed in the same comma form
//	patientID^^^authority   an identifier and its assigning authority, each
//	                        looked up on its own
func LookupTerm(store TermReader, term string) (string, bool, error) {
	switch {
	case strings.Count(term, ",") == 4:
		return lookupDate(store, term)
	case strings.Count(term, "^") == 3 && strings.Contains(term, identifierJoin):
		return lookupIdentifier(store, term)
	default:
		return lookupRaw(store, term)
	}
}

func lookupDate(store TermReader, term string) (string, bool, error) {
	parts := make([]int, 0, 5)
	for _, p := range strings.Split(term, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", false, lib.WrapError(lib.CategoryValidation,
				fmt.Sprintf("Invalid date term %q", term), err,
				"Give the date as year,month,day,hour,minute, e.g. 2030,12,10,9,8")
		}
		parts = append(parts, n)
	}

	key := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC).Format(dateTermLayout)
	value, found, err := lookupRaw(store, key)
	if err != nil || !found {
		return "", found, err
	}

	shifted, err := time.Parse(shiftedTermLayout, value)
	if err != nil {
		return "", false, lib.ErrUnparsableValue("date lookup", err)
	}
	return shifted.Format(commaDateLayout), true, nil
}

func lookupIdentifier(store TermReader, term string) (string, bool, error) {
	i := strings.Index(term, identifierJoin)
	id, found, err := lookupRaw(store, term[:i])
	if err != nil || !found {
		return "", found, err
	}
	org, found, err := lookupRaw(store, term[i+len(identifierJoin):])
	if err != nil || !found {
		return "", found, err
	}
	return id + identifierJoin + org, true, nil
}

func lookupRaw(store TermReader, key string) (string, bool, error) {
	raw, found, err := store.GetRaw(key)
	if err != nil || !found {
		return "", found, err
	}
	return FormatTermValue(raw), true, nil
}

// FormatTermValue renders a cached JSON value for display; strings are unquoted
func FormatTermValue(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
