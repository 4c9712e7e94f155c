// Package country holds the process-wide ISO-3166 alpha-2 country table.
// Country IDs are indices into the sorted table and are what the database
// stores in the high bits of each encoded range.
package country

import (
	"sort"
	"strings"
)

// ID indexes the sorted country table. Valid IDs are in [0, Count).
type ID int

// None is returned by Find for codes not present in the table.
const None ID = -1

// lower is the sorted, lowercase view of the table. The order is frozen:
// IDs are persisted inside database files, so entries may never be
// reordered or removed, only appended if the encoding gains spare bits.
var lower = [...]string{
	"ad", "ae", "af", "ag", "ai", "al", "am", "an", "ao", "aq", "ar",
	"as", "at", "au", "aw", "az", "ba", "bb", "bd", "be", "bf", "bg",
	"bh", "bi", "bj", "bm", "bn", "bo", "br", "bs", "bt", "bv", "bw",
	"by", "bz", "ca", "cc", "cd", "cf", "cg", "ch", "ci", "ck", "cl",
	"cm", "cn", "co", "cr", "cu", "cv", "cx", "cy", "cz", "de", "dj",
	"dk", "dm", "do", "dz", "ec", "ee", "eg", "eh", "er", "es", "et",
	"fi", "fj", "fk", "fm", "fo", "fr", "ga", "gb", "gd", "ge", "gf",
	"gh", "gi", "gl", "gm", "gn", "gp", "gq", "gr", "gs", "gt", "gu",
	"gw", "gy", "hk", "hm", "hn", "hr", "ht", "hu", "id", "ie", "il",
	"in", "io", "iq", "ir", "is", "it", "jm", "jo", "jp", "ke", "kg",
	"kh", "ki", "km", "kn", "kp", "kr", "kw", "ky", "kz", "la", "lb",
	"lc", "li", "lk", "lr", "ls", "lt", "lu", "lv", "ly", "ma", "mc",
	"md", "mg", "mh", "mk", "ml", "mm", "mn", "mo", "mp", "mq", "mr",
	"ms", "mt", "mu", "mv", "mw", "mx", "my", "mz", "na", "nc", "ne",
	"nf", "ng", "ni", "nl", "no", "np", "nr", "nu", "nz", "om", "pa",
	"pe", "pf", "pg", "ph", "pk", "pl", "pm", "pn", "pr", "ps", "pt",
	"pw", "py", "qa", "re", "ro", "ru", "rw", "sa", "sb", "sc", "sd",
	"se", "sg", "sh", "si", "sj", "sk", "sl", "sm", "sn", "so", "sr",
	"st", "sv", "sy", "sz", "tc", "td", "tf", "tg", "th", "tj", "tk",
	"tl", "tm", "tn", "to", "tr", "tt", "tv", "tw", "tz", "ua", "ug",
	"um", "us", "uy", "uz", "va", "vc", "ve", "vg", "vi", "vn", "vu",
	"wf", "ws", "ye", "yt", "yu", "za", "zm", "zw",
}

// Count is the number of countries in the table.
const Count = len(lower)

var upper [Count]string

func init() {
	for i, c := range lower {
		upper[i] = strings.ToUpper(c)
	}
}

// Lower returns the lowercase ISO2 code for id, or "??" if id is out of range.
func Lower(id ID) string {
	if id < 0 || int(id) >= Count {
		return "??"
	}
	return lower[id]
}

// Upper returns the uppercase ISO2 code for id, or "??" if id is out of range.
func Upper(id ID) string {
	if id < 0 || int(id) >= Count {
		return "??"
	}
	return upper[id]
}

// Valid reports whether id indexes the table.
func Valid(id ID) bool {
	return id >= 0 && int(id) < Count
}

// Find returns the ID for a two-letter ISO code, case-insensitively.
// It returns None for anything that is not exactly two letters or is
// absent from the table. Deprecated codes (CS, TP, UK) are not special
// here; callers rewrite those before lookup, see Rewrite.
func Find(code string) ID {
	if len(code) != 2 {
		return None
	}
	key := strings.ToLower(code)
	i := sort.SearchStrings(lower[:], key)
	if i < Count && lower[i] == key {
		return ID(i)
	}
	return None
}

// Rewrite maps deprecated ISO2 codes to their modern replacement,
// returning the input unchanged when no rewrite applies. The CS
// replacement is caller-supplied: the historical data this tool was
// built for used CS for the Czech Republic, but CS also denoted
// Serbia-and-Montenegro, so the operator chooses. An empty csTo keeps
// CS unmapped, which makes it an unknown code downstream.
func Rewrite(code, csTo string) string {
	switch strings.ToLower(code) {
	case "cs":
		if csTo == "" {
			return code
		}
		return csTo
	case "tp":
		return "tl"
	case "uk":
		return "gb"
	}
	return code
}
