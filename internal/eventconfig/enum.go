package eventconfig

import (
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// DeriveValue computes the stable enum identifier for a name: the first seven
// hex digits of the SHA-512 of the upper-cased name, read base 16. The 28-bit
// truncation carries a collision risk that is acceptable at this cardinality,
// and the derived values must not change because they are stored in the
// database alongside attendee records.
func DeriveValue(name string) int {
	sum := sha512.Sum512([]byte(strings.ToUpper(name)))
	v, err := strconv.ParseInt(hex.EncodeToString(sum[:])[:7], 16, 64)
	if err != nil {
		// hex digits always parse; keep the compiler honest
		panic(err)
	}
	return int(v)
}

type kv struct {
	key   string
	value string
}

// registerValue derives and records an enum value for a bare name. Used for
// options that are removed from an enum but still referenced in code paths
// (e.g. disabled payment methods).
func (e *Event) registerValue(name string) int {
	val := DeriveValue(name)
	e.Values[strings.ToUpper(name)] = val
	return val
}

// makeEnum builds an enum from ordered key/value pairs. A value that parses
// as an integer is an explicit assignment (the key doubles as description);
// anything else gets a hash-derived value with the value text as description.
// Pairs with an empty description are registered but omitted from the options
// list. For price enums the lookup maps description to amount.
func (e *Event) makeEnum(name string, pairs []kv, prices bool) *Enum {
	enum := &Enum{
		Name:   strings.ToUpper(name),
		Lookup: make(map[int]string),
	}
	if prices {
		enum.Prices = make(map[string]int)
	}

	for _, pair := range pairs {
		var val int
		desc := pair.value
		if explicit, err := strconv.Atoi(pair.value); err == nil {
			val = explicit
			desc = pair.key
		} else {
			enum.Vars = append(enum.Vars, strings.ToUpper(pair.key))
			val = e.registerValue(pair.key)
		}

		if desc == "" {
			continue
		}
		enum.Opts = append(enum.Opts, Opt{Value: val, Desc: desc})
		if prices {
			enum.Prices[desc] = val
		} else {
			enum.Lookup[val] = desc
		}
	}

	e.Enums[enum.Name] = enum
	return enum
}
