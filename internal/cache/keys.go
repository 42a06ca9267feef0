package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// Cache family names. Writers invalidate whole families conservatively;
// only by-id entries are targeted by key.
const (
	FamilyDrivers     = "drivers"
	FamilyDriverByID  = "driverById"
	FamilyVehicles    = "vehicles"
	FamilyVehicleByID = "vehicleById"
	FamilyAssignments = "assignments"
)

const keyPrefix = "cache"

// Key builds a canonical cache key from query parameters. Equal parameter
// sets always render to the same key: parts are joined in call order with
// ':' and nil optional values render as '-'.
func Key(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(keyPart(p))
	}
	return b.String()
}

func keyPart(p any) string {
	switch v := p.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case *int64:
		if v == nil {
			return "-"
		}
		return strconv.FormatInt(*v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fullKey(family, key string) string {
	return keyPrefix + ":" + family + ":" + key
}

func familyPrefix(family string) string {
	return keyPrefix + ":" + family + ":"
}
