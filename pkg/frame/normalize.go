package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalize converts a value returned by a database driver into one of the
// frame value types. dbType is the driver's database type name; it decides how
// raw bytes are decoded, since some drivers return every value as []byte.
func Normalize(v any, dbType string) any {
	switch v := v.(type) {
	case nil:
		return nil
	case []byte:
		return decode(string(v), dbType)
	case string:
		return v
	case bool:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= 1<<63-1 {
			return int64(v)
		}
		return float64(v)
	case uint:
		return Normalize(uint64(v), dbType)
	case float32:
		return float64(v)
	case float64:
		return v
	case time.Time:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// IsIntegerType reports whether dbType names an integer column type.
func IsIntegerType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL",
		"UNSIGNED INT", "UNSIGNED BIGINT", "UNSIGNED SMALLINT", "UNSIGNED TINYINT", "UNSIGNED MEDIUMINT":
		return true
	}
	return false
}

// IsFloatType reports whether dbType names a fractional numeric column type.
func IsFloatType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		return true
	}
	return false
}

func decode(s, dbType string) any {
	switch {
	case IsIntegerType(dbType):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case IsFloatType(dbType):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case strings.EqualFold(dbType, "BOOL"), strings.EqualFold(dbType, "BOOLEAN"):
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}
