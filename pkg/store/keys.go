package store

import (
	"fmt"
	"strings"
)

// tablePrefix returns the key prefix shared by all rows of table.
func tablePrefix(table string) ([]byte, error) {
	if table == "" || strings.Contains(table, "/") {
		return nil, fmt.Errorf("%w: table name %q", ErrInvalidKey, table)
	}
	return []byte("t/" + table + "/"), nil
}

func rowKey(table string, key []byte) ([]byte, error) {
	prefix, err := tablePrefix(table)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty primary key", ErrInvalidKey)
	}
	k := make([]byte, 0, len(prefix)+len(key))
	k = append(k, prefix...)
	return append(k, key...), nil
}

// bounds converts r into pebble's inclusive lower and exclusive upper bound.
func bounds(table string, r Range) (lower, upper []byte, err error) {
	prefix, err := tablePrefix(table)
	if err != nil {
		return nil, nil, err
	}

	lower = prefix
	if r.Lower != nil {
		lower = append(append([]byte(nil), prefix...), r.Lower.Key...)
		if !r.Lower.Inclusive {
			lower = successor(lower)
		}
	}

	upper = prefixEnd(prefix)
	if r.Upper != nil {
		upper = append(append([]byte(nil), prefix...), r.Upper.Key...)
		if r.Upper.Inclusive {
			upper = successor(upper)
		}
	}
	return lower, upper, nil
}

// successor returns the smallest key greater than k.
func successor(k []byte) []byte {
	return append(k, 0x00)
}

// prefixEnd returns the smallest key greater than every key starting with p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
