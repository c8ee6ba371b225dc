package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssargent/oidcast/pkg/api"
	"github.com/ssargent/oidcast/pkg/model"
	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/schema"
)

// parseValue converts command line text into the runtime form of col.
// "null" is NULL for every column. Identifier text that is not valid hex is
// handed to the cast unchanged, which stores it as NULL.
func parseValue(col schema.Column, s string) (any, error) {
	if s == "null" {
		return nil, nil
	}
	switch {
	case col.IsObjectID():
		if id, err := objectid.FromHex(s); err == nil {
			return id, nil
		}
		return s, nil
	case col.Type == schema.TypeInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s expects an integer: %w", col.Name, err)
		}
		return n, nil
	case col.Type == schema.TypeBinary:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("column %s expects base64: %w", col.Name, err)
		}
		return b, nil
	default:
		return s, nil
	}
}

// parameter converts a query value. Identifier columns are normalized.
func parameter(col schema.Column, s string) (any, error) {
	if col.IsObjectID() {
		return objectid.Normalize(s), nil
	}
	return parseValue(col, s)
}

// parseAssignments turns col=value arguments into attributes.
func parseAssignments(table schema.Table, args []string) (map[string]any, error) {
	attrs := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected column=value, got %q", arg)
		}
		col, ok := table.Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %s.%s", table.Name, name)
		}
		v, err := parseValue(col, raw)
		if err != nil {
			return nil, err
		}
		attrs[name] = v
	}
	return attrs, nil
}

func printRecord(w io.Writer, rec *model.Record) error {
	data, err := json.Marshal(api.RenderRecord(rec))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
