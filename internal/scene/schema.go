/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package scene

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema validates serialized scenes before they touch the live
// object graph. The viewport transform is deliberately absent: camera
// state is never part of a snapshot.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "objects"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "objects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "left", "top"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"enum": ["rect", "ellipse", "text"]},
          "left": {"type": "number"},
          "top": {"type": "number"},
          "width": {"type": "number", "minimum": 0},
          "height": {"type": "number", "minimum": 0},
          "fill": {"type": "string"},
          "locked": {"type": "boolean"},
          "text": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// validateSnapshot checks a serialized scene against the snapshot schema.
func validateSnapshot(data []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(snapshotSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile snapshot schema: %w", schemaErr)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}
	if res.Valid() {
		return nil
	}
	var b strings.Builder
	b.WriteString("invalid snapshot:")
	for _, e := range res.Errors() {
		b.WriteString(" ")
		b.WriteString(e.String())
		b.WriteString(";")
	}
	return errors.New(b.String())
}
