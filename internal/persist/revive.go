package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Schema lists the date-valued fields of one record type and the schema of
// every nested record (object or array of objects) it embeds.
type Schema struct {
	Dates  []string
	Nested map[string]string
}

type Reviver struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

func NewReviver() *Reviver {
	return &Reviver{schemas: make(map[string]Schema)}
}

func (r *Reviver) Register(name string, schema Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = schema
}

func (r *Reviver) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[name]
	return ok
}

// Revive walks raw JSON (a record or an array of records) and rewrites every
// allow-listed date field as RFC 3339. Accepted inputs are RFC 3339 strings,
// bare dates, local timestamps without zone, and epoch milliseconds.
// Unparseable dates become null. Other fields pass through untouched.
func (r *Reviver) Revive(raw []byte, schema string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.schemas[schema]; !ok {
		return nil, fmt.Errorf("unknown schema %q", schema)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(r.walk(doc, schema))
}

func (r *Reviver) walk(value any, schema string) any {
	switch v := value.(type) {
	case []any:
		for i := range v {
			v[i] = r.walk(v[i], schema)
		}
		return v
	case map[string]any:
		s, ok := r.schemas[schema]
		if !ok {
			return v
		}
		for _, field := range s.Dates {
			if fv, present := v[field]; present {
				v[field] = reviveDate(fv)
			}
		}
		for field, nested := range s.Nested {
			if fv, present := v[field]; present {
				v[field] = r.walk(fv, nested)
			}
		}
		return v
	default:
		return v
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func reviveDate(value any) any {
	switch v := value.(type) {
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().Format(time.RFC3339Nano)
			}
		}
		return nil
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return nil
			}
			ms = int64(f)
		}
		return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
	default:
		return nil
	}
}
