// Package models defines the CRM entities the disconnection workflow reads and writes.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a CRM record as returned by the record store, keyed by CRM field name.
type Record map[string]any

// RecordRef points at another CRM record.
type RecordRef struct {
	ID     string `json:"id"`
	Module string `json:"module"`
}

func (r RecordRef) IsZero() bool {
	return r.ID == ""
}

func (r RecordRef) String() string {
	return r.Module + "/" + r.ID
}

// String returns the field rendered as a string. Missing and null fields are "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return BoolString(v)
	case map[string]any:
		if id, ok := v["id"]; ok {
			return fmt.Sprint(id)
		}

		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool reads a CRM checkbox, stored as "1"/"0" or as a JSON boolean.
func (r Record) Bool(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	default:
		s := strings.TrimSpace(strings.ToLower(r.String(field)))

		return s == "1" || s == "true" || s == "yes" || s == "on"
	}
}

// Int reads an integer field. Unparseable and fractional values report ok=false.
func (r Record) Int(field string) (int, bool) {
	s := strings.TrimSpace(r.String(field))
	if s == "" {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}

		return int(f), true
	}

	return n, true
}

// Ref reads a reference field. The CRM renders these either as an
// {"id": ..., "module": ...} object or as a "<prefix>x<id>" webservice id.
// defaultModule fills in the module when the field does not carry one.
func (r Record) Ref(field, defaultModule string) (RecordRef, bool) {
	var ref RecordRef

	switch v := r[field].(type) {
	case map[string]any:
		ref.ID = Record(v).String("id")
		ref.Module = Record(v).String("module")
	case RecordRef:
		ref = v
	default:
		ref.ID = r.String(field)
	}

	if ref.ID == "" {
		return RecordRef{}, false
	}

	if strings.Contains(ref.ID, "x") {
		_, id, ok := strings.Cut(ref.ID, "x")
		if !ok || id == "" {
			return RecordRef{}, false
		}

		ref.ID = id
	}

	if ref.Module == "" {
		ref.Module = defaultModule
	}

	return ref, true
}

// RecordID strips the "<prefix>x" part of a webservice id.
func RecordID(id string) string {
	if _, rest, ok := strings.Cut(id, "x"); ok {
		return rest
	}

	return id
}

// BoolString renders a checkbox value the way the CRM stores it.
func BoolString(v bool) string {
	if v {
		return "1"
	}

	return "0"
}
