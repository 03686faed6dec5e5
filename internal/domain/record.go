package domain

import (
	"encoding/json"
	"reflect"
)

// SecretSetter is implemented by models that carry write-only secrets.
type SecretSetter interface {
	SetSecret(name, hashed string)
}

// CloneRecord returns a shallow copy of rec. The change-set pointer is
// shared until the caller replaces it.
func CloneRecord(rec Record) Record {
	v := reflect.ValueOf(rec)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return rec
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())
	return cp.Interface().(Record)
}

// Fields flattens the record into its json field map.
func Fields(rec Record) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
