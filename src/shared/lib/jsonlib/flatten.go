package jsonlib

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Flatten decodes a JSON object into the fields T declares and keeps every
// other key in Extra, so documents from outside tools survive a round trip.
// T should be a struct or a map[string]any.
type Flatten[T any] struct {
	Defined T
	Extra   map[string]any
}

// MarshalJSON writes Extra and Defined as one object. Defined wins when both
// carry the same key.
func (f Flatten[T]) MarshalJSON() ([]byte, error) {
	definedFields, err := StructToMap(f.Defined)
	if err != nil {
		return nil, errors.Wrap(err, "Could not convert defined fields into a map")
	}

	object := make(map[string]any, len(f.Extra)+len(definedFields))
	for key, value := range f.Extra {
		object[key] = value
	}

	for key, value := range definedFields {
		object[key] = value
	}

	return json.Marshal(object)
}

func (f *Flatten[T]) UnmarshalJSON(b []byte) error {
	object := map[string]any{}
	if err := json.Unmarshal(b, &object); err != nil {
		return errors.Wrap(err, "Could not unmarshal json data into a map")
	}

	defined := new(T)
	if err := json.Unmarshal(b, defined); err != nil {
		return errors.Wrap(err, "Could not unmarshal json data into defined fields")
	}

	definedFields, err := StructToMap(*defined)
	if err != nil {
		return errors.Wrap(err, "Could not convert defined fields to a map")
	}

	extra := map[string]any{}
	for key, value := range object {
		if _, isDefined := definedFields[key]; !isDefined {
			extra[key] = value
		}
	}

	f.Defined = *defined
	f.Extra = extra
	return nil
}

func (f Flatten[T]) ToMap() (map[string]any, error) {
	return StructToMap(f)
}

func (f *Flatten[T]) FromMap(m map[string]any) error {
	decoded, err := MapToStruct[Flatten[T]](m)
	if err != nil {
		return errors.Wrap(err, "Could not convert map to struct")
	}

	*f = decoded
	return nil
}

// StructToMap converts through JSON, so the keys are the json tags and
// numbers come back as float64.
func StructToMap(s any) (map[string]any, error) {
	jsonBytes, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "Could not marshal struct")
	}

	fieldsMap := map[string]any{}
	if err := json.Unmarshal(jsonBytes, &fieldsMap); err != nil {
		return nil, errors.Wrap(err, "Could not unmarshal struct into a map")
	}

	return fieldsMap, nil
}

func MapToStruct[T any](m map[string]any) (T, error) {
	t := new(T)

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return *t, errors.Wrap(err, "Could not marshal map")
	}

	if err := json.Unmarshal(jsonBytes, t); err != nil {
		return *t, errors.Wrap(err, "Could not unmarshal json map to object")
	}

	return *t, nil
}
