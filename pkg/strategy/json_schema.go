package strategy

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
)

var optionalTimeType = reflect.TypeOf(optional.Option[time.Time]{})

// ToJSONSchema converts a struct to a JSON schema. Optional times are described as
// date-time strings and durations as Go duration strings.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.Mapper = func(t reflect.Type) *jsonschema.Schema {
		switch t {
		case optionalTimeType:
			return &jsonschema.Schema{Type: "string", Format: "date-time"}
		case reflect.TypeOf(time.Duration(0)):
			return &jsonschema.Schema{Type: "string", Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|ms|s|m|h))+$`}
		}

		return nil
	}

	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
