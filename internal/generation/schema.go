package generation

import (
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

var schemas sync.Map // reflect.Type -> *jsonschema.Schema

// SchemaFor returns the JSON schema for T, reflected once and cached.
// References are inlined because several vendors reject $ref.
func SchemaFor[T any]() *jsonschema.Schema {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if s, ok := schemas.Load(typ); ok {
		return s.(*jsonschema.Schema)
	}

	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(new(T))
	s.Version = ""
	s.ID = ""

	actual, _ := schemas.LoadOrStore(typ, s)
	return actual.(*jsonschema.Schema)
}
