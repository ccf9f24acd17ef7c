package core

import (
	"reflect"
	"sync"

	"github.com/Kuba314/arcparse/internal/common"
)

// The process-wide spec registry. Compilation of a record type is idempotent,
// so specs are computed once per type and published for every subsequent
// parse; concurrent compilations of the same type share one result.
var registry sync.Map // reflect.Type -> *registryEntry

type registryEntry struct {
	once sync.Once
	spec *RecordSpec
	err  error
}

// CachedRecord returns the memoized RecordSpec for a record type, compiling
// it on first use. Only option-free compilations are cached; compile options
// change the spec shape and yield private instances.
func CachedRecord(t reflect.Type) (*RecordSpec, error) {
	e, _ := registry.LoadOrStore(t, &registryEntry{})
	entry := e.(*registryEntry)
	entry.once.Do(func() {
		entry.spec, entry.err = CompileRecord(t, nil)
	})
	return entry.spec, entry.err
}

// Selected reports which subcommand variant a parsed record instance carries:
// the variant's declared name and the non-nil variant value. ok is false when
// the record declares no subcommands or none was selected.
func Selected(record any) (name string, cmd any, ok bool) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", nil, false
	}
	for _, f := range common.FlattenFields(v.Type()) {
		s, err := parseFieldTags(f)
		if err != nil || s.kind != "subcommand" {
			continue
		}
		fv := v.FieldByIndex(f.Path)
		if fv.Kind() == reflect.Pointer && !fv.IsNil() {
			return s.subName, fv.Interface(), true
		}
	}
	return "", nil, false
}
