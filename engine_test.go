package fortress_test

import (
	"fmt"
	"sync"
	"testing"

	fortress "github.com/fortress-schema/fortress"
)

func TestEngine_ValidateJSON(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	desc := fortress.Description{"name": "string(1,50)", "age": "int(0,120)"}

	res, err := eng.ValidateJSON(desc, []byte(`{"name":"ada","age":36}`))
	if err != nil {
		t.Fatalf("validate json: %v", err)
	}
	if !res.OK {
		t.Fatalf("valid document: %v", res.Errors)
	}
	data := res.Data.(map[string]any)
	if data["name"] != "ada" || data["age"] != 36.0 {
		t.Fatalf("validated output wrong: %v", data)
	}

	res, err = eng.ValidateJSON(desc, []byte(`{"name":"ada","age":"old"}`))
	if err != nil || res.OK {
		t.Fatalf("schema violations land in the result, got err=%v ok=%v", err, res.OK)
	}
}

func TestEngine_ValidateJSONMalformedInput(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	desc := fortress.Description{"name": "string"}

	// broken JSON is a data failure, not an engine error
	res, err := eng.ValidateJSON(desc, []byte(`{"name":`))
	if err != nil {
		t.Fatalf("malformed input must not surface as error: %v", err)
	}
	if res.OK || len(res.Errors) == 0 || res.Errors[0].Path != "/" {
		t.Fatalf("expected root-level failure, got %+v", res)
	}
}

func TestEngine_CacheStatsAndClear(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	mustCompile(t, eng, fortress.Description{"a": "string"})
	mustCompile(t, eng, fortress.Description{"b": "number", "role": "x|y"})

	stats := eng.CacheStats()
	if stats.CompiledSchemas != 2 || stats.UnionEntries != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	eng.ClearCaches()
	if stats := eng.CacheStats(); stats.CompiledSchemas != 0 || stats.UnionEntries != 0 {
		t.Fatalf("clear must empty both caches, got %+v", stats)
	}

	// the engine stays usable after a clear
	mustCompile(t, eng, fortress.Description{"a": "string"})
	if stats := eng.CacheStats(); stats.CompiledSchemas != 1 {
		t.Fatalf("recompile after clear, got %+v", stats)
	}
}

func TestEngine_MustPrecompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on definition error")
		}
	}()
	eng := newEngine(t, fortress.Options{})
	eng.MustPrecompile(fortress.Description{"bad": "when nonsense"})
}

func TestEngine_ConcurrentCompileAndValidate(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	descs := make([]fortress.Description, 8)
	for i := range descs {
		descs[i] = fortress.Description{
			fmt.Sprintf("field%d", i): "string(1,20)",
			"role":                    "admin|user|guest",
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for iter := 0; iter < 50; iter++ {
				d := descs[(w+iter)%len(descs)]
				v, err := eng.Precompile(d)
				if err != nil {
					t.Errorf("precompile: %v", err)
					return
				}
				res := v.Validate(map[string]any{
					fmt.Sprintf("field%d", (w+iter)%len(descs)): "x",
					"role": "admin",
				})
				if !res.OK {
					t.Errorf("validate: %v", res.Errors)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if stats := eng.CacheStats(); stats.CompiledSchemas != len(descs) {
		t.Fatalf("racing compiles must converge to one entry per schema, got %+v", stats)
	}
}
