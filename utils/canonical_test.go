package utils

import (
	"testing"
)

func TestCanonicalJSON_KeyOrderIrrelevant(t *testing.T) {
	a := map[string]interface{}{
		"b": 2,
		"a": 1,
		"nested": map[string]interface{}{
			"z": true,
			"y": []interface{}{1, "two"},
		},
	}
	b := map[string]interface{}{
		"nested": map[string]interface{}{
			"y": []interface{}{1, "two"},
			"z": true,
		},
		"a": 1,
		"b": 2,
	}

	ca, err := CanonicalJSON(a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ca) != string(cb) {
		t.Fatalf("canonical forms differ:\n%s\n%s", ca, cb)
	}
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	out, err := CanonicalJSON(map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"alpha":2,"mid":3,"zeta":1}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}

func TestCanonicalJSON_PreservesNumericPrecision(t *testing.T) {
	// A float64 round-trip would mangle this integer.
	out, err := CanonicalJSON(map[string]interface{}{"amount": int64(9007199254740993)})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"amount":9007199254740993}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}

func TestCanonicalJSON_RejectsUnserializable(t *testing.T) {
	if _, err := CanonicalJSON(map[string]interface{}{"fn": func() {}}); err == nil {
		t.Fatal("unserializable value must fail")
	}
}

func TestCompactJSON(t *testing.T) {
	out, err := CompactJSON([]byte(`{ "a" : 1 ,
		"b" : [ 1 , 2 ] }`))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":1,"b":[1,2]}` {
		t.Fatalf("got %s", out)
	}
}
