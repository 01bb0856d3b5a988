package document

import (
	"reflect"
	"testing"
)

func TestExpandFlattenRoundTrip(t *testing.T) {
	cases := []map[string]any{
		{
			"golem.srv.comp.expiration": float64(123456),
			"golem.node.id.name":        "dany",
		},
		{
			"a": "b",
		},
		{},
		{
			"golem.inf.cpu.threads": float64(4),
			"golem.inf.mem.gib":     float64(8),
			"golem.com.pricing.model": "linear",
		},
	}

	for _, flat := range cases {
		nested := Expand(flat)
		back := Flatten(nested)
		if !reflect.DeepEqual(flat, back) {
			t.Errorf("round trip mismatch: in=%v expanded=%v out=%v", flat, nested, back)
		}
	}
}

func TestPointerReadsNestedValue(t *testing.T) {
	doc := NewFromFlat(map[string]any{
		"golem.srv.comp.expiration": float64(999),
		"golem.node.id.name":        "dany",
	})

	name, err := doc.String("/golem/node/id/name")
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if name != "dany" {
		t.Errorf("name = %q, want %q", name, "dany")
	}

	expiration, err := doc.Int64("/golem/srv/comp/expiration")
	if err != nil {
		t.Fatalf("Int64: %v", err)
	}
	if expiration != 999 {
		t.Errorf("expiration = %d, want 999", expiration)
	}
}

func TestPointerMissingKey(t *testing.T) {
	doc := NewFromFlat(map[string]any{"a.b": "c"})
	if _, err := doc.String("/a/missing"); err == nil {
		t.Fatal("expected error for missing pointer")
	}
}

func TestSetCreatesIntermediateObjects(t *testing.T) {
	doc := New(nil)
	if err := doc.Set("/final-score", 0.75); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := doc.Pointer("/final-score")
	if !ok {
		t.Fatal("expected value at /final-score")
	}
	if v.(float64) != 0.75 {
		t.Errorf("value = %v, want 0.75", v)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := NewFromFlat(map[string]any{"a.b": "c"})
	clone := original.Clone()
	clone.Set("/a/b", "changed")

	v, _ := original.Pointer("/a/b")
	if v != "c" {
		t.Errorf("original mutated through clone: got %v", v)
	}
}
