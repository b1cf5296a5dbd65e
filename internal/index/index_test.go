package index_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Yeseh/cortex-sub001/internal/index"
)

func Test_Marshal_Is_Deterministic_When_Entry_Order_Differs(t *testing.T) {
	t.Parallel()

	a := &index.Index{
		Memories: []index.MemoryEntry{
			{Path: "p/b", TokenEstimate: index.Estimate(3)},
			{Path: "p/a", Summary: "first"},
		},
		Subcategories: []index.SubcategoryEntry{
			{Path: "p/z", MemoryCount: 1},
			{Path: "p/y", MemoryCount: 4, Description: "why"},
		},
	}
	b := &index.Index{
		Memories:      []index.MemoryEntry{a.Memories[1], a.Memories[0]},
		Subcategories: []index.SubcategoryEntry{a.Subcategories[1], a.Subcategories[0]},
	}

	da, err := index.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal(a): %v", err)
	}

	db, err := index.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal(b): %v", err)
	}

	if !bytes.Equal(da, db) {
		t.Fatalf("encodings differ:\n%s\n---\n%s", da, db)
	}

	// Marshal sorts a copy; the caller's slices are untouched.
	if a.Memories[0].Path != "p/b" {
		t.Fatalf("Marshal reordered caller slice: %+v", a.Memories)
	}
}

func Test_Marshal_Writes_Empty_Lists_When_Index_Empty(t *testing.T) {
	t.Parallel()

	data, err := index.Marshal(index.New())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	text := string(data)
	for _, want := range []string{"memories: []", "subcategories: []"} {
		if !strings.Contains(text, want) {
			t.Fatalf("want %q in:\n%s", want, text)
		}
	}

	got, err := index.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !got.IsEmpty() {
		t.Fatalf("Parse(empty)=%+v, want empty", got)
	}
}

func Test_Parse_Round_Trips_When_Index_Valid(t *testing.T) {
	t.Parallel()

	in := &index.Index{
		Memories: []index.MemoryEntry{
			{Path: "a/one", TokenEstimate: index.Estimate(12), Summary: "summary: with colon"},
			{Path: "a/two"},
		},
		Subcategories: []index.SubcategoryEntry{
			{Path: "a/b", MemoryCount: 3, Description: "nested"},
			{Path: "a/c", MemoryCount: 0, Description: "described but empty"},
		},
	}

	data, err := index.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := index.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, data)
	}

	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_Marshal_Keeps_Zero_Estimate_Distinct_From_Absent(t *testing.T) {
	t.Parallel()

	in := &index.Index{
		Memories: []index.MemoryEntry{
			{Path: "a/empty", TokenEstimate: index.Estimate(0)},
			{Path: "a/unknown"},
		},
	}

	data, err := index.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if got := strings.Count(string(data), "token_estimate:"); got != 1 {
		t.Fatalf("token_estimate written %d times, want 1:\n%s", got, data)
	}

	if !strings.Contains(string(data), "token_estimate: 0") {
		t.Fatalf("zero estimate missing:\n%s", data)
	}

	got, err := index.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_Parse_Returns_Empty_Index_When_Document_Empty(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"", "\n", "# only a comment\n"} {
		got, err := index.Parse([]byte(data))
		if err != nil {
			t.Fatalf("Parse(%q): %v", data, err)
		}

		if !got.IsEmpty() {
			t.Fatalf("Parse(%q)=%+v, want empty", data, got)
		}
	}
}

func Test_Parse_Returns_ErrParse_When_Index_Corrupt(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "memories: [unclosed\n"},
		{name: "unknown key", data: "memories: []\nextra: 1\n"},
		{name: "unknown entry key", data: "memories:\n  - path: a/b\n    bogus: 1\n"},
		{name: "invalid memory path", data: "memories:\n  - path: Not/Valid\n"},
		{name: "single segment memory path", data: "memories:\n  - path: alone\n"},
		{name: "non canonical memory path", data: "memories:\n  - path: /a//b\n"},
		{name: "negative tokens", data: "memories:\n  - path: a/b\n    token_estimate: -1\n"},
		{name: "duplicate memory", data: "memories:\n  - path: a/b\n  - path: a/b\n"},
		{name: "empty subcategory", data: "subcategories:\n  - path: \"\"\n    memory_count: 1\n"},
		{name: "negative count", data: "subcategories:\n  - path: a\n    memory_count: -2\n"},
		{name: "wrong type", data: "subcategories:\n  - path: a\n    memory_count: many\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := index.Parse([]byte(tt.data))
			if !errors.Is(err, index.ErrParse) {
				t.Fatalf("err=%v, want ErrParse", err)
			}
		})
	}
}

func Test_Parse_Accepts_Memory_And_Subcategory_With_Same_Path(t *testing.T) {
	t.Parallel()

	// a/b.md and the directory a/b/ can coexist on disk.
	got, err := index.Parse([]byte("memories:\n  - path: a/b\nsubcategories:\n  - path: a/b\n    memory_count: 1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(got.Memories) != 1 || len(got.Subcategories) != 1 {
		t.Fatalf("got %+v", got)
	}
}

func Test_UpsertMemory_Keeps_Sorted_Order_When_Inserting_And_Replacing(t *testing.T) {
	t.Parallel()

	ix := index.New()
	ix.UpsertMemory(index.MemoryEntry{Path: "c/m"})
	ix.UpsertMemory(index.MemoryEntry{Path: "c/a"})
	ix.UpsertMemory(index.MemoryEntry{Path: "c/z"})
	ix.UpsertMemory(index.MemoryEntry{Path: "c/m", TokenEstimate: index.Estimate(9)})

	want := []index.MemoryEntry{
		{Path: "c/a"},
		{Path: "c/m", TokenEstimate: index.Estimate(9)},
		{Path: "c/z"},
	}

	if diff := cmp.Diff(want, ix.Memories); diff != "" {
		t.Fatalf("memories mismatch (-want +got):\n%s", diff)
	}

	if !ix.RemoveMemory("c/m") || ix.RemoveMemory("c/m") {
		t.Fatal("RemoveMemory must report true once, then false")
	}

	if _, ok := ix.Memory("c/m"); ok {
		t.Fatal("removed entry still found")
	}
}

func Test_TotalMemoryCount_Aggregates_Subtree(t *testing.T) {
	t.Parallel()

	ix := index.New()
	ix.UpsertMemory(index.MemoryEntry{Path: "a/x"})
	ix.UpsertMemory(index.MemoryEntry{Path: "a/y"})
	ix.UpsertSubcategory(index.SubcategoryEntry{Path: "a/b", MemoryCount: 5})
	ix.UpsertSubcategory(index.SubcategoryEntry{Path: "a/c", MemoryCount: 1})

	if got, want := ix.TotalMemoryCount(), 8; got != want {
		t.Fatalf("TotalMemoryCount()=%d, want=%d", got, want)
	}

	ix.UpsertSubcategory(index.SubcategoryEntry{Path: "a/b", MemoryCount: 2, Description: "d"})

	sub, ok := ix.Subcategory("a/b")
	if !ok || sub.MemoryCount != 2 || sub.Description != "d" {
		t.Fatalf("Subcategory(a/b)=%+v,%v", sub, ok)
	}

	if !ix.RemoveSubcategory("a/c") {
		t.Fatal("RemoveSubcategory(a/c)=false")
	}

	if got, want := ix.TotalMemoryCount(), 4; got != want {
		t.Fatalf("TotalMemoryCount()=%d, want=%d", got, want)
	}
}
