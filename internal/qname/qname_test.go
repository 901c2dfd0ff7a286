package qname

import (
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	left := New(Module{Namespace: "urn:a"}, "b")
	right := New(Module{Namespace: "urn:b"}, "a")
	if got := Compare(left, right); got >= 0 {
		t.Fatalf("Compare() = %d, want < 0", got)
	}

	left = New(Module{Namespace: "urn:a", Revision: "2020-01-01"}, "z")
	right = New(Module{Namespace: "urn:a", Revision: "2021-01-01"}, "a")
	if got := Compare(left, right); got >= 0 {
		t.Fatalf("Compare() = %d, want < 0", got)
	}
}

func TestSortedMapKeys(t *testing.T) {
	a := Module{Namespace: "urn:a"}
	b := Module{Namespace: "urn:b"}
	in := map[QName]int{
		New(b, "x"): 1,
		New(a, "z"): 1,
		New(a, "a"): 1,
	}
	got := SortedMapKeys(in)
	want := []QName{New(a, "a"), New(a, "z"), New(b, "x")}
	if !slices.Equal(got, want) {
		t.Fatalf("SortedMapKeys() = %v, want %v", got, want)
	}
}

func TestSortAndDedupe(t *testing.T) {
	a := Module{Namespace: "urn:a"}
	in := []QName{New(a, "x"), New(a, "a"), New(a, "x")}
	got := SortAndDedupe(in)
	want := []QName{New(a, "a"), New(a, "x")}
	if !slices.Equal(got, want) {
		t.Fatalf("SortAndDedupe() = %v, want %v", got, want)
	}
}

func TestBindTo(t *testing.T) {
	q := New(Module{Namespace: "urn:a"}, "leaf")
	target := Module{Namespace: "urn:b", Revision: "2024-02-03"}
	got := q.BindTo(target)
	if got.Module != target || got.Local != "leaf" {
		t.Fatalf("BindTo() = %v", got)
	}
	if got.String() != "(urn:b?revision=2024-02-03)leaf" {
		t.Fatalf("String() = %q", got.String())
	}
}

func TestSplitPrefixed(t *testing.T) {
	tests := []struct {
		in        string
		prefix    string
		local     string
		hasPrefix bool
		wantErr   bool
	}{
		{in: "foo", local: "foo"},
		{in: "p:foo", prefix: "p", local: "foo", hasPrefix: true},
		{in: "p:", wantErr: true},
		{in: "1abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		prefix, local, hasPrefix, err := SplitPrefixed(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SplitPrefixed(%q) error = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SplitPrefixed(%q) error = %v", tt.in, err)
		}
		if prefix != tt.prefix || local != tt.local || hasPrefix != tt.hasPrefix {
			t.Fatalf("SplitPrefixed(%q) = %q %q %v", tt.in, prefix, local, hasPrefix)
		}
	}
}

func TestValidateRevision(t *testing.T) {
	if err := ValidateRevision("2023-10-01"); err != nil {
		t.Fatalf("ValidateRevision() error = %v", err)
	}
	if err := ValidateRevision("2023-13-01"); err == nil {
		t.Fatal("ValidateRevision() error = nil, want error")
	}
}
