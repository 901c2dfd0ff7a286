package phase

import "testing"

func TestSequenceIsTotallyOrdered(t *testing.T) {
	prev := Init
	for _, p := range Sequence {
		if p.ExecutionOrder() != prev.ExecutionOrder()+1 {
			t.Fatalf("%s order = %d, want %d", p, p.ExecutionOrder(), prev.ExecutionOrder()+1)
		}
		if p.Previous() != prev {
			t.Fatalf("%s.Previous() = %s, want %s", p, p.Previous(), prev)
		}
		prev = p
	}
	if _, ok := EffectiveModel.Next(); ok {
		t.Fatal("EffectiveModel.Next() reported a successor")
	}
}

func TestCompletedBy(t *testing.T) {
	if !SourceLinkage.CompletedBy(FullDeclaration) {
		t.Fatal("SourceLinkage should be completed by FullDeclaration")
	}
	if EffectiveModel.CompletedBy(FullDeclaration) {
		t.Fatal("EffectiveModel should not be completed by FullDeclaration")
	}
}

func TestOfExecutionOrder(t *testing.T) {
	for _, p := range Sequence {
		got, err := OfExecutionOrder(p.ExecutionOrder())
		if err != nil {
			t.Fatalf("OfExecutionOrder(%d) error = %v", p.ExecutionOrder(), err)
		}
		if got != p {
			t.Fatalf("OfExecutionOrder(%d) = %s, want %s", p.ExecutionOrder(), got, p)
		}
	}
	if _, err := OfExecutionOrder(42); err == nil {
		t.Fatal("OfExecutionOrder(42) error = nil, want error")
	}
}
