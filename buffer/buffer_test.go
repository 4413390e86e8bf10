package buffer

import "testing"

func TestMakeChildSharesBackingArray(t *testing.T) {
	root := New(32)
	copy(root.Data(), []byte("0123456789abcdefghijklmnopqrstuv"))

	child := root.MakeChild(4, 8, 8)
	if child.Size() != 8 {
		t.Fatalf("child size = %d, want 8", child.Size())
	}

	child.Data()[0] = 'X'
	if root.Data()[4] != 'X' {
		t.Fatalf("write through child did not propagate to parent backing array")
	}
}

func TestMakeChildOutOfBoundsPanics(t *testing.T) {
	root := New(8)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-bounds child window")
		}
	}()

	root.MakeChild(4, 8, 8)
}

func TestSetSizeExceedsCapacityPanics(t *testing.T) {
	root := New(4)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on oversized SetSize")
		}
	}()

	root.SetSize(5)
}
