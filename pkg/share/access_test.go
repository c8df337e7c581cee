package share

import "testing"

func TestViewModify(t *testing.T) {
	type inventory struct {
		Items map[string]int
	}
	newInventory := func() inventory {
		return inventory{Items: map[string]int{"apple": 3}}
	}

	cells := map[string]Cell[inventory]{
		"locked":    NewLocked(newInventory()),
		"simple":    NewSimple(newInventory()),
		"zero-copy": NewLocked(newInventory()).ShareLock(),
	}

	for name, cell := range cells {
		t.Run(name, func(t *testing.T) {
			total := Modify[inventory, int](cell, func(v *inventory) int {
				v.Items["pear"] = 2
				return len(v.Items)
			})
			if total != 2 {
				t.Errorf("Modify() = %d, want 2", total)
			}

			apples := View[inventory, int](cell, func(v *inventory) int {
				return v.Items["apple"]
			})
			if apples != 3 {
				t.Errorf("View() = %d, want 3", apples)
			}
		})
	}
}

func TestModify_Atomic(t *testing.T) {
	cell := NewAtomic(10)
	old := Modify[int, int](cell, func(v *int) int {
		prev := *v
		*v = 20
		return prev
	})
	if old != 10 || cell.Get() != 20 {
		t.Errorf("Modify() = %d, Get() = %d; want 10, 20", old, cell.Get())
	}
}
