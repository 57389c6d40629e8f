package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_LIFO(t *testing.T) {
	m := New(time.Second)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		m.Register(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	if errs := m.Run(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("cleanup should run LIFO, got %v", order)
	}
}

func TestRun_Once(t *testing.T) {
	m := New(time.Second)

	calls := 0
	m.Register(func(context.Context) error {
		calls++
		return nil
	})

	m.Run()
	m.Run()

	if calls != 1 {
		t.Errorf("cleanup should run exactly once, ran %d times", calls)
	}
}

func TestRun_CollectsErrors(t *testing.T) {
	m := New(time.Second)

	m.Register(func(context.Context) error { return errors.New("first") })
	m.Register(func(context.Context) error { return nil })
	m.Register(func(context.Context) error { return errors.New("last") })

	errs := m.Run()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Error() != "last" {
		t.Errorf("LIFO order: last registered error should come first, got %v", errs)
	}
}
