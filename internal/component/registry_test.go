package component_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zetalabs/teliads/internal/component"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.HealthStatus

	events *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "start:"+f.name)
	}
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "stop:"+f.name)
	}
	return f.stopErr
}

func (f *fakeComponent) Health(ctx context.Context) component.Health {
	status := f.health
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: f.name, Status: status}
}

// ---- Register ----

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := component.NewRegistry()

	if err := r.Register(&fakeComponent{name: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "a"}); err == nil {
		t.Fatal("expected error for duplicate component name")
	}
}

func TestRegistryGet(t *testing.T) {
	r := component.NewRegistry()
	c := &fakeComponent{name: "a"}
	_ = r.Register(c)

	if got := r.Get("a"); got != c {
		t.Errorf("expected registered component, got %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown name, got %v", got)
	}
}

// ---- StartAll / StopAll ----

func TestRegistryStartsInOrderStopsInReverse(t *testing.T) {
	var events []string
	r := component.NewRegistry()
	_ = r.Register(&fakeComponent{name: "first", events: &events})
	_ = r.Register(&fakeComponent{name: "second", events: &events})
	_ = r.Register(&fakeComponent{name: "third", events: &events})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"start:first", "start:second", "start:third",
		"stop:third", "stop:second", "stop:first",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestRegistryStartAllAbortsOnFirstFailure(t *testing.T) {
	var events []string
	r := component.NewRegistry()
	_ = r.Register(&fakeComponent{name: "ok", events: &events})
	_ = r.Register(&fakeComponent{name: "bad", startErr: errors.New("boom"), events: &events})
	_ = r.Register(&fakeComponent{name: "never", events: &events})

	err := r.StartAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	for _, e := range events {
		if e == "start:never" {
			t.Error("component after the failure should not start")
		}
	}
}

func TestRegistryStopAllSkipsUnstartedComponents(t *testing.T) {
	var events []string
	r := component.NewRegistry()
	_ = r.Register(&fakeComponent{name: "ok", events: &events})
	_ = r.Register(&fakeComponent{name: "bad", startErr: errors.New("boom"), events: &events})

	_ = r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stopped []string
	for _, e := range events {
		if e == "stop:ok" || e == "stop:bad" {
			stopped = append(stopped, e)
		}
	}
	if len(stopped) != 1 || stopped[0] != "stop:ok" {
		t.Errorf("expected only the started component stopped, got %v", stopped)
	}
}

func TestRegistryStopAllCollectsErrors(t *testing.T) {
	r := component.NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", stopErr: errors.New("a failed")})
	_ = r.Register(&fakeComponent{name: "b"})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected aggregated stop error")
	}
}

// ---- HealthAll ----

func TestRegistryHealthAll(t *testing.T) {
	r := component.NewRegistry()
	_ = r.Register(&fakeComponent{name: "a"})
	_ = r.Register(&fakeComponent{name: "b", health: component.StatusUnhealthy})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 health results, got %d", len(results))
	}
	if results[0].Name != "a" || results[0].Status != component.StatusHealthy {
		t.Errorf("unexpected health for a: %+v", results[0])
	}
	if results[1].Name != "b" || results[1].Status != component.StatusUnhealthy {
		t.Errorf("unexpected health for b: %+v", results[1])
	}
}
