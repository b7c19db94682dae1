package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

func TestValidateReferences_UnknownDependency(t *testing.T) {
	plan := newPlan("p", newStory("s1", newTask("s1", "a", "ghost")))

	err := validateReferences(plan)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestValidateReferences_SelfReference(t *testing.T) {
	plan := newPlan("p", newStory("s1", newTask("s1", "a", "a")))

	err := validateReferences(plan)
	if KindOf(err) != KindSelfReference {
		t.Fatalf("expected SelfReference, got %v", err)
	}
}

func TestValidateReferences_StoryCannotDependOnTask(t *testing.T) {
	story := newStory("s1", newTask("s1", "a"))
	other := newStory("s2")
	other.DependsOn = []string{"s1:a"}
	plan := newPlan("p", story, other)

	err := validateReferences(plan)
	if KindOf(err) != KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestValidateReferences_CrossStoryTaskDep(t *testing.T) {
	s1 := newStory("s1", newTask("s1", "a"))
	s2 := newStory("s2", newTask("s2", "b", "s1:a"))
	plan := newPlan("p", s1, s2)

	if err := validateReferences(plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAcyclic_ReportsPath(t *testing.T) {
	// a -> b -> c -> a within one story, local references.
	s := newStory("s1",
		newTask("s1", "a", "b"),
		newTask("s1", "b", "c"),
		newTask("s1", "c", "a"),
	)
	plan := newPlan("p", s)

	err := validateAcyclic(plan)
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindCycleDetected {
		t.Fatalf("expected CycleDetected, got %v", err)
	}
	if len(de.CyclePath) < 4 {
		t.Fatalf("expected closed cycle path, got %v", de.CyclePath)
	}
	if de.CyclePath[0] != de.CyclePath[len(de.CyclePath)-1] {
		t.Fatalf("cycle path does not close: %v", de.CyclePath)
	}
}

func TestValidateAcyclic_StoryTaskMixedCycle(t *testing.T) {
	// Story s2 depends on s1; a task in s1 depends on a task in s2.
	s1 := newStory("s1", newTask("s1", "a", "s2:b"))
	s2 := newStory("s2", newTask("s2", "b"))
	s2.DependsOn = []string{"s1"}
	plan := newPlan("p", s1, s2)

	// No cycle here: s1:a -> s2:b and s2 -> s1 are edges between different
	// node kinds that never close a loop.
	if err := validateAcyclic(plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Now close the loop at task level.
	s2.Tasks[0].DependsOn = []string{"s1:a"}
	if err := validateAcyclic(plan); KindOf(err) != KindCycleDetected {
		t.Fatalf("expected CycleDetected, got %v", err)
	}
}

func TestUnmetDependencies_ImmediateOnly(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	c := newTask("s1", "c", "b")
	plan := newPlan("p", newStory("s1", a, b, c))

	if got := unmetDependencies(plan, c); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected [b], got %v", got)
	}

	a.Status = models.StatusDone
	b.Status = models.StatusDone
	if got := unmetDependencies(plan, c); got != nil {
		t.Fatalf("expected no unmet deps, got %v", got)
	}
}

func TestUnmetDependencies_StoryDep(t *testing.T) {
	s1 := newStory("s1", newTask("s1", "a"))
	b := newTask("s2", "b", "s1")
	plan := newPlan("p", s1, newStory("s2", b))

	if got := unmetDependencies(plan, b); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Fatalf("expected [s1], got %v", got)
	}

	s1.Status = models.StatusDone
	if got := unmetDependencies(plan, b); got != nil {
		t.Fatalf("expected no unmet deps once story is DONE, got %v", got)
	}
}

func TestFindDependents(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")       // local form
	c := newTask("s2", "c", "s1:a")    // qualified form
	plan := newPlan("p", newStory("s1", a, b), newStory("s2", c))

	got := findDependents(plan, "s1:a")
	want := []string{"s1:b", "s2:c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStripDependency(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a", "s1:a")
	c := newTask("s2", "c", "s1:a", "s2:d")
	d := newTask("s2", "d")
	plan := newPlan("p", newStory("s1", a, b), newStory("s2", c, d))

	stripDependency(plan, "s1:a")

	if b.DependsOn != nil {
		t.Fatalf("expected b deps cleared, got %v", b.DependsOn)
	}
	if !reflect.DeepEqual(c.DependsOn, []string{"s2:d"}) {
		t.Fatalf("expected only s2:d left, got %v", c.DependsOn)
	}
}
