package core

import (
	"reflect"
	"testing"
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

func taskIDs(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestTopoSortTasks_DependenciesFirst(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	c := newTask("s1", "c", "b")
	plan := newPlan("p", newStory("s1", c, b, a))

	got := taskIDs(topoSortTasks(plan, []*models.Task{c, b, a}))
	want := []string{"s1:a", "s1:b", "s1:c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTopoSortTasks_PriorityTieBreak(t *testing.T) {
	p0, p2 := 0, 2
	urgent := newTask("s1", "urgent")
	urgent.Priority = &p0
	normal := newTask("s1", "normal")
	normal.Priority = &p2
	unset := newTask("s1", "unset")
	plan := newPlan("p", newStory("s1", unset, normal, urgent))

	got := taskIDs(topoSortTasks(plan, []*models.Task{unset, normal, urgent}))
	want := []string{"s1:urgent", "s1:normal", "s1:unset"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTopoSortTasks_CreationTimeThenID(t *testing.T) {
	older := newTask("s1", "zz-older")
	older.CreationTime = testTime.Add(-time.Hour)
	newer := newTask("s1", "aa-newer")
	sameA := newTask("s1", "same-a")
	sameB := newTask("s1", "same-b")
	plan := newPlan("p", newStory("s1", sameB, newer, older, sameA))

	got := taskIDs(topoSortTasks(plan, []*models.Task{sameB, newer, older, sameA}))
	want := []string{"s1:zz-older", "s1:aa-newer", "s1:same-a", "s1:same-b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTopoSortTasks_IgnoresEdgesOutsideSet(t *testing.T) {
	// b depends on a, but a is not part of the listing, so b is unconstrained.
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	plan := newPlan("p", newStory("s1", a, b))

	got := taskIDs(topoSortTasks(plan, []*models.Task{b}))
	if !reflect.DeepEqual(got, []string{"s1:b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestTopoSortStories(t *testing.T) {
	base := newStory("base")
	mid := newStory("mid")
	mid.DependsOn = []string{"base"}
	top := newStory("top")
	top.DependsOn = []string{"mid"}

	sorted := topoSortStories([]*models.Story{top, base, mid})
	got := make([]string, len(sorted))
	for i, s := range sorted {
		got[i] = s.ID
	}
	want := []string{"base", "mid", "top"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
