package core

import (
	"sort"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Listings are returned in topological order first, then priority ascending
// (unset last), then creation_time ascending, then id as the final
// tie-break. Kahn's algorithm with a sorted ready set yields that order
// deterministically.

func itemLess(a, b *models.WorkItem) bool {
	if pa, pb := a.PriorityOrUnset(), b.PriorityOrUnset(); pa != pb {
		return pa < pb
	}
	if !a.CreationTime.Equal(b.CreationTime) {
		return a.CreationTime.Before(b.CreationTime)
	}
	return a.ID < b.ID
}

// topoSortStories orders stories by their dependency edges, tie-breaking
// within each ready set. Validation guarantees acyclicity; any leftover
// nodes (possible only on an unvalidated graph) are appended in base order.
func topoSortStories(stories []*models.Story) []*models.Story {
	byID := make(map[string]*models.Story, len(stories))
	inDeg := make(map[string]int, len(stories))
	adj := make(map[string][]string)
	for _, s := range stories {
		byID[s.ID] = s
		inDeg[s.ID] += 0
	}
	for _, s := range stories {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; ok {
				adj[dep] = append(adj[dep], s.ID)
				inDeg[s.ID]++
			}
		}
	}

	var ready []*models.Story
	for _, s := range stories {
		if inDeg[s.ID] == 0 {
			ready = append(ready, s)
		}
	}

	out := make([]*models.Story, 0, len(stories))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return itemLess(&ready[i].WorkItem, &ready[j].WorkItem)
		})
		current := ready[0]
		ready = ready[1:]
		out = append(out, current)
		for _, next := range adj[current.ID] {
			inDeg[next]--
			if inDeg[next] == 0 {
				ready = append(ready, byID[next])
			}
		}
	}

	if len(out) < len(stories) {
		emitted := make(map[string]struct{}, len(out))
		for _, s := range out {
			emitted[s.ID] = struct{}{}
		}
		for _, s := range stories {
			if _, ok := emitted[s.ID]; !ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// topoSortTasks orders a set of tasks by the task-to-task dependency edges
// among them. Dependencies on stories or on tasks outside the set do not
// constrain ordering here.
func topoSortTasks(plan *models.Plan, tasks []*models.Task) []*models.Task {
	idx := indexPlan(plan)
	byID := make(map[string]*models.Task, len(tasks))
	inDeg := make(map[string]int, len(tasks))
	adj := make(map[string][]string)
	for _, t := range tasks {
		byID[t.ID] = t
		inDeg[t.ID] += 0
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			fq, ok := idx.resolveTaskDep(t.StoryID, dep)
			if !ok {
				continue
			}
			if _, inSet := byID[fq]; inSet {
				adj[fq] = append(adj[fq], t.ID)
				inDeg[t.ID]++
			}
		}
	}

	var ready []*models.Task
	for _, t := range tasks {
		if inDeg[t.ID] == 0 {
			ready = append(ready, t)
		}
	}

	out := make([]*models.Task, 0, len(tasks))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return itemLess(&ready[i].WorkItem, &ready[j].WorkItem)
		})
		current := ready[0]
		ready = ready[1:]
		out = append(out, current)
		for _, next := range adj[current.ID] {
			inDeg[next]--
			if inDeg[next] == 0 {
				ready = append(ready, byID[next])
			}
		}
	}

	if len(out) < len(tasks) {
		emitted := make(map[string]struct{}, len(out))
		for _, t := range out {
			emitted[t.ID] = struct{}{}
		}
		for _, t := range tasks {
			if _, ok := emitted[t.ID]; !ok {
				out = append(out, t)
			}
		}
	}
	return out
}
