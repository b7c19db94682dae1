package core

import (
	"sort"
	"strings"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// The depends_on relation forms a single unified graph over heterogeneous
// nodes: story ids and fully-qualified task ids. Tasks may depend on tasks
// (local or fully-qualified form) and on stories; stories may depend only on
// stories. Every mutation validates references and acyclicity before the
// plan is persisted; a failure aborts the whole mutation.

// graphIndex holds the resolvable node ids of a plan.
type graphIndex struct {
	stories map[string]*models.Story
	tasks   map[string]*models.Task
}

func indexPlan(plan *models.Plan) graphIndex {
	idx := graphIndex{
		stories: make(map[string]*models.Story, len(plan.Stories)),
		tasks:   make(map[string]*models.Task),
	}
	for _, s := range plan.Stories {
		idx.stories[s.ID] = s
		for _, t := range s.Tasks {
			idx.tasks[t.ID] = t
		}
	}
	return idx
}

// resolveTaskDep normalizes a task's dependency reference to a node id.
// Unqualified references resolve as story ids first, then against the
// owning story's tasks.
func (idx graphIndex) resolveTaskDep(ownerStoryID, dep string) (string, bool) {
	if strings.Contains(dep, ":") {
		_, ok := idx.tasks[dep]
		return dep, ok
	}
	if _, ok := idx.stories[dep]; ok {
		return dep, true
	}
	fq := models.QualifiedTaskID(ownerStoryID, dep)
	_, ok := idx.tasks[fq]
	return fq, ok
}

// validateReferences checks that every depends_on entry resolves to an
// existing item and that no item references itself.
func validateReferences(plan *models.Plan) error {
	idx := indexPlan(plan)

	for _, story := range plan.Stories {
		for _, dep := range story.DependsOn {
			if dep == story.ID {
				return selfReferenceError(story.ID)
			}
			if strings.Contains(dep, ":") {
				return validationError("story %q cannot depend on task %q: stories may only depend on stories", story.ID, dep)
			}
			if _, ok := idx.stories[dep]; !ok {
				return notFoundError("dependency", dep)
			}
		}
		for _, task := range story.Tasks {
			for _, dep := range task.DependsOn {
				fq, ok := idx.resolveTaskDep(story.ID, dep)
				if fq == task.ID {
					return selfReferenceError(task.ID)
				}
				if !ok {
					return notFoundError("dependency", dep)
				}
			}
		}
	}
	return nil
}

// dependencyEdges returns the normalized adjacency list over node ids, with
// nodes in deterministic plan order.
func dependencyEdges(plan *models.Plan) (nodes []string, edges map[string][]string) {
	idx := indexPlan(plan)
	edges = make(map[string][]string)

	for _, story := range plan.Stories {
		nodes = append(nodes, story.ID)
		for _, dep := range story.DependsOn {
			edges[story.ID] = append(edges[story.ID], dep)
		}
		for _, task := range story.Tasks {
			nodes = append(nodes, task.ID)
			for _, dep := range task.DependsOn {
				if fq, ok := idx.resolveTaskDep(story.ID, dep); ok {
					edges[task.ID] = append(edges[task.ID], fq)
				}
			}
		}
	}
	return nodes, edges
}

// validateAcyclic runs a depth-first traversal over all depends_on edges and
// reports the first cycle found as the ordered id path from the repeated
// node back to itself.
func validateAcyclic(plan *models.Plan) error {
	nodes, edges := dependencyEdges(plan)

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(nodes))
	var stack []string

	var visit func(node string) *Error
	visit = func(node string) *Error {
		state[node] = onStack
		stack = append(stack, node)
		for _, dep := range edges[node] {
			switch state[dep] {
			case onStack:
				// Cut the stack at the repeated node and close the loop.
				start := 0
				for i, id := range stack {
					if id == dep {
						start = i
						break
					}
				}
				path := append(append([]string{}, stack[start:]...), dep)
				return cycleError(path)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
		return nil
	}

	for _, node := range nodes {
		if state[node] == unvisited {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateGraph runs reference and cycle validation. Called before every
// save so no partial graph state is ever persisted.
func validateGraph(plan *models.Plan) error {
	if err := validateReferences(plan); err != nil {
		return err
	}
	return validateAcyclic(plan)
}

// dependencyDone reports whether a single dependency of the given owner
// resolves to a DONE item. Unresolvable dependencies count as blockers.
func dependencyDone(idx graphIndex, ownerStoryID, dep string) bool {
	if strings.Contains(dep, ":") {
		t, ok := idx.tasks[dep]
		return ok && t.Status == models.StatusDone
	}
	if s, ok := idx.stories[dep]; ok {
		return s.Status == models.StatusDone
	}
	t, ok := idx.tasks[models.QualifiedTaskID(ownerStoryID, dep)]
	return ok && t.Status == models.StatusDone
}

// unmetDependencies returns every immediate dependency of the task that is
// not DONE, in depends_on order. The gate check is deliberately
// non-transitive: a transitively-blocked dependency is itself non-DONE.
func unmetDependencies(plan *models.Plan, task *models.Task) []string {
	idx := indexPlan(plan)
	var unmet []string
	for _, dep := range task.DependsOn {
		if !dependencyDone(idx, task.StoryID, dep) {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// findDependents returns the sorted ids of items that list the target
// directly in depends_on. Local-form references within the target's own
// story are matched as well.
func findDependents(plan *models.Plan, targetID string) []string {
	targetStoryID, targetLocal := models.SplitTaskID(targetID)
	isTask := targetStoryID != ""

	set := make(map[string]struct{})
	for _, story := range plan.Stories {
		if !isTask {
			for _, dep := range story.DependsOn {
				if dep == targetID {
					set[story.ID] = struct{}{}
				}
			}
		}
		for _, task := range story.Tasks {
			for _, dep := range task.DependsOn {
				if dep == targetID {
					set[task.ID] = struct{}{}
				}
				if isTask && story.ID == targetStoryID && dep == targetLocal {
					set[task.ID] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// stripDependency removes every reference to the target (fully-qualified or
// local-form within its own story) from all depends_on lists. Used when a
// deletion is forced despite dangling dependents.
func stripDependency(plan *models.Plan, targetID string) {
	targetStoryID, targetLocal := models.SplitTaskID(targetID)
	isTask := targetStoryID != ""

	remove := func(deps []string, ownerStoryID string) []string {
		out := deps[:0]
		for _, dep := range deps {
			if dep == targetID {
				continue
			}
			if isTask && ownerStoryID == targetStoryID && dep == targetLocal {
				continue
			}
			out = append(out, dep)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	for _, story := range plan.Stories {
		story.DependsOn = remove(story.DependsOn, "")
		for _, task := range story.Tasks {
			task.DependsOn = remove(task.DependsOn, story.ID)
		}
	}
}
