// Package storage provides the file-backed persistence layer for the plan
// manager: the plans index, the per-plan graph files, and the per-plan
// selection state.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// plansIndex is the top-level structure of plans.yaml: the current plan
// pointer and a summary of every known plan.
type plansIndex struct {
	Current string               `yaml:"current"`
	Plans   []models.PlanSummary `yaml:"plans"`
}

// PlanStore persists the plan graph under <basePath>/<todoDir>/:
// plans.yaml holds the index, <plan_id>/plan.yaml holds the full graph with
// stories and tasks embedded. Load before, save after - every operation is
// one full read-modify-write of a plan file, which is the implicit
// transaction boundary.
type PlanStore interface {
	LoadPlan(planID string) (*models.Plan, error)
	SavePlan(plan *models.Plan) error
	DeletePlan(planID string) error
	ListPlans() ([]models.PlanSummary, error)
	CurrentPlanID() (string, error)
	SetCurrentPlanID(planID string) error
}

type filePlanStore struct {
	todoDir       string
	defaultPlanID string
}

// NewPlanStore creates a PlanStore rooted at basePath. defaultPlanID seeds
// a fresh index.
func NewPlanStore(basePath, todoDir, defaultPlanID string) PlanStore {
	if todoDir == "" {
		todoDir = "todo"
	}
	if defaultPlanID == "" {
		defaultPlanID = "default"
	}
	return &filePlanStore{
		todoDir:       filepath.Join(basePath, todoDir),
		defaultPlanID: defaultPlanID,
	}
}

func (s *filePlanStore) indexPath() string {
	return filepath.Join(s.todoDir, "plans.yaml")
}

func (s *filePlanStore) planPath(planID string) string {
	return filepath.Join(s.todoDir, planID, "plan.yaml")
}

// readIndex loads plans.yaml, seeding a fresh index with the default plan
// when the file does not exist yet.
func (s *filePlanStore) readIndex() (*plansIndex, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			idx := &plansIndex{
				Current: s.defaultPlanID,
				Plans: []models.PlanSummary{
					{ID: s.defaultPlanID, Title: s.defaultPlanID, Status: models.StatusTODO},
				},
			}
			if err := s.writeIndex(idx); err != nil {
				return nil, err
			}
			return idx, nil
		}
		return nil, fmt.Errorf("reading plans index: %w", err)
	}
	var idx plansIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing plans index: %w", err)
	}
	return &idx, nil
}

func (s *filePlanStore) writeIndex(idx *plansIndex) error {
	if err := os.MkdirAll(s.todoDir, 0o750); err != nil {
		return fmt.Errorf("creating todo directory: %w", err)
	}
	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshaling plans index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o600); err != nil {
		return fmt.Errorf("writing plans index: %w", err)
	}
	return nil
}

func (s *filePlanStore) LoadPlan(planID string) (*models.Plan, error) {
	data, err := os.ReadFile(s.planPath(planID))
	if err != nil {
		if os.IsNotExist(err) {
			// The seeded default plan exists in the index before its file
			// does; materialize it empty on first load.
			idx, idxErr := s.readIndex()
			if idxErr == nil {
				for _, p := range idx.Plans {
					if p.ID == planID {
						return &models.Plan{
							WorkItem: models.WorkItem{
								ID:     p.ID,
								Title:  p.Title,
								Status: models.StatusTODO,
							},
						}, nil
					}
				}
			}
			return nil, fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("reading plan %q: %w", planID, err)
	}
	var plan models.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan %q: %w", planID, err)
	}
	return &plan, nil
}

// SavePlan writes the full graph to the plan file and refreshes the index
// entry so listings stay consistent with the rolled-up plan status.
func (s *filePlanStore) SavePlan(plan *models.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("saving plan: ID must not be empty")
	}
	path := s.planPath(plan.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshaling plan %q: %w", plan.ID, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing plan %q: %w", plan.ID, err)
	}

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	found := false
	for i := range idx.Plans {
		if idx.Plans[i].ID == plan.ID {
			idx.Plans[i].Title = plan.Title
			idx.Plans[i].Status = plan.Status
			found = true
			break
		}
	}
	if !found {
		idx.Plans = append(idx.Plans, models.PlanSummary{
			ID:     plan.ID,
			Title:  plan.Title,
			Status: plan.Status,
		})
	}
	return s.writeIndex(idx)
}

// DeletePlan removes the plan from the index and deletes its directory. If
// the deleted plan was current, the pointer moves to the first remaining
// plan, or a fresh default when none remain.
func (s *filePlanStore) DeletePlan(planID string) error {
	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	kept := idx.Plans[:0]
	found := false
	for _, p := range idx.Plans {
		if p.ID == planID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
	}
	idx.Plans = kept

	if idx.Current == planID {
		if len(idx.Plans) > 0 {
			idx.Current = idx.Plans[0].ID
		} else {
			idx.Current = s.defaultPlanID
			idx.Plans = []models.PlanSummary{
				{ID: s.defaultPlanID, Title: s.defaultPlanID, Status: models.StatusTODO},
			}
		}
	}
	if err := s.writeIndex(idx); err != nil {
		return err
	}

	planDir := filepath.Join(s.todoDir, planID)
	if err := os.RemoveAll(planDir); err != nil {
		return fmt.Errorf("removing plan directory %q: %w", planDir, err)
	}
	return nil
}

func (s *filePlanStore) ListPlans() ([]models.PlanSummary, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return append([]models.PlanSummary(nil), idx.Plans...), nil
}

func (s *filePlanStore) CurrentPlanID() (string, error) {
	idx, err := s.readIndex()
	if err != nil {
		return "", err
	}
	if idx.Current == "" {
		return "", fmt.Errorf("plans index has no current plan set")
	}
	return idx.Current, nil
}

func (s *filePlanStore) SetCurrentPlanID(planID string) error {
	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	for _, p := range idx.Plans {
		if p.ID == planID {
			idx.Current = planID
			return s.writeIndex(idx)
		}
	}
	return fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
}
