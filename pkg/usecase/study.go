package usecase

import (
	"context"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// StudyInput holds the fields supplied when a study is opened
type StudyInput struct {
	Title      string
	Site       string
	Department string
	Team       []types.EmployeeID
}

func (uc *HazopUseCase) CreateStudy(ctx context.Context, in StudyInput) (*model.Study, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, model.NewValidationError("title")
	}

	study := &model.Study{
		ID:         types.NewStudyID(),
		Title:      title,
		Site:       strings.TrimSpace(in.Site),
		Department: strings.TrimSpace(in.Department),
		Team:       normalizeTeam(in.Team),
		CreatedBy:  auth.ActorID(ctx),
	}

	if err := uc.env.commit(ctx, &model.Changeset{Studies: []*model.Study{study}}); err != nil {
		return nil, goerr.Wrap(err, "failed to create study")
	}
	return study, nil
}

func (uc *HazopUseCase) GetStudy(ctx context.Context, id types.StudyID) (*model.Study, error) {
	study, err := uc.env.repo.Study().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get study", goerr.V(StudyIDKey, id))
	}
	return study, nil
}

// ListStudies returns studies in creation order. Retired studies are
// included only on request.
func (uc *HazopUseCase) ListStudies(ctx context.Context, includeRetired bool) ([]*model.Study, error) {
	studies, err := uc.env.repo.Study().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list studies")
	}
	if includeRetired {
		return studies, nil
	}
	return slices.DeleteFunc(studies, func(s *model.Study) bool { return s.Retired }), nil
}

// SetTeam replaces the study team. Duplicates and blank ids are dropped.
func (uc *HazopUseCase) SetTeam(ctx context.Context, id types.StudyID, team []types.EmployeeID) (*model.Study, error) {
	study, err := uc.GetStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOpenStudy(study); err != nil {
		return nil, err
	}

	next := normalizeTeam(team)
	if slices.Equal(study.Team, next) {
		return study, nil
	}
	study.Team = next

	if err := uc.env.commit(ctx, &model.Changeset{Studies: []*model.Study{study}}); err != nil {
		return nil, goerr.Wrap(err, "failed to update team", goerr.V(StudyIDKey, id))
	}
	return study, nil
}

// RetireStudy hides the study from active listings. Retiring twice is a no-op.
func (uc *HazopUseCase) RetireStudy(ctx context.Context, id types.StudyID) (*model.Study, error) {
	study, err := uc.GetStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	if study.Retired {
		return study, nil
	}
	study.Retired = true

	if err := uc.env.commit(ctx, &model.Changeset{Studies: []*model.Study{study}}); err != nil {
		return nil, goerr.Wrap(err, "failed to retire study", goerr.V(StudyIDKey, id))
	}
	return study, nil
}

func requireOpenStudy(study *model.Study) error {
	switch {
	case study.Retired:
		return model.NewTransitionError("retired", "modified", goerr.V(StudyIDKey, study.ID))
	case study.CompletionStatus:
		return model.NewTransitionError("signed_off", "modified", goerr.V(StudyIDKey, study.ID))
	}
	return nil
}

func normalizeTeam(team []types.EmployeeID) []types.EmployeeID {
	result := make([]types.EmployeeID, 0, len(team))
	for _, m := range team {
		m = types.EmployeeID(strings.TrimSpace(string(m)))
		if m == "" || slices.Contains(result, m) {
			continue
		}
		result = append(result, m)
	}
	return result
}
