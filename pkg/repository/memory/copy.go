package memory

import (
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyStudy(s *model.Study) *model.Study {
	c := *s
	c.Team = make([]types.EmployeeID, len(s.Team))
	copy(c.Team, s.Team)
	c.SignedOffAt = copyTime(s.SignedOffAt)
	return &c
}

func copyNode(n *model.Node) *model.Node {
	c := *n
	c.ProcessParameters = make([]string, len(n.ProcessParameters))
	copy(c.ProcessParameters, n.ProcessParameters)
	c.CompletedAt = copyTime(n.CompletedAt)
	return &c
}

func copyDeviation(d *model.Deviation) *model.Deviation {
	c := *d
	return &c
}

func copyRecommendation(r *model.Recommendation) *model.Recommendation {
	c := *r
	c.CompletionDate = copyTime(r.CompletionDate)
	return &c
}

func copyAssignment(a *model.Assignment) *model.Assignment {
	c := *a
	c.TargetDate = copyTime(a.TargetDate)
	c.CompletionDate = copyTime(a.CompletionDate)
	c.SupersededAt = copyTime(a.SupersededAt)
	return &c
}

func copyTargetDate(t *model.TargetDateRecord) *model.TargetDateRecord {
	c := *t
	return &c
}

func copyChallenge(ch *model.Challenge) *model.Challenge {
	c := *ch
	c.ConsumedAt = copyTime(ch.ConsumedAt)
	return &c
}
