package model

import "github.com/secmon-lab/hazop/pkg/domain/types"

// Progress is the set of study completion flags. It is always derived from
// current state and never stored.
type Progress struct {
	StudyID                 types.StudyID `json:"studyId"`
	TeamCreated             bool          `json:"teamCreated"`
	NodesCreated            bool          `json:"nodesCreated"`
	NodeDetailsCreated      bool          `json:"nodeDetailsCreated"`
	RecommendationsCreated  bool          `json:"recommendationsCreated"`
	RecommendationsAssigned bool          `json:"recommendationsAssigned"`
	RecommendationsComplete bool          `json:"recommendationsCompleted"`
	HazopFinalCompleted     bool          `json:"hazopFinalCompleted"`
}

// NodeProgress is the per-node input of ComputeProgress
type NodeProgress struct {
	Node            *Node
	DeviationCount  int
	Recommendations []*Recommendation
}

// ComputeProgress folds the study state into its completion flags
func ComputeProgress(study *Study, nodes []NodeProgress) *Progress {
	p := &Progress{
		StudyID:             study.ID,
		TeamCreated:         len(study.Team) > 0,
		NodesCreated:        len(nodes) > 0,
		HazopFinalCompleted: study.CompletionStatus,
	}

	p.NodeDetailsCreated = len(nodes) > 0
	total := 0
	assigned := true
	resolved := true
	for _, n := range nodes {
		if n.DeviationCount == 0 {
			p.NodeDetailsCreated = false
		}
		for _, r := range n.Recommendations {
			total++
			if r.Status == types.RecommendationStatusUnassigned {
				assigned = false
			}
			if !r.Status.IsResolved() {
				resolved = false
			}
		}
	}

	p.RecommendationsCreated = total > 0
	p.RecommendationsAssigned = total > 0 && assigned
	p.RecommendationsComplete = resolved
	return p
}
