package model

import "time"

// Changeset is the unit of atomic write. Every put carries the Version the
// writer read (0 means the entity must not exist yet); the repository rejects
// the whole changeset with ErrConflict if any stored version differs.
// Deletions are checked the same way.
type Changeset struct {
	Studies         []*Study
	Nodes           []*Node
	Deviations      []*Deviation
	Recommendations []*Recommendation
	Assignments     []*Assignment
	TargetDates     []*TargetDateRecord
	Challenges      []*Challenge

	DeleteDeviations      []*Deviation
	DeleteRecommendations []*Recommendation

	// At is the time stamped on every put. Zero means the repository's clock.
	At time.Time
}

// IsEmpty reports whether the changeset writes nothing
func (cs *Changeset) IsEmpty() bool {
	return len(cs.Studies) == 0 && len(cs.Nodes) == 0 && len(cs.Deviations) == 0 &&
		len(cs.Recommendations) == 0 && len(cs.Assignments) == 0 &&
		len(cs.TargetDates) == 0 && len(cs.Challenges) == 0 &&
		len(cs.DeleteDeviations) == 0 && len(cs.DeleteRecommendations) == 0
}

// CommitTime returns At in UTC, or the current time when At is unset
func (cs *Changeset) CommitTime() time.Time {
	if cs.At.IsZero() {
		return time.Now().UTC()
	}
	return cs.At.UTC()
}

// Stamped returns copies of every put entity with Version incremented and
// timestamps set as they will be stored. Deletions are shared with cs.
func (cs *Changeset) Stamped(now time.Time) *Changeset {
	next := &Changeset{
		Studies:               stampAll(cs.Studies, now, studyMeta),
		Nodes:                 stampAll(cs.Nodes, now, nodeMeta),
		Deviations:            stampAll(cs.Deviations, now, deviationMeta),
		Recommendations:       stampAll(cs.Recommendations, now, recommendationMeta),
		Assignments:           stampAll(cs.Assignments, now, assignmentMeta),
		TargetDates:           stampAll(cs.TargetDates, now, targetDateMeta),
		Challenges:            stampAll(cs.Challenges, now, challengeMeta),
		DeleteDeviations:      cs.DeleteDeviations,
		DeleteRecommendations: cs.DeleteRecommendations,
		At:                    now,
	}
	return next
}

// Apply copies the stored state of a committed changeset, as returned by
// Stamped, back onto the entities of cs.
func (cs *Changeset) Apply(stored *Changeset) {
	applyAll(cs.Studies, stored.Studies)
	applyAll(cs.Nodes, stored.Nodes)
	applyAll(cs.Deviations, stored.Deviations)
	applyAll(cs.Recommendations, stored.Recommendations)
	applyAll(cs.Assignments, stored.Assignments)
	applyAll(cs.TargetDates, stored.TargetDates)
	applyAll(cs.Challenges, stored.Challenges)
}

type entityMeta struct {
	version   *int64
	createdAt *time.Time
	updatedAt *time.Time
}

func stampAll[T any](src []*T, now time.Time, meta func(*T) entityMeta) []*T {
	if len(src) == 0 {
		return nil
	}
	out := make([]*T, len(src))
	for i, v := range src {
		c := *v
		m := meta(&c)
		*m.version++
		if m.createdAt.IsZero() {
			*m.createdAt = now
		}
		*m.updatedAt = now
		out[i] = &c
	}
	return out
}

func applyAll[T any](dst, src []*T) {
	for i := range dst {
		if i < len(src) {
			*dst[i] = *src[i]
		}
	}
}

func studyMeta(v *Study) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func nodeMeta(v *Node) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func deviationMeta(v *Deviation) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func recommendationMeta(v *Recommendation) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func assignmentMeta(v *Assignment) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func targetDateMeta(v *TargetDateRecord) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}

func challengeMeta(v *Challenge) entityMeta {
	return entityMeta{&v.Version, &v.CreatedAt, &v.UpdatedAt}
}
