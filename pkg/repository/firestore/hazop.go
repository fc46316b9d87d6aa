package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// getDoc loads one document into T. Missing documents yield model.ErrNotFound.
func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, entity string) (*T, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, entity+" not found", goerr.V(model.IDKey, ref.ID))
		}
		return nil, goerr.Wrap(err, "failed to get "+entity, goerr.V(model.IDKey, ref.ID))
	}

	var doc T
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal "+entity, goerr.V(model.IDKey, ref.ID))
	}
	return &doc, nil
}

// queryDocs runs a query and decodes every document into T
func queryDocs[T any](ctx context.Context, q firestore.Query, entity string) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []*T
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate "+entity)
		}

		var doc T
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal "+entity, goerr.V("docID", snap.Ref.ID))
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

type studyRepository struct{ f *Firestore }

func (r *studyRepository) Get(ctx context.Context, id types.StudyID) (*model.Study, error) {
	doc, err := getDoc[studyDoc](ctx, r.f.collection(studiesCollection).Doc(id.String()), "study")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *studyRepository) List(ctx context.Context) ([]*model.Study, error) {
	q := r.f.collection(studiesCollection).OrderBy("created_at", firestore.Asc)
	docs, err := queryDocs[studyDoc](ctx, q, "studies")
	if err != nil {
		return nil, err
	}
	result := make([]*model.Study, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

type nodeRepository struct{ f *Firestore }

func (r *nodeRepository) Get(ctx context.Context, id types.NodeID) (*model.Node, error) {
	doc, err := getDoc[nodeDoc](ctx, r.f.collection(nodesCollection).Doc(id.String()), "node")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *nodeRepository) ListByStudy(ctx context.Context, studyID types.StudyID) ([]*model.Node, error) {
	q := r.f.collection(nodesCollection).
		Where("study_id", "==", studyID.String()).
		OrderBy("node_number", firestore.Asc)
	docs, err := queryDocs[nodeDoc](ctx, q, "nodes")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list nodes", goerr.V("study_id", studyID))
	}
	result := make([]*model.Node, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

type deviationRepository struct{ f *Firestore }

func (r *deviationRepository) Get(ctx context.Context, id types.DeviationID) (*model.Deviation, error) {
	doc, err := getDoc[deviationDoc](ctx, r.f.collection(deviationsCollection).Doc(id.String()), "deviation")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *deviationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Deviation, error) {
	q := r.f.collection(deviationsCollection).
		Where("node_id", "==", nodeID.String()).
		OrderBy("sequence_number", firestore.Asc)
	docs, err := queryDocs[deviationDoc](ctx, q, "deviations")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list deviations", goerr.V("node_id", nodeID))
	}
	result := make([]*model.Deviation, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

type recommendationRepository struct{ f *Firestore }

func (r *recommendationRepository) Get(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error) {
	doc, err := getDoc[recommendationDoc](ctx, r.f.collection(recommendationsCollection).Doc(id.String()), "recommendation")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *recommendationRepository) ListByDeviation(ctx context.Context, deviationID types.DeviationID) ([]*model.Recommendation, error) {
	q := r.f.collection(recommendationsCollection).
		Where("deviation_id", "==", deviationID.String()).
		OrderBy("position", firestore.Asc)
	docs, err := queryDocs[recommendationDoc](ctx, q, "recommendations")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recommendations", goerr.V("deviation_id", deviationID))
	}
	result := make([]*model.Recommendation, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

func (r *recommendationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Recommendation, error) {
	q := r.f.collection(recommendationsCollection).
		Where("node_id", "==", nodeID.String()).
		OrderBy("deviation_id", firestore.Asc).
		OrderBy("position", firestore.Asc)
	docs, err := queryDocs[recommendationDoc](ctx, q, "recommendations")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recommendations", goerr.V("node_id", nodeID))
	}
	result := make([]*model.Recommendation, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

type assignmentRepository struct{ f *Firestore }

func (r *assignmentRepository) Get(ctx context.Context, id types.AssignmentID) (*model.Assignment, error) {
	doc, err := getDoc[assignmentDoc](ctx, r.f.collection(assignmentsCollection).Doc(id.String()), "assignment")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *assignmentRepository) ListByRecommendation(ctx context.Context, recID types.RecommendationID) ([]*model.Assignment, error) {
	q := r.f.collection(assignmentsCollection).
		Where("recommendation_id", "==", recID.String()).
		OrderBy("seq", firestore.Asc)
	docs, err := queryDocs[assignmentDoc](ctx, q, "assignments")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assignments", goerr.V("recommendation_id", recID))
	}
	result := make([]*model.Assignment, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

func (r *assignmentRepository) ListTargetDates(ctx context.Context, assignmentID types.AssignmentID) ([]*model.TargetDateRecord, error) {
	q := r.f.collection(targetDatesCollection).
		Where("assignment_id", "==", assignmentID.String()).
		OrderBy("seq", firestore.Asc)
	docs, err := queryDocs[targetDateDoc](ctx, q, "target dates")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list target dates", goerr.V("assignment_id", assignmentID))
	}
	result := make([]*model.TargetDateRecord, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}

type challengeRepository struct{ f *Firestore }

func (r *challengeRepository) Get(ctx context.Context, id types.ChallengeID) (*model.Challenge, error) {
	doc, err := getDoc[challengeDoc](ctx, r.f.collection(challengesCollection).Doc(id.String()), "challenge")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// IndexedQuery describes a composite index required by the queries above
type IndexedQuery struct {
	Collection string
	Equality   string
	OrderBy    []string
}

// IndexedQueries returns the composite indexes the repository relies on
func IndexedQueries() []IndexedQuery {
	return []IndexedQuery{
		{Collection: nodesCollection, Equality: "study_id", OrderBy: []string{"node_number"}},
		{Collection: deviationsCollection, Equality: "node_id", OrderBy: []string{"sequence_number"}},
		{Collection: recommendationsCollection, Equality: "deviation_id", OrderBy: []string{"position"}},
		{Collection: recommendationsCollection, Equality: "node_id", OrderBy: []string{"deviation_id", "position"}},
		{Collection: assignmentsCollection, Equality: "recommendation_id", OrderBy: []string{"seq"}},
		{Collection: targetDatesCollection, Equality: "assignment_id", OrderBy: []string{"seq"}},
	}
}
