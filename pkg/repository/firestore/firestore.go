package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
)

const (
	studiesCollection         = "studies"
	nodesCollection           = "nodes"
	deviationsCollection      = "deviations"
	recommendationsCollection = "recommendations"
	assignmentsCollection     = "assignments"
	targetDatesCollection     = "target_dates"
	challengesCollection      = "otp_challenges"
	employeesCollection       = "employees"
	employeeMetaCollection    = "employee_metadata"
)

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) collection(name string) *firestore.CollectionRef {
	if f.collectionPrefix != "" {
		return f.client.Collection(f.collectionPrefix + "_" + name)
	}
	return f.client.Collection(name)
}

func (f *Firestore) Study() interfaces.StudyRepository {
	return &studyRepository{f: f}
}

func (f *Firestore) Node() interfaces.NodeRepository {
	return &nodeRepository{f: f}
}

func (f *Firestore) Deviation() interfaces.DeviationRepository {
	return &deviationRepository{f: f}
}

func (f *Firestore) Recommendation() interfaces.RecommendationRepository {
	return &recommendationRepository{f: f}
}

func (f *Firestore) Assignment() interfaces.AssignmentRepository {
	return &assignmentRepository{f: f}
}

func (f *Firestore) Challenge() interfaces.ChallengeRepository {
	return &challengeRepository{f: f}
}

func (f *Firestore) Employee() interfaces.EmployeeRepository {
	return &employeeRepository{f: f}
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
