package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	refreshStatusDocument = "refresh_status"

	// Maximum document references per GetAll
	firestoreGetAllLimit = 30
)

type employeeRepository struct{ f *Firestore }

var _ interfaces.EmployeeRepository = &employeeRepository{}

type employeeDoc struct {
	ID         string    `firestore:"id"`
	Name       string    `firestore:"name"`
	RealName   string    `firestore:"real_name"`
	Email      string    `firestore:"email"`
	Department string    `firestore:"department"`
	ImageURL   string    `firestore:"image_url"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

type employeeMetadataDoc struct {
	LastRefreshSuccess time.Time `firestore:"last_refresh_success"`
	LastRefreshAttempt time.Time `firestore:"last_refresh_attempt"`
	EmployeeCount      int       `firestore:"employee_count"`
}

func toEmployeeDoc(e *model.Employee) *employeeDoc {
	return &employeeDoc{
		ID:         e.ID.String(),
		Name:       e.Name,
		RealName:   e.RealName,
		Email:      e.Email,
		Department: e.Department,
		ImageURL:   e.ImageURL,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (d *employeeDoc) toModel() *model.Employee {
	return &model.Employee{
		ID:         types.EmployeeID(d.ID),
		Name:       d.Name,
		RealName:   d.RealName,
		Email:      d.Email,
		Department: d.Department,
		ImageURL:   d.ImageURL,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *employeeRepository) collection() *firestore.CollectionRef {
	return r.f.collection(employeesCollection)
}

func (r *employeeRepository) GetAll(ctx context.Context) ([]*model.Employee, error) {
	docs, err := queryDocs[employeeDoc](ctx, r.collection().Query, "employees")
	if err != nil {
		return nil, err
	}
	employees := make([]*model.Employee, len(docs))
	for i, d := range docs {
		employees[i] = d.toModel()
	}
	return employees, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id types.EmployeeID) (*model.Employee, error) {
	doc, err := getDoc[employeeDoc](ctx, r.collection().Doc(id.String()), "employee")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// GetByIDs splits the lookup into GetAll calls of at most firestoreGetAllLimit refs
func (r *employeeRepository) GetByIDs(ctx context.Context, ids []types.EmployeeID) (map[types.EmployeeID]*model.Employee, error) {
	result := make(map[types.EmployeeID]*model.Employee, len(ids))

	for i := 0; i < len(ids); i += firestoreGetAllLimit {
		end := min(i+firestoreGetAllLimit, len(ids))
		batch := ids[i:end]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = r.collection().Doc(id.String())
		}

		snaps, err := r.f.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to batch get employees", goerr.V("count", len(batch)))
		}

		for idx, snap := range snaps {
			if !snap.Exists() {
				continue
			}
			var doc employeeDoc
			if err := snap.DataTo(&doc); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal employee", goerr.V("id", batch[idx]))
			}
			result[batch[idx]] = doc.toModel()
		}
	}

	return result, nil
}

func (r *employeeRepository) SaveMany(ctx context.Context, employees []*model.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	bulkWriter := r.f.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, e := range employees {
		if _, err := bulkWriter.Set(r.collection().Doc(e.ID.String()), toEmployeeDoc(e)); err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("employee_id", e.ID))
		}
	}
	bulkWriter.Flush()
	return nil
}

func (r *employeeRepository) DeleteAll(ctx context.Context) error {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate employees for deletion")
		}
		refs = append(refs, snap.Ref)
	}
	if len(refs) == 0 {
		return nil
	}

	bulkWriter := r.f.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
	}
	bulkWriter.Flush()
	return nil
}

func (r *employeeRepository) GetMetadata(ctx context.Context) (*model.EmployeeMetadata, error) {
	snap, err := r.f.collection(employeeMetaCollection).Doc(refreshStatusDocument).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.EmployeeMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get employee metadata")
	}

	var doc employeeMetadataDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal employee metadata")
	}
	return &model.EmployeeMetadata{
		LastRefreshSuccess: doc.LastRefreshSuccess,
		LastRefreshAttempt: doc.LastRefreshAttempt,
		EmployeeCount:      doc.EmployeeCount,
	}, nil
}

func (r *employeeRepository) SaveMetadata(ctx context.Context, metadata *model.EmployeeMetadata) error {
	doc := &employeeMetadataDoc{
		LastRefreshSuccess: metadata.LastRefreshSuccess,
		LastRefreshAttempt: metadata.LastRefreshAttempt,
		EmployeeCount:      metadata.EmployeeCount,
	}
	if _, err := r.f.collection(employeeMetaCollection).Doc(refreshStatusDocument).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save employee metadata")
	}
	return nil
}
