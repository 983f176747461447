// Package semantic owns all Qdrant operations for the consultant
// collection. One point per consultant: the vector embeds the profile
// text, the payload carries the profile fields.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
)

// ProfileStore is the sole owner of all Qdrant operations.
type ProfileStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a ProfileStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*ProfileStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &ProfileStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *ProfileStore) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (s *ProfileStore) EnsureCollection(ctx context.Context, dims int) error {
	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	d := uint64(dims)
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", s.collection, err)
	}
	return nil
}

// CollectionExists reports whether the consultant collection exists.
// A connectivity failure surfaces as domain.ErrBackendUnavailable.
func (s *ProfileStore) CollectionExists(ctx context.Context) (bool, error) {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, wrapBackendErr("list collections", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// upsertBatchSize caps points per upsert request.
const upsertBatchSize = 100

// UpsertProfiles stores profiles with their embeddings, batching large
// writes.
func (s *ProfileStore) UpsertProfiles(ctx context.Context, records []ProfileRecord) error {
	for _, batch := range fn.Chunk(records, upsertBatchSize) {
		points := make([]*pb.PointStruct, len(batch))
		for i, r := range batch {
			points[i] = &pb.PointStruct{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: r.Profile.ID},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: r.Embedding},
					},
				},
				Payload: profilePayload(r.Profile),
			}
		}

		wait := true
		_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return wrapBackendErr(fmt.Sprintf("upsert %d profiles", len(batch)), err)
		}
	}
	return nil
}

// SearchProfiles performs k-NN similarity search over consultant
// profiles. minScore > 0 filters results below that similarity at the
// backend; 0 disables the filter.
func (s *ProfileStore) SearchProfiles(ctx context.Context, embedding []float32, limit int, minScore float64) ([]Hit, error) {
	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if minScore > 0 {
		t := float32(minScore)
		req.ScoreThreshold = &t
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, wrapBackendErr("search", err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = Hit{
			Profile: payloadProfile(r.GetId().GetUuid(), r.GetPayload()),
			Score:   float64(r.GetScore()),
			Scored:  true,
		}
	}
	return hits, nil
}

// ScrollProfiles reads up to limit profiles without a vector search.
// Used for the fallback path, listings, and overview statistics.
func (s *ProfileStore) ScrollProfiles(ctx context.Context, limit int) ([]domain.ConsultantProfile, error) {
	l := uint32(limit)
	resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: s.collection,
		Limit:          &l,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, wrapBackendErr("scroll", err)
	}

	profiles := make([]domain.ConsultantProfile, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		profiles[i] = payloadProfile(r.GetId().GetUuid(), r.GetPayload())
	}
	return profiles, nil
}

// Count returns the number of stored profiles.
func (s *ProfileStore) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, wrapBackendErr("count", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// DeleteProfile removes one consultant by ID.
func (s *ProfileStore) DeleteProfile(ctx context.Context, id string) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}},
				},
			},
		},
	})
	if err != nil {
		return wrapBackendErr(fmt.Sprintf("delete %s", id), err)
	}
	return nil
}

// DeleteFailure records one failed deletion within a batch.
type DeleteFailure struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// DeleteProfiles removes consultants one by one, collecting per-ID
// failures instead of aborting the batch. Returns the number deleted.
func (s *ProfileStore) DeleteProfiles(ctx context.Context, ids []string) (int, []DeleteFailure) {
	deleted := 0
	var failures []DeleteFailure
	for _, id := range ids {
		if err := s.DeleteProfile(ctx, id); err != nil {
			failures = append(failures, DeleteFailure{ID: id, Err: err.Error()})
			continue
		}
		deleted++
	}
	return deleted, failures
}

// --- payload conversion ---

const (
	keyName         = "name"
	keyEmail        = "email"
	keyPhone        = "phone"
	keySkills       = "skills"
	keyAvailability = "availability"
	keyExperience   = "experience"
	keyEducation    = "education"
)

func profilePayload(p domain.ConsultantProfile) map[string]*pb.Value {
	skills := make([]*pb.Value, len(p.Skills))
	for i, sk := range p.Skills {
		skills[i] = strValue(sk)
	}
	return map[string]*pb.Value{
		keyName:         strValue(p.Name),
		keyEmail:        strValue(p.Email),
		keyPhone:        strValue(p.Phone),
		keySkills:       {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: skills}}},
		keyAvailability: strValue(string(p.Availability)),
		keyExperience:   strValue(p.Experience),
		keyEducation:    strValue(p.Education),
	}
}

func payloadProfile(id string, payload map[string]*pb.Value) domain.ConsultantProfile {
	p := domain.ConsultantProfile{
		ID:           id,
		Name:         payload[keyName].GetStringValue(),
		Email:        payload[keyEmail].GetStringValue(),
		Phone:        payload[keyPhone].GetStringValue(),
		Availability: domain.Availability(payload[keyAvailability].GetStringValue()),
		Experience:   payload[keyExperience].GetStringValue(),
		Education:    payload[keyEducation].GetStringValue(),
	}
	if p.Availability == "" {
		p.Availability = domain.Available
	}
	for _, v := range payload[keySkills].GetListValue().GetValues() {
		if sk := v.GetStringValue(); sk != "" {
			p.Skills = append(p.Skills, sk)
		}
	}
	return p
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// wrapBackendErr maps transport errors onto the domain error taxonomy:
// unreachable backend -> ErrBackendUnavailable, missing collection ->
// ErrNoCandidates, anything else -> wrapped as-is.
func wrapBackendErr(op string, err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("semantic: %s: %w: %s", op, domain.ErrBackendUnavailable, st.Message())
		case codes.NotFound:
			return fmt.Errorf("semantic: %s: %w", op, domain.ErrNoCandidates)
		}
	}
	if msg := strings.ToLower(err.Error()); strings.Contains(msg, "doesn't exist") || strings.Contains(msg, "not found") {
		return fmt.Errorf("semantic: %s: %w", op, domain.ErrNoCandidates)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("semantic: %s: %w: %v", op, domain.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("semantic: %s: %w", op, err)
}
