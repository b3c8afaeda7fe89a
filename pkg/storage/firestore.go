package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Documents are stored as JSON blobs under a "json" field so the
// wire shape stays identical across providers.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) houseCollection(houseID, name string) (*firestore.CollectionRef, error) {
	if houseID == "" {
		return nil, fmt.Errorf("houseID cannot be empty")
	}
	return f.client.Collection("houses").Doc(houseID).Collection(name), nil
}

// GetHouse retrieves a house from the "houses" collection.
func (f *FirestoreProvider) GetHouse(ctx context.Context, houseID string) (types.House, error) {
	if houseID == "" {
		return types.House{}, fmt.Errorf("houseID cannot be empty")
	}
	doc, err := f.client.Collection("houses").Doc(houseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.House{}, fmt.Errorf("%w: %s", ErrHouseNotFound, houseID)
		}
		return types.House{}, fmt.Errorf("failed to get house %s: %w", houseID, err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "house doc missing json", slog.String("houseID", houseID), slog.Any("err", err))
		return types.House{}, fmt.Errorf("house %s missing json: %w", houseID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "house doc json not string", slog.String("houseID", houseID))
		return types.House{}, fmt.Errorf("house %s json not string", houseID)
	}

	var house types.House
	if err := json.Unmarshal([]byte(jsonStr), &house); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal house", slog.String("houseID", houseID), slog.Any("err", err))
		return types.House{}, fmt.Errorf("failed to unmarshal house %s: %w", houseID, err)
	}
	return house, nil
}

// ListHouses retrieves all houses from the "houses" collection.
func (f *FirestoreProvider) ListHouses(ctx context.Context) ([]types.House, error) {
	iter := f.client.Collection("houses").Documents(ctx)
	defer iter.Stop()

	var houses []types.House
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating houses: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "house doc missing json", slog.String("houseID", doc.Ref.ID))
			// Skip malformed documents
			continue
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "house doc json not string", slog.String("houseID", doc.Ref.ID))
			continue
		}

		var house types.House
		if err := json.Unmarshal([]byte(jsonStr), &house); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal house", slog.String("houseID", doc.Ref.ID), slog.Any("err", err))
			// Skip malformed JSON
			continue
		}
		houses = append(houses, house)
	}
	return houses, nil
}

// UpsertHouse adds or replaces a house document in the "houses" collection.
func (f *FirestoreProvider) UpsertHouse(ctx context.Context, house types.House) error {
	if house.ID == "" {
		return fmt.Errorf("house missing id")
	}
	jsonBytes, err := json.Marshal(house)
	if err != nil {
		return fmt.Errorf("failed to marshal house %s: %w", house.ID, err)
	}
	_, err = f.client.Collection("houses").Doc(house.ID).Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert house %s: %w", house.ID, err)
	}
	return nil
}

// GetRatePlan retrieves a rate plan from the "rate_plans" collection.
func (f *FirestoreProvider) GetRatePlan(ctx context.Context, planID string) (types.RatePlan, error) {
	if planID == "" {
		return types.RatePlan{}, fmt.Errorf("planID cannot be empty")
	}
	doc, err := f.client.Collection("rate_plans").Doc(planID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.RatePlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
		}
		return types.RatePlan{}, fmt.Errorf("failed to get rate plan %s: %w", planID, err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "rate plan doc missing json", slog.String("planID", planID), slog.Any("err", err))
		return types.RatePlan{}, fmt.Errorf("rate plan %s missing json: %w", planID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "rate plan doc json not string", slog.String("planID", planID))
		return types.RatePlan{}, fmt.Errorf("rate plan %s json not string", planID)
	}

	var plan types.RatePlan
	if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal rate plan", slog.String("planID", planID), slog.Any("err", err))
		return types.RatePlan{}, fmt.Errorf("failed to unmarshal rate plan %s: %w", planID, err)
	}
	return plan, nil
}

// ListRatePlans retrieves all rate plans from the "rate_plans" collection.
func (f *FirestoreProvider) ListRatePlans(ctx context.Context) ([]types.RatePlan, error) {
	iter := f.client.Collection("rate_plans").Documents(ctx)
	defer iter.Stop()

	var plans []types.RatePlan
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating rate plans: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "rate plan doc missing json", slog.String("planID", doc.Ref.ID))
			// Skip malformed documents
			continue
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "rate plan doc json not string", slog.String("planID", doc.Ref.ID))
			continue
		}

		var plan types.RatePlan
		if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal rate plan", slog.String("planID", doc.Ref.ID), slog.Any("err", err))
			// Skip malformed JSON
			continue
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// UpsertRatePlan adds or replaces a rate plan document in the "rate_plans"
// collection.
func (f *FirestoreProvider) UpsertRatePlan(ctx context.Context, plan types.RatePlan) error {
	if plan.ID == "" {
		return fmt.Errorf("rate plan missing id")
	}
	jsonBytes, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal rate plan %s: %w", plan.ID, err)
	}
	_, err = f.client.Collection("rate_plans").Doc(plan.ID).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": types.CurrentRatePlanVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert rate plan %s: %w", plan.ID, err)
	}
	return nil
}

// UpsertUsageIntervals adds or updates interval readings in the
// "usage_intervals" sub-collection of the house. The document ID is the
// RFC3339 timestamp of the interval start for efficient range queries. A
// BulkWriter batches the writes since a year of 15-minute readings is tens
// of thousands of documents.
func (f *FirestoreProvider) UpsertUsageIntervals(ctx context.Context, houseID string, intervals []types.Interval) error {
	coll, err := f.houseCollection(houseID, "usage_intervals")
	if err != nil {
		return err
	}

	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(intervals))
	for _, interval := range intervals {
		if interval.Start.IsZero() {
			bw.End()
			return fmt.Errorf("interval missing start")
		}
		jsonBytes, err := json.Marshal(interval)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to marshal interval: %w", err)
		}
		docID := interval.Start.UTC().Format(time.RFC3339)
		job, err := bw.Set(coll.Doc(docID), map[string]interface{}{
			"json":      string(jsonBytes),
			"timestamp": interval.Start,
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to enqueue interval %s: %w", docID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to upsert usage intervals for house %s: %w", houseID, err)
		}
	}
	return nil
}

// GetUsageIntervals retrieves interval readings within the specified time
// range. Uses document ID range queries for efficient filtering without
// reading all documents.
func (f *FirestoreProvider) GetUsageIntervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	startDocID := start.UTC().Format(time.RFC3339)
	endDocID := end.UTC().Format(time.RFC3339)

	coll, err := f.houseCollection(houseID, "usage_intervals")
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var intervals []types.Interval
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating usage intervals: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "interval doc missing json", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID), slog.Any("err", err))
			return nil, fmt.Errorf("interval document %s missing 'json' field: %w", doc.Ref.ID, err)
		}

		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "interval doc json not string", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID))
			return nil, fmt.Errorf("interval document %s 'json' field is not string", doc.Ref.ID)
		}

		var interval types.Interval
		if err := json.Unmarshal([]byte(jsonStr), &interval); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal interval", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID), slog.Any("err", err))
			return nil, fmt.Errorf("failed to unmarshal interval (id=%s): %w", doc.Ref.ID, err)
		}
		intervals = append(intervals, interval)
	}
	return intervals, nil
}

// GetManualUsage retrieves the house's manual entry from the
// "manual_usage/entry" document.
func (f *FirestoreProvider) GetManualUsage(ctx context.Context, houseID string) (types.ManualUsage, error) {
	coll, err := f.houseCollection(houseID, "manual_usage")
	if err != nil {
		return types.ManualUsage{}, err
	}
	doc, err := coll.Doc("entry").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.ManualUsage{}, fmt.Errorf("%w: house %s", ErrManualUsageNotFound, houseID)
		}
		return types.ManualUsage{}, fmt.Errorf("failed to fetch manual usage doc: %w", err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "manual usage doc missing json", slog.String("houseID", houseID))
		return types.ManualUsage{}, fmt.Errorf("manual usage document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "manual usage doc json not string", slog.String("houseID", houseID))
		return types.ManualUsage{}, fmt.Errorf("manual usage 'json' field is not a string")
	}

	var entry types.ManualUsage
	if err := json.Unmarshal([]byte(jsonStr), &entry); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal manual usage", slog.String("houseID", houseID), slog.Any("err", err))
		return types.ManualUsage{}, fmt.Errorf("failed to unmarshal manual usage json: %w", err)
	}
	return entry, nil
}

// SetManualUsage saves the house's manual entry to the "manual_usage/entry"
// document. It stores the entry as a JSON string for portability.
func (f *FirestoreProvider) SetManualUsage(ctx context.Context, houseID string, entry types.ManualUsage) error {
	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal manual usage: %w", err)
	}

	coll, err := f.houseCollection(houseID, "manual_usage")
	if err != nil {
		return err
	}
	_, err = coll.Doc("entry").Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save manual usage: %w", err)
	}
	return nil
}

// GetTdspRates retrieves every stored delivery snapshot for a utility from
// the "tdsp_rates/{code}/snapshots" sub-collection, oldest first.
func (f *FirestoreProvider) GetTdspRates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error) {
	if utilityCode == "" {
		return nil, fmt.Errorf("utilityCode cannot be empty")
	}
	coll := f.client.Collection("tdsp_rates").Doc(utilityCode).Collection("snapshots")
	iter := coll.
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var rates []types.TdspDelivery
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating tdsp snapshots: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "tdsp snapshot doc missing json", slog.String("docID", doc.Ref.ID), slog.String("utilityCode", utilityCode), slog.Any("err", err))
			return nil, fmt.Errorf("tdsp snapshot %s missing 'json' field: %w", doc.Ref.ID, err)
		}

		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "tdsp snapshot doc json not string", slog.String("docID", doc.Ref.ID), slog.String("utilityCode", utilityCode))
			return nil, fmt.Errorf("tdsp snapshot %s 'json' field is not string", doc.Ref.ID)
		}

		var rate types.TdspDelivery
		if err := json.Unmarshal([]byte(jsonStr), &rate); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal tdsp snapshot", slog.String("docID", doc.Ref.ID), slog.String("utilityCode", utilityCode), slog.Any("err", err))
			return nil, fmt.Errorf("failed to unmarshal tdsp snapshot (id=%s): %w", doc.Ref.ID, err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

// UpsertTdspRate adds or updates a delivery snapshot in the
// "tdsp_rates/{code}/snapshots" sub-collection. The document ID is the
// RFC3339 effective date so at-or-before lookups can range over IDs.
func (f *FirestoreProvider) UpsertTdspRate(ctx context.Context, rate types.TdspDelivery) error {
	if rate.UtilityCode == "" {
		return fmt.Errorf("tdsp snapshot missing utility code")
	}
	if rate.EffectiveAt.IsZero() {
		return fmt.Errorf("tdsp snapshot missing effective date")
	}
	jsonBytes, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to marshal tdsp snapshot: %w", err)
	}

	docID := rate.EffectiveAt.UTC().Format(time.RFC3339)
	_, err = f.client.Collection("tdsp_rates").Doc(rate.UtilityCode).Collection("snapshots").Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": rate.EffectiveAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert tdsp snapshot: %w", err)
	}
	return nil
}

// estimateDocID builds the cache document ID. One document exists per
// (plan, months, fingerprint) under the house, so recomputing the same
// inputs always lands on the same document.
func estimateDocID(planID, fingerprint string, months int) string {
	return fmt.Sprintf("%s:%d:%s", planID, months, fingerprint)
}

// GetEstimate retrieves a cached estimate. The second return is false on a
// cache miss.
func (f *FirestoreProvider) GetEstimate(ctx context.Context, houseID, planID, fingerprint string, months int) (types.Estimate, bool, error) {
	coll, err := f.houseCollection(houseID, "estimates")
	if err != nil {
		return types.Estimate{}, false, err
	}
	doc, err := coll.Doc(estimateDocID(planID, fingerprint, months)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Estimate{}, false, nil
		}
		return types.Estimate{}, false, fmt.Errorf("failed to fetch estimate doc: %w", err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "estimate doc missing json", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID), slog.Any("err", err))
		return types.Estimate{}, false, fmt.Errorf("estimate document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "estimate doc json not string", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID))
		return types.Estimate{}, false, fmt.Errorf("estimate document %s 'json' field is not string", doc.Ref.ID)
	}

	var est types.Estimate
	if err := json.Unmarshal([]byte(jsonStr), &est); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal estimate", slog.String("docID", doc.Ref.ID), slog.String("houseID", houseID), slog.Any("err", err))
		return types.Estimate{}, false, fmt.Errorf("failed to unmarshal estimate (id=%s): %w", doc.Ref.ID, err)
	}
	return est, true, nil
}

// UpsertEstimate adds or replaces a cached estimate wholesale. The compute
// timestamp lives on the document wrapper, not in the estimate JSON, so a
// cache hit stays byte-identical to the fresh computation it memoizes.
func (f *FirestoreProvider) UpsertEstimate(ctx context.Context, est types.Estimate) error {
	if est.PlanID == "" || est.Fingerprint == "" {
		return fmt.Errorf("estimate missing plan id or fingerprint")
	}
	jsonBytes, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate: %w", err)
	}

	coll, err := f.houseCollection(est.HouseID, "estimates")
	if err != nil {
		return err
	}
	_, err = coll.Doc(estimateDocID(est.PlanID, est.Fingerprint, est.Months)).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": time.Now().UTC(),
		"version":   types.CurrentEstimateVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert estimate: %w", err)
	}
	return nil
}
