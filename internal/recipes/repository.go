package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recipeforge/internal/blobstore"
	"recipeforge/internal/services"
)

// DefaultPartition is the blob store partition recipes are kept in.
const DefaultPartition = "recipes"

const originalLoadConcurrency = 4

// InfoKey returns the key of the record blob.
func InfoKey(id string) string { return id + "/info.json" }

// RecipeKey returns the key of the structured recipe blob.
func RecipeKey(id string) string { return id + "/recipe.json" }

// ThumbnailKey returns the key of the thumbnail blob.
func ThumbnailKey(id string) string { return id + "/thumbnail.jpg" }

// OriginalKey returns the key of the index-th submitted image.
func OriginalKey(id string, index int) string {
	return fmt.Sprintf("%s/original-%d.jpg", id, index)
}

// ContentTypeForKey maps a stored key to its MIME type.
func ContentTypeForKey(key string) string {
	return blobstore.ContentType(key)
}

// Option customizes a Repository.
type Option func(*Repository)

// WithPartition overrides DefaultPartition.
func WithPartition(partition string) Option {
	return func(r *Repository) {
		if partition = strings.Trim(strings.TrimSpace(partition), "/"); partition != "" {
			r.partition = partition
		}
	}
}

// WithClock overrides the time source used for created and updated stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how new recipe ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Repository stores recipes in a blob store.
type Repository struct {
	store     blobstore.Store
	partition string
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	locks map[string]*recordLock
}

// recordLock is a per-id mutex shared by refs holders and waiters.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// NewRepository wraps store.
func NewRepository(store blobstore.Store, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		partition: DefaultPartition,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		locks:     make(map[string]*recordLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Partition returns the partition the repository writes to.
func (r *Repository) Partition() string { return r.partition }

// lockRecord serializes read-modify-write cycles on one info blob within
// this process. The entry is dropped once no caller holds or waits on it.
func (r *Repository) lockRecord(id string) func() {
	r.mu.Lock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &recordLock{}
		r.locks[id] = lock
	}
	lock.refs++
	r.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		r.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

// lockedIDs reports how many ids currently have a lock entry.
func (r *Repository) lockedIDs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Create stores images as originals and writes an initial record.
func (r *Repository) Create(ctx context.Context, images [][]byte) (string, error) {
	return r.CreateWithRating(ctx, images, RatingUnknown)
}

// CreateWithRating is Create with an initial rating.
func (r *Repository) CreateWithRating(ctx context.Context, images [][]byte, rating Rating) (string, error) {
	if len(images) == 0 {
		return "", services.Wrap(services.ErrValidation, "recipes", "create", "at least one image is required", nil)
	}
	if !rating.Valid() {
		return "", services.Wrap(services.ErrValidation, "recipes", "create", "invalid rating "+rating.String(), nil)
	}
	now := r.now()
	record := &Record{
		ID:             r.newID(),
		OriginalImages: make([]string, 0, len(images)),
		Created:        now,
		Rating:         rating,
		Status:         StatusCreated,
		Updated:        now,
	}
	for index, image := range images {
		key := OriginalKey(record.ID, index)
		if err := r.store.Save(ctx, r.partition, key, image); err != nil {
			return "", err
		}
		record.OriginalImages = append(record.OriginalImages, key)
	}
	if err := r.saveInfo(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (r *Repository) saveInfo(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return services.Wrap(services.ErrStorage, "recipes", "encode info", record.ID, err)
	}
	return r.store.Save(ctx, r.partition, InfoKey(record.ID), data)
}

// LoadInfo returns the record for id or ErrNotFound.
func (r *Repository) LoadInfo(ctx context.Context, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, ok, err := r.store.Load(ctx, r.partition, InfoKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "recipes", "load info", "recipe "+id, nil)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, services.Wrap(services.ErrStorage, "recipes", "decode info", id, err)
	}
	if record.ID == "" {
		record.ID = id
	}
	return &record, nil
}

// GetOriginals loads the record's originals in declared order. Originals
// that are referenced but missing from the store are skipped.
func (r *Repository) GetOriginals(ctx context.Context, record *Record) ([][]byte, error) {
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "recipes", "get originals", "record is nil", nil)
	}
	loaded := make([][]byte, len(record.OriginalImages))
	found := make([]bool, len(record.OriginalImages))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(originalLoadConcurrency)
	for i, key := range record.OriginalImages {
		group.Go(func() error {
			data, ok, err := r.store.Load(groupCtx, r.partition, key)
			if err != nil {
				return err
			}
			loaded[i], found[i] = data, ok
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	originals := make([][]byte, 0, len(loaded))
	for i, data := range loaded {
		if found[i] {
			originals = append(originals, data)
		}
	}
	return originals, nil
}

// GetOriginal returns one original and its content type.
func (r *Repository) GetOriginal(ctx context.Context, id string, index int) ([]byte, string, error) {
	record, err := r.LoadInfo(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if index < 0 || index >= len(record.OriginalImages) {
		return nil, "", services.Wrap(services.ErrNotFound, "recipes", "get original", fmt.Sprintf("recipe %s has no original %d", id, index), nil)
	}
	key := record.OriginalImages[index]
	data, ok, err := r.store.Load(ctx, r.partition, key)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", services.Wrap(services.ErrNotFound, "recipes", "get original", key, nil)
	}
	return data, ContentTypeForKey(key), nil
}

// SetRecipe stores recipe and mirrors its name and description into the
// record. An empty description keeps the previous one.
func (r *Repository) SetRecipe(ctx context.Context, id string, recipe *Recipe) error {
	if recipe == nil {
		return services.Wrap(services.ErrValidation, "recipes", "set recipe", "recipe is nil", nil)
	}
	unlock := r.lockRecord(id)
	defer unlock()

	record, err := r.LoadInfo(ctx, id)
	if err != nil {
		return err
	}
	record.Name = recipe.Name
	if recipe.Description != "" {
		record.Description = recipe.Description
	}
	record.Updated = r.now()
	if err := r.saveInfo(ctx, record); err != nil {
		return err
	}

	data, err := json.Marshal(recipe)
	if err != nil {
		return services.Wrap(services.ErrStorage, "recipes", "encode recipe", id, err)
	}
	return r.store.Save(ctx, r.partition, RecipeKey(id), data)
}

// GetRecipe returns the stored recipe or ErrNotFound.
func (r *Repository) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, ok, err := r.store.Load(ctx, r.partition, RecipeKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "recipes", "get recipe", "recipe "+id, nil)
	}
	var recipe Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, services.Wrap(services.ErrStorage, "recipes", "decode recipe", id, err)
	}
	return &recipe, nil
}

// SetThumbnail stores the thumbnail and then records its key.
func (r *Repository) SetThumbnail(ctx context.Context, id string, data []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	unlock := r.lockRecord(id)
	defer unlock()

	key := ThumbnailKey(id)
	if err := r.store.Save(ctx, r.partition, key, data); err != nil {
		return err
	}
	record, err := r.LoadInfo(ctx, id)
	if err != nil {
		return err
	}
	record.Thumbnail = key
	record.Updated = r.now()
	return r.saveInfo(ctx, record)
}

// GetThumbnail returns the thumbnail; ok is false when none is stored.
func (r *Repository) GetThumbnail(ctx context.Context, id string) ([]byte, bool, error) {
	if err := validateID(id); err != nil {
		return nil, false, err
	}
	return r.store.Load(ctx, r.partition, ThumbnailKey(id))
}

// SetRating updates the record's rating.
func (r *Repository) SetRating(ctx context.Context, id string, rating Rating) error {
	if !rating.Valid() {
		return services.Wrap(services.ErrValidation, "recipes", "set rating", "invalid rating "+rating.String(), nil)
	}
	return r.update(ctx, id, func(record *Record) {
		record.Rating = rating
	})
}

// SetStatus records pipeline progress. A nil failure clears any previous
// failure details.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status, failure *Failure) error {
	if _, ok := ParseStatus(string(status)); !ok {
		return services.Wrap(services.ErrValidation, "recipes", "set status", fmt.Sprintf("unknown status %q", status), nil)
	}
	return r.update(ctx, id, func(record *Record) {
		record.Status = status
		record.FailedStage = ""
		record.LastError = ""
		if failure != nil {
			record.FailedStage = failure.Stage
			record.LastError = failure.Message
		}
	})
}

func (r *Repository) update(ctx context.Context, id string, mutate func(*Record)) error {
	unlock := r.lockRecord(id)
	defer unlock()

	record, err := r.LoadInfo(ctx, id)
	if err != nil {
		return err
	}
	mutate(record)
	record.Updated = r.now()
	return r.saveInfo(ctx, record)
}

// List returns the ids present in the partition.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	ids, err := r.store.List(ctx, r.partition)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Find returns the blobs of recipe id whose key starts with partialKey.
func (r *Repository) Find(ctx context.Context, id, partialKey string) (map[string][]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return r.store.Find(ctx, r.partition, id+"/"+partialKey)
}

// OriginalURLs returns public URLs for each original of record.
func OriginalURLs(baseURL string, record *Record) []string {
	if record == nil {
		return nil
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	urls := make([]string, 0, len(record.OriginalImages))
	for index := range record.OriginalImages {
		urls = append(urls, fmt.Sprintf("%s/recipe/%s/original/%d", base, record.ID, index))
	}
	return urls
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return services.Wrap(services.ErrValidation, "recipes", "validate id", fmt.Sprintf("invalid recipe id %q", id), nil)
	}
	return nil
}
