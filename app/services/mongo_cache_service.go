package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/address-completer/app/models"
	"github.com/address-completer/helpers/utils"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const addressCacheCollection = "address_cache"

// MongoCacheService is a persistent cache in MongoDB fronted by an in-process LRU.
type MongoCacheService struct {
	collection    *mongo.Collection
	l1Cache       *lru.Cache[string, *models.AddressComponents]
	logger        *zap.Logger
	parserVersion string
	ttlHours      int

	totalHits atomic.Int64
	totalMiss atomic.Int64
	l1Hits    atomic.Int64
	l1Miss    atomic.Int64
	mongoHits atomic.Int64
	mongoMiss atomic.Int64
}

// NewMongoCacheService creates the cache and its indexes.
func NewMongoCacheService(db *mongo.Database, l1Size int, parserVersion string, ttlHours int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.AddressComponents](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	collection := db.Collection(addressCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "raw_fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{bson.E{Key: "parser_version", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "created_at", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Cannot create address_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		collection:    collection,
		l1Cache:       l1Cache,
		logger:        logger,
		parserVersion: parserVersion,
		ttlHours:      ttlHours,
	}, nil
}

// Get checks the LRU, then MongoDB. Documents from another parser version or
// older than the TTL count as misses.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.AddressComponents, bool, error) {
	if components, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.totalHits.Add(1)
		return components, true, nil
	}
	mcs.l1Miss.Add(1)

	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"raw_fingerprint": fingerprint(key)}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.mongoMiss.Add(1)
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query mongo cache: %w", err)
	}

	if !entry.IsValidParserVersion(mcs.parserVersion) || (mcs.ttlHours > 0 && entry.IsExpired(mcs.ttlHours)) {
		mcs.mongoMiss.Add(1)
		mcs.totalMiss.Add(1)
		return nil, false, nil
	}

	mcs.mongoHits.Add(1)
	mcs.totalHits.Add(1)

	go mcs.updateAccessStats(entry.ID)

	components := entry.Components
	mcs.l1Cache.Add(key, &components)

	mcs.logger.Debug("MongoDB cache hit", zap.String("key", key))
	return &components, true, nil
}

// Set writes through to the LRU and upserts the document.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, components *models.AddressComponents) error {
	mcs.l1Cache.Add(key, components)

	fp := fingerprint(key)
	entry := models.NewAddressCache(fp, key, utils.Romanize(components.FullAddress()), *components, mcs.parserVersion)

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"raw_fingerprint": fp}, entry, opts); err != nil {
		mcs.logger.Error("Cannot store mongo cache entry", zap.Error(err), zap.String("fingerprint", fp))
		return fmt.Errorf("store mongo cache entry: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"raw_fingerprint": fingerprint(key)}); err != nil {
		return fmt.Errorf("delete mongo cache entry: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear mongo cache: %w", err)
	}

	for _, c := range []*atomic.Int64{&mcs.totalHits, &mcs.totalMiss, &mcs.l1Hits, &mcs.l1Miss, &mcs.mongoHits, &mcs.mongoMiss} {
		c.Store(0)
	}
	return nil
}

func (mcs *MongoCacheService) InvalidateByParserVersion(ctx context.Context, parserVersion string) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"parser_version": bson.M{"$ne": parserVersion}})
	if err != nil {
		return fmt.Errorf("invalidate mongo cache: %w", err)
	}

	mcs.logger.Info("Invalidated mongo cache",
		zap.String("parser_version", parserVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count mongo cache: %w", err)
	}

	hits, misses := mcs.totalHits.Load(), mcs.totalMiss.Load()
	return &CacheStats{
		Backend:    "mongo",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: count,
		Layers:     mcs.L1Stats(),
	}, nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"raw_fingerprint": fingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("check mongo cache entry: %w", err)
	}
	return count > 0, nil
}

// GetTTL is 0; expiry is checked on read.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op; the caller owns the Mongo client.
func (mcs *MongoCacheService) Close() error {
	return nil
}

func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Cannot update cache access stats", zap.Error(err))
	}
}

// L1Stats reports the LRU layer separately.
func (mcs *MongoCacheService) L1Stats() map[string]interface{} {
	return map[string]interface{}{
		"l1_size":    mcs.l1Cache.Len(),
		"l1_hits":    mcs.l1Hits.Load(),
		"l1_miss":    mcs.l1Miss.Load(),
		"mongo_hits": mcs.mongoHits.Load(),
		"mongo_miss": mcs.mongoMiss.Load(),
	}
}

// WarmUp loads the most accessed current-version documents into the LRU.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{"parser_version": mcs.parserVersion}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.AddressCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Cannot decode cache entry during warm up", zap.Error(err))
			continue
		}
		components := entry.Components
		mcs.l1Cache.Add(entry.RawAddress, &components)
		count++
	}

	mcs.logger.Info("Cache warm up finished",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return cursor.Err()
}
