// Package mongo 音乐地图文档库。
//
// 使用 mongo-go-driver v2，结构体经 bson tag 序列化。地理查询靠 2dsphere 索引，
// 并发修改靠 version 字段的条件更新，冲突由上层重试。
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recordmusic/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const ColMusicMaps = "musicmaps"

var (
	ErrNotFound        = errors.New("music map not found")
	ErrVersionConflict = errors.New("music map version conflict")
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore 连接 MongoDB 并建索引
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo: ensure indexes failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col() *mongo.Collection {
	return s.db.Collection(ColMusicMaps)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.col().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "street_address", Value: 1}}},
	})
	return err
}

// Create 新建文档，version 从 1 开始
func (s *Store) Create(ctx context.Context, m *model.MusicMap) (string, error) {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Version = 1
	res, err := s.col().InsertOne(ctx, m)
	if err != nil {
		return "", err
	}
	id := res.InsertedID.(bson.ObjectID)
	m.ID = id
	return id.Hex(), nil
}

// Get 按 id 取文档
func (s *Store) Get(ctx context.Context, id string) (*model.MusicMap, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var m model.MusicMap
	err = s.col().FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Replace 带版本号的条件更新，版本不匹配返回 ErrVersionConflict
func (s *Store) Replace(ctx context.Context, m *model.MusicMap) error {
	filter := bson.D{
		{Key: "_id", Value: m.ID},
		{Key: "version", Value: m.Version},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "open_range", Value: m.OpenRange},
			{Key: "comments_on", Value: m.CommentsOn},
			{Key: "content", Value: m.Content},
			{Key: "images", Value: m.Images},
			{Key: "playlist", Value: m.Playlist},
			{Key: "comments", Value: m.Comments},
			{Key: "memorize_users", Value: m.MemorizeUsers},
			{Key: "location", Value: m.Location},
			{Key: "street_address", Value: m.StreetAddress},
			{Key: "building_number", Value: m.BuildingNumber},
			{Key: "last_updated_at", Value: time.Now().UTC()},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}
	res, err := s.col().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// 文档还在就是版本冲突，不在就是被删了
		if _, err := s.Get(ctx, m.ID.Hex()); err != nil {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// Delete 删除文档（作者过滤在上层做）
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col().DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Geo 取某坐标半径内的文档，近的在前
func (s *Store) Geo(ctx context.Context, lon, lat, meters float64, limit int) ([]model.MusicMap, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	filter := bson.D{{Key: "location", Value: bson.D{
		{Key: "$nearSphere", Value: bson.D{
			{Key: "$geometry", Value: model.NewGeoPoint(lon, lat)},
			{Key: "$maxDistance", Value: meters},
		}},
	}}}
	cur, err := s.col().Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var list []model.MusicMap
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchAddress 地址匹配
func (s *Store) SearchAddress(ctx context.Context, query string, limit int) ([]model.MusicMap, error) {
	return s.search(ctx, bson.D{{Key: "street_address", Value: regexFilter(query)}}, limit)
}

// SearchMusic 歌单曲目名匹配
func (s *Store) SearchMusic(ctx context.Context, query string, limit int) ([]model.MusicMap, error) {
	return s.search(ctx, bson.D{{Key: "playlist.name", Value: regexFilter(query)}}, limit)
}

// SearchAll 地址和曲目名一起查，_id 去重由 $or 天然保证
func (s *Store) SearchAll(ctx context.Context, query string, limit int) ([]model.MusicMap, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "street_address", Value: regexFilter(query)}},
		bson.D{{Key: "playlist.name", Value: regexFilter(query)}},
	}}}
	return s.search(ctx, filter, limit)
}

// Memorize 收藏，$addToSet 幂等；返回本次是否真的加上了
func (s *Store) Memorize(ctx context.Context, id string, userID uint64) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}
	res, err := s.col().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "memorize_users", Value: userID}}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

// Unmemorize 取消收藏，$pull 幂等
func (s *Store) Unmemorize(ctx context.Context, id string, userID uint64) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}
	res, err := s.col().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "memorize_users", Value: userID}}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) search(ctx context.Context, filter bson.D, limit int) ([]model.MusicMap, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_updated_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var list []model.MusicMap
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func regexFilter(query string) bson.D {
	return bson.D{{Key: "$regex", Value: query}, {Key: "$options", Value: "i"}}
}
