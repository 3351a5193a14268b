package helper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stock-fetch/internal/stock_fetch/model"
)

// ErrStockNotFound is returned when a stock code has no catalog row.
var ErrStockNotFound = errors.New("helper: stock not found")

type Stores struct {
	DB     *mongo.Database
	Stocks *mongo.Collection // fixed collection: stocks
}

func MustMongo(ctx context.Context, host, dbname, username, password, authSource string) *Stores {
	clientOpts := options.Client().
		ApplyURI("mongodb://" + host).
		SetAuth(options.Credential{
			Username:   username,
			Password:   password,
			AuthSource: authSource,
		})

	cli, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		panic(err)
	}
	if err = cli.Ping(ctx, nil); err != nil {
		panic(err)
	}

	db := cli.Database(dbname)
	s := &Stores{
		DB:     db,
		Stocks: db.Collection("stocks"),
	}
	ensureIndexes(ctx, s)
	return s
}

func ensureIndexes(ctx context.Context, s *Stores) {
	_, _ = s.Stocks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "stock_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "target_stock", Value: 1}}},
	})
}

// StockByCode looks up one catalog row by stock code.
func (s *Stores) StockByCode(ctx context.Context, code string) (*model.StockInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var info model.StockInfo
	err := s.Stocks.FindOne(ctx, bson.M{"stock_code": code}).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("helper: stock lookup %s: %w", code, err)
	}
	return &info, nil
}

// TargetStocks lists all catalog rows flagged for batch collection.
func (s *Stores) TargetStocks(ctx context.Context) ([]model.StockInfo, error) {
	cur, err := s.Stocks.Find(ctx, bson.M{
		"stock_code":   bson.M{"$ne": ""},
		"target_stock": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("helper: list target stocks: %w", err)
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var stocks []model.StockInfo
	for cur.Next(ctx) {
		var info model.StockInfo
		if err := cur.Decode(&info); err != nil {
			continue
		}
		stocks = append(stocks, info)
	}
	return stocks, cur.Err()
}
