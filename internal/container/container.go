package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons; unset ones are nil and
// the features depending on them degrade.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	mongoClient *mongo.Client
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetMongo(c *mongo.Client)     { mongoClient = c }
func GetMongo() *mongo.Client      { return mongoClient }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	c := cfg
	if c == nil {
		c = config.Load()
	}
	jwtManager = helpers.NewJWTManager(c.JWTAccessSecret, c.JWTRefreshSecret, c.IdentitySecret, c.AccessTTL, c.RefreshTTL)
	return jwtManager
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

// Reset clears every singleton; tests use it between cases.
func Reset() {
	cfg, logger, pgPool, mongoClient, redisClient, gcsClient = nil, nil, nil, nil, nil, nil
	jwtManager, rabbitPub, esClient = nil, nil, nil
}
