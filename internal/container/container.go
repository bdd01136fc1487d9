package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/config"
	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/infrastructure/memory"
	"github.com/oksasatya/langbridge/pkg/helpers"
)

// app-level container to share constructed components across packages.
// The router wires modules from these singletons; nil means "not configured".

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	memStore    *memory.Store
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager

	emailPub *helpers.RabbitPublisher
	presence application.PresenceDirectory
	chat     application.ChatTokenIssuer
)

func SetConfig(c *config.Config)     { cfg = c }
func GetConfig() *config.Config      { return cfg }
func SetLogger(l *logrus.Logger)     { logger = l }
func GetLogger() *logrus.Logger      { return logger }
func SetPGPool(p *pgxpool.Pool)      { pgPool = p }
func GetPGPool() *pgxpool.Pool       { return pgPool }
func SetMemoryStore(s *memory.Store) { memStore = s }
func GetMemoryStore() *memory.Store  { return memStore }
func SetRedis(r *redis.Client)       { redisClient = r }
func GetRedis() *redis.Client        { return redisClient }
func SetGCS(s *storage.Client)       { gcsClient = s }
func GetGCS() *storage.Client        { return gcsClient }
func SetES(c *elasticsearch.Client)  { esClient = c }
func GetES() *elasticsearch.Client   { return esClient }
func SetJWT(m *helpers.JWTManager)   { jwtManager = m }
func GetJWT() *helpers.JWTManager    { return jwtManager }

func SetEmailPub(p *helpers.RabbitPublisher)      { emailPub = p }
func GetEmailPub() *helpers.RabbitPublisher       { return emailPub }
func SetPresence(p application.PresenceDirectory) { presence = p }
func GetPresence() application.PresenceDirectory  { return presence }
func SetChat(c application.ChatTokenIssuer)       { chat = c }
func GetChat() application.ChatTokenIssuer        { return chat }
