package config

import "time"

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultStoreDriver = StoreDriverMongo
	DefaultPostgresDSN = "host=localhost user=roombook password=roombook dbname=roombook port=5432 sslmode=disable"

	DefaultPort = "8080"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultAllowConfirmedReschedule = false

	DefaultKafkaEnabled          = false
	DefaultBookingEventsTopic    = "booking-events"
	DefaultBookingEventsDLQTopic = "booking-events-dlq"
	DefaultBookingAuditGroupID   = "booking-audit"

	DefaultPaginationLimit = 100
	MinJWTSecretLength     = 32
)
