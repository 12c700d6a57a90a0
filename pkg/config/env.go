package config

const EnvPrefix = "MEDITRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	DeliveryPush     = "push"
	DeliveryPubSub   = "pubsub"
	DeliveryDisabled = "disabled"
)

const (
	EnvAppEnv           = "MEDITRACK_APP_ENV"
	EnvPort             = "MEDITRACK_APP_PORT"
	EnvPublicURL        = "MEDITRACK_PUBLIC_URL"
	EnvScheduleTimezone = "MEDITRACK_SCHEDULE_TIMEZONE"
	EnvAPIKey           = "MEDITRACK_API_KEY"

	EnvDBDSN  = "MEDITRACK_DB_DSN"
	EnvDBHost = "MEDITRACK_DB_HOST"
	EnvDBUser = "MEDITRACK_DB_USER"
	EnvDBName = "MEDITRACK_DB_NAME"

	EnvUseSQLite = "MEDITRACK_USE_SQLITE"

	EnvRedisURL = "MEDITRACK_REDIS_URL"

	EnvJWTSecret               = "MEDITRACK_JWT_SECRET"
	EnvJWTIssuer               = "MEDITRACK_JWT_ISSUER"
	EnvJWTExpMins              = "MEDITRACK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "MEDITRACK_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID            = "MEDITRACK_GCP_PROJECT_ID"
	EnvGCSBucket               = "MEDITRACK_GCS_BUCKET_NAME"
	EnvMaxImageMB              = "MEDITRACK_MAX_IMAGE_MB"
	EnvPubSubNotificationTopic = "MEDITRACK_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "MEDITRACK_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvNotifyDelivery          = "MEDITRACK_NOTIFY_DELIVERY"
	EnvCronInterval            = "MEDITRACK_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
