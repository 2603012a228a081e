package main

type Settings struct {
	Port        int    `env:"PORT,default=3000"`
	BasePath    string `env:"BASE_PATH,default=/"`
	LogEncoding string `env:"LOG_ENCODING,default=console"`

	// JWTSecret enables bearer-token tenant resolution; when empty only the
	// tenant header is honored.
	JWTSecret    string `env:"JWT_SECRET"`
	TenantHeader string `env:"TENANT_HEADER,default=X-Tenant-Id"`

	HeartbeatIntervalSeconds int `env:"HEARTBEAT_INTERVAL_SECONDS,default=15"`

	DynamoTable  string `env:"DYNAMODB_TABLE_NAME,default=DataFortress_State"`
	S3Bucket     string `env:"S3_BUCKET_NAME,default=lakehouse-data-bucket"`
	EventBusName string `env:"EVENT_BUS_NAME,default=default"`
}
