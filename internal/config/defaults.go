package config

import "time"

const (
	defaultPort             = 8080
	defaultOperationTimeout = 3 * time.Second
)

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "fleet",
	Pass: "fleet",
	Name: "fleet_db",
}

var defaultRedis = Redis{
	Addr: "127.0.0.1:6379",
}

// Login gate defaults mirror five attempts per minute.
var defaultRateLimit = RateLimit{
	Enabled:     true,
	MaxRequests: 5,
	Window:      60 * time.Second,
	FailOpen:    false,
}

// Assignments churn more than drivers and vehicles, so their listing
// cache expires sooner.
var defaultCache = Cache{
	DriversTTL:     5 * time.Minute,
	VehiclesTTL:    5 * time.Minute,
	AssignmentsTTL: 2 * time.Minute,
}

var defaultKafka = Kafka{
	Topic: "fleet.assignments",
}

// DefaultPort returns the default HTTP port.
func DefaultPort() int { return defaultPort }

// DefaultOperationTimeout returns the default per-operation timeout.
func DefaultOperationTimeout() time.Duration { return defaultOperationTimeout }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultRedis returns the default shared store settings.
func DefaultRedis() Redis { return defaultRedis }

// DefaultRateLimit returns the default login gate settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }

// DefaultCache returns the default cache TTLs.
func DefaultCache() Cache { return defaultCache }

// DefaultKafka returns the default assignment event settings.
func DefaultKafka() Kafka { return defaultKafka }
