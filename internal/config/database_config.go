package config

import "time"

type DatabaseConfig interface {
	GetMongoURI() string
	GetMongoDatabase() string
	GetDBTimeout() time.Duration
}

type Database struct {
	src *source
}

var _ DatabaseConfig = Database{}

func (d Database) GetMongoURI() string {
	return d.src.get("MONGO_URI", "mongodb://localhost:27017")
}

func (d Database) GetMongoDatabase() string {
	return d.src.get("MONGO_DATABASE", "accounts")
}

// GetDBTimeout bounds every single call to the credential store.
func (d Database) GetDBTimeout() time.Duration {
	return d.src.duration("DB_TIMEOUT", 5*time.Second)
}
