// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// optional .env file in the working directory is read once per process, then
// the environment is parsed into any struct using `env` and `envDefault`
// field tags. Each configuration type is parsed once and cached.
//
// # Usage
//
//	type Config struct {
//	    Application string `env:"OTPBRIDGE_APPLICATION" envDefault:"authenticator"`
//	    AccessGroup string `env:"OTPBRIDGE_ACCESS_GROUP,required"`
//	}
//
//	cfg, err := config.Load[Config]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Extra .env files can be supplied with WithEnvFiles. Tests call ResetCache
// between cases that change the environment.
package config
