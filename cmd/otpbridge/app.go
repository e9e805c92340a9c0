package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/otpbridge/pkg/bridgecrypto"
	"github.com/dmitrymomot/otpbridge/pkg/config"
	"github.com/dmitrymomot/otpbridge/pkg/itemsync"
	"github.com/dmitrymomot/otpbridge/pkg/keychain"
	"github.com/dmitrymomot/otpbridge/pkg/logger"
	"github.com/dmitrymomot/otpbridge/pkg/pg"
	"github.com/dmitrymomot/otpbridge/pkg/sessiontimeout"
	"github.com/dmitrymomot/otpbridge/pkg/sharedkeys"
)

// settings is read from OTPBRIDGE_* variables.
type settings struct {
	Application     string `env:"APPLICATION" envDefault:"authenticator"`
	AccessGroup     string `env:"ACCESS_GROUP" envDefault:"group.com.example.otpbridge"`
	KeychainBackend string `env:"KEYCHAIN_BACKEND" envDefault:"file"`
	KeychainDir     string `env:"KEYCHAIN_DIR"`
	Store           string `env:"STORE" envDefault:"memory"`
}

type logSettings struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
}

type applicationKey struct{}

// app holds the services shared by all commands.
type app struct {
	envFile string

	cfg         settings
	application keychain.Application
	log         *slog.Logger

	keys     *sharedkeys.Repository
	crypto   *bridgecrypto.Service
	items    *itemsync.Service
	timeouts *sessiontimeout.Service

	// checks test remote backends by component name. Local backends have none.
	checks  map[string]func(context.Context) error
	closers []func()
}

func (a *app) configOptions(prefix string) []config.Option {
	opts := []config.Option{config.WithPrefix(prefix)}
	if a.envFile != "" {
		opts = append(opts, config.WithEnvFiles(a.envFile))
	}
	return opts
}

// open loads the configuration and wires the services. It returns the
// context carrying the application name for log records.
func (a *app) open(ctx context.Context) (context.Context, error) {
	cfg, err := config.Load[settings](a.configOptions("OTPBRIDGE_")...)
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg

	a.application = keychain.Application(cfg.Application)
	if !a.application.Valid() {
		return ctx, fmt.Errorf("unknown application %q, want %q or %q",
			cfg.Application, keychain.PasswordManager, keychain.Authenticator)
	}

	logCfg, err := config.Load[logSettings](a.configOptions("")...)
	if err != nil {
		return ctx, err
	}
	a.log = logger.New(
		logger.WithOutput(os.Stderr),
		logger.WithEnvironment(logCfg.AppEnv, "otpbridge"),
		logger.WithLevelName(logCfg.LogLevel),
		logger.WithContextValue("application", applicationKey{}),
	)
	ctx = context.WithValue(ctx, applicationKey{}, cfg.Application)

	backend, err := a.openKeychain(ctx)
	if err != nil {
		return ctx, err
	}
	kc, err := keychain.NewStore(backend, cfg.AccessGroup)
	if err != nil {
		return ctx, err
	}
	if a.keys, err = sharedkeys.NewRepository(kc); err != nil {
		return ctx, err
	}
	if a.crypto, err = bridgecrypto.NewService(a.keys, bridgecrypto.WithLogger(a.log)); err != nil {
		return ctx, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return ctx, err
	}
	if a.items, err = itemsync.NewService(store, a.crypto, a.keys, itemsync.WithLogger(a.log)); err != nil {
		return ctx, err
	}
	a.closers = append(a.closers, func() { _ = a.items.Close() })

	a.timeouts, err = sessiontimeout.NewService(a.keys, a.application, sessiontimeout.WithLogger(a.log))
	if err != nil {
		return ctx, err
	}

	a.log.DebugContext(ctx, "services ready",
		slog.String("keychain", cfg.KeychainBackend),
		slog.String("store", cfg.Store))
	return ctx, nil
}

func (a *app) openKeychain(ctx context.Context) (keychain.Backend, error) {
	switch a.cfg.KeychainBackend {
	case "memory":
		return keychain.NewMemoryBackend(), nil
	case "redis":
		rc, err := config.Load[keychain.RedisConfig](a.configOptions("")...)
		if err != nil {
			return nil, err
		}
		client, err := keychain.ConnectRedis(ctx, rc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		backend := keychain.NewRedisBackend(client, rc.KeyPrefix)
		a.addCheck("keychain", backend.Healthcheck())
		return backend, nil
	case "file", "":
		dir := a.cfg.KeychainDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, ".otpbridge", "keychain")
		}
		return keychain.NewFileBackend(dir)
	default:
		return nil, fmt.Errorf("unknown keychain backend %q", a.cfg.KeychainBackend)
	}
}

func (a *app) openStore(ctx context.Context) (itemsync.Store, error) {
	switch a.cfg.Store {
	case "memory", "":
		return itemsync.NewMemoryStore(), nil
	case "postgres":
		pc, err := config.Load[pg.Config](a.configOptions("")...)
		if err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, itemsync.Migrations, pc, a.log); err != nil {
			return nil, err
		}
		a.addCheck("store", pg.Healthcheck(pool, pc))
		return itemsync.NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown item store %q", a.cfg.Store)
	}
}

func (a *app) addCheck(name string, check func(context.Context) error) {
	if a.checks == nil {
		a.checks = make(map[string]func(context.Context) error)
	}
	a.checks[name] = check
}

// close releases connections in reverse order of opening.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
