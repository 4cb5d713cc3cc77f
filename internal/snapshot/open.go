package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
)

// Open builds the Store described by cfg: the primary backend, wrapped in a
// Replicated store when replicas are configured. The returned close function
// releases any connections the backends opened.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	open := func(backend string) (Store, error) {
		switch backend {
		case "file":
			return NewFileStore(cfg.Snapshot.Path), nil
		case "redis":
			client, err := pkgredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return nil, err
			}
			closers = append(closers, client.Close)
			return NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Snapshot.Name), nil
		case "postgres":
			client, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return nil, err
			}
			closers = append(closers, client.Close)
			return NewPostgresStore(ctx, client, cfg.Snapshot.Name)
		case "minio":
			client, err := NewMinioClient(cfg.Minio)
			if err != nil {
				return nil, err
			}
			return NewMinioStore(client, cfg.Minio.Bucket, cfg.Minio.Prefix, cfg.Snapshot.Name), nil
		default:
			return nil, fmt.Errorf("unknown snapshot backend %q", backend)
		}
	}

	primary, err := open(cfg.Snapshot.Backend)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("opening %s snapshot store: %w", cfg.Snapshot.Backend, err)
	}
	if len(cfg.Snapshot.Replicas) == 0 {
		return primary, closeAll, nil
	}
	replicas := make([]Store, 0, len(cfg.Snapshot.Replicas))
	for _, backend := range cfg.Snapshot.Replicas {
		s, err := open(backend)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening %s snapshot replica: %w", backend, err)
		}
		replicas = append(replicas, s)
	}
	return NewReplicated(primary, replicas...), closeAll, nil
}
