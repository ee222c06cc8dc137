package storage

import (
	"context"

	"go.uber.org/zap"

	"storyblocks/internal/config"
	"storyblocks/internal/domain"
)

// Open returns the story store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.StoryStore, error) {
	if cfg.Storage.Driver == config.DriverMongo {
		s, err := OpenMongo(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database)
		if err != nil {
			return nil, err
		}
		log.Info("story store ready", zap.String("driver", config.DriverMongo), zap.String("database", cfg.Storage.Mongo.Database))
		return s, nil
	}

	db, err := OpenSQL(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("story store ready", zap.String("driver", db.Driver()))
	return NewStoryStore(db), nil
}
