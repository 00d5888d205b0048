package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

// DeviceRepo implements domain.DeviceStore on the device_store table
type DeviceRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewDeviceRepo(log zerolog.Logger, db *DB) domain.DeviceStore {
	return &DeviceRepo{
		log: log.With().Str("repo", "device").Logger(),
		db:  db,
	}
}

func (r *DeviceRepo) Load(ctx context.Context, key string) ([]byte, error) {
	queryBuilder := r.db.squirrel.
		Select("value").
		From("device_store").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Load")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	var value []byte
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	return value, nil
}

// Save replaces the whole value stored under key
func (r *DeviceRepo) Save(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	queryBuilder := r.db.squirrel.
		Replace("device_store").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC().Format(time.RFC3339))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Str("key", key).Int("size", len(value)).Msg("Save")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

func (r *DeviceRepo) Remove(ctx context.Context, key string) error {
	queryBuilder := r.db.squirrel.
		Delete("device_store").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Remove")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing delete query")
	}

	return nil
}
