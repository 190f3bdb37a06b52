package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/quiethours/scheduler/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrSerializationFailure = "40001"

const blockColumns = "id, owner_id, title, description, start_timestamp, end_timestamp, " +
	"reminder_sent, created_at, updated_at"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) ListBlocks(ctx context.Context, ownerID string) ([]storage.Block, error) {
	blocks := make([]storage.Block, 0)
	err := s.db.SelectContext(
		ctx,
		&blocks,
		"SELECT "+blockColumns+" FROM study_blocks WHERE owner_id=$1 ORDER BY start_timestamp",
		ownerID,
	)
	return blocks, err
}

func (s *Storage) AddBlock(ctx context.Context, b *storage.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.StartTime.Before(time.Now()) {
		return fmt.Errorf("start time cannot be in the past: %w", storage.ErrInvalidBlock)
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.ReminderSent = false
	b.CreatedAt = now
	b.UpdatedAt = now

	return s.inSerializableTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkOverlap(ctx, tx, *b, b.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(
			ctx,
			"INSERT INTO study_blocks(id, owner_id, title, description, start_timestamp, end_timestamp, "+
				"reminder_sent, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6, FALSE, $7, $7)",
			b.ID, b.OwnerID, b.Title, b.Description, b.StartTime.UTC(), b.EndTime.UTC(), now)
		return err
	})
}

func (s *Storage) UpdateBlock(ctx context.Context, ownerID string, id string, b storage.Block) (storage.Block, error) {
	if err := b.Validate(); err != nil {
		return storage.Block{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return storage.Block{}, fmt.Errorf("failed to update block with id %q: %w", id, storage.ErrNotFoundBlock)
	}

	var updated storage.Block
	err := s.inSerializableTx(ctx, func(tx *sqlx.Tx) error {
		var prev storage.Block
		err := tx.GetContext(
			ctx,
			&prev,
			"SELECT "+blockColumns+" FROM study_blocks WHERE id=$1 AND owner_id=$2",
			id, ownerID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to update block with id %q: %w", id, storage.ErrNotFoundBlock)
		}
		if err != nil {
			return err
		}

		b.ID = id
		b.OwnerID = ownerID
		if err := checkOverlap(ctx, tx, b, id); err != nil {
			return err
		}

		b.ReminderSent = prev.ReminderSent
		b.CreatedAt = prev.CreatedAt
		b.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(
			ctx,
			"UPDATE study_blocks SET title=$3, description=$4, start_timestamp=$5, end_timestamp=$6, "+
				"updated_at=$7 WHERE id=$1 AND owner_id=$2",
			id, ownerID, b.Title, b.Description, b.StartTime.UTC(), b.EndTime.UTC(), b.UpdatedAt)
		if err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return storage.Block{}, err
	}
	return updated, nil
}

func (s *Storage) RemoveBlock(ctx context.Context, ownerID string, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("failed to remove block with id %q: %w", id, storage.ErrNotFoundBlock)
	}

	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"DELETE FROM study_blocks WHERE id=$1 AND owner_id=$2 RETURNING TRUE",
		id, ownerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove block with id %q: %w", id, storage.ErrNotFoundBlock)
	}
	return err
}

// ClaimDueBlocks flips the reminder flag for every unsent block starting in
// [from:to) and returns exactly the flipped set. A single conditional UPDATE
// keeps concurrent scanner runs from claiming the same block twice.
func (s *Storage) ClaimDueBlocks(ctx context.Context, from time.Time, to time.Time) ([]storage.Block, error) {
	blocks := make([]storage.Block, 0)
	err := s.db.SelectContext(
		ctx,
		&blocks,
		"UPDATE study_blocks SET reminder_sent=TRUE, updated_at=$3 "+
			"WHERE reminder_sent=FALSE AND start_timestamp>=$1 AND start_timestamp<$2 "+
			"RETURNING "+blockColumns,
		from.UTC(), to.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].StartTime.Before(blocks[j].StartTime)
	})
	return blocks, nil
}

func checkOverlap(ctx context.Context, tx *sqlx.Tx, b storage.Block, excludeID string) error {
	var conflict bool
	err := tx.GetContext(
		ctx,
		&conflict,
		"SELECT EXISTS(SELECT 1 FROM study_blocks "+
			"WHERE owner_id=$1 AND id<>$2 AND start_timestamp<$3 AND end_timestamp>$4)",
		b.OwnerID, excludeID, b.EndTime.UTC(), b.StartTime.UTC(),
	)
	if err != nil {
		return err
	}
	if conflict {
		return fmt.Errorf("time slot is already taken: %w", storage.ErrBlockOverlap)
	}
	return nil
}

// inSerializableTx runs fn inside a serializable transaction so the overlap
// check and the following write cannot interleave with a concurrent submission
// for the same owner. Serialization failures are retried a couple of times.
func (s *Storage) inSerializableTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.runTx(ctx, fn)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == dbErrSerializationFailure && attempt < 2 {
			log.Debugf("serialization failure, retrying (attempt %d)", attempt+1)
			continue
		}
		return err
	}
}

func (s *Storage) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorf("failed to rollback: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}
