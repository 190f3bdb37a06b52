package memorystorage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quiethours/scheduler/internal/storage"
	memorystorage "github.com/quiethours/scheduler/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

var initDate = time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)

func newBlock(owner string, startMin, endMin int) storage.Block {
	return storage.Block{
		OwnerID:     owner,
		Title:       "test",
		Description: "description",
		StartTime:   initDate.Add(time.Duration(startMin) * time.Minute),
		EndTime:     initDate.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("add and list sorted by start time", func(t *testing.T) {
		s := memorystorage.New()

		second := newBlock("owner", 120, 180)
		first := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &second))
		require.NoError(t, s.AddBlock(ctx, &first))
		require.NotEmpty(t, first.ID)
		require.False(t, first.CreatedAt.IsZero())

		blocks, err := s.ListBlocks(ctx, "owner")
		require.NoError(t, err)
		require.Equal(t, 2, len(blocks))
		require.Equal(t, first.ID, blocks[0].ID)
		require.Equal(t, second.ID, blocks[1].ID)
	})

	t.Run("list is owner scoped", func(t *testing.T) {
		s := memorystorage.New()

		mine := newBlock("owner", 0, 60)
		theirs := newBlock("other", 120, 180)
		require.NoError(t, s.AddBlock(ctx, &mine))
		require.NoError(t, s.AddBlock(ctx, &theirs))

		blocks, err := s.ListBlocks(ctx, "owner")
		require.NoError(t, err)
		require.Equal(t, 1, len(blocks))
		require.Equal(t, mine.ID, blocks[0].ID)
	})

	t.Run("touching endpoints do not conflict", func(t *testing.T) {
		s := memorystorage.New()

		a := newBlock("owner", 0, 60)
		b := newBlock("owner", 60, 120)
		require.NoError(t, s.AddBlock(ctx, &a))
		require.NoError(t, s.AddBlock(ctx, &b))
	})

	t.Run("overlap is rejected", func(t *testing.T) {
		s := memorystorage.New()

		a := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &a))

		b := newBlock("owner", 59, 61)
		require.ErrorIs(t, s.AddBlock(ctx, &b), storage.ErrBlockOverlap)

		contained := newBlock("owner", 30, 45)
		require.ErrorIs(t, s.AddBlock(ctx, &contained), storage.ErrBlockOverlap)
	})

	t.Run("identical intervals for different owners do not conflict", func(t *testing.T) {
		s := memorystorage.New()

		a := newBlock("owner-a", 0, 60)
		b := newBlock("owner-b", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &a))
		require.NoError(t, s.AddBlock(ctx, &b))
	})

	t.Run("update keeps unchanged times without conflict", func(t *testing.T) {
		s := memorystorage.New()

		b := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &b))

		b.Title = "updated title"
		updated, err := s.UpdateBlock(ctx, "owner", b.ID, b)
		require.NoError(t, err)
		require.Equal(t, "updated title", updated.Title)
		require.True(t, updated.StartTime.Equal(b.StartTime))
	})

	t.Run("update rejects overlap with other blocks", func(t *testing.T) {
		s := memorystorage.New()

		a := newBlock("owner", 0, 60)
		b := newBlock("owner", 120, 180)
		require.NoError(t, s.AddBlock(ctx, &a))
		require.NoError(t, s.AddBlock(ctx, &b))

		moved := newBlock("owner", 30, 90)
		_, err := s.UpdateBlock(ctx, "owner", b.ID, moved)
		require.ErrorIs(t, err, storage.ErrBlockOverlap)
	})

	t.Run("update under wrong owner reports not found", func(t *testing.T) {
		s := memorystorage.New()

		b := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &b))

		_, err := s.UpdateBlock(ctx, "other", b.ID, newBlock("other", 0, 60))
		require.ErrorIs(t, err, storage.ErrNotFoundBlock)
	})

	t.Run("delete", func(t *testing.T) {
		s := memorystorage.New()

		b := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &b))
		require.NoError(t, s.RemoveBlock(ctx, "owner", b.ID))

		blocks, err := s.ListBlocks(ctx, "owner")
		require.NoError(t, err)
		require.Equal(t, 0, len(blocks))
	})

	t.Run("delete under wrong owner reports not found", func(t *testing.T) {
		s := memorystorage.New()

		b := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &b))
		require.ErrorIs(t, s.RemoveBlock(ctx, "other", b.ID), storage.ErrNotFoundBlock)
	})
}

func TestStorageNegativeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("empty title", func(t *testing.T) {
		s := memorystorage.New()
		b := newBlock("owner", 0, 60)
		b.Title = ""
		require.ErrorIs(t, s.AddBlock(ctx, &b), storage.ErrInvalidBlock)
	})

	t.Run("past start time", func(t *testing.T) {
		s := memorystorage.New()
		b := storage.Block{
			OwnerID:   "owner",
			Title:     "test",
			StartTime: time.Now().Add(-time.Minute),
			EndTime:   time.Now().Add(time.Hour),
		}
		require.ErrorIs(t, s.AddBlock(ctx, &b), storage.ErrInvalidBlock)
	})

	t.Run("inverted times fail before any overlap check", func(t *testing.T) {
		s := memorystorage.New()
		existing := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &existing))

		// would overlap the existing block, but validation must win
		b := newBlock("owner", 30, 0)
		err := s.AddBlock(ctx, &b)
		require.ErrorIs(t, err, storage.ErrInvalidBlock)
		require.NotErrorIs(t, err, storage.ErrBlockOverlap)
	})

	t.Run("update past start is allowed", func(t *testing.T) {
		s := memorystorage.New()
		b := newBlock("owner", 0, 60)
		require.NoError(t, s.AddBlock(ctx, &b))

		// editing a block whose original start has passed stays legal
		edited := b
		edited.StartTime = time.Now().Add(-2 * time.Hour)
		edited.EndTime = time.Now().Add(-time.Hour)
		_, err := s.UpdateBlock(ctx, "owner", b.ID, edited)
		require.NoError(t, err)
	})

	t.Run("update not existing block", func(t *testing.T) {
		s := memorystorage.New()
		_, err := s.UpdateBlock(ctx, "owner", "___not_exists___", newBlock("owner", 0, 60))
		require.ErrorIs(t, err, storage.ErrNotFoundBlock)
	})

	t.Run("delete not existing block", func(t *testing.T) {
		s := memorystorage.New()
		require.ErrorIs(t, s.RemoveBlock(ctx, "owner", "___not_exists___"), storage.ErrNotFoundBlock)
	})
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := memorystorage.New()

	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := storage.Block{OwnerID: "owner", Title: "test", StartTime: start, EndTime: end}
			errs[i] = s.AddBlock(ctx, &b)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, storage.ErrBlockOverlap)
	}
	require.Equal(t, 1, succeeded)
}

func TestClaimDueBlocks(t *testing.T) {
	ctx := context.Background()

	t.Run("window boundaries", func(t *testing.T) {
		s := memorystorage.New()

		now := time.Now()
		inside := storage.Block{OwnerID: "owner", Title: "inside", StartTime: now.Add(10*time.Minute - time.Second), EndTime: now.Add(time.Hour)}
		outside := storage.Block{OwnerID: "owner", Title: "outside", StartTime: now.Add(10*time.Minute + time.Second), EndTime: now.Add(time.Hour)}
		require.NoError(t, s.AddBlock(ctx, &inside))
		require.NoError(t, s.AddBlock(ctx, &outside))

		claimed, err := s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, len(claimed))
		require.Equal(t, inside.ID, claimed[0].ID)
		require.True(t, claimed[0].ReminderSent)
	})

	t.Run("claim is idempotent", func(t *testing.T) {
		s := memorystorage.New()

		now := time.Now()
		b := storage.Block{OwnerID: "owner", Title: "test", StartTime: now.Add(5 * time.Minute), EndTime: now.Add(time.Hour)}
		require.NoError(t, s.AddBlock(ctx, &b))

		claimed, err := s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, len(claimed))

		claimed, err = s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 0, len(claimed))
	})

	t.Run("claimed blocks are returned sorted", func(t *testing.T) {
		s := memorystorage.New()

		now := time.Now()
		later := storage.Block{OwnerID: "owner", Title: "later", StartTime: now.Add(8 * time.Minute), EndTime: now.Add(9 * time.Minute)}
		sooner := storage.Block{OwnerID: "owner", Title: "sooner", StartTime: now.Add(2 * time.Minute), EndTime: now.Add(3 * time.Minute)}
		require.NoError(t, s.AddBlock(ctx, &later))
		require.NoError(t, s.AddBlock(ctx, &sooner))

		claimed, err := s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 2, len(claimed))
		require.Equal(t, "sooner", claimed[0].Title)
		require.Equal(t, "later", claimed[1].Title)
	})

	t.Run("update keeps the sent flag", func(t *testing.T) {
		s := memorystorage.New()

		now := time.Now()
		b := storage.Block{OwnerID: "owner", Title: "test", StartTime: now.Add(5 * time.Minute), EndTime: now.Add(time.Hour)}
		require.NoError(t, s.AddBlock(ctx, &b))

		claimed, err := s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, len(claimed))

		edited := b
		edited.Title = "edited"
		updated, err := s.UpdateBlock(ctx, "owner", b.ID, edited)
		require.NoError(t, err)
		require.True(t, updated.ReminderSent)

		claimed, err = s.ClaimDueBlocks(ctx, now, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 0, len(claimed))
	})
}
