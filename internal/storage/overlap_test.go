package storage_test

import (
	"testing"
	"time"

	"github.com/quiethours/scheduler/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	block := func(startMin, endMin int) storage.Block {
		return storage.Block{
			StartTime: base.Add(time.Duration(startMin) * time.Minute),
			EndTime:   base.Add(time.Duration(endMin) * time.Minute),
		}
	}

	tests := []struct {
		name string
		a    storage.Block
		b    storage.Block
		want bool
	}{
		{"disjoint", block(0, 30), block(60, 90), false},
		{"touching endpoints", block(0, 60), block(60, 120), false},
		{"one minute over the boundary", block(0, 60), block(59, 61), true},
		{"contained", block(0, 120), block(30, 45), true},
		{"identical", block(0, 60), block(0, 60), true},
		{"partial head overlap", block(30, 90), block(0, 45), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, storage.Overlaps(tt.a, tt.b))
			// conflict detection must not depend on argument order
			require.Equal(t, tt.want, storage.Overlaps(tt.b, tt.a))
		})
	}
}

func TestBlockValidate(t *testing.T) {
	start := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		b := storage.Block{Title: "math", StartTime: start, EndTime: start.Add(time.Hour)}
		require.NoError(t, b.Validate())
	})

	t.Run("empty title", func(t *testing.T) {
		b := storage.Block{Title: "  ", StartTime: start, EndTime: start.Add(time.Hour)}
		require.ErrorIs(t, b.Validate(), storage.ErrInvalidBlock)
	})

	t.Run("missing times", func(t *testing.T) {
		b := storage.Block{Title: "math"}
		require.ErrorIs(t, b.Validate(), storage.ErrInvalidBlock)
	})

	t.Run("inverted times", func(t *testing.T) {
		b := storage.Block{Title: "math", StartTime: start.Add(time.Hour), EndTime: start}
		require.ErrorIs(t, b.Validate(), storage.ErrInvalidBlock)
	})

	t.Run("zero duration", func(t *testing.T) {
		b := storage.Block{Title: "math", StartTime: start, EndTime: start}
		require.ErrorIs(t, b.Validate(), storage.ErrInvalidBlock)
	})
}
