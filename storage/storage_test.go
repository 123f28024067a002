package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		repos, err := Open(context.Background(), &core.Config{Database: core.DatabaseConfig{Engine: core.EngineMemory}})
		require.NoError(t, err)
		assert.NotNil(t, repos.Users)
		assert.NotNil(t, repos.ExamRecords)
		assert.NoError(t, repos.Close())
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, err := Open(context.Background(), &core.Config{Database: core.DatabaseConfig{Engine: "cassandra"}})
		assert.EqualError(t, err, `unknown database engine "cassandra"`)
	})
}
