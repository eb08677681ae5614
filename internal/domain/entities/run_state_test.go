//go:build unit

package entities_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	builders "github.com/rios0rios0/monorelease/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/monorelease/test/infrastructure/repositorydoubles"
)

func newSeededState(persister entities.StatePersister) *entities.RunState {
	a := builders.NewPackageBuilder().WithName("a").BuildPackage()
	b := builders.NewPackageBuilder().WithName("b").BuildPackage()
	return entities.NewRunState(persister).
		SetQueue([]string{"a", "b"}).
		SetPackages(map[string]*entities.Package{"a": a, "b": b})
}

func TestRunStateSetStatus(t *testing.T) {
	t.Parallel()

	t.Run("should follow the global status machine", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)

		// when
		for _, status := range []entities.Status{
			entities.StatusAnalyzing,
			entities.StatusPending,
			entities.StatusBuilding,
			entities.StatusSuccess,
		} {
			require.NoError(t, state.SetStatus(status, ""))
		}

		// then
		assert.Equal(t, entities.StatusSuccess, state.Status(""))
	})

	t.Run("should reject leaving a terminal status", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)
		require.NoError(t, state.SetStatus(entities.StatusAnalyzing, "a"))
		require.NoError(t, state.SetStatus(entities.StatusSkipped, "a"))

		// when
		err := state.SetStatus(entities.StatusBuilding, "a")

		// then
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
		assert.Equal(t, entities.StatusSkipped, state.Status("a"))
	})

	t.Run("should reject moving backwards", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)
		require.NoError(t, state.SetStatus(entities.StatusAnalyzing, ""))
		require.NoError(t, state.SetStatus(entities.StatusPending, ""))

		// when
		err := state.SetStatus(entities.StatusAnalyzing, "")

		// then
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("should allow failure from any non terminal status", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)
		require.NoError(t, state.SetStatus(entities.StatusAnalyzing, "b"))
		require.NoError(t, state.SetStatus(entities.StatusBuilding, "b"))

		// when
		err := state.SetStatus(entities.StatusFailure, "b")

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusFailure, state.Status("b"))
	})

	t.Run("should reject an unknown package", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)

		// when
		err := state.SetStatus(entities.StatusAnalyzing, "missing")

		// then
		require.Error(t, err)
	})

	t.Run("should persist a snapshot on every status change", func(t *testing.T) {
		t.Parallel()

		// given
		persister := &doubles.SpyStatePersister{}
		state := newSeededState(persister)

		// when
		require.NoError(t, state.SetStatus(entities.StatusAnalyzing, ""))
		require.NoError(t, state.SetStatus(entities.StatusAnalyzing, "a"))

		// then
		assert.Equal(t, 2, persister.Count())
		var doc map[string]any
		require.NoError(t, json.Unmarshal(persister.Last(), &doc))
		assert.Equal(t, "analyzing", doc["status"])
		packages := doc["packages"].(map[string]any)
		assert.Equal(t, "analyzing", packages["a"].(map[string]any)["status"])
		assert.Equal(t, "initial", packages["b"].(map[string]any)["status"])
	})

	t.Run("should keep running when the persister fails", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(&doubles.SpyStatePersister{Err: errors.New("disk full")})

		// when
		err := state.SetStatus(entities.StatusAnalyzing, "")

		// then
		require.NoError(t, err)
	})
}

func TestRunStateSetGet(t *testing.T) {
	t.Parallel()

	t.Run("should write and read dotted paths", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)

		// when
		state.Set("meta.hash", "abc", "a").Set("extra.flag", true, "")

		// then
		assert.Equal(t, "abc", state.Get("meta.hash", "a"))
		assert.Equal(t, true, state.Get("extra.flag", ""))
		assert.Nil(t, state.Get("meta.missing", "a"))
		assert.Nil(t, state.Get("name", "missing"))
		assert.Equal(t, []string{"a", "b"}, state.Get("queue", ""))
	})
}

func TestRunStateLog(t *testing.T) {
	t.Parallel()

	t.Run("should record events with the global scope by default", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)

		// when
		state.Log("", logger.InfoLevel, "hello %s", "world")
		state.Log("a", logger.WarnLevel, "careful")

		// then
		events := state.Events()
		require.Len(t, events, 2)
		assert.Equal(t, entities.GlobalScope, events[0].Scope)
		assert.Equal(t, "hello world", events[0].Msg)
		assert.Equal(t, "info", events[0].Level)
		assert.Equal(t, "a", events[1].Scope)
		assert.Equal(t, "warning", events[1].Level)
	})

	t.Run("should be safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(&doubles.SpyStatePersister{})
		var wg sync.WaitGroup

		// when
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				state.Log("a", logger.DebugLevel, "event %d", i)
				state.Set("counter", i, "b")
				_, _ = json.Marshal(state)
			}()
		}
		wg.Wait()

		// then
		assert.Len(t, state.Events(), 20)
	})
}

func TestRunStateMarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("should include the report sections", func(t *testing.T) {
		t.Parallel()

		// given
		state := newSeededState(nil)
		state.Set("error", "boom", "")

		// when
		data, err := json.Marshal(state)

		// then
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, state.ID(), doc["id"])
		assert.Equal(t, "initial", doc["status"])
		assert.Equal(t, "boom", doc["error"])
		assert.Contains(t, doc, "events")
		assert.Len(t, doc["packages"], 2)
	})
}
