package schema_test

import (
	"jsonweblog/internal/model"
	"jsonweblog/internal/schema"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Uninitialized(t *testing.T) {
	tracker := schema.NewTracker()

	s := tracker.Schema()
	assert.False(t, s.Initialized)
	assert.Empty(t, s.Fields)
	assert.Nil(t, tracker.DefaultLayout())
}

func TestTracker_InitializeOnce(t *testing.T) {
	tracker := schema.NewTracker()

	assert.True(t, tracker.InitializeOnce([]string{"ts", "level", "msg"}))
	assert.False(t, tracker.InitializeOnce([]string{"other"}))

	s := tracker.Schema()
	assert.True(t, s.Initialized)
	assert.Equal(t, []string{"#", "ts", "level", "msg"}, s.Fields)
}

func TestTracker_SchemaIsACopy(t *testing.T) {
	tracker := schema.NewTracker()
	tracker.InitializeOnce([]string{"a"})

	s := tracker.Schema()
	s.Fields[1] = "mutated"

	assert.Equal(t, []string{"#", "a"}, tracker.Schema().Fields)
}

func TestTracker_DefaultLayout(t *testing.T) {
	tracker := schema.NewTracker()
	tracker.InitializeOnce([]string{"level", "msg"})

	layout := tracker.DefaultLayout()
	require.NotNil(t, layout)
	assert.Nil(t, layout.Theme)
	assert.Equal(t, []model.ColumnConfig{
		{FieldName: "#", Width: 80, Visible: true, Order: 0},
		{FieldName: "level", Width: 150, Visible: true, Order: 1},
		{FieldName: "msg", Width: 150, Visible: true, Order: 2},
	}, layout.Columns)
}

func TestTracker_ConcurrentInitialization(t *testing.T) {
	tracker := schema.NewTracker()

	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- tracker.InitializeOnce([]string{"x"})
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for won := range wins {
		if won {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
