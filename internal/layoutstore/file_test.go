package layoutstore_test

import (
	"context"
	"jsonweblog/internal/layoutstore"
	"jsonweblog/internal/model"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	s := layoutstore.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	layout, err := s.Load(context.Background())
	assert.Nil(t, layout)
	assert.ErrorIs(t, err, layoutstore.ErrLayoutNotFound)
}

func TestFileStore_LoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := layoutstore.NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, layoutstore.ErrLayoutNotFound)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := layoutstore.NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, layoutstore.ErrLayoutNotFound)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := layoutstore.NewFileStore(path)
	theme := "dark"

	first := &model.TableLayout{
		Theme: &theme,
		Columns: []model.ColumnConfig{
			{FieldName: "#", Width: 80, Visible: true, Order: 0},
			{FieldName: "msg", Width: 300, Visible: false, Order: 1},
		},
	}
	require.NoError(t, s.Save(context.Background(), first))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	second := &model.TableLayout{Columns: []model.ColumnConfig{{FieldName: "level", Width: 100, Visible: true}}}
	require.NoError(t, s.Save(context.Background(), second))

	loaded, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := layoutstore.NewFileStore(path)

	require.NoError(t, s.Save(context.Background(), &model.TableLayout{
		Columns: []model.ColumnConfig{{FieldName: "#", Width: 80, Visible: true, Order: 0}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"field_name":"#","width":80,"visible":true,"order":0}]}`, string(data))
}

func TestFileStore_SaveNil(t *testing.T) {
	s := layoutstore.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	assert.Error(t, s.Save(context.Background(), nil))
}
