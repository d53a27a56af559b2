package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

func mockTable(ctrl *gomock.Controller, id util.TableID) *file.MockTableFile {
	f := file.NewMockTableFile(ctrl)
	f.EXPECT().ID().Return(id).AnyTimes()
	return f
}

func TestCatalogAddTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := New()

	users := mockTable(ctrl, 1)
	orders := mockTable(ctrl, 2)
	require.NoError(t, c.AddTable(orders, Schema{Name: "orders", TupleSize: 32}))
	require.NoError(t, c.AddTable(users, Schema{Name: "users", TupleSize: 64}))

	tests := []struct {
		name   string
		file   file.TableFile
		schema Schema
		err    error
	}{
		{"DuplicateID", mockTable(ctrl, 1), Schema{Name: "other", TupleSize: 8}, util.ErrTableExists},
		{"DuplicateName", mockTable(ctrl, 3), Schema{Name: "users", TupleSize: 8}, util.ErrTableExists},
		{"BadTupleSize", mockTable(ctrl, 4), Schema{Name: "zero"}, util.ErrInvalidTupleSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.AddTable(tt.file, tt.schema), tt.err)
		})
	}

	assert.Equal(t, []util.TableID{1, 2}, c.Tables())

	f, err := c.TableFile(1)
	require.NoError(t, err)
	assert.Same(t, users, f)

	s, err := c.Schema(2)
	require.NoError(t, err)
	assert.Equal(t, 32, s.TupleSize)

	id, err := c.TableID("users")
	require.NoError(t, err)
	assert.Equal(t, util.TableID(1), id)
}

func TestCatalogNotFound(t *testing.T) {
	c := New()

	_, err := c.TableFile(9)
	assert.ErrorIs(t, err, util.ErrTableNotFound)
	_, err = c.Schema(9)
	assert.ErrorIs(t, err, util.ErrTableNotFound)
	_, err = c.TableID("nope")
	assert.ErrorIs(t, err, util.ErrTableNotFound)
}

func TestCatalogClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := New()

	a, b := mockTable(ctrl, 1), mockTable(ctrl, 2)
	a.EXPECT().Close().Return(nil)
	b.EXPECT().Close().Return(errors.New("disk gone"))
	require.NoError(t, c.AddTable(a, Schema{Name: "a", TupleSize: 4}))
	require.NoError(t, c.AddTable(b, Schema{Name: "b", TupleSize: 4}))

	err := c.Close()
	assert.ErrorContains(t, err, "disk gone")
	assert.Empty(t, c.Tables())
}
