package parquetutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name   string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Index  int64  `parquet:"name=index, type=INT64"`
}

func TestWriteAllReadAll(t *testing.T) {
	t.Parallel()
	rows := []row{
		{Name: "a", Amount: "100000000000000000000", Index: 0},
		{Name: "b", Amount: "7", Index: 1},
	}

	file := NewBufferFile(nil)
	require.NoError(t, WriteAll(file, rows))

	got, err := ReadAll[row](NewBufferFile(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
