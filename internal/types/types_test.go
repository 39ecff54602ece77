package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetIndexesOf(t *testing.T) {
	ds := &Dataset{
		Header: []string{"id", "type"},
		Records: []Record{
			{"id": "dt1", "type": "day trips"},
			{"id": "dt2", "type": "day trips"},
			{"id": "dt1", "type": "day trips"},
		},
	}

	assert.Equal(t, []int{0, 2}, ds.IndexesOf("id", "dt1"))
	assert.Empty(t, ds.IndexesOf("id", "sp1"))
	assert.True(t, ds.HasField("type"))
	assert.False(t, ds.HasField("name"))
	assert.Equal(t, 3, ds.Len())
}

func TestDatasetCloneIsIndependent(t *testing.T) {
	ds := &Dataset{
		Path:    "a.csv",
		Header:  []string{"id"},
		Records: []Record{{"id": "dt1"}},
	}

	clone := ds.Clone()
	clone.Header[0] = "changed"
	clone.Records[0]["id"] = "changed"
	clone.Records = append(clone.Records, Record{"id": "dt2"})

	require.Len(t, ds.Records, 1)
	assert.Equal(t, "id", ds.Header[0])
	assert.Equal(t, "dt1", ds.Records[0]["id"])
	assert.Equal(t, "a.csv", clone.Path)
}
