package mover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/types"
)

func defaultRule() Rule {
	return Rule{
		RecordID:        "dt733250_dragshowsa",
		IDField:         "id",
		TypeField:       "type",
		FromPrefix:      "dt",
		ToPrefix:        "sp",
		DestinationType: "special events",
	}
}

func dayTrips() *types.Dataset {
	return &types.Dataset{
		Path:   "day_trips_standardized.csv",
		Header: []string{"id", "type", "name"},
		Records: []types.Record{
			{"id": "dt733250_dragshowsa", "type": "day trips", "name": "Drag Show A"},
			{"id": "dt001", "type": "day trips", "name": "Other"},
		},
	}
}

func specialEvents() *types.Dataset {
	return &types.Dataset{
		Path:   "special_events_standardized.csv",
		Header: []string{"id", "type", "name"},
		Records: []types.Record{
			{"id": "sp100", "type": "special events", "name": "Gala"},
		},
	}
}

func TestMove(t *testing.T) {
	source, destination := dayTrips(), specialEvents()

	res, err := Move(source, destination, defaultRule())
	require.NoError(t, err)

	assert.Equal(t, []types.Record{
		{"id": "dt001", "type": "day trips", "name": "Other"},
	}, res.Source.Records)

	assert.Equal(t, []types.Record{
		{"id": "sp100", "type": "special events", "name": "Gala"},
		{"id": "sp733250_dragshowsa", "type": "special events", "name": "Drag Show A"},
	}, res.Destination.Records)

	assert.Equal(t, "dt733250_dragshowsa", res.Original["id"])
	assert.Equal(t, "day trips", res.Original["type"])
	assert.Equal(t, "sp733250_dragshowsa", res.Moved["id"])
	assert.Equal(t, 0, res.SourceIndex)

	assert.Equal(t, source.Len()+destination.Len(), res.Source.Len()+res.Destination.Len())
	assert.Equal(t, source.Header, res.Source.Header)
	assert.Equal(t, destination.Header, res.Destination.Header)
}

func TestMoveDoesNotMutateInputs(t *testing.T) {
	source, destination := dayTrips(), specialEvents()

	_, err := Move(source, destination, defaultRule())
	require.NoError(t, err)

	assert.Equal(t, dayTrips(), source)
	assert.Equal(t, specialEvents(), destination)
}

func TestMoveLeavesSourceEmpty(t *testing.T) {
	source := dayTrips()
	source.Records = source.Records[:1]

	res, err := Move(source, specialEvents(), defaultRule())
	require.NoError(t, err)

	assert.Empty(t, res.Source.Records)
	assert.Equal(t, []string{"id", "type", "name"}, res.Source.Header)
}

func TestMoveFillsFieldsMissingFromRecord(t *testing.T) {
	destination := specialEvents()
	destination.Header = append(destination.Header, "venue")

	res, err := Move(dayTrips(), destination, defaultRule())
	require.NoError(t, err)

	moved := res.Destination.Records[res.Destination.Len()-1]
	_, hasVenue := moved["venue"]
	assert.False(t, hasVenue)
	assert.Equal(t, "Drag Show A", moved["name"])
}

func TestMoveSecondRunIsNotFound(t *testing.T) {
	res, err := Move(dayTrips(), specialEvents(), defaultRule())
	require.NoError(t, err)

	_, err = Move(res.Source, res.Destination, defaultRule())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}

func TestMoveErrors(t *testing.T) {
	tests := []struct {
		name        string
		source      func() *types.Dataset
		destination func() *types.Dataset
		rule        func() Rule
		wantErr     error
	}{
		{
			name:        "not_found",
			source:      dayTrips,
			destination: specialEvents,
			rule: func() Rule {
				r := defaultRule()
				r.RecordID = "dt999_missing"
				return r
			},
			wantErr: ErrRecordNotFound,
		},
		{
			name: "duplicate_in_source",
			source: func() *types.Dataset {
				ds := dayTrips()
				ds.Records = append(ds.Records, ds.Records[0].Clone())
				return ds
			},
			destination: specialEvents,
			rule:        defaultRule,
			wantErr:     ErrDuplicateRecord,
		},
		{
			name:   "already_in_destination",
			source: dayTrips,
			destination: func() *types.Dataset {
				ds := specialEvents()
				ds.Records = append(ds.Records, types.Record{"id": "sp733250_dragshowsa", "type": "special events", "name": "x"})
				return ds
			},
			rule:    defaultRule,
			wantErr: ErrDuplicateRecord,
		},
		{
			name: "prefix_mismatch",
			source: func() *types.Dataset {
				ds := dayTrips()
				ds.Records[0]["id"] = "xx733250_dragshowsa"
				return ds
			},
			destination: specialEvents,
			rule: func() Rule {
				r := defaultRule()
				r.RecordID = "xx733250_dragshowsa"
				return r
			},
			wantErr: ErrPrefixMismatch,
		},
		{
			name: "field_mismatch",
			source: func() *types.Dataset {
				ds := dayTrips()
				ds.Header = append(ds.Header, "distance")
				for _, r := range ds.Records {
					r["distance"] = "10mi"
				}
				return ds
			},
			destination: specialEvents,
			rule:        defaultRule,
			wantErr:     ErrFieldMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Move(tt.source(), tt.destination(), tt.rule())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRuleNewID(t *testing.T) {
	id, err := defaultRule().NewID()
	require.NoError(t, err)
	assert.Equal(t, "sp733250_dragshowsa", id)

	// only the leading prefix is swapped
	r := defaultRule()
	r.RecordID = "dt_sandt"
	id, err = r.NewID()
	require.NoError(t, err)
	assert.Equal(t, "sp_sandt", id)
}
