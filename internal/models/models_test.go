package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationColumns(t *testing.T) {
	kind, id := Location{Kind: LocationDeposit, ID: 4}.columns()
	require.NotNil(t, kind)
	require.NotNil(t, id)
	assert.Equal(t, "deposit", *kind)
	assert.Equal(t, uint64(4), *id)

	kind, id = NoLocation.columns()
	assert.Nil(t, kind)
	assert.Nil(t, id)

	assert.Equal(t, NoLocation, locationFromColumns(nil, nil))
	assert.True(t, Location{}.IsNone())
}

func TestElementLocationRoundTrip(t *testing.T) {
	var e Element
	assert.True(t, e.Location().IsNone())

	e.SetLocation(Location{Kind: LocationWorker, ID: 9})
	assert.Equal(t, Location{Kind: LocationWorker, ID: 9}, e.Location())

	e.SetLocation(NoLocation)
	assert.Nil(t, e.CurrentLocationType)
	assert.Nil(t, e.CurrentLocationID)
}

func TestAssignmentFrom(t *testing.T) {
	a := Assignment{}
	assert.True(t, a.IsOpen())
	assert.True(t, a.From().IsNone())

	a.SetFrom(Location{Kind: LocationConstruction, ID: 2})
	assert.Equal(t, Location{Kind: LocationConstruction, ID: 2}, a.From())
}

func TestKinds(t *testing.T) {
	assert.True(t, LocationNone.Valid())
	assert.False(t, LocationKind("garage").Valid())
	assert.True(t, MissingBroken.Valid())
	assert.False(t, MissingStatus("FIXED").Valid())
	assert.True(t, ActorAdmin.Valid())
	assert.False(t, ActorKind("foreman").Valid())
}

func TestJSONSnapshot(t *testing.T) {
	empty := NewJSON(nil)
	assert.True(t, empty.IsNull())
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	raw, err := json.Marshal(struct {
		Old JSON `json:"old"`
		New JSON `json:"new"`
	}{New: NewJSON([]byte(`{"name":"D1"}`))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":null,"new":{"name":"D1"}}`, string(raw))

	var back JSON
	require.NoError(t, back.Scan(`{"a":1}`))
	assert.JSONEq(t, `{"a":1}`, string(back.JSON))
	require.NoError(t, back.Scan(nil))
	assert.True(t, back.IsNull())
}
