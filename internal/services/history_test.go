package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		table  string
		action models.Action
		want   Description
	}{
		{models.TableElement, models.ActionAssign, Description{Text: "Element assigned", Known: true}},
		{models.TableElement, models.ActionReturn, Description{Text: "Element returned", Known: true}},
		{models.TableConstruction, models.ActionClose, Description{Text: "Construction closed", Known: true}},
		{models.TableArchitect, models.ActionLogin, Description{Text: "Logged in", Known: true}},
		{models.TableMissing, models.ActionCreate, Description{Text: "Missing item reported", Known: true}},
		{models.TableDeposit, models.ActionLogin, Description{Text: UndefinedAction}},
		{models.TableDeposit, models.ActionUpdate, Description{Text: UndefinedAction}},
		{models.TableConstruction, models.ActionDelete, Description{Text: UndefinedAction}},
		{models.TableMissing, models.ActionDelete, Description{Text: UndefinedAction}},
		{"warehouse", models.ActionCreate, Description{Text: UndefinedAction}},
	}

	for _, tt := range tests {
		t.Run(tt.table+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.table, tt.action))
		})
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("nil stores null", func(t *testing.T) {
		assert.True(t, snapshot(nil).IsNull())
	})

	t.Run("struct is projected through its json tags", func(t *testing.T) {
		got := snapshot(&models.Deposit{ID: 7, Name: "D1", ArchitectID: 3})
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(got.JSON, &decoded))
		assert.Equal(t, "D1", decoded["name"])
		assert.EqualValues(t, 7, decoded["id"])
	})

	t.Run("unserializable value keeps its printed form", func(t *testing.T) {
		got := snapshot(struct{ F func() }{F: func() {}})
		var decoded string
		require.NoError(t, json.Unmarshal(got.JSON, &decoded))
		assert.True(t, strings.HasPrefix(decoded, "{F:"), decoded)
	})
}

func TestRecordWarnsOnUnknownAction(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	recorder := NewHistoryRecorder(zap.New(core))

	row, err := recorder.Record(db, Event{
		Table:    models.TableDeposit,
		RecordID: 1,
		Action:   models.ActionLogin,
		Actor:    Actor{Kind: models.ActorAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, UndefinedAction, row.Action)
	assert.Nil(t, row.ArchitectID)
	assert.Equal(t, 1, logs.FilterMessage("Undefined history action").Len())
}

func TestRecordBestEffortSwallowsFailure(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.EventHistory{}))

	core, logs := observer.New(zapcore.ErrorLevel)
	recorder := NewHistoryRecorder(zap.New(core))

	row := recorder.RecordBestEffort(db, Event{
		Table:    models.TableDeposit,
		RecordID: 1,
		Action:   models.ActionCreate,
		Actor:    Actor{ID: 1, Kind: models.ActorArchitect},
	})
	assert.Nil(t, row)
	assert.Equal(t, 1, logs.FilterMessage("History write failed").Len())
}
