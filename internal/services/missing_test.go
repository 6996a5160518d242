package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(missings []models.Missing) []uint64 {
	out := make([]uint64, 0, len(missings))
	for _, m := range missings {
		out = append(out, m.ID)
	}
	return out
}

func seedTriage(t *testing.T, f *fixture) (a, b, c *models.Missing) {
	t.Helper()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	a = testhelpers.SeedMissing(t, f.db, models.Missing{
		Title: "A", ElementID: e.ID, ArchitectID: f.architect.ID,
		Status: models.MissingLost, Urgent: false, CreatedAt: base.Add(time.Hour),
	})
	b = testhelpers.SeedMissing(t, f.db, models.Missing{
		Title: "B", ElementID: e.ID, ArchitectID: f.architect.ID,
		Status: models.MissingBroken, Urgent: true, CreatedAt: base,
	})
	c = testhelpers.SeedMissing(t, f.db, models.Missing{
		Title: "C", ElementID: e.ID, ArchitectID: f.architect.ID,
		Status: models.MissingOutOfStock, Urgent: true, CreatedAt: base.Add(2 * time.Hour),
	})
	return a, b, c
}

func TestListMissingsTriageOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := seedTriage(t, f)

	all, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{c.ID, b.ID, a.ID}, ids(all))

	urgent := true
	onlyUrgent, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{Urgent: &urgent})
	require.NoError(t, err)
	assert.Equal(t, []uint64{c.ID, b.ID}, ids(onlyUrgent))

	notUrgent := false
	rest, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{Urgent: &notUrgent})
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID}, ids(rest))

	broken := models.MissingBroken
	byStatus, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{Status: &broken})
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID}, ids(byStatus))
}

func TestListMissingsIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTriage(t, f)

	other := testhelpers.SeedArchitect(t, f.db, "Bruno")
	listed, err := f.inv.ListMissings(ctx, services.Actor{ID: other.ID, Kind: models.ActorArchitect}, services.MissingFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	admin := services.Actor{Kind: models.ActorAdmin}
	listed, err = f.inv.ListMissings(ctx, admin, services.MissingFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestChangeMissingStatusAnyToAny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _, _ := seedTriage(t, f)

	for _, status := range []models.MissingStatus{models.MissingOutOfStock, models.MissingBroken, models.MissingLost, models.MissingBroken} {
		change, err := f.inv.ChangeMissingStatus(ctx, f.owner, a.ID, status, nil)
		require.NoError(t, err)
		assert.Equal(t, status, change.Missing.Status)
		assert.Nil(t, change.Note)

		stored, err := f.inv.GetMissing(ctx, f.owner, a.ID)
		require.NoError(t, err)
		assert.Equal(t, status, stored.Status)
	}

	broken := models.MissingBroken
	listed, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{Status: &broken})
	require.NoError(t, err)
	assert.Contains(t, ids(listed), a.ID)
}

func TestChangeMissingStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _, _ := seedTriage(t, f)

	_, err := f.inv.ChangeMissingStatus(ctx, f.owner, a.ID, "ARREGLADO", nil)
	require.ErrorIs(t, err, services.ErrInvalidStatus)

	stored, err := f.inv.GetMissing(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissingLost, stored.Status)
	assert.Zero(t, testhelpers.CountEvents(t, f.db, models.TableMissing, a.ID))
}

func TestResolveMissingAttachesNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _, _ := seedTriage(t, f)

	change, err := f.inv.ResolveMissing(ctx, f.owner, a.ID, models.MissingOutOfStock, &services.NoteInput{
		Title: "Reposicion",
		Text:  "Pedido al corralon",
	})
	require.NoError(t, err)
	require.NotNil(t, change.Note)
	require.NotNil(t, change.Note.MissingID)
	assert.Equal(t, a.ID, *change.Note.MissingID)
	require.NotNil(t, change.Note.ElementID)
	assert.Equal(t, a.ElementID, *change.Note.ElementID)

	notes, err := f.inv.ListNotes(ctx, f.owner, services.NoteFilter{MissingID: &a.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Pedido al corralon", notes[0].Text)

	assert.EqualValues(t, 1, testhelpers.CountEvents(t, f.db, models.TableMissing, a.ID))
	assert.Zero(t, testhelpers.CountEvents(t, f.db, models.TableNote, change.Note.ID))
}

func TestReportMissingByWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.ConstructionLocation(f.site.ID))

	worker := services.Actor{ID: f.w1.ID, Kind: models.ActorWorker}
	m, err := f.inv.ReportMissing(ctx, worker, services.ReportInput{
		ElementID: e.ID,
		Title:     "Se rompio el mango",
		Status:    models.MissingBroken,
		Urgent:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, m.ConstructionWorkerID)
	assert.Equal(t, f.w1.ID, *m.ConstructionWorkerID)
	require.NotNil(t, m.ConstructionID)
	assert.Equal(t, f.site.ID, *m.ConstructionID)
	assert.Equal(t, f.architect.ID, m.ArchitectID)

	_, err = f.inv.ReportMissing(ctx, f.owner, services.ReportInput{ElementID: e.ID, Title: "x", Status: "OTRO"})
	require.ErrorIs(t, err, services.ErrInvalidStatus)
}

func TestUpdateMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := seedTriage(t, f)

	urgent := true
	title := "A urgente"
	updated, err := f.inv.UpdateMissing(ctx, f.owner, a.ID, services.MissingUpdate{Title: &title, Urgent: &urgent})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.Urgent)

	all, err := f.inv.ListMissings(ctx, f.owner, services.MissingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{c.ID, a.ID, b.ID}, ids(all))
}
