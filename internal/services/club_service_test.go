package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/services"
)

func TestClubCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("new clubs start pending", func(t *testing.T) {
		club, err := f.clubs.Create(ctx, managerEmail, services.CreateClubInput{
			ClubName:    "Photography",
			Description: "Shoot together",
			Category:    "arts",
			Location:    "Studio 3",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, club.ID)
		assert.Equal(t, models.ClubStatusPending, club.Status)
		assert.Equal(t, managerEmail, club.ManagerEmail)
		assert.Zero(t, club.MembershipFee)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		_, err := f.clubs.Create(ctx, managerEmail, services.CreateClubInput{ClubName: "Photography"})
		assert.True(t, errors.Is(err, errorz.Validation))
		assert.Equal(t, "All required fields must be provided", errorz.Message(err))
	})

	t.Run("negative fee is rejected", func(t *testing.T) {
		_, err := f.clubs.Create(ctx, managerEmail, services.CreateClubInput{
			ClubName: "Rowing", Description: "d", Category: "sports", Location: "Lake", MembershipFee: -5,
		})
		assert.True(t, errors.Is(err, errorz.Validation))
	})
}

func TestClubListApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.club(t, managerEmail, 0, models.ClubStatusPending)
	cheap := f.club(t, managerEmail, 5, models.ClubStatusApproved)
	pricey := f.club(t, otherManager, 50, models.ClubStatusApproved)
	rejected := f.club(t, otherManager, 0, models.ClubStatusRejected)

	clubs, err := f.clubs.ListApproved(ctx, services.ClubFilter{Sort: "highestFee"})
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, pricey.ID, clubs[0].ID)
	assert.Equal(t, cheap.ID, clubs[1].ID)

	for _, c := range clubs {
		assert.NotEqual(t, pending.ID, c.ID)
		assert.NotEqual(t, rejected.ID, c.ID)
	}

	clubs, err = f.clubs.ListApproved(ctx, services.ClubFilter{Sort: "lowestFee"})
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, clubs[0].ID)

	clubs, err = f.clubs.ListApproved(ctx, services.ClubFilter{Search: "CHESS CLUB OTHER"})
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	assert.Equal(t, pricey.ID, clubs[0].ID)

	clubs, err = f.clubs.ListApproved(ctx, services.ClubFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Empty(t, clubs)

	clubs, err = f.clubs.ListApproved(ctx, services.ClubFilter{Category: "music"})
	require.NoError(t, err)
	assert.Empty(t, clubs)
}

func TestClubReviewWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusPending)

	pending, err := f.clubs.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.clubs.SetStatus(ctx, manager, club.ID, models.ClubStatusApproved)
	assert.True(t, errors.Is(err, errorz.Forbidden))

	_, err = f.clubs.SetStatus(ctx, admin, club.ID, models.ClubStatus("archived"))
	assert.Equal(t, "Invalid status", errorz.Message(err))

	_, err = f.clubs.SetStatus(ctx, admin, "missing", models.ClubStatusApproved)
	assert.True(t, errors.Is(err, errorz.NotFound))

	updated, err := f.clubs.SetStatus(ctx, admin, club.ID, models.ClubStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ClubStatusApproved, updated.Status)

	approved, err := f.clubs.ListApproved(ctx, services.ClubFilter{})
	require.NoError(t, err)
	require.Len(t, approved, 1)

	_, err = f.clubs.SetStatus(ctx, admin, club.ID, models.ClubStatusRejected)
	require.NoError(t, err)
	approved, err = f.clubs.ListApproved(ctx, services.ClubFilter{})
	require.NoError(t, err)
	assert.Empty(t, approved)

	// the manager is notified through the outbox
	var queued []models.ScheduledTask
	require.NoError(t, f.db.Where("task_name = ?", services.SendNotificationTaskName).Find(&queued).Error)
	assert.Len(t, queued, 2)
}

func TestClubUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 10, models.ClubStatusApproved)

	name := "Renamed"
	fee := 15.5
	empty := ""

	_, err := f.clubs.Update(ctx, other, club.ID, services.UpdateClubInput{ClubName: &name})
	assert.True(t, errors.Is(err, errorz.Forbidden))
	assert.Equal(t, "You can only update your own clubs", errorz.Message(err))

	_, err = f.clubs.Update(ctx, manager, "missing", services.UpdateClubInput{ClubName: &name})
	assert.True(t, errors.Is(err, errorz.NotFound))

	updated, err := f.clubs.Update(ctx, manager, club.ID, services.UpdateClubInput{ClubName: &name, MembershipFee: &fee, Location: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.ClubName)
	assert.Equal(t, 15.5, updated.MembershipFee)
	assert.Equal(t, club.Location, updated.Location)
	assert.Equal(t, club.Description, updated.Description)
	assert.Equal(t, models.ClubStatusApproved, updated.Status)
}

func TestClubDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	f.event(t, club, 0, nil)

	err := f.clubs.Delete(ctx, member, club.ID)
	assert.True(t, errors.Is(err, errorz.Forbidden))

	require.NoError(t, f.clubs.Delete(ctx, manager, club.ID))

	_, err = f.clubs.Get(ctx, club.ID)
	assert.True(t, errors.Is(err, errorz.NotFound))

	events, err := f.events.ListByClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	second := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	require.NoError(t, f.clubs.Delete(ctx, admin, second.ID))
}
