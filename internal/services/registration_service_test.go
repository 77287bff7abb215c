package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

func TestRegistrationCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 0, intPtr(2))

	for i := 0; i < 2; i++ {
		reg, created, err := f.registrations.Register(ctx, fmt.Sprintf("guest%d@example.com", i), event.ID, "")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.RegistrationStatusRegistered, reg.Status)
		assert.Equal(t, club.ID, reg.ClubID)
	}

	_, _, err := f.registrations.Register(ctx, "late@example.com", event.ID, "")
	assert.True(t, errors.Is(err, errorz.CapacityExceeded))
	assert.Equal(t, "Event is full", errorz.Message(err))

	var count int64
	require.NoError(t, f.db.Model(&models.EventRegistration{}).Where("event_id = ?", event.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRegistrationCancelledSeatIsFreed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 0, intPtr(1))

	reg, _, err := f.registrations.Register(ctx, memberEmail, event.ID, "")
	require.NoError(t, err)

	_, err = f.registrations.Cancel(ctx, member, reg.ID)
	require.NoError(t, err)

	_, created, err := f.registrations.Register(ctx, "next@example.com", event.ID, "")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRegistrationDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 0, nil)

	reg, _, err := f.registrations.Register(ctx, memberEmail, event.ID, "")
	require.NoError(t, err)

	_, _, err = f.registrations.Register(ctx, memberEmail, event.ID, "")
	assert.True(t, errors.Is(err, errorz.Conflict))
	assert.Equal(t, "You are already registered for this event", errorz.Message(err))

	// a cancelled registration still counts as registered
	_, err = f.registrations.Cancel(ctx, member, reg.ID)
	require.NoError(t, err)
	_, _, err = f.registrations.Register(ctx, memberEmail, event.ID, "")
	assert.True(t, errors.Is(err, errorz.Conflict))

	_, _, err = f.registrations.Register(ctx, memberEmail, "missing", "")
	assert.Equal(t, "Event not found", errorz.Message(err))

	_, _, err = f.registrations.Register(ctx, memberEmail, "", "")
	assert.True(t, errors.Is(err, errorz.Validation))
}

func TestRegistrationSamePaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 10, intPtr(1))

	first, created, err := f.registrations.Register(ctx, memberEmail, event.ID, "pi_1")
	require.NoError(t, err)
	assert.True(t, created)

	// the event is full now, a replay must still succeed
	second, created, err := f.registrations.Register(ctx, memberEmail, event.ID, "pi_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRegistrationCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 0, nil)

	reg, _, err := f.registrations.Register(ctx, memberEmail, event.ID, "")
	require.NoError(t, err)

	_, err = f.registrations.Cancel(ctx, policy.Actor{Email: "stranger@example.com", Role: models.RoleMember}, reg.ID)
	assert.True(t, errors.Is(err, errorz.Forbidden))

	// admins do not cancel on behalf of users either
	_, err = f.registrations.Cancel(ctx, admin, reg.ID)
	assert.True(t, errors.Is(err, errorz.Forbidden))

	_, err = f.registrations.Cancel(ctx, member, "missing")
	assert.Equal(t, "Registration not found", errorz.Message(err))

	cancelled, err := f.registrations.Cancel(ctx, member, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCancelled, cancelled.Status)

	again, err := f.registrations.Cancel(ctx, member, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCancelled, again.Status)
}

func TestRegistrationLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, memberEmail, models.RoleMember)
	club := f.club(t, managerEmail, 0, models.ClubStatusApproved)
	event := f.event(t, club, 0, nil)

	_, _, err := f.registrations.Register(ctx, memberEmail, event.ID, "")
	require.NoError(t, err)

	mine, err := f.registrations.ListMine(ctx, memberEmail)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Event)
	require.NotNil(t, mine[0].Club)
	assert.Equal(t, event.Title, mine[0].Event.Title)

	attendees, err := f.registrations.ListForEvent(ctx, manager, event.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	require.NotNil(t, attendees[0].User)
	assert.Equal(t, memberEmail, attendees[0].User.Email)

	_, err = f.registrations.ListForEvent(ctx, other, event.ID)
	assert.True(t, errors.Is(err, errorz.Forbidden))
}
