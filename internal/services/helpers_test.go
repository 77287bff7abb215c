package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clubsphere/internal/models"
	"clubsphere/internal/policy"
	"clubsphere/internal/services"
	"clubsphere/internal/testutil"
)

const (
	adminEmail   = "admin@example.com"
	managerEmail = "manager@example.com"
	otherManager = "other@example.com"
	memberEmail  = "member@example.com"
)

var (
	admin   = policy.Actor{Email: adminEmail, Role: models.RoleAdmin}
	manager = policy.Actor{Email: managerEmail, Role: models.RoleClubManager}
	other   = policy.Actor{Email: otherManager, Role: models.RoleClubManager}
	member  = policy.Actor{Email: memberEmail, Role: models.RoleMember}
)

type fixture struct {
	db            *gorm.DB
	gateway       *fakeGateway
	users         *services.UserService
	clubs         *services.ClubService
	events        *services.EventService
	memberships   *services.MembershipService
	registrations *services.RegistrationService
	payments      *services.PaymentService
	stats         *services.StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	notifier := services.NewNotifier(db)
	gateway := newFakeGateway()

	memberships := services.NewMembershipService(db, notifier, nil)
	registrations := services.NewRegistrationService(db, notifier, nil)

	return &fixture{
		db:            db,
		gateway:       gateway,
		users:         services.NewUserService(db, nil, nil),
		clubs:         services.NewClubService(db, notifier, nil, nil),
		events:        services.NewEventService(db, nil),
		memberships:   memberships,
		registrations: registrations,
		payments:      services.NewPaymentService(db, gateway, "usd", memberships, registrations, nil),
		stats:         services.NewStatsService(db, nil),
	}
}

func (f *fixture) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, Role: role}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) club(t *testing.T, owner string, fee float64, status models.ClubStatus) *models.Club {
	t.Helper()
	c, err := f.clubs.Create(context.Background(), owner, services.CreateClubInput{
		ClubName:      "Chess Club " + owner,
		Description:   "Weekly games",
		Category:      "games",
		Location:      "Hall A",
		MembershipFee: fee,
	})
	require.NoError(t, err)
	if status != models.ClubStatusPending {
		require.NoError(t, f.db.Model(c).Update("status", status).Error)
		c.Status = status
	}
	return c
}

func (f *fixture) event(t *testing.T, club *models.Club, fee float64, maxAttendees *int) *models.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), policy.Actor{Email: club.ManagerEmail, Role: models.RoleClubManager}, services.CreateEventInput{
		ClubID:       club.ID,
		Title:        "Open tournament",
		Description:  "Swiss system, 5 rounds",
		EventDate:    time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		Location:     "Hall B",
		IsPaid:       fee > 0,
		EventFee:     fee,
		MaxAttendees: maxAttendees,
	})
	require.NoError(t, err)
	return e
}

func intPtr(v int) *int {
	return &v
}

// fakeGateway stores intents in memory; tests flip their status with succeed
type fakeGateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*services.PaymentIntent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*services.PaymentIntent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_%d", g.seq)
	intent := &services.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	copied := *intent
	return &copied, nil
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = "succeeded"
}
