package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// MembershipService manages club memberships
type MembershipService struct {
	db       *gorm.DB
	notifier *Notifier
	events   *Publisher
}

func NewMembershipService(db *gorm.DB, notifier *Notifier, events *Publisher) *MembershipService {
	return &MembershipService{db: db, notifier: notifier, events: events}
}

// ListMine returns the memberships of email with their clubs
func (s *MembershipService) ListMine(ctx context.Context, email string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Club").
		Where("user_email = ?", email).
		Order("joined_at desc").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListForClub returns the members of a club owned by actor
func (s *MembershipService) ListForClub(ctx context.Context, actor policy.Actor, clubID string) ([]models.Membership, error) {
	club, err := findClub(s.db.WithContext(ctx), clubID)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ClubViewMembers, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return nil, err
	}

	var memberships []models.Membership
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("club_id = ?", club.ID).
		Order("joined_at asc").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// Join makes email an active member of an approved club.
// created is false when a membership carrying the same paymentID already exists.
func (s *MembershipService) Join(ctx context.Context, email, clubID, paymentID string) (*models.Membership, bool, error) {
	if clubID == "" {
		return nil, false, errorz.New(errorz.Validation, "Club ID is required")
	}

	var club models.Club
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", clubID, models.ClubStatusApproved).
		First(&club).Error
	if err != nil {
		return nil, false, notFoundOr(err, "Club not found or not approved")
	}

	membership := &models.Membership{
		UserEmail: email,
		ClubID:    club.ID,
		Status:    models.MembershipStatusActive,
		PaymentID: stringPtr(paymentID),
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(membership).Error; err != nil {
		if !isDuplicate(err) {
			return nil, false, err
		}
		existing, findErr := s.find(ctx, email, club.ID)
		if findErr != nil {
			return nil, false, findErr
		}
		if paymentID != "" && derefString(existing.PaymentID) == paymentID {
			return existing, false, nil
		}
		return nil, false, errorz.New(errorz.Conflict, "You are already a member of this club")
	}

	s.events.publish(ctx, EventMembershipJoined, membership)
	s.notifier.membershipJoined(ctx, email, &club)
	return membership, true, nil
}

// SetStatus marks a membership active or expired
func (s *MembershipService) SetStatus(ctx context.Context, actor policy.Actor, id string, status models.MembershipStatus) (*models.Membership, error) {
	if status != models.MembershipStatusActive && status != models.MembershipStatusExpired {
		return nil, errorz.New(errorz.Validation, "Invalid status")
	}

	var membership models.Membership
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&membership).Error; err != nil {
		return nil, notFoundOr(err, "Membership not found")
	}

	var owner string
	club, err := findClub(s.db.WithContext(ctx), membership.ClubID)
	switch {
	case err == nil:
		owner = club.ManagerEmail
	case !errors.Is(err, errorz.NotFound):
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.MembershipSetStatus, policy.Resource{OwnerEmail: owner}); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&membership).Update("status", status).Error; err != nil {
		return nil, err
	}
	membership.Status = status
	return &membership, nil
}

func (s *MembershipService) find(ctx context.Context, email, clubID string) (*models.Membership, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("user_email = ? AND club_id = ?", email, clubID).
		First(&membership).Error
	if err != nil {
		return nil, notFoundOr(err, "Membership not found")
	}
	return &membership, nil
}
