package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// ClubService manages clubs and their review workflow
type ClubService struct {
	db       *gorm.DB
	notifier *Notifier
	audit    *AuditLogger
	events   *Publisher
}

func NewClubService(db *gorm.DB, notifier *Notifier, audit *AuditLogger, events *Publisher) *ClubService {
	return &ClubService{db: db, notifier: notifier, audit: audit, events: events}
}

// ClubFilter narrows the public club listing
type ClubFilter struct {
	Search   string
	Category string
	Sort     string // newest (default), oldest, highestFee, lowestFee
}

type CreateClubInput struct {
	ClubName      string  `json:"clubName" validate:"required"`
	Description   string  `json:"description" validate:"required"`
	Category      string  `json:"category" validate:"required"`
	Location      string  `json:"location" validate:"required"`
	BannerImage   string  `json:"bannerImage"`
	MembershipFee float64 `json:"membershipFee"`
}

// UpdateClubInput holds the fields to overwrite; nil fields are left unchanged
type UpdateClubInput struct {
	ClubName      *string  `json:"clubName"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	Location      *string  `json:"location"`
	BannerImage   *string  `json:"bannerImage"`
	MembershipFee *float64 `json:"membershipFee"`
}

// ListApproved returns approved clubs matching filter
func (s *ClubService) ListApproved(ctx context.Context, filter ClubFilter) ([]models.Club, error) {
	query := s.db.WithContext(ctx).Where("status = ?", models.ClubStatusApproved)

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(club_name) LIKE ? ESCAPE '\'`, likePattern(search))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	switch filter.Sort {
	case "oldest":
		query = query.Order("created_at asc")
	case "highestFee":
		query = query.Order("membership_fee desc")
	case "lowestFee":
		query = query.Order("membership_fee asc")
	default:
		query = query.Order("created_at desc")
	}

	var clubs []models.Club
	if err := query.Find(&clubs).Error; err != nil {
		return nil, err
	}
	return clubs, nil
}

// ListPending returns clubs awaiting review, oldest first
func (s *ClubService) ListPending(ctx context.Context) ([]models.Club, error) {
	var clubs []models.Club
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ClubStatusPending).
		Order("created_at asc").
		Find(&clubs).Error
	if err != nil {
		return nil, err
	}
	return clubs, nil
}

// ListByManager returns every club managed by email
func (s *ClubService) ListByManager(ctx context.Context, email string) ([]models.Club, error) {
	var clubs []models.Club
	err := s.db.WithContext(ctx).
		Where("manager_email = ?", email).
		Order("created_at desc").
		Find(&clubs).Error
	if err != nil {
		return nil, err
	}
	return clubs, nil
}

// Get returns a club by id
func (s *ClubService) Get(ctx context.Context, id string) (*models.Club, error) {
	return findClub(s.db.WithContext(ctx), id)
}

// Create stores a new pending club owned by managerEmail
func (s *ClubService) Create(ctx context.Context, managerEmail string, input CreateClubInput) (*models.Club, error) {
	input.ClubName = strings.TrimSpace(input.ClubName)
	if err := validateInput(input, "All required fields must be provided"); err != nil {
		return nil, err
	}
	if input.MembershipFee < 0 {
		return nil, errorz.New(errorz.Validation, "Membership fee cannot be negative")
	}

	club := &models.Club{
		ClubName:      input.ClubName,
		Description:   input.Description,
		Category:      input.Category,
		Location:      input.Location,
		BannerImage:   input.BannerImage,
		MembershipFee: input.MembershipFee,
		Status:        models.ClubStatusPending,
		ManagerEmail:  managerEmail,
	}
	if err := s.db.WithContext(ctx).Create(club).Error; err != nil {
		return nil, err
	}

	s.events.publish(ctx, EventClubCreated, club)
	return club, nil
}

// Update overwrites the supplied fields of a club owned by actor
func (s *ClubService) Update(ctx context.Context, actor policy.Actor, id string, input UpdateClubInput) (*models.Club, error) {
	club, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ClubUpdate, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setString := func(column string, value *string) {
		if value != nil && strings.TrimSpace(*value) != "" {
			updates[column] = *value
		}
	}
	setString("club_name", input.ClubName)
	setString("description", input.Description)
	setString("category", input.Category)
	setString("location", input.Location)
	if input.BannerImage != nil {
		updates["banner_image"] = *input.BannerImage
	}
	if input.MembershipFee != nil {
		if *input.MembershipFee < 0 {
			return nil, errorz.New(errorz.Validation, "Membership fee cannot be negative")
		}
		updates["membership_fee"] = *input.MembershipFee
	}
	updates["updated_at"] = time.Now().UTC()

	if err := s.db.WithContext(ctx).Model(club).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetStatus approves or rejects a club
func (s *ClubService) SetStatus(ctx context.Context, actor policy.Actor, id string, status models.ClubStatus) (*models.Club, error) {
	if err := policy.Evaluate(actor, policy.ClubReview, policy.Resource{}); err != nil {
		return nil, err
	}
	if status != models.ClubStatusApproved && status != models.ClubStatusRejected {
		return nil, errorz.New(errorz.Validation, "Invalid status")
	}

	club, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := club.Status

	err = s.db.WithContext(ctx).Model(club).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		return nil, err
	}
	club.Status = status

	s.audit.record(ctx, "club", club.ID, "status_changed", actor.Email, map[string]string{
		"from": string(previous),
		"to":   string(status),
	})
	s.events.publish(ctx, EventClubStatusChanged, map[string]string{"clubId": club.ID, "status": string(status)})
	s.notifier.clubStatusChanged(ctx, club)
	return club, nil
}

// Delete removes a club and its events
func (s *ClubService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	club, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(actor, policy.ClubDelete, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("club_id = ?", club.ID).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(club).Error
	})
	if err != nil {
		return err
	}

	s.audit.record(ctx, "club", club.ID, "deleted", actor.Email, map[string]string{"clubName": club.ClubName})
	return nil
}

func findClub(db *gorm.DB, id string) (*models.Club, error) {
	var club models.Club
	if err := db.Where("id = ?", id).First(&club).Error; err != nil {
		return nil, notFoundOr(err, "Club not found")
	}
	return &club, nil
}

// likePattern builds a lower-cased substring pattern with LIKE wildcards escaped by backslash
func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(replacer.Replace(search)) + "%"
}
