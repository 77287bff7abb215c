package services

import (
	"context"

	"gorm.io/gorm"

	"clubsphere/internal/models"
)

// StatsService computes the admin dashboard figures
type StatsService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewStatsService(db *gorm.DB, cache *RedisCache) *StatsService {
	return &StatsService{db: db, cache: cache}
}

type Overview struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalClubs       int64   `json:"totalClubs"`
	PendingClubs     int64   `json:"pendingClubs"`
	ApprovedClubs    int64   `json:"approvedClubs"`
	RejectedClubs    int64   `json:"rejectedClubs"`
	TotalMemberships int64   `json:"totalMemberships"`
	TotalEvents      int64   `json:"totalEvents"`
	TotalPayments    int64   `json:"totalPayments"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

type ClubMembershipCount struct {
	ClubName    string `json:"clubName"`
	MemberCount int64  `json:"memberCount"`
}

// Overview returns platform-wide counters
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	return GetOrSet(s.cache, ctx, statsOverviewKey, statsCacheTTL, func() (*Overview, error) {
		db := s.db.WithContext(ctx)
		var o Overview

		counts := []struct {
			dest  *int64
			query *gorm.DB
		}{
			{&o.TotalUsers, db.Model(&models.User{})},
			{&o.TotalClubs, db.Model(&models.Club{})},
			{&o.PendingClubs, db.Model(&models.Club{}).Where("status = ?", models.ClubStatusPending)},
			{&o.ApprovedClubs, db.Model(&models.Club{}).Where("status = ?", models.ClubStatusApproved)},
			{&o.RejectedClubs, db.Model(&models.Club{}).Where("status = ?", models.ClubStatusRejected)},
			{&o.TotalMemberships, db.Model(&models.Membership{})},
			{&o.TotalEvents, db.Model(&models.Event{})},
			{&o.TotalPayments, db.Model(&models.Payment{})},
		}
		for _, c := range counts {
			if err := c.query.Count(c.dest).Error; err != nil {
				return nil, err
			}
		}

		err := db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0)").Scan(&o.TotalRevenue).Error
		if err != nil {
			return nil, err
		}
		return &o, nil
	})
}

// MembershipsPerClub returns the ten clubs with the most memberships
func (s *StatsService) MembershipsPerClub(ctx context.Context) ([]ClubMembershipCount, error) {
	return GetOrSet(s.cache, ctx, statsMembershipsKey, statsCacheTTL, func() ([]ClubMembershipCount, error) {
		var rows []ClubMembershipCount
		err := s.db.WithContext(ctx).
			Table("memberships").
			Select("COALESCE(clubs.club_name, 'Unknown') AS club_name, COUNT(memberships.id) AS member_count").
			Joins("LEFT JOIN clubs ON clubs.id = memberships.club_id").
			Group("memberships.club_id, clubs.club_name").
			Order("member_count desc").
			Limit(10).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []ClubMembershipCount{}
		}
		return rows, nil
	})
}
