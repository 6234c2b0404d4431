package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/brandforge/brandforge/internal/account/domain"
	analyticsdomain "github.com/brandforge/brandforge/internal/analytics/domain"
	branddomain "github.com/brandforge/brandforge/internal/brand/domain"
	chatdomain "github.com/brandforge/brandforge/internal/chat/domain"
	contentdomain "github.com/brandforge/brandforge/internal/content/domain"
	referraldomain "github.com/brandforge/brandforge/internal/referral/domain"
	socialdomain "github.com/brandforge/brandforge/internal/social/domain"
	taskdomain "github.com/brandforge/brandforge/internal/task/domain"
	userdomain "github.com/brandforge/brandforge/internal/user/domain"
	"gorm.io/gorm"
)

// DeletionPreview mirrors the deletion sequence's domain enumeration with
// read-only counts. It mutates nothing and is safe to call repeatedly while
// the user decides.
func (s *Service) DeletionPreview(ctx context.Context, userID snowflake.ID) (accountdomain.DeletionPreview, error) {
	var preview accountdomain.DeletionPreview

	var user userdomain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return preview, accountdomain.ErrUserNotFound
		}
		return preview, err
	}

	db := s.db.WithContext(ctx)
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&preview.Brands, db.Model(&branddomain.Brand{}).Where("owner_id = ?", userID)},
		{&preview.ImpressionsReceived, db.Model(&analyticsdomain.ProfileImpression{}).Where("profile_user_id = ?", userID)},
		{&preview.ImpressionsGiven, db.Model(&analyticsdomain.ProfileImpression{}).Where("viewer_id = ?", userID)},
		{&preview.PageViews, db.Model(&analyticsdomain.PageView{}).Where("user_id = ?", userID)},
		{&preview.BlogComments, db.Model(&contentdomain.BlogComment{}).Where("author_id = ?", userID)},
		{&preview.ContentImages, db.Model(&contentdomain.ContentImage{}).Where("user_id = ?", userID)},
		{&preview.Links, db.Model(&contentdomain.Link{}).Where("user_id = ?", userID)},
		{&preview.TweetConfigurations, db.Model(&contentdomain.TweetConfiguration{}).Where("user_id = ?", userID)},
		{&preview.Tasks, db.Model(&taskdomain.Task{}).Where("creator_id = ?", userID)},
		{&preview.TaskApplications, db.Model(&taskdomain.TaskApplication{}).Where("applicant_id = ?", userID)},
		{&preview.ServiceConnections, db.Model(&socialdomain.ServiceConnection{}).Where("user_id = ?", userID)},
		{&preview.Conversations, db.Model(&chatdomain.Conversation{}).Where("participant_a_id = ? OR participant_b_id = ?", userID, userID)},
		{&preview.ChatRooms, db.Model(&chatdomain.ChatRoom{}).Where("owner_id = ?", userID)},
		{&preview.Badges, db.Model(&referraldomain.Badge{}).Where("user_id = ?", userID)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return accountdomain.DeletionPreview{}, err
		}
	}

	var code referraldomain.ReferralCode
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&code).Error
	switch {
	case err == nil:
		if err := db.Model(&referraldomain.ReferralSignup{}).
			Where("referral_code_id = ?", code.ID).
			Count(&preview.ReferralSignups).Error; err != nil {
			return accountdomain.DeletionPreview{}, err
		}
		if err := db.Model(&referraldomain.ReferralSubscription{}).
			Where("referral_code_id = ?", code.ID).
			Count(&preview.ReferralSubscriptions).Error; err != nil {
			return accountdomain.DeletionPreview{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No referral code, nothing chained to it.
	default:
		return accountdomain.DeletionPreview{}, err
	}

	return preview, nil
}
