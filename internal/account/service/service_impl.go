package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/brandforge/brandforge/internal/account/domain"
	analyticsdomain "github.com/brandforge/brandforge/internal/analytics/domain"
	branddomain "github.com/brandforge/brandforge/internal/brand/domain"
	chatdomain "github.com/brandforge/brandforge/internal/chat/domain"
	"github.com/brandforge/brandforge/internal/clock"
	"github.com/brandforge/brandforge/internal/config"
	contentdomain "github.com/brandforge/brandforge/internal/content/domain"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	"github.com/brandforge/brandforge/internal/events"
	"github.com/brandforge/brandforge/internal/notification/email"
	"github.com/brandforge/brandforge/internal/observability/metrics"
	paymentdomain "github.com/brandforge/brandforge/internal/payment/domain"
	referraldomain "github.com/brandforge/brandforge/internal/referral/domain"
	socialdomain "github.com/brandforge/brandforge/internal/social/domain"
	taskdomain "github.com/brandforge/brandforge/internal/task/domain"
	userdomain "github.com/brandforge/brandforge/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Cfg    config.Config
	GenID  *snowflake.Node
	Outbox *events.Outbox `optional:"true"`
	Mailer email.Sender   `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	outbox    *events.Outbox
	mailer    email.Sender
	mediaRoot string
	emailFrom string
}

func NewService(p ServiceParam) accountdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("account.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		outbox:    p.Outbox,
		mailer:    p.Mailer,
		mediaRoot: p.Cfg.MediaRoot,
		emailFrom: p.Cfg.EmailFrom,
	}
}

// DeleteAccount removes every record owned by the user inside one
// transaction, then runs the best-effort phases (file cleanup, confirmation
// email) only after the commit succeeds. A failure in any step rolls the
// whole database change back; the returned summary then reflects what was
// attempted in memory, not what was committed.
func (s *Service) DeleteAccount(ctx context.Context, userID snowflake.ID, reason, feedback string) accountdomain.DeletionResult {
	summary := &accountdomain.DeletionSummary{
		Reason:       reason,
		Feedback:     feedback,
		StartedAt:    s.clock.Now(),
		DeletedData:  make(map[string]accountdomain.DomainCounts),
		FilesRemoved: make(map[string]bool),
	}
	run := &deletionRun{svc: s, userID: userID, summary: summary}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return run.execute(ctx, tx)
	})
	elapsed := s.clock.Now().Sub(summary.StartedAt)

	if err != nil {
		metrics.Platform().ObserveDeletion("error", elapsed)
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, accountdomain.ErrUserNotFound) {
			return accountdomain.DeletionResult{
				Success: false,
				Message: "Account not found",
				Error:   accountdomain.ErrUserNotFound.Error(),
				Summary: summary,
			}
		}
		s.log.Error("account deletion failed, rolled back",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return accountdomain.DeletionResult{
			Success: false,
			Message: "Account deletion failed",
			Error:   err.Error(),
			Summary: summary,
		}
	}

	// Committed. Everything from here on is best-effort cleanup that must
	// not fail the deletion.
	run.removeFiles()
	s.sendConfirmation(ctx, run)

	completed := s.clock.Now()
	summary.CompletedAt = &completed
	metrics.Platform().ObserveDeletion("ok", elapsed)
	s.log.Info("account deleted",
		zap.String("user_id", summary.User.UserID),
		zap.String("username", summary.User.Username),
	)
	return accountdomain.DeletionResult{
		Success: true,
		Message: "Account deleted",
		Summary: summary,
	}
}

// deletionRun is the per-request state: one instance per deletion, holding
// the summary and the file paths queued for post-commit removal.
type deletionRun struct {
	svc     *Service
	userID  snowflake.ID
	summary *accountdomain.DeletionSummary

	pendingFiles []pendingFile
	user         userdomain.User
}

type pendingFile struct {
	// field is set for user profile columns so the summary can report which
	// fields had files removed; empty for brand/content media.
	field string
	path  string
}

// execute runs the ordered deletion sequence. Dependents go before
// dependencies so counts are taken before parent rows disappear and no
// foreign key is left dangling mid-transaction.
func (r *deletionRun) execute(ctx context.Context, tx *gorm.DB) error {
	if err := tx.WithContext(ctx).First(&r.user, "id = ?", r.userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return accountdomain.ErrUserNotFound
		}
		return err
	}
	r.summary.User = accountdomain.UserSnapshot{
		UserID:      r.user.ID.String(),
		Username:    r.user.Username,
		Email:       r.user.Email,
		JoinedAt:    r.user.JoinedAt,
		LastLoginAt: r.user.LastLoginAt,
	}

	steps := []struct {
		name string
		fn   func(context.Context, *gorm.DB) error
	}{
		{"chat_data", r.deleteChatData},
		{"analytics_data", r.deleteAnalyticsData},
		{"brand_data", r.deleteBrandData},
		{"content_data", r.deleteContentData},
		{"referral_data", r.deleteReferralData},
		{"task_data", r.deleteTaskData},
		{"social_connections", r.deleteServiceConnections},
		{"user_files", r.collectProfileFiles},
		{"anonymization", r.markAnonymizationPass},
		{"user", r.deleteUser},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// deleteChatData removes conversations where the user is either participant
// and legacy single-owner chat rooms, counting messages before the threads
// go away.
func (r *deletionRun) deleteChatData(ctx context.Context, tx *gorm.DB) error {
	var convIDs []snowflake.ID
	err := tx.WithContext(ctx).
		Model(&chatdomain.Conversation{}).
		Where("participant_a_id = ? OR participant_b_id = ?", r.userID, r.userID).
		Pluck("id", &convIDs).Error
	if err != nil {
		return err
	}

	var messages, conversations int64
	if len(convIDs) > 0 {
		res := tx.WithContext(ctx).Where("conversation_id IN ?", convIDs).Delete(&chatdomain.Message{})
		if res.Error != nil {
			return res.Error
		}
		messages = res.RowsAffected

		res = tx.WithContext(ctx).Where("id IN ?", convIDs).Delete(&chatdomain.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		conversations = res.RowsAffected
	}

	var roomIDs []snowflake.ID
	err = tx.WithContext(ctx).
		Model(&chatdomain.ChatRoom{}).
		Where("owner_id = ?", r.userID).
		Pluck("id", &roomIDs).Error
	if err != nil {
		return err
	}

	var rooms, roomMessages int64
	if len(roomIDs) > 0 {
		res := tx.WithContext(ctx).Where("room_id IN ?", roomIDs).Delete(&chatdomain.ChatRoomMessage{})
		if res.Error != nil {
			return res.Error
		}
		roomMessages = res.RowsAffected

		res = tx.WithContext(ctx).Where("id IN ?", roomIDs).Delete(&chatdomain.ChatRoom{})
		if res.Error != nil {
			return res.Error
		}
		rooms = res.RowsAffected
	}

	r.summary.Record("chat_data", accountdomain.DomainCounts{
		"conversations":      conversations,
		"messages":           messages,
		"chat_rooms":         rooms,
		"chat_room_messages": roomMessages,
	})
	return nil
}

// deleteAnalyticsData removes impressions received and raw page views, but
// anonymizes impressions the user gave on other profiles: the other party's
// analytics keep their totals, just without the viewer identity.
func (r *deletionRun) deleteAnalyticsData(ctx context.Context, tx *gorm.DB) error {
	received := tx.WithContext(ctx).
		Where("profile_user_id = ?", r.userID).
		Delete(&analyticsdomain.ProfileImpression{})
	if received.Error != nil {
		return received.Error
	}

	anonymized := tx.WithContext(ctx).
		Model(&analyticsdomain.ProfileImpression{}).
		Where("viewer_id = ?", r.userID).
		Update("viewer_id", nil)
	if anonymized.Error != nil {
		return anonymized.Error
	}

	pageViews := tx.WithContext(ctx).
		Where("user_id = ?", r.userID).
		Delete(&analyticsdomain.PageView{})
	if pageViews.Error != nil {
		return pageViews.Error
	}

	r.summary.Record("analytics_data", accountdomain.DomainCounts{
		"impressions_received":   received.RowsAffected,
		"impressions_anonymized": anonymized.RowsAffected,
		"page_views":             pageViews.RowsAffected,
	})
	return nil
}

// deleteBrandData removes the children of every brand the user owns and
// queues their media files. The brand rows themselves go in the final user
// step, after everything that references them.
func (r *deletionRun) deleteBrandData(ctx context.Context, tx *gorm.DB) error {
	var brands []branddomain.Brand
	if err := tx.WithContext(ctx).Where("owner_id = ?", r.userID).Find(&brands).Error; err != nil {
		return err
	}

	var assets, tweets, instagramPosts, ledgerRows, paymentEvents, brandEvents int64
	for _, brand := range brands {
		var assetPaths []string
		err := tx.WithContext(ctx).
			Model(&branddomain.BrandAsset{}).
			Where("brand_id = ?", brand.ID).
			Pluck("file_path", &assetPaths).Error
		if err != nil {
			return err
		}
		for _, path := range assetPaths {
			r.queueFile("", path)
		}

		res := tx.WithContext(ctx).Where("brand_id = ?", brand.ID).Delete(&branddomain.BrandAsset{})
		if res.Error != nil {
			return res.Error
		}
		assets += res.RowsAffected

		res = tx.WithContext(ctx).Where("brand_id = ?", brand.ID).Delete(&branddomain.BrandTweet{})
		if res.Error != nil {
			return res.Error
		}
		tweets += res.RowsAffected

		res = tx.WithContext(ctx).Where("brand_id = ?", brand.ID).Delete(&branddomain.BrandInstagramPost{})
		if res.Error != nil {
			return res.Error
		}
		instagramPosts += res.RowsAffected

		// The ledger and its event trail are keyed to the brand, not the
		// user. Nothing cascades in the schema, so purge them here.
		res = tx.WithContext(ctx).Where("brand_id = ?", brand.ID).Delete(&creditdomain.CreditTransaction{})
		if res.Error != nil {
			return res.Error
		}
		ledgerRows += res.RowsAffected

		res = tx.WithContext(ctx).Where("brand_id = ?", brand.ID).Delete(&paymentdomain.EventRecord{})
		if res.Error != nil {
			return res.Error
		}
		paymentEvents += res.RowsAffected

		res = tx.WithContext(ctx).Where("subject_id = ?", brand.ID).Delete(&events.PlatformEvent{})
		if res.Error != nil {
			return res.Error
		}
		brandEvents += res.RowsAffected

		r.queueFile("", brand.LogoPath)
	}

	r.summary.Record("brand_data", accountdomain.DomainCounts{
		"brands":              int64(len(brands)),
		"assets":              assets,
		"tweets":              tweets,
		"instagram_posts":     instagramPosts,
		"credit_transactions": ledgerRows,
		"payment_events":      paymentEvents,
		"platform_events":     brandEvents,
	})
	return nil
}

func (r *deletionRun) deleteContentData(ctx context.Context, tx *gorm.DB) error {
	comments := tx.WithContext(ctx).Where("author_id = ?", r.userID).Delete(&contentdomain.BlogComment{})
	if comments.Error != nil {
		return comments.Error
	}

	var imagePaths []string
	err := tx.WithContext(ctx).
		Model(&contentdomain.ContentImage{}).
		Where("user_id = ?", r.userID).
		Pluck("file_path", &imagePaths).Error
	if err != nil {
		return err
	}
	for _, path := range imagePaths {
		r.queueFile("", path)
	}
	images := tx.WithContext(ctx).Where("user_id = ?", r.userID).Delete(&contentdomain.ContentImage{})
	if images.Error != nil {
		return images.Error
	}

	links := tx.WithContext(ctx).Where("user_id = ?", r.userID).Delete(&contentdomain.Link{})
	if links.Error != nil {
		return links.Error
	}

	tweetConfigs := tx.WithContext(ctx).Where("user_id = ?", r.userID).Delete(&contentdomain.TweetConfiguration{})
	if tweetConfigs.Error != nil {
		return tweetConfigs.Error
	}

	r.summary.Record("content_data", accountdomain.DomainCounts{
		"blog_comments":        comments.RowsAffected,
		"content_images":       images.RowsAffected,
		"links":                links.RowsAffected,
		"tweet_configurations": tweetConfigs.RowsAffected,
	})
	return nil
}

// deleteReferralData removes the user's referral chain and badges.
// Leaderboard rows are historical competition results, so placements are
// nulled rather than the rows removed.
func (r *deletionRun) deleteReferralData(ctx context.Context, tx *gorm.DB) error {
	counts := accountdomain.DomainCounts{
		"referral_codes":         0,
		"referral_signups":       0,
		"referral_subscriptions": 0,
	}

	var code referraldomain.ReferralCode
	err := tx.WithContext(ctx).Where("user_id = ?", r.userID).First(&code).Error
	switch {
	case err == nil:
		signups := tx.WithContext(ctx).Where("referral_code_id = ?", code.ID).Delete(&referraldomain.ReferralSignup{})
		if signups.Error != nil {
			return signups.Error
		}
		subscriptions := tx.WithContext(ctx).Where("referral_code_id = ?", code.ID).Delete(&referraldomain.ReferralSubscription{})
		if subscriptions.Error != nil {
			return subscriptions.Error
		}
		if err := tx.WithContext(ctx).Delete(&code).Error; err != nil {
			return err
		}
		counts["referral_codes"] = 1
		counts["referral_signups"] = signups.RowsAffected
		counts["referral_subscriptions"] = subscriptions.RowsAffected
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Users who never engaged with referrals have no code; not an error.
	default:
		return err
	}

	badges := tx.WithContext(ctx).Where("user_id = ?", r.userID).Delete(&referraldomain.Badge{})
	if badges.Error != nil {
		return badges.Error
	}
	counts["badges"] = badges.RowsAffected

	var placementsAnonymized int64
	for _, column := range []string{"winner_id", "runner_up_id", "third_place_id"} {
		res := tx.WithContext(ctx).
			Model(&referraldomain.LeaderboardEntry{}).
			Where(column+" = ?", r.userID).
			Update(column, nil)
		if res.Error != nil {
			return res.Error
		}
		placementsAnonymized += res.RowsAffected
	}
	counts["leaderboard_placements_anonymized"] = placementsAnonymized

	r.summary.Record("referral_data", counts)
	return nil
}

func (r *deletionRun) deleteTaskData(ctx context.Context, tx *gorm.DB) error {
	var taskIDs []snowflake.ID
	err := tx.WithContext(ctx).
		Model(&taskdomain.Task{}).
		Where("creator_id = ?", r.userID).
		Pluck("id", &taskIDs).Error
	if err != nil {
		return err
	}

	var applicationsReceived, tasks int64
	if len(taskIDs) > 0 {
		res := tx.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&taskdomain.TaskApplication{})
		if res.Error != nil {
			return res.Error
		}
		applicationsReceived = res.RowsAffected

		res = tx.WithContext(ctx).Where("id IN ?", taskIDs).Delete(&taskdomain.Task{})
		if res.Error != nil {
			return res.Error
		}
		tasks = res.RowsAffected
	}

	applicationsMade := tx.WithContext(ctx).Where("applicant_id = ?", r.userID).Delete(&taskdomain.TaskApplication{})
	if applicationsMade.Error != nil {
		return applicationsMade.Error
	}

	r.summary.Record("task_data", accountdomain.DomainCounts{
		"tasks":                 tasks,
		"applications_received": applicationsReceived,
		"applications_made":     applicationsMade.RowsAffected,
	})
	return nil
}

func (r *deletionRun) deleteServiceConnections(ctx context.Context, tx *gorm.DB) error {
	res := tx.WithContext(ctx).Where("user_id = ?", r.userID).Delete(&socialdomain.ServiceConnection{})
	if res.Error != nil {
		return res.Error
	}
	r.summary.Record("social_connections", accountdomain.DomainCounts{
		"service_connections": res.RowsAffected,
	})
	return nil
}

// collectProfileFiles queues the user's file-valued profile columns for the
// post-commit cleanup phase. Nothing touches the filesystem until the
// database transaction has committed.
func (r *deletionRun) collectProfileFiles(_ context.Context, _ *gorm.DB) error {
	var queued int64
	for _, field := range r.user.FileFields() {
		if field.Path == "" {
			continue
		}
		r.queueFile(field.Name, field.Path)
		queued++
	}
	r.summary.Record("user_files", accountdomain.DomainCounts{"queued": queued})
	return nil
}

// markAnonymizationPass is the extension point for analytics that should
// survive de-identified. Nothing is retained today; the marker records that
// the pass ran.
func (r *deletionRun) markAnonymizationPass(_ context.Context, _ *gorm.DB) error {
	r.summary.Record("anonymization", accountdomain.DomainCounts{"retained_datasets": 0})
	return nil
}

// deleteUser removes the brand rows and finally the user itself, last,
// after every explicit child is gone. The identity snapshot was taken at
// the start of the run.
func (r *deletionRun) deleteUser(ctx context.Context, tx *gorm.DB) error {
	if err := tx.WithContext(ctx).Where("owner_id = ?", r.userID).Delete(&branddomain.Brand{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("id = ?", r.userID).Delete(&userdomain.User{}).Error; err != nil {
		return err
	}
	r.summary.Record("user", accountdomain.DomainCounts{"users": 1})

	if r.svc.outbox == nil {
		return nil
	}
	payload := events.AccountDeletedPayload{
		UserID:   r.summary.User.UserID,
		Username: r.summary.User.Username,
		Reason:   r.summary.Reason,
	}
	return r.svc.outbox.PublishTx(ctx, tx, events.Event{
		SubjectID: r.userID,
		Type:      events.EventAccountDeleted,
		Payload:   payload.ToMap(),
		DedupeKey: "account.deleted:" + r.summary.User.UserID,
	})
}

func (r *deletionRun) queueFile(field, path string) {
	if path == "" {
		return
	}
	r.pendingFiles = append(r.pendingFiles, pendingFile{field: field, path: path})
}

// sendConfirmation emails the captured address after the commit. A send
// failure is recorded on the summary, never surfaced as a deletion failure.
func (s *Service) sendConfirmation(ctx context.Context, run *deletionRun) {
	if s.mailer == nil {
		run.summary.NotificationSent = false
		run.summary.NotificationError = "no mail sender configured"
		return
	}
	msg := email.Message{
		Subject: "Your account has been deleted",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account and all associated data have been permanently deleted. "+
				"This action cannot be undone.\n\nIf you did not request this, contact support immediately.",
			run.summary.User.Username,
		),
		From: s.emailFrom,
		To:   run.summary.User.Email,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("deletion confirmation email failed",
			zap.String("user_id", run.summary.User.UserID),
			zap.Error(err),
		)
		run.summary.NotificationSent = false
		run.summary.NotificationError = err.Error()
		return
	}
	run.summary.NotificationSent = true
}
