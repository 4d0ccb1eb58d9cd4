package service

import (
	"context"
	"strings"
	"sync/atomic"

	"content-registry/db"
	"content-registry/db/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContentRegistry 内容登记：链接去重、关联所属用户、浏览数自增
type ContentRegistry struct {
	db             *gorm.DB
	users          *UserRegistry
	clock          Clock
	autoCreateUser atomic.Bool
}

func NewContentRegistry(gormDb *gorm.DB, users *UserRegistry, clock Clock, autoCreateUser bool) *ContentRegistry {
	if clock == nil {
		clock = RealClock()
	}
	r := &ContentRegistry{db: gormDb, users: users, clock: clock}
	r.autoCreateUser.Store(autoCreateUser)
	return r
}

// SetAutoCreateUser 配置热更时切换策略
func (r *ContentRegistry) SetAutoCreateUser(on bool) {
	r.autoCreateUser.Store(on)
}

func (r *ContentRegistry) AutoCreateUser() bool {
	return r.autoCreateUser.Load()
}

// SubmitContent 按当前配置的自动建用户策略登记内容
func (r *ContentRegistry) SubmitContent(ctx context.Context, link, walletIdentity string) (*ContentRef, error) {
	return r.SubmitContentWithPolicy(ctx, link, walletIdentity, r.AutoCreateUser())
}

// SubmitContentWithPolicy 登记一条内容。
// 查重只是为了在常见情况下给出干净的冲突错误，真正的保证是 link 唯一索引：
// 并发提交同一链接时，后写入者的唯一约束错误同样转换为 ConflictError。
func (r *ContentRegistry) SubmitContentWithPolicy(ctx context.Context, link, walletIdentity string, autoCreateUser bool) (*ContentRef, error) {
	wallet := strings.TrimSpace(walletIdentity)
	if strings.TrimSpace(link) == "" || wallet == "" {
		return nil, ValidationError("link and wallet identity are required")
	}

	if !ValidateLink(link) {
		return nil, ValidationError("invalid link")
	}

	normalized := NormalizeLink(link)
	if len(normalized) > maxLinkLength {
		return nil, ValidationError("link is too long")
	}

	var existing []string
	err := r.db.WithContext(ctx).
		Table(model.TableContent).
		Where(model.LinkCol+" = ?", normalized).
		Limit(1).
		Pluck(model.IDCol, &existing).Error
	if err != nil {
		return nil, StoreError("failed to check duplicate link", err)
	}
	if len(existing) > 0 {
		return nil, ConflictError("link already exists", nil)
	}

	owner, err := r.resolveOwner(ctx, wallet, autoCreateUser)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	c := &model.Content{
		CommonField: model.CommonField{
			ID:        newID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Link:      normalized,
		OwnerID:   owner.ID,
		ViewCount: 0,
	}

	err = r.db.WithContext(ctx).
		Table(model.TableContent).
		Omit("Owner").
		Create(c).Error
	if err != nil {
		if db.IsDuplicateKey(err) {
			return nil, ConflictError("link already exists", err)
		}
		logrus.WithError(err).WithField("link", normalized).Error("create content failed")
		return nil, StoreError("failed to create content", err)
	}

	return &ContentRef{ID: c.ID, Link: c.Link}, nil
}

func (r *ContentRegistry) resolveOwner(ctx context.Context, wallet string, autoCreateUser bool) (*UserRef, error) {
	owner, err := r.users.LookupUser(ctx, wallet)
	if err == nil {
		return owner, nil
	}
	if !IsKind(err, KindNotFound) {
		return nil, err
	}

	if !autoCreateUser {
		return nil, ForbiddenError("user not registered")
	}

	return r.users.ensureUser(ctx, wallet)
}

// ListContent 关联用户，按创建时间倒序，同一时间按 id（uuid v7）倒序保证稳定
func (r *ContentRegistry) ListContent(ctx context.Context) ([]ContentSummary, error) {
	contents := make([]ContentSummary, 0)
	err := r.db.WithContext(ctx).
		Table(model.TableContent + " AS c").
		Select("c.id, c.link, c.view_count, c.created_at, u.wallet_identity, u.display_name AS owner_display_name").
		Joins("JOIN " + model.TableUser + " AS u ON c.owner_id = u.id").
		Order("c.created_at DESC").
		Order("c.id DESC").
		Scan(&contents).Error
	if err != nil {
		return nil, StoreError("failed to fetch contents", err)
	}

	return contents, nil
}

// IncrementViewCount 单条语句原子自增，不做应用层读改写。
// 自增成功后的回读只用于展示，失败不影响已生效的自增。
func (r *ContentRegistry) IncrementViewCount(ctx context.Context, contentID string) (*ViewCount, error) {
	id := strings.TrimSpace(contentID)
	if id == "" {
		return nil, ValidationError("content id is required")
	}

	result := r.db.WithContext(ctx).
		Table(model.TableContent).
		Where(model.IDCol+" = ?", id).
		Updates(map[string]interface{}{
			model.ViewCountCol: gorm.Expr(model.ViewCountCol+" + ?", 1),
			model.UpdatedAtCol: r.clock.Now(),
		})
	if result.Error != nil {
		return nil, StoreError("failed to increment view count", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, NotFoundError("content not found")
	}

	var counts []int64
	err := r.db.WithContext(ctx).
		Table(model.TableContent).
		Where(model.IDCol+" = ?", id).
		Limit(1).
		Pluck(model.ViewCountCol, &counts).Error
	if err != nil || len(counts) == 0 {
		logrus.WithError(err).WithField("content_id", id).Warn("view count incremented but read back failed")
		return &ViewCount{Confirmed: false}, nil
	}

	return &ViewCount{Count: &counts[0], Confirmed: true}, nil
}
