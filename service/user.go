package service

import (
	"context"
	"strings"

	"content-registry/db"
	"content-registry/db/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRegistry 以钱包标识为业务主键登记用户
type UserRegistry struct {
	db    *gorm.DB
	clock Clock
}

func NewUserRegistry(gormDb *gorm.DB, clock Clock) *UserRegistry {
	if clock == nil {
		clock = RealClock()
	}
	return &UserRegistry{db: gormDb, clock: clock}
}

// RegisterOrUpdateUser 不存在则创建，存在则覆盖 display_name 并刷新 updated_at。
// 唯一性完全交给 wallet_identity 唯一索引上的 upsert 判定，不做先查后写。
func (r *UserRegistry) RegisterOrUpdateUser(ctx context.Context, walletIdentity, displayName string) (*UserRef, error) {
	wallet := strings.TrimSpace(walletIdentity)
	name := strings.TrimSpace(displayName)
	if wallet == "" || name == "" {
		return nil, ValidationError("wallet identity and display name are required")
	}

	now := r.clock.Now()
	u := &model.User{
		CommonField: model.CommonField{
			ID:        newID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		WalletIdentity: wallet,
		DisplayName:    &name,
	}

	err := r.db.WithContext(ctx).
		Table(model.TableUser).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: model.WalletIdentityCol}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				model.DisplayNameCol: name,
				model.UpdatedAtCol:   now,
			}),
		}).
		Create(u).Error
	if err != nil {
		logrus.WithError(err).WithField("wallet", wallet).Error("upsert user failed")
		return nil, StoreError("failed to register/update user", err)
	}

	// 冲突时保留的是旧 id，回读一次拿到规范引用
	ref, err := r.LookupUser(ctx, wallet)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, StoreError("failed to register/update user", err)
		}
		return nil, err
	}

	return ref, nil
}

// LookupUser 只读查询，不存在返回 NotFoundError
func (r *UserRegistry) LookupUser(ctx context.Context, walletIdentity string) (*UserRef, error) {
	wallet := strings.TrimSpace(walletIdentity)
	if wallet == "" {
		return nil, ValidationError("wallet identity is required")
	}

	ref := new(UserRef)
	err := r.db.WithContext(ctx).
		Table(model.TableUser).
		Select(model.IDCol, model.WalletIdentityCol).
		Where(model.WalletIdentityCol+" = ?", wallet).
		Take(ref).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("user not found")
		}
		return nil, StoreError("failed to lookup user", err)
	}

	return ref, nil
}

// ensureUser 提交内容时自动建用户：已存在则什么都不做，不会覆盖 display_name
func (r *UserRegistry) ensureUser(ctx context.Context, wallet string) (*UserRef, error) {
	now := r.clock.Now()
	u := &model.User{
		CommonField: model.CommonField{
			ID:        newID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		WalletIdentity: wallet,
	}

	err := r.db.WithContext(ctx).
		Table(model.TableUser).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: model.WalletIdentityCol}},
			DoNothing: true,
		}).
		Create(u).Error
	if err != nil {
		return nil, StoreError("failed to create user", err)
	}

	return r.LookupUser(ctx, wallet)
}

// ListUsers 按创建时间倒序
func (r *UserRegistry) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users := make([]UserSummary, 0)
	err := r.db.WithContext(ctx).
		Table(model.TableUser).
		Select(model.IDCol, model.WalletIdentityCol, model.DisplayNameCol, model.TotalEarningsCol, model.CreatedAtCol).
		Order(model.CreatedAtCol + " DESC").
		Order(model.IDCol + " DESC").
		Scan(&users).Error
	if err != nil {
		return nil, StoreError("failed to fetch users", err)
	}

	return users, nil
}

// newID uuid v7，按时间有序，同一进程内单调递增
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
