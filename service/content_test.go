package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"content-registry/db/model"
	"content-registry/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func register(t *testing.T, f *fixture, wallet, name string) *service.UserRef {
	t.Helper()
	ref, err := f.users.RegisterOrUpdateUser(context.Background(), wallet, name)
	require.NoError(t, err)
	return ref
}

func TestSubmitContent_StoresNormalizedLink(t *testing.T) {
	f := newFixture(t, false)
	owner := register(t, f, "0xABC", "Alice")

	ref, err := f.contents.SubmitContent(context.Background(), "  HTTPS://Example.com/Post ", "0xABC")
	require.NoError(t, err)

	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, "https://example.com/post", ref.Link)

	var c model.Content
	require.NoError(t, f.db.Where("id = ?", ref.ID).Take(&c).Error)
	assert.Equal(t, "https://example.com/post", c.Link)
	assert.Equal(t, owner.ID, c.OwnerID)
	assert.Equal(t, int64(0), c.ViewCount)
	assert.True(t, c.CreatedAt.Equal(f.clock.Now()))
}

func TestSubmitContent_DuplicateLinkVariants(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	_, err := f.contents.SubmitContent(ctx, "https://example.com/post", "0xABC")
	require.NoError(t, err)

	for _, variant := range []string{
		"https://example.com/post",
		"HTTPS://EXAMPLE.COM/POST",
		"  https://Example.com/Post\t",
	} {
		_, err = f.contents.SubmitContent(ctx, variant, "0xABC")
		require.Error(t, err, variant)
		assert.True(t, service.IsKind(err, service.KindConflict), variant)
	}

	var count int64
	require.NoError(t, f.db.Model(&model.Content{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitContent_ConcurrentSameLink(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.contents.SubmitContent(context.Background(), "https://example.com/race", "0xABC")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, service.IsKind(err, service.KindConflict), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSubmitContent_Validation(t *testing.T) {
	f := newFixture(t, true)

	testCases := []struct {
		name   string
		link   string
		wallet string
	}{
		{name: "empty link", link: "", wallet: "0xABC"},
		{name: "empty wallet", link: "https://example.com", wallet: " "},
		{name: "bad scheme", link: "ftp://example.com", wallet: "0xABC"},
		{name: "short host", link: "https://ab", wallet: "0xABC"},
		{name: "control characters", link: "https://example.com/" + string(make([]byte, 8)), wallet: "0xABC"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.contents.SubmitContent(context.Background(), tc.link, tc.wallet)
			require.Error(t, err)
			assert.True(t, service.IsKind(err, service.KindValidation))
		})
	}

	var users, contents int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, f.db.Model(&model.Content{}).Count(&contents).Error)
	assert.Zero(t, users, "validation must reject before any write")
	assert.Zero(t, contents)
}

func TestSubmitContent_LinkTooLong(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")

	long := "https://example.com/"
	for len(long) <= 800 {
		long += "abcdefghij"
	}

	_, err := f.contents.SubmitContent(context.Background(), long, "0xABC")
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))
	assert.Contains(t, err.Error(), "too long")
}

func TestSubmitContent_UnregisteredUserForbidden(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.contents.SubmitContent(context.Background(), "https://example.com/x", "0xZZZ")
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindForbidden))

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count, "no user may be created implicitly")
	require.NoError(t, f.db.Model(&model.Content{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitContent_AutoCreateUser(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	ref, err := f.contents.SubmitContent(ctx, "https://example.com/x", " 0xNEW ")
	require.NoError(t, err)

	owner, err := f.users.LookupUser(ctx, "0xNEW")
	require.NoError(t, err)

	var c model.Content
	require.NoError(t, f.db.Where("id = ?", ref.ID).Take(&c).Error)
	assert.Equal(t, owner.ID, c.OwnerID)

	var u model.User
	require.NoError(t, f.db.Where("id = ?", owner.ID).Take(&u).Error)
	assert.Nil(t, u.DisplayName)
}

func TestSubmitContent_AutoCreateKeepsExistingName(t *testing.T) {
	f := newFixture(t, true)
	owner := register(t, f, "0xABC", "Alice")

	_, err := f.contents.SubmitContent(context.Background(), "https://example.com/x", "0xABC")
	require.NoError(t, err)

	var u model.User
	require.NoError(t, f.db.Where("id = ?", owner.ID).Take(&u).Error)
	assert.Equal(t, "Alice", *u.DisplayName)
}

func TestSubmitContent_PolicySwitch(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	assert.False(t, f.contents.AutoCreateUser())
	_, err := f.contents.SubmitContent(ctx, "https://example.com/a", "0xNEW")
	assert.True(t, service.IsKind(err, service.KindForbidden))

	f.contents.SetAutoCreateUser(true)
	_, err = f.contents.SubmitContent(ctx, "https://example.com/a", "0xNEW")
	assert.NoError(t, err)

	_, err = f.contents.SubmitContentWithPolicy(ctx, "https://example.com/b", "0xOTHER", false)
	assert.True(t, service.IsKind(err, service.KindForbidden))
}

func TestListContent_NewestFirst(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	list, err := f.contents.ListContent(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	c1, err := f.contents.SubmitContent(ctx, "https://example.com/1", "0xABC")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	c2, err := f.contents.SubmitContent(ctx, "https://example.com/2", "0xABC")
	require.NoError(t, err)

	list, err = f.contents.ListContent(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, c2.ID, list[0].ID)
	assert.Equal(t, c1.ID, list[1].ID)
	assert.Equal(t, "https://example.com/2", list[0].Link)
	assert.Equal(t, "0xABC", list[0].WalletIdentity)
	require.NotNil(t, list[0].OwnerDisplayName)
	assert.Equal(t, "Alice", *list[0].OwnerDisplayName)
}

func TestListContent_SameTimestampKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	var ids []string
	for _, link := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		ref, err := f.contents.SubmitContent(ctx, link, "0xABC")
		require.NoError(t, err)
		ids = append(ids, ref.ID)
	}

	for i := 0; i < 2; i++ {
		list, err := f.contents.ListContent(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
	}
}

func TestIncrementViewCount_Sequential(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	ref, err := f.contents.SubmitContent(ctx, "https://example.com/post", "0xABC")
	require.NoError(t, err)

	const n = 5
	for i := 1; i <= n; i++ {
		vc, err := f.contents.IncrementViewCount(ctx, ref.ID)
		require.NoError(t, err)
		require.True(t, vc.Confirmed)
		assert.Equal(t, int64(i), *vc.Count)
	}
}

func TestIncrementViewCount_Concurrent(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	ref, err := f.contents.SubmitContent(ctx, "https://example.com/post", "0xABC")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.contents.IncrementViewCount(ctx, ref.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var c model.Content
	require.NoError(t, f.db.Where("id = ?", ref.ID).Take(&c).Error)
	assert.Equal(t, int64(n), c.ViewCount)
}

func TestIncrementViewCount_RefreshesUpdatedAt(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	ref, err := f.contents.SubmitContent(ctx, "https://example.com/post", "0xABC")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.contents.IncrementViewCount(ctx, ref.ID)
	require.NoError(t, err)

	var c model.Content
	require.NoError(t, f.db.Where("id = ?", ref.ID).Take(&c).Error)
	assert.True(t, c.UpdatedAt.Equal(f.clock.Now()))
}

func TestIncrementViewCount_UnknownID(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.contents.IncrementViewCount(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindNotFound))

	var count int64
	require.NoError(t, f.db.Model(&model.Content{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIncrementViewCount_EmptyID(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.contents.IncrementViewCount(context.Background(), "  ")
	assert.True(t, service.IsKind(err, service.KindValidation))
}

func TestIncrementViewCount_ReadBackFailure(t *testing.T) {
	f := newFixture(t, false)
	register(t, f, "0xABC", "Alice")
	ctx := context.Background()

	ref, err := f.contents.SubmitContent(ctx, "https://example.com/post", "0xABC")
	require.NoError(t, err)

	// 只让内容表上的查询失败，更新语句不受影响
	err = f.db.Callback().Query().Before("gorm:query").Register("test:fail_content_read", func(tx *gorm.DB) {
		if tx.Statement.Table == model.TableContent {
			_ = tx.AddError(errors.New("read replica unavailable"))
		}
	})
	require.NoError(t, err)

	vc, err := f.contents.IncrementViewCount(ctx, ref.ID)
	require.NoError(t, err)
	assert.False(t, vc.Confirmed)
	assert.Nil(t, vc.Count)

	require.NoError(t, f.db.Callback().Query().Remove("test:fail_content_read"))

	var c model.Content
	require.NoError(t, f.db.Where("id = ?", ref.ID).Take(&c).Error)
	assert.Equal(t, int64(1), c.ViewCount, "increment must have been applied")
}

func TestScenario_RegisterSubmitIncrement(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.users.RegisterOrUpdateUser(ctx, "0xABC", "Alice")
	require.NoError(t, err)

	ref, err := f.contents.SubmitContent(ctx, "HTTPS://Example.com/Post", "0xABC")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", ref.Link)

	_, err = f.contents.SubmitContent(ctx, "HTTPS://Example.com/Post", "0xABC")
	assert.True(t, service.IsKind(err, service.KindConflict))

	_, err = f.contents.IncrementViewCount(ctx, ref.ID)
	require.NoError(t, err)
	vc, err := f.contents.IncrementViewCount(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *vc.Count)

	_, err = f.contents.SubmitContent(ctx, "https://example.com/other", "0xZZZ")
	assert.True(t, service.IsKind(err, service.KindForbidden))
}
