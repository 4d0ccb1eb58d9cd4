package api_test

import (
	"context"

	"content-registry/service"

	"github.com/stretchr/testify/mock"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) RegisterOrUpdateUser(ctx context.Context, walletIdentity, displayName string) (*service.UserRef, error) {
	args := m.Called(ctx, walletIdentity, displayName)
	ref, _ := args.Get(0).(*service.UserRef)
	return ref, args.Error(1)
}

func (m *mockUsers) ListUsers(ctx context.Context) ([]service.UserSummary, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]service.UserSummary)
	return users, args.Error(1)
}

type mockContents struct {
	mock.Mock
}

func (m *mockContents) SubmitContent(ctx context.Context, link, walletIdentity string) (*service.ContentRef, error) {
	args := m.Called(ctx, link, walletIdentity)
	ref, _ := args.Get(0).(*service.ContentRef)
	return ref, args.Error(1)
}

func (m *mockContents) ListContent(ctx context.Context) ([]service.ContentSummary, error) {
	args := m.Called(ctx)
	contents, _ := args.Get(0).([]service.ContentSummary)
	return contents, args.Error(1)
}

func (m *mockContents) IncrementViewCount(ctx context.Context, contentID string) (*service.ViewCount, error) {
	args := m.Called(ctx, contentID)
	vc, _ := args.Get(0).(*service.ViewCount)
	return vc, args.Error(1)
}

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) FetchFeed(ctx context.Context) (interface{}, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}
