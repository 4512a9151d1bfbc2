// SPDX-License-Identifier: Apache-2.0

// Package testutil holds testify mocks shared by package tests.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/github"
)

// MockProvider is a catalog.Provider.
type MockProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) Actions(ctx context.Context) ([]catalog.ActionDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ActionDefinition), args.Error(1)
}

// MockStore is a store.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStore) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockGitHub is the GitHub collaborator of the sync package.
type MockGitHub struct {
	mock.Mock
}

func (m *MockGitHub) GetFile(ctx context.Context, owner, repo, path, ref string) (*github.File, error) {
	args := m.Called(ctx, owner, repo, path, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.File), args.Error(1)
}

func (m *MockGitHub) PutFile(ctx context.Context, req github.PutFileRequest) (*github.PushResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.PushResult), args.Error(1)
}

func (m *MockGitHub) CreateBranch(ctx context.Context, owner, repo, branch, from string) (*github.Ref, error) {
	args := m.Called(ctx, owner, repo, branch, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Ref), args.Error(1)
}

func (m *MockGitHub) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
