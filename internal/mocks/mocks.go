// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/autosign/internal/audit"
	"github.com/xkilldash9x/autosign/internal/locator"
)

var (
	_ locator.Driver = (*MockDriver)(nil)
	_ audit.Capturer = (*MockCapturer)(nil)
)

// -- Driver Mock --

// MockDriver mocks locator.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Wait(ctx context.Context, xpath string, cond locator.Condition) error {
	args := m.Called(ctx, xpath, cond)
	return args.Error(0)
}

func (m *MockDriver) WaitGone(ctx context.Context, xpath string) error {
	args := m.Called(ctx, xpath)
	return args.Error(0)
}

func (m *MockDriver) ScrollIntoView(ctx context.Context, xpath string) error {
	args := m.Called(ctx, xpath)
	return args.Error(0)
}

func (m *MockDriver) Click(ctx context.Context, xpath string) error {
	args := m.Called(ctx, xpath)
	return args.Error(0)
}

func (m *MockDriver) Type(ctx context.Context, xpath string, text string) error {
	args := m.Called(ctx, xpath, text)
	return args.Error(0)
}

// -- Capturer Mock --

// MockCapturer mocks audit.Capturer.
type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var buf []byte
	if b := args.Get(0); b != nil {
		buf = b.([]byte)
	}
	return buf, args.Error(1)
}
