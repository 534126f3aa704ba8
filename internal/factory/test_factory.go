package factory

import (
	"time"

	"github.com/duelboard/duelboard/internal/dependencies/mocks"
	"github.com/duelboard/duelboard/internal/storage/memory"
	"github.com/duelboard/duelboard/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Emails     *RecordingEmailSender
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	emails := &RecordingEmailSender{}

	app := newWithDependencies(store, mockClock, mockRandom, emails, Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Emails:     emails,
	}
}
