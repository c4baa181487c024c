package factory

import (
	"time"

	"github.com/mcoot/rpsduel/internal/dependencies/mocks"
	"github.com/mcoot/rpsduel/internal/storage/memory"
	"github.com/mcoot/rpsduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App backed by in-memory storage with a mocked clock
// and random source. policy selects the scoring strategy.
func NewTestApp(policy string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(store, mockClock, mockRandom, Config{ScoringPolicy: policy}, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
