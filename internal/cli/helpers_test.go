package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store/memstore"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var dayOne = time.Date(2025, 5, 1, 0, 0, 0, 0, time.Local)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTestTracker(t *testing.T) (*tracker.Tracker, *memstore.Store, *testClock) {
	t.Helper()
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })
	c := &testClock{now: dayOne.Add(8 * time.Hour)}
	return tracker.New(s, c, "u1"), s, c
}

// activePlan sets up a 90 -> 80 kg plan over 50 days that is active today.
func activePlan(t *testing.T, tr *tracker.Tracker) {
	t.Helper()
	_, err := tr.Setup(context.Background(), tracker.SetupInput{
		StartWeight:   90,
		TargetWeight:  80,
		NumberOfDays:  50,
		WeightingTime: plan.Yesterday,
	})
	require.NoError(t, err)
}

func pendingPlan(t *testing.T, tr *tracker.Tracker) {
	t.Helper()
	_, err := tr.Setup(context.Background(), tracker.SetupInput{
		StartWeight:   90,
		TargetWeight:  80,
		NumberOfDays:  50,
		WeightingTime: plan.Tonight,
	})
	require.NoError(t, err)
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(stdout)
	cmd.SetErr(stdout)
	return cmd, stdout
}
