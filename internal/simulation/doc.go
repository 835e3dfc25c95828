// Package simulation provides a multi-month test harness for validating the
// emergent dynamics of a full simulation run.
//
// The harness exercises the real Engine, every registered phase and the
// SQLiteRunStore. No mocks are involved. Scenarios are Go builders that
// construct a hand-placed population (or let the engine generate one), run
// a configurable number of months, and capture per-tick snapshots for
// property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir() and a sandboxed
// HOME to prevent touching user data.
//
// Usage:
//
//	func TestSleepersWake(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "sleepers-wake",
//	        Seed:   42,
//	        Months: 1,
//	        Agents: []simulation.AgentSpec{{Count: 5, Capability: 2.6, Sleeper: world.SleeperDormant}},
//	    })
//	    simulation.AssertEventCount(t, result, sleeper.TitleWake, 5)
//	}
package simulation
