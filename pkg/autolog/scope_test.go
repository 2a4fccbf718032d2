package autolog

import (
	"errors"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/wayneeseguin/autolog/pkg/types"
)

func TestScopeEntryAndExit(t *testing.T) {
	clock := newFakeClock()
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug), WithClock(clock.Now))

	scope := logger.AutoLog("Orders.Place", Arg("id", 42), Arg("sku", "A-1"))
	clock.Advance(1500 * time.Millisecond)
	scope.SetResult("ok")
	scope.Close()

	got := sink.Messages()
	want := []string{
		"Entering Orders.Place(id=42, sku=A-1)",
		"Exiting Orders.Place (1.5s) result=ok",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %q, got %q", want, got)
	}
	for _, r := range sink.Records() {
		if r.Level != types.LevelDebug {
			t.Errorf("Expected debug record, got level %d", r.Level)
		}
	}
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))

	scope := logger.AutoLog("Twice")
	scope.Close()
	scope.Close()

	if n := sink.Count("Exiting Twice"); n != 1 {
		t.Errorf("Expected 1 exit record, got %d", n)
	}
	m := logger.Metrics()
	if m.ScopesOpened != 1 || m.ScopesClosed != 1 {
		t.Errorf("Opened %d, closed %d", m.ScopesOpened, m.ScopesClosed)
	}
}

func TestScopeRedactsPasswordArguments(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug),
		WithIsPassword(map[string]bool{"Password": true, "Token": false}))

	scope := logger.AutoLog("Login", Arg("user", "bob"), Arg("password", "hunter2"), Arg("token", "visible"))
	scope.SetResult("welcome")
	scope.Close()

	if sink.Count("hunter2") != 0 {
		t.Errorf("Password value was written: %v", sink.Messages())
	}
	if sink.Count("password="+MaskToken) != 1 {
		t.Errorf("Expected masked password in entry record: %v", sink.Messages())
	}
	if sink.Count("token=visible") != 1 {
		t.Errorf("Flag set to false should not mask: %v", sink.Messages())
	}
}

func TestScopeFollowsRedactionChanges(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))

	logger.AutoLog("Connect", Arg("secret", "one")).Close()
	logger.SetIsPassword(map[string]bool{"SECRET": true})
	logger.AutoLog("Connect", Arg("secret", "two")).Close()

	if sink.Count("secret=one") != 1 || sink.Count("two") != 0 {
		t.Errorf("Unexpected records: %v", sink.Messages())
	}
}

func TestScopeSuppressedBelowLevel(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelInfo))

	scope := logger.AutoLog("Quiet", Arg("x", 1))
	scope.Close()

	if sink.Len() != 0 {
		t.Errorf("Expected no records at Info, got %v", sink.Messages())
	}
}

func TestScopeErrorPath(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))
	cause := pkgerrors.New("connection refused")

	err := Call(logger, "Repo.Load", []Argument{Arg("id", 7)}, func() error {
		return cause
	})

	if err != cause {
		t.Fatalf("Expected the original error back, got %v", err)
	}
	if n := sink.Count("Entering Repo.Load"); n != 1 {
		t.Errorf("Expected 1 entry record, got %d", n)
	}
	if n := sink.Count("Exiting Repo.Load"); n != 1 {
		t.Errorf("Expected 1 exit record, got %d", n)
	}

	var failure *types.Record
	for _, r := range sink.Records() {
		if strings.HasPrefix(r.Message, "Exception in Repo.Load: connection refused") {
			r := r
			failure = &r
		}
	}
	if failure == nil {
		t.Fatalf("No failure record: %v", sink.Messages())
	}
	if failure.Level != types.LevelError {
		t.Errorf("Failure level = %d", failure.Level)
	}
	// pkg/errors stack names the function that created the error
	if !strings.Contains(failure.Message, "TestScopeErrorPath") {
		t.Errorf("Expected stack trace in failure record: %s", failure.Message)
	}
	if logger.Metrics().ScopeFailures != 1 {
		t.Errorf("ScopeFailures = %d", logger.Metrics().ScopeFailures)
	}
}

func TestLogFunctionWithPlainError(t *testing.T) {
	logger, sink, _ := newTestLogger(t)
	scope := logger.AutoLog("Plain")
	defer scope.Close()

	cause := errors.New("plain failure")
	if got := scope.LogFunction(cause); got != cause {
		t.Errorf("LogFunction changed the error")
	}
	if got := scope.LogFunction(nil); got != nil {
		t.Errorf("LogFunction(nil) = %v", got)
	}

	msgs := sink.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "goroutine") {
		t.Errorf("Expected one failure record with a runtime stack, got %v", msgs)
	}
}

func TestScopePanicPath(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))

	var recovered interface{}
	func() {
		defer func() { recovered = recover() }()
		scope := logger.AutoLog("Explode")
		defer scope.Close()
		panic("boom")
	}()

	if recovered != "boom" {
		t.Fatalf("Expected panic value to propagate, got %v", recovered)
	}
	if n := sink.Count("Entering Explode"); n != 1 {
		t.Errorf("Expected 1 entry record, got %d", n)
	}
	if n := sink.Count("Exiting Explode"); n != 1 {
		t.Errorf("Expected 1 exit record, got %d", n)
	}
	if n := sink.Count("Panic in Explode: boom"); n != 1 {
		t.Errorf("Expected 1 failure record, got %d", n)
	}
}

func TestNestedScopes(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))

	inner := func() error {
		return Call(logger, "Inner", nil, func() error { return errors.New("inner failed") })
	}
	err := Call(logger, "Outer", nil, inner)
	if err == nil || err.Error() != "inner failed" {
		t.Fatalf("Unexpected error: %v", err)
	}

	var order []string
	for _, m := range sink.Messages() {
		switch {
		case strings.HasPrefix(m, "Entering"), strings.HasPrefix(m, "Exiting"):
			order = append(order, strings.Fields(m)[0]+" "+strings.TrimSuffix(strings.Fields(m)[1], "()"))
		}
	}
	want := []string{"Entering Outer", "Entering Inner", "Exiting Inner", "Exiting Outer"}
	if strings.Join(order, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, order)
	}
	if n := sink.Count("Exception in"); n != 2 {
		t.Errorf("Expected a failure record per scope, got %d", n)
	}
}

func TestCallValueRecordsResult(t *testing.T) {
	logger, sink, _ := newTestLogger(t, WithLevel(types.LevelDebug))

	v, err := CallValue(logger, "Count", nil, func() (int, error) { return 3, nil })
	if err != nil || v != 3 {
		t.Fatalf("CallValue = %d, %v", v, err)
	}
	if sink.Count("result=3") != 1 {
		t.Errorf("Result missing from exit record: %v", sink.Messages())
	}
}

func TestAutoLogDefaultsToCallerName(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	scope := logger.AutoLog("")
	defer scope.Close()
	if !strings.Contains(scope.Method(), "TestAutoLogDefaultsToCallerName") {
		t.Errorf("Method = %q", scope.Method())
	}
}

func TestSlowDataAccessEscalates(t *testing.T) {
	tests := []struct {
		name      string
		sleep     time.Duration
		escalated bool
	}{
		{"six seconds exceeds five", 6 * time.Second, true},
		{"one second does not", 1 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			logger, sink, _ := newTestLogger(t, WithClock(clock.Now), WithLevel(types.LevelFatal))
			if err := logger.SetAutoLogSQLThreshold(5.0); err != nil {
				t.Fatal(err)
			}

			scope := logger.AutoLogSQL("Orders.Query", Arg("sql", "SELECT 1"))
			clock.Advance(tt.sleep)
			scope.Close()

			records := sink.Records()
			if !tt.escalated {
				if len(records) != 0 {
					t.Errorf("Expected no records, got %v", sink.Messages())
				}
				return
			}
			if len(records) != 1 {
				t.Fatalf("Expected 1 escalated record, got %v", sink.Messages())
			}
			if records[0].Level != types.LevelWarn {
				t.Errorf("Expected Warn, got level %d", records[0].Level)
			}
			if !strings.HasPrefix(records[0].Message, "Exiting Orders.Query (6s)") {
				t.Errorf("Unexpected message %q", records[0].Message)
			}
			if logger.Metrics().Escalations != 1 {
				t.Errorf("Escalations = %d", logger.Metrics().Escalations)
			}
		})
	}
}

func TestSlowNonDataAccessDoesNotEscalate(t *testing.T) {
	clock := newFakeClock()
	logger, sink, _ := newTestLogger(t, WithClock(clock.Now), WithLevel(types.LevelFatal),
		WithAutoLogSQLThreshold(1))

	scope := logger.AutoLog("Compute")
	clock.Advance(10 * time.Second)
	scope.Close()

	if sink.Len() != 0 {
		t.Errorf("Expected no records, got %v", sink.Messages())
	}
}

func TestZeroThresholdDisablesEscalation(t *testing.T) {
	clock := newFakeClock()
	logger, sink, _ := newTestLogger(t, WithClock(clock.Now), WithLevel(types.LevelFatal))

	scope := logger.AutoLogSQL("Query")
	clock.Advance(time.Hour)
	scope.Close()

	if sink.Len() != 0 {
		t.Errorf("Expected no records, got %v", sink.Messages())
	}
}

func BenchmarkScopeSuppressed(b *testing.B) {
	logger, err := New(WithSink(types.SinkFunc(func(int, string, time.Time) {})), WithLevel(types.LevelError))
	if err != nil {
		b.Fatal(err)
	}
	defer logger.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scope := logger.AutoLog("Bench", Arg("i", i))
		scope.Close()
	}
}
