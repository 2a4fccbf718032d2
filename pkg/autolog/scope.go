package autolog

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/wayneeseguin/autolog/internal/buffer"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// Argument is one named argument recorded by a CallScope.
type Argument struct {
	Name  string
	Value interface{}
}

// Arg builds an Argument.
func Arg(name string, value interface{}) Argument {
	return Argument{Name: name, Value: value}
}

// CallScope brackets one invocation of an instrumented method. It writes
// exactly one entry record when opened and exactly one exit record when
// closed, whichever way the method returns.
//
// A scope belongs to the goroutine and frame that opened it. Nested scopes
// are independent values.
type CallScope struct {
	logger     *Logger
	method     string
	dataAccess bool
	start      time.Time

	closed    atomic.Bool
	result    interface{}
	hasResult bool
}

// AutoLog opens a scope for method. An empty method uses the caller's
// function name.
//
// Example:
//
//	func (s *Store) Get(id string, password string) (err error) {
//	    scope := logger.AutoLog("Store.Get", autolog.Arg("id", id), autolog.Arg("password", password))
//	    defer scope.Close()
//	    ...
//	}
func (l *Logger) AutoLog(method string, args ...Argument) *CallScope {
	if method == "" {
		method = callerName(2)
	}
	return l.openScope(method, false, args)
}

// AutoLogSQL opens a scope for a data-access call. When the call takes
// longer than AutoLogSQLThreshold its exit record is written at Warn
// whatever the current LogLevel.
func (l *Logger) AutoLogSQL(method string, args ...Argument) *CallScope {
	if method == "" {
		method = callerName(2)
	}
	return l.openScope(method, true, args)
}

func (l *Logger) openScope(method string, dataAccess bool, args []Argument) *CallScope {
	s := &CallScope{
		logger:     l,
		method:     method,
		dataAccess: dataAccess,
	}
	l.metrics.TrackScopeOpened()

	snap := l.store.Get()
	if snap.Enabled(types.LevelDebug, "") {
		b := buffer.Get()
		b.WriteString("Entering ")
		b.WriteString(method)
		b.WriteByte('(')
		for i, a := range args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteByte('=')
			if snap.IsPasswordKey(a.Name) {
				b.WriteString(MaskToken)
			} else {
				fmt.Fprint(b, a.Value)
			}
		}
		b.WriteByte(')')
		msg := b.String()
		buffer.Put(b)
		l.emit(types.LevelDebug, msg)
	}

	// taken last so entry formatting is not part of the measured time
	s.start = l.now()
	return s
}

// Method returns the method identity the scope was opened with.
func (s *CallScope) Method() string { return s.method }

// SetResult records a value to include in the exit record.
func (s *CallScope) SetResult(v interface{}) {
	s.result = v
	s.hasResult = true
}

// Close writes the exit record. Calls after the first do nothing.
//
// When Close is deferred directly, a panic unwinding through the method is
// logged as a failure at Error before the exit record, and then resumes
// with the same value.
func (s *CallScope) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	r := recover()
	if r != nil {
		s.logger.metrics.TrackScopeFailure()
		if s.logger.store.Get().Enabled(types.LevelError, "") {
			s.logger.emit(types.LevelError,
				fmt.Sprintf("Panic in %s: %v\n%s", s.method, r, debug.Stack()))
		}
	}
	s.writeExit()
	s.logger.metrics.TrackScopeClosed()
	if r != nil {
		panic(r)
	}
}

func (s *CallScope) writeExit() {
	elapsed := s.logger.now().Sub(s.start)
	snap := s.logger.store.Get()

	level := types.LevelDebug
	escalated := false
	if s.dataAccess {
		if t := snap.AutoLogSQLThreshold(); t > 0 && elapsed.Seconds() > t {
			level = types.LevelWarn
			escalated = true
		}
	}
	if !escalated && !snap.Enabled(level, "") {
		return
	}

	msg := fmt.Sprintf("Exiting %s (%s)", s.method, elapsed)
	if s.hasResult {
		msg += fmt.Sprintf(" result=%v", s.result)
	}
	if escalated {
		s.logger.metrics.TrackEscalation()
		msg += fmt.Sprintf(" exceeded AutoLogSQLThreshold of %gs", snap.AutoLogSQLThreshold())
	}
	s.logger.emit(level, msg)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// LogFunction logs err at Error with its stack, tagged with the scope's
// method, and returns err unchanged so it can be returned to the caller.
// The stack recorded by github.com/pkg/errors is used when err carries one;
// otherwise the current goroutine's stack is used. A nil err is ignored.
//
// Example:
//
//	if err := db.Exec(q); err != nil {
//	    return scope.LogFunction(err)
//	}
func (s *CallScope) LogFunction(err error) error {
	if err == nil {
		return nil
	}
	s.logger.metrics.TrackScopeFailure()
	if !s.logger.store.Get().Enabled(types.LevelError, "") {
		return err
	}

	var stack string
	var st stackTracer
	if errors.As(err, &st) {
		stack = fmt.Sprintf("%+v", st.StackTrace())
	} else {
		stack = string(debug.Stack())
	}
	s.logger.emit(types.LevelError,
		fmt.Sprintf("Exception in %s: %v\n%s", s.method, err, strings.TrimLeft(stack, "\n")))
	return err
}

// Call runs fn inside a scope for method. An error returned by fn is logged
// through LogFunction and returned unchanged.
func Call(l *Logger, method string, args []Argument, fn func() error) error {
	scope := l.AutoLog(method, args...)
	defer scope.Close()
	return scope.LogFunction(fn())
}

// CallValue is Call for functions that return a value; the value is
// included in the exit record.
func CallValue[T any](l *Logger, method string, args []Argument, fn func() (T, error)) (T, error) {
	scope := l.AutoLog(method, args...)
	defer scope.Close()
	v, err := fn()
	if err != nil {
		return v, scope.LogFunction(err)
	}
	scope.SetResult(v)
	return v, nil
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
