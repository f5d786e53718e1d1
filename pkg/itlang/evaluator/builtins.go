package evaluator

import (
	"fmt"
	"math"
	"time"

	"github.com/araddon/dateparse"
)

// Clock supplies the current time to time()
type Clock func() time.Time

// NewBuiltins returns the native functions every program starts with
func NewBuiltins(clock Clock) map[string]*Builtin {
	if clock == nil {
		clock = time.Now
	}
	return map[string]*Builtin{
		"print":   {Name: "print", Fn: builtinPrint},
		"println": {Name: "println", Fn: builtinPrintln},
		"time":    {Name: "time", Fn: timeBuiltin(clock)},
		"exit":    {Name: "exit", Fn: builtinExit},
	}
}

func logValues(args []Object) []any {
	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = arg.Inspect()
	}
	return values
}

func builtinPrint(env *Environment, args ...Object) Object {
	env.Logger.Log(logValues(args)...)
	return NULL
}

func builtinPrintln(env *Environment, args ...Object) Object {
	env.Logger.LogLine(logValues(args)...)
	return NULL
}

// timeBuiltin returns the current time as an object. Given a string it
// parses that instead and returns null when the text is not a date.
func timeBuiltin(clock Clock) BuiltinFunction {
	return func(env *Environment, args ...Object) Object {
		now := clock()
		if len(args) == 0 {
			return timeToDictionary(now)
		}
		text, ok := args[0].(*String)
		if !ok {
			return NULL
		}
		t, err := dateparse.ParseIn(text.Value, now.Location())
		if err != nil {
			return NULL
		}
		return timeToDictionary(t)
	}
}

func timeToDictionary(t time.Time) *Dictionary {
	millis := float64(t.Nanosecond() / int(time.Millisecond))
	fields := []struct {
		name  string
		value float64
	}{
		{"hour", float64(t.Hour())},
		{"minute", float64(t.Minute())},
		{"second", float64(t.Second())},
		{"milisecond", millis},
		{"millisecond", millis},
		{"microsecond", float64(t.Nanosecond() / int(time.Microsecond) % 1000)},
		{"day", float64(t.Day())},
		{"month", float64(t.Month())},
		{"year", float64(t.Year())},
	}

	dict := NewDictionary()
	for _, f := range fields {
		dict.Props.Declare(f.name, &Number{Value: f.value}, false)
	}
	return dict
}

// builtinExit halts the program. A code that is not a number halts with
// status 1.
func builtinExit(env *Environment, args ...Object) Object {
	halt := &Halt{}
	if len(args) > 0 {
		num, ok := args[0].(*Number)
		switch {
		case !ok:
			return &Halt{Code: 1, Message: fmt.Sprintf("exit code must be a number, got %s", typeName(args[0]))}
		case math.IsNaN(num.Value) || math.IsInf(num.Value, 0):
			return &Halt{Code: 1, Message: "exit code must be finite"}
		}
		halt.Code = int(num.Value)
	}
	if len(args) > 1 {
		halt.Message = args[1].Inspect()
	}
	return halt
}
