// Package assert panics on constructor misuse, these are programmer errors and never user input.
package assert

import "fmt"

func NotNil(name string, value any) {
	if value == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
}

func NotEmptyStr(name, str string) {
	if str == "" {
		panic(fmt.Sprintf("%s must not be empty", name))
	}
}

func NotEmptySlice[T any](name string, values []T) {
	if len(values) == 0 {
		panic(fmt.Sprintf("%s must have at least one element", name))
	}
}
