package engine

import "fmt"

func ExampleNewEnvFromList() {
	env := NewEnvFromList([]string{"C=D", "A=B", "E", "F=G=H"})

	fmt.Printf("Environ(): %q\n", env.Environ())
	fmt.Printf("Getenv(\"F\"): %q\n", env.Getenv("F"))

	// Output: Environ(): ["A=B" "C=D" "E=" "F=G=H"]
	// Getenv("F"): "G=H"
}

func ExampleEnv_Unsetenv() {
	env := NewEnv()
	env.Setenv("A", "B")
	env.Setenv("C", "D")

	fmt.Println("Before:", env.Environ())
	env.Unsetenv("A")
	fmt.Println("After:", env.Environ())

	// Output: Before: [A=B C=D]
	// After: [C=D]
}

func ExampleEnv_LookupEnv() {
	env := NewEnv()
	env.Setenv("A", "B")

	val, ok := env.LookupEnv("A")
	fmt.Println("Existing", "val:", val, "ok:", ok)
	val, ok = env.LookupEnv("B")
	fmt.Println("Missing", "val:", val, "ok:", ok)

	// Output: Existing val: B ok: true
	// Missing val:  ok: false
}

func ExampleEnv_ReplaceWith() {
	caller := NewEnvFromList([]string{"KEEP=1", "DROP=1"})
	callee := caller.Clone()
	callee.Unsetenv("DROP")
	callee.Setenv("NEW", "2")

	fmt.Println("Caller before:", caller.Environ())
	caller.ReplaceWith(callee)
	fmt.Println("Caller after:", caller.Environ())

	// Output: Caller before: [DROP=1 KEEP=1]
	// Caller after: [KEEP=1 NEW=2]
}
