package commands

import (
	"fmt"
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Example_formatFor() {
	fmt.Println(formatFor("/etc/config.YML"))
	fmt.Println(formatFor("notes.jsonc"))
	fmt.Println(formatFor("archive.tar.gz"))
	fmt.Println(formatFor("README"))
	// Output: yaml
	// json
	// gz
	//
}

func columns(t *testing.T, v protocol.Value) []string {
	t.Helper()
	rec, ok := v.(protocol.Record)
	require.True(t, ok, "expected a record, got %s", protocol.TypeOf(v))
	return rec.Columns()
}

func TestFromJSON(t *testing.T) {
	f := newShell(t, nil)

	t.Run("keeps key order", func(t *testing.T) {
		v := f.mustRun(t, `'{"zeta": 1, "alpha": {"y": 2, "x": 3}}' | from json`)
		assert.Equal(t, []string{"zeta", "alpha"}, columns(t, v))
		inner, _ := v.(protocol.Record).Get("alpha")
		assert.Equal(t, []string{"y", "x"}, columns(t, inner))
	})

	t.Run("comments", func(t *testing.T) {
		v := f.mustRun(t, `"[1, /* two */ 2]" | from json`)
		assert.True(t, protocol.Equal(protocol.Ints(protocol.UnknownSpan, 1, 2), v))
	})

	t.Run("strict rejects comments", func(t *testing.T) {
		_, err := f.run(`"[1, /* two */ 2]" | from json --strict`, nil)
		assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))
	})

	t.Run("escapes", func(t *testing.T) {
		v := f.mustRun(t, `'["aé\n"]' | from json`)
		assert.True(t, protocol.Equal(protocol.Strings(protocol.UnknownSpan, "aé\n"), v))
	})

	t.Run("large numbers become floats", func(t *testing.T) {
		v := f.mustRun(t, `'[1e3, 99999999999999999999]' | from json`)
		list := v.(protocol.List)
		assert.Equal(t, protocol.KindFloat, list.Vals[0].Kind())
		assert.Equal(t, protocol.KindFloat, list.Vals[1].Kind())
	})

	t.Run("empty input", func(t *testing.T) {
		v := f.mustRun(t, `'  ' | from json`)
		assert.True(t, protocol.IsNothing(v))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := f.run(`'{"a": }' | from json`, nil)
		assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))
	})
}

func TestToJSON(t *testing.T) {
	f := newShell(t, nil)

	cases := map[string]string{
		"{b: '<&>', a: null} | to json -r":        `{"b":"<&>","a":null}`,
		"[1.5 2] | to json --indent 0":            "[1.5,2]",
		"{a: {b: [1]}} | to json -i 1":            "{\n \"a\": {\n  \"b\": [\n   1\n  ]\n }\n}",
		"'abc' | into binary | to json --raw":     "[97,98,99]",
		"1..3 | to json -r":                       "[1,2,3]",
		"'x' | to json":                           `"x"`,
		"{a: 1} | to json -r | from json | get a": "1",
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			got, err := f.run(src, nil)
			require.NoError(t, err)
			s, err := protocol.CoerceString(got)
			require.NoError(t, err)
			assert.Equal(t, want, s)
		})
	}
}

func TestYAML(t *testing.T) {
	f := newShell(t, nil)

	v := f.mustRun(t, `"- name: b\n  id: 2\n- name: a\n  id: 1" | from yaml`)
	list, ok := v.(protocol.List)
	require.True(t, ok)
	require.Len(t, list.Vals, 2)
	assert.Equal(t, []string{"name", "id"}, columns(t, list.Vals[0]))

	v = f.mustRun(t, `"- 1\n- {z: 1, a: 2}" | from yaml`)
	list = v.(protocol.List)
	assert.Equal(t, protocol.KindInt, list.Vals[0].Kind())
	assert.Equal(t, []string{"a", "z"}, columns(t, list.Vals[1]), "mixed sequences fall back to sorted keys")

	v = f.mustRun(t, `"plain" | from yaml`)
	assert.Equal(t, "plain", v.(protocol.String).Val)

	_, err := f.run(`"a: [1" | from yaml`, nil)
	assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))

	v = f.mustRun(t, "{z: 1, a: 2} | to yaml | from yaml")
	assert.Equal(t, []string{"z", "a"}, columns(t, v))

	v = f.mustRun(t, "[y no] | to yaml | from yaml")
	assert.True(t, protocol.Equal(protocol.Strings(protocol.UnknownSpan, "y", "no"), v), "yaml 1.1 booleans stay strings")
}

func TestTOML(t *testing.T) {
	f := newShell(t, nil)

	v := f.mustRun(t, `"when = 1979-05-27\nat = 07:32:00" | from toml`)
	when, _ := v.(protocol.Record).Get("when")
	assert.Equal(t, "1979-05-27", when.(protocol.String).Val)

	_, err := f.run("[1 2] | to toml", nil)
	assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))

	_, err = f.run("{a: null} | to toml", nil)
	assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))

	_, err = f.run(`"a = " | from toml`, nil)
	assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))
}

func TestCBOR(t *testing.T) {
	f := newShell(t, nil)

	a := f.mustRun(t, "{b: 1, a: 2} | to cbor")
	b := f.mustRun(t, "{a: 2, b: 1} | to cbor")
	assert.True(t, protocol.Equal(a, b), "encoding is deterministic")

	v := f.mustRun(t, "{data: ('hi' | into binary), n: -5, f: 1.5} | to cbor | from cbor")
	data, _ := v.(protocol.Record).Get("data")
	assert.Equal(t, []byte("hi"), data.(protocol.Binary).Val)
	n, _ := v.(protocol.Record).Get("n")
	assert.Equal(t, int64(-5), n.(protocol.Int).Val)

	_, err := f.run("'not cbor' | into binary | from cbor", nil)
	assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))
}

func TestProtobuf(t *testing.T) {
	f := newShell(t, nil)

	v := f.mustRun(t, "[1 2.5 null 'x' [true]] | to protobuf | from protobuf")
	want := protocol.NewList([]protocol.Value{
		protocol.NewInt(1, protocol.UnknownSpan),
		protocol.NewFloat(2.5, protocol.UnknownSpan),
		protocol.NewNothing(protocol.UnknownSpan),
		protocol.NewString("x", protocol.UnknownSpan),
		protocol.NewList([]protocol.Value{protocol.NewBool(true, protocol.UnknownSpan)}, protocol.UnknownSpan),
	}, protocol.UnknownSpan)
	assert.True(t, protocol.Equal(want, v))
}
