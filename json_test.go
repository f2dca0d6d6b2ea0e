package typedws

import (
	"strings"
	"testing"

	"github.com/typedws/typedws/internal/test/xrand"
)

type jsonTestMsg struct {
	Kind  string   `json:"kind"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func TestJSONCodec(t *testing.T) {
	t.Parallel()

	t.Run("roundTrip", func(t *testing.T) {
		t.Parallel()

		exp := jsonTestMsg{Kind: "greeting", Count: 3, Tags: []string{"a", "b"}}

		typ, p, err := JSONCodec{}.Encode(exp)
		if err != nil {
			t.Fatal(err)
		}
		if typ != MessageText {
			t.Fatalf("expected %v but got %v", MessageText, typ)
		}

		var got jsonTestMsg
		err = JSONCodec{}.Decode(typ, p, &got)
		if err != nil {
			t.Fatal(err)
		}
		if exp.Kind != got.Kind || exp.Count != got.Count || len(exp.Tags) != len(got.Tags) {
			t.Fatalf("expected %#v but got %#v", exp, got)
		}
	})

	t.Run("binaryVariant", func(t *testing.T) {
		t.Parallel()

		typ, p, err := BinaryJSONCodec{}.Encode("hi")
		if err != nil {
			t.Fatal(err)
		}
		if typ != MessageBinary {
			t.Fatalf("expected %v but got %v", MessageBinary, typ)
		}

		// The text variant must decode the binary variant's frames and
		// vice versa.
		var got string
		err = JSONCodec{}.Decode(typ, p, &got)
		if err != nil {
			t.Fatal(err)
		}
		if got != "hi" {
			t.Fatalf("expected %q but got %q", "hi", got)
		}
	})

	t.Run("noTrailingNewline", func(t *testing.T) {
		t.Parallel()

		_, p, err := JSONCodec{}.Encode(xrand.String(128))
		if err != nil {
			t.Fatal(err)
		}
		if strings.HasSuffix(string(p), "\n") {
			t.Fatalf("unexpected trailing newline: %q", p)
		}
	})

	t.Run("decodeError", func(t *testing.T) {
		t.Parallel()

		var got int
		err := JSONCodec{}.Decode(MessageText, []byte(`"not a number"`), &got)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("encodeError", func(t *testing.T) {
		t.Parallel()

		_, _, err := JSONCodec{}.Encode(make(chan int))
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
