package codec

import "testing"

type addArgs struct {
	A, B int
}

func TestJSONRoundTrip(t *testing.T) {
	var c Codec = JSON{}

	original := &addArgs{A: 1, B: 2}
	data, err := c.Encode(original)
	if err != nil {
		t.Fatalf("JSON Encode failed: %v", err)
	}

	var decoded addArgs
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("JSON Decode failed: %v", err)
	}

	if decoded != *original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, *original)
	}
}

func TestMsgPackRoundTrip(t *testing.T) {
	var c Codec = MsgPack{}

	original := &addArgs{A: 10, B: 20}
	data, err := c.Encode(original)
	if err != nil {
		t.Fatalf("MsgPack Encode failed: %v", err)
	}

	var decoded addArgs
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("MsgPack Decode failed: %v", err)
	}

	if decoded != *original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, *original)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	c := Compressed(MsgPack{})

	original := &addArgs{A: 100, B: 200}
	data, err := c.Encode(original)
	if err != nil {
		t.Fatalf("Compressed Encode failed: %v", err)
	}

	var decoded addArgs
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Compressed Decode failed: %v", err)
	}

	if decoded != *original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, *original)
	}
}

func TestCompressedRejectsUncompressedInput(t *testing.T) {
	inner := JSON{}
	c := Compressed(inner)

	plain, err := inner.Encode(&addArgs{A: 1, B: 1})
	if err != nil {
		t.Fatalf("inner Encode failed: %v", err)
	}

	var decoded addArgs
	if err := c.Decode(plain, &decoded); err == nil {
		t.Fatal("expect error decoding non-snappy bytes as compressed payload")
	}
}
