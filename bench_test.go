package typedws_test

import (
	"strconv"
	"testing"

	"github.com/typedws/typedws"
	"github.com/typedws/typedws/internal/test/xrand"
)

func BenchmarkCodecEncode(b *testing.B) {
	sizes := []int{8, 128, 1024, 16384}

	codecs := []struct {
		name  string
		codec typedws.Codec
	}{
		{"json", typedws.JSONCodec{}},
		{"binaryJSON", typedws.BinaryJSONCodec{}},
	}

	for _, c := range codecs {
		b.Run(c.name, func(b *testing.B) {
			for _, size := range sizes {
				b.Run(strconv.Itoa(size), func(b *testing.B) {
					msg := xrand.String(size)
					b.SetBytes(int64(size))
					b.ReportAllocs()
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						_, _, err := c.codec.Encode(msg)
						if err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}
