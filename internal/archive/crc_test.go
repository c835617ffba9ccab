package archive

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{name: "nil", data: nil, want: 0},
		{name: "empty", data: []byte{}, want: 0},
		{name: "fox", data: []byte("The quick brown fox jumps over the lazy dog"), want: 0x414fa339},
		{name: "check", data: []byte("123456789"), want: 0xcbf43926},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Checksum(tt.data))
		})
	}
}

func TestChecksumMatchesIEEE(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}

	for _, n := range []int{1, 3, 255, 256, 1000, len(data)} {
		require.Equal(t, crc32.ChecksumIEEE(data[:n]), Checksum(data[:n]), "length %d", n)
	}
}

func TestChecksumTableIsShared(t *testing.T) {
	require.Same(t, crcTable(), crcTable())
	require.Equal(t, uint32(0), crcTable()[0])
	require.Equal(t, uint32(0x77073096), crcTable()[1])
}
