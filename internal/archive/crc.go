package archive

import "sync"

const crcPolynomial = 0xedb88320

// crcTable is built on first use and never written again.
var crcTable = sync.OnceValue(func() *[256]uint32 {
	var table [256]uint32
	for i := range table {
		c := uint32(i)
		for j := 0; j < 8; j++ {
			if c&1 == 1 {
				c = crcPolynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		table[i] = c
	}

	return &table
})

// Checksum returns the CRC-32 (IEEE) of data.
func Checksum(data []byte) uint32 {
	table := crcTable()

	crc := ^uint32(0)
	for _, b := range data {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}

	return ^crc
}
