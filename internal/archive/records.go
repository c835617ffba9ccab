package archive

import "encoding/binary"

// Each record type is identified by a signature starting with "PK".
const (
	localFileHeaderSignature  uint32 = 0x04034b50
	centralDirectorySignature uint32 = 0x02014b50
	endOfCentralDirSignature  uint32 = 0x06054b50
)

const (
	localFileHeaderLen  = 30
	centralDirectoryLen = 46
	endOfCentralDirLen  = 22

	zipVersion  = 20
	methodStore = 0
)

type localFileHeader struct {
	ModTime  uint16
	ModDate  uint16
	CRC32    uint32
	Size     uint32
	NameSize uint16
}

// Encode returns the fixed part of the header. Name and content follow it
// in the archive.
func (h localFileHeader) Encode() []byte {
	buf := make([]byte, localFileHeaderLen)

	binary.LittleEndian.PutUint32(buf[0:4], localFileHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], zipVersion)
	binary.LittleEndian.PutUint16(buf[6:8], 0) // flags
	binary.LittleEndian.PutUint16(buf[8:10], methodStore)
	binary.LittleEndian.PutUint16(buf[10:12], h.ModTime)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModDate)
	binary.LittleEndian.PutUint32(buf[14:18], h.CRC32)
	binary.LittleEndian.PutUint32(buf[18:22], h.Size) // compressed
	binary.LittleEndian.PutUint32(buf[22:26], h.Size) // uncompressed
	binary.LittleEndian.PutUint16(buf[26:28], h.NameSize)
	binary.LittleEndian.PutUint16(buf[28:30], 0) // extra field length

	return buf
}

type centralDirectoryHeader struct {
	ModTime  uint16
	ModDate  uint16
	CRC32    uint32
	Size     uint32
	NameSize uint16
	Offset   uint32
}

func (h centralDirectoryHeader) Encode() []byte {
	buf := make([]byte, centralDirectoryLen)

	binary.LittleEndian.PutUint32(buf[0:4], centralDirectorySignature)
	binary.LittleEndian.PutUint16(buf[4:6], zipVersion) // made by
	binary.LittleEndian.PutUint16(buf[6:8], zipVersion) // needed
	binary.LittleEndian.PutUint16(buf[8:10], 0)
	binary.LittleEndian.PutUint16(buf[10:12], methodStore)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModTime)
	binary.LittleEndian.PutUint16(buf[14:16], h.ModDate)
	binary.LittleEndian.PutUint32(buf[16:20], h.CRC32)
	binary.LittleEndian.PutUint32(buf[20:24], h.Size)
	binary.LittleEndian.PutUint32(buf[24:28], h.Size)
	binary.LittleEndian.PutUint16(buf[28:30], h.NameSize)
	binary.LittleEndian.PutUint16(buf[30:32], 0) // extra field length
	binary.LittleEndian.PutUint16(buf[32:34], 0) // comment length
	binary.LittleEndian.PutUint16(buf[34:36], 0) // disk number start
	binary.LittleEndian.PutUint16(buf[36:38], 0) // internal attributes
	binary.LittleEndian.PutUint32(buf[38:42], 0) // external attributes
	binary.LittleEndian.PutUint32(buf[42:46], h.Offset)

	return buf
}

type endOfCentralDir struct {
	Entries   uint16
	DirSize   uint32
	DirOffset uint32
}

func (r endOfCentralDir) Encode() []byte {
	buf := make([]byte, endOfCentralDirLen)

	binary.LittleEndian.PutUint32(buf[0:4], endOfCentralDirSignature)
	binary.LittleEndian.PutUint16(buf[4:6], 0) // this disk
	binary.LittleEndian.PutUint16(buf[6:8], 0) // disk with central directory
	binary.LittleEndian.PutUint16(buf[8:10], r.Entries)
	binary.LittleEndian.PutUint16(buf[10:12], r.Entries)
	binary.LittleEndian.PutUint32(buf[12:16], r.DirSize)
	binary.LittleEndian.PutUint32(buf[16:20], r.DirOffset)
	binary.LittleEndian.PutUint16(buf[20:22], 0) // comment length

	return buf
}
