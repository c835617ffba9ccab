// Package archive writes minimal ZIP archives. Entries are always stored
// uncompressed, names are written as raw bytes without the UTF-8 flag and
// no extra fields or comments are emitted.
//
// Sizes and offsets use the classic 32-bit fields: payloads of 4 GiB or
// more, 65536 or more entries and names longer than 65535 bytes are not
// supported and produce a corrupt archive.
package archive

import (
	"bytes"
	"time"
)

// MIMEType is the media type of a built archive.
const MIMEType = "application/zip"

// Entry is a named payload. Duplicate names are written as given.
type Entry struct {
	Name    string
	Content []byte
}

// cursor tracks the layout of one Build call.
type cursor struct {
	offset  uint32 // bytes of local records written so far
	dirSize uint32 // bytes of central directory written so far
}

// Build returns an archive holding entries in order, stamped with the
// current local time.
func Build(entries []Entry) []byte {
	return BuildAt(entries, time.Now())
}

// BuildAt is Build with an explicit modification time shared by every
// entry.
func BuildAt(entries []Entry, t time.Time) []byte {
	modTime, modDate := PackTime(t), PackDate(t)

	var (
		cur     cursor
		local   bytes.Buffer
		central bytes.Buffer
	)

	for _, e := range entries {
		crc := Checksum(e.Content)
		size := uint32(len(e.Content))
		nameSize := uint16(len(e.Name))

		lh := localFileHeader{
			ModTime:  modTime,
			ModDate:  modDate,
			CRC32:    crc,
			Size:     size,
			NameSize: nameSize,
		}
		local.Write(lh.Encode())
		local.WriteString(e.Name)
		local.Write(e.Content)

		cd := centralDirectoryHeader{
			ModTime:  modTime,
			ModDate:  modDate,
			CRC32:    crc,
			Size:     size,
			NameSize: nameSize,
			Offset:   cur.offset,
		}
		central.Write(cd.Encode())
		central.WriteString(e.Name)

		cur.offset += localFileHeaderLen + uint32(len(e.Name)) + size
		cur.dirSize += centralDirectoryLen + uint32(len(e.Name))
	}

	end := endOfCentralDir{
		Entries:   uint16(len(entries)),
		DirSize:   cur.dirSize,
		DirOffset: cur.offset,
	}

	out := make([]byte, 0, local.Len()+central.Len()+endOfCentralDirLen)
	out = append(out, local.Bytes()...)
	out = append(out, central.Bytes()...)
	out = append(out, end.Encode()...)

	return out
}
