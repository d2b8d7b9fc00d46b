// Package windowsPE edits the headers of Windows PE executables. The
// launcher uses it to drop an Authenticode signature before appending a
// runtime bundle, since appended data invalidates the signature anyway.
package windowsPE

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotPE is returned for input without DOS and PE signatures.
var ErrNotPE = errors.New("not a PE file")

const (
	dosHeaderSize          = 64
	peOffsetField          = 0x3C
	fileHeaderSize         = 20
	checksumOffset         = 64
	imageDirectorySecurity = 4
	dataDirectoryEntrySize = 8

	magicPE32     = 0x10b
	magicPE32Plus = 0x20b
)

type headerOffsets struct {
	checksum    int
	securityDir int
}

func locate(pe []byte) (headerOffsets, error) {
	if len(pe) < dosHeaderSize || pe[0] != 'M' || pe[1] != 'Z' {
		return headerOffsets{}, ErrNotPE
	}

	peOffset := int(binary.LittleEndian.Uint32(pe[peOffsetField : peOffsetField+4]))
	if peOffset < 0 || len(pe) < peOffset+4 || string(pe[peOffset:peOffset+4]) != "PE\x00\x00" {
		return headerOffsets{}, ErrNotPE
	}

	optionalHeader := peOffset + 4 + fileHeaderSize
	if len(pe) < optionalHeader+2 {
		return headerOffsets{}, errors.New("file does not have an optional header")
	}

	var dataDirectories int
	switch magic := binary.LittleEndian.Uint16(pe[optionalHeader : optionalHeader+2]); magic {
	case magicPE32:
		dataDirectories = optionalHeader + 96
	case magicPE32Plus:
		dataDirectories = optionalHeader + 112
	default:
		return headerOffsets{}, fmt.Errorf("unknown optional header magic %#x", magic)
	}

	offsets := headerOffsets{
		checksum:    optionalHeader + checksumOffset,
		securityDir: dataDirectories + imageDirectorySecurity*dataDirectoryEntrySize,
	}
	if offsets.securityDir+dataDirectoryEntrySize > len(pe) {
		return headerOffsets{}, errors.New("security directory offset out of bounds")
	}
	return offsets, nil
}

// SecurityDirectory returns the file offset and size of the certificate
// table. Both are zero for unsigned files.
func SecurityDirectory(pe []byte) (offset, size uint32, err error) {
	h, err := locate(pe)
	if err != nil {
		return 0, 0, err
	}
	offset = binary.LittleEndian.Uint32(pe[h.securityDir : h.securityDir+4])
	size = binary.LittleEndian.Uint32(pe[h.securityDir+4 : h.securityDir+8])
	return offset, size, nil
}

// RemoveSignature zeroes the security directory and the checksum. A
// certificate table at the end of the file is cut off as well. The input
// slice is modified in place.
func RemoveSignature(pe []byte) ([]byte, error) {
	h, err := locate(pe)
	if err != nil {
		return nil, err
	}

	offset := binary.LittleEndian.Uint32(pe[h.securityDir : h.securityDir+4])
	size := binary.LittleEndian.Uint32(pe[h.securityDir+4 : h.securityDir+8])

	binary.LittleEndian.PutUint32(pe[h.securityDir:h.securityDir+4], 0)
	binary.LittleEndian.PutUint32(pe[h.securityDir+4:h.securityDir+8], 0)
	binary.LittleEndian.PutUint32(pe[h.checksum:h.checksum+4], 0)

	if size > 0 && uint64(offset)+uint64(size) == uint64(len(pe)) {
		pe = pe[:offset]
	}
	return pe, nil
}
