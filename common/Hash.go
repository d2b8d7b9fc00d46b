package common

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// Md5SumFile returns the hex md5 of the file at path.
func Md5SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return HashReadSeeker(f)
}

// HashReadSeeker hashes what is left of rs, then seeks back to where it
// started so the caller can read the same bytes again.
func HashReadSeeker(rs io.ReadSeeker) (string, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}

	h := md5.New()
	if _, err := io.Copy(h, rs); err != nil {
		return "", err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
