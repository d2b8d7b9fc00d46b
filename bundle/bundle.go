// Package bundle attaches a provisioned runtime directory to a copy of the
// launcher executable and restores it on first start, so a machine without
// network access can still bootstrap.
//
// Attachments:
//
//	runtime  gzip-compressed tarball of the runtime directory
//	hashes   JSON object mapping attachment name to md5
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/maja42/ember"
	"github.com/maja42/ember/embedding"

	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/windowsPE"
)

var (
	ErrNoBundle     = errors.New("no runtime bundle embedded")
	ErrHashMismatch = errors.New("bundle hash mismatch")
)

// Embedded is a runtime bundle found in an executable.
type Embedded struct {
	attachments *ember.Attachments
	logger      *log.Logger
}

// OpenEmbedded looks for a bundle in the running executable.
func OpenEmbedded(logger *log.Logger) (*Embedded, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return Open(exe, logger)
}

// Open looks for a bundle in the executable at path. It returns ErrNoBundle
// when the file carries no runtime attachment.
func Open(path string, logger *log.Logger) (*Embedded, error) {
	if logger == nil {
		logger = common.DiscardLogger()
	}

	attachments, err := ember.OpenExe(path)
	if err != nil {
		return nil, fmt.Errorf("opening attachments of %s: %w", path, err)
	}

	if attachments.Reader(common.RuntimeAttachmentName) == nil {
		attachments.Close()
		return nil, ErrNoBundle
	}
	return &Embedded{attachments: attachments, logger: logger}, nil
}

func (e *Embedded) Close() error {
	return e.attachments.Close()
}

// Size is the compressed size of the runtime attachment.
func (e *Embedded) Size() int64 {
	reader := e.attachments.Reader(common.RuntimeAttachmentName)
	size, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		return 0
	}
	_, _ = reader.Seek(0, io.SeekStart)
	return size
}

// Verify compares every attachment against the recorded md5 sums.
func (e *Embedded) Verify() error {
	hashReader := e.attachments.Reader(common.HashesAttachmentName)
	if hashReader == nil {
		return fmt.Errorf("%w: no %s attachment", ErrHashMismatch, common.HashesAttachmentName)
	}

	var expected map[string]string
	if err := json.NewDecoder(hashReader).Decode(&expected); err != nil {
		return fmt.Errorf("decoding bundle hashes: %w", err)
	}

	for _, name := range e.attachments.List() {
		if name == common.HashesAttachmentName {
			continue
		}
		actual, err := common.HashReadSeeker(e.attachments.Reader(name))
		if err != nil {
			return fmt.Errorf("hashing %s: %w", name, err)
		}
		if actual != expected[name] {
			return fmt.Errorf("%w: %s expected %s, got %s", ErrHashMismatch, name, expected[name], actual)
		}
	}
	return nil
}

// Restore verifies the bundle and extracts the runtime into runtimeDir.
func (e *Embedded) Restore(ctx context.Context, runtimeDir string) error {
	if err := e.Verify(); err != nil {
		return err
	}

	reader := e.attachments.Reader(common.RuntimeAttachmentName)
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return err
	}

	e.logger.Info("Restoring runtime from bundle", "size", humanize.Bytes(uint64(e.Size())), "path", runtimeDir)
	n, err := common.ExtractTarGz(ctx, reader, runtimeDir)
	if err != nil {
		return fmt.Errorf("extracting bundled runtime: %w", err)
	}
	e.logger.Info("Restored runtime", "files", n)
	return nil
}

// PackOptions describe a bundle to write.
type PackOptions struct {
	RuntimeDir string
	Output     string
	// Executable is the launcher copied into Output; empty means the
	// running executable.
	Executable string
	Logger     *log.Logger
}

// Pack writes a copy of the launcher with the runtime directory attached.
func Pack(ctx context.Context, opts PackOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = common.DiscardLogger()
	}

	if !common.IsDir(opts.RuntimeDir) {
		return fmt.Errorf("runtime directory %s does not exist", opts.RuntimeDir)
	}

	exePath := opts.Executable
	if exePath == "" {
		self, err := os.Executable()
		if err != nil {
			return err
		}
		exePath = self
	}

	var runtimeArchive bytes.Buffer
	if err := common.ArchiveDir(ctx, opts.RuntimeDir, &runtimeArchive); err != nil {
		return fmt.Errorf("archiving runtime: %w", err)
	}
	logger.Info("Archived runtime", "size", humanize.Bytes(uint64(runtimeArchive.Len())))

	attachments, err := attachmentMap(runtimeArchive.Bytes())
	if err != nil {
		return err
	}

	exe, err := loadExecutable(exePath, logger)
	if err != nil {
		return err
	}

	return writeExecutable(opts.Output, exe, attachments)
}

func attachmentMap(runtimeArchive []byte) (map[string]io.ReadSeeker, error) {
	runtimeReader := bytes.NewReader(runtimeArchive)

	runtimeHash, err := common.HashReadSeeker(runtimeReader)
	if err != nil {
		return nil, err
	}

	hashes, err := json.Marshal(map[string]string{
		common.RuntimeAttachmentName: runtimeHash,
	})
	if err != nil {
		return nil, err
	}

	return map[string]io.ReadSeeker{
		common.RuntimeAttachmentName: runtimeReader,
		common.HashesAttachmentName:  bytes.NewReader(hashes),
	}, nil
}

// loadExecutable reads the launcher and strips anything a previous Pack
// added: the Authenticode signature and earlier attachments.
func loadExecutable(path string, logger *log.Logger) ([]byte, error) {
	exe, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if _, size, err := windowsPE.SecurityDirectory(exe); err == nil && size > 0 {
		logger.Info("Removing signature", "size", humanize.Bytes(uint64(size)))
	}

	unsigned, err := windowsPE.RemoveSignature(exe)
	switch {
	case errors.Is(err, windowsPE.ErrNotPE):
		logger.Debug("Executable is not a PE file, keeping it as is", "path", path)
	case err != nil:
		return nil, fmt.Errorf("removing signature: %w", err)
	default:
		exe = unsigned
	}

	var out bytes.Buffer
	err = embedding.RemoveEmbedding(&out, bytes.NewReader(exe), nil)
	if errors.Is(err, embedding.ErrNothingEmbedded) {
		return exe, nil
	}
	if err != nil {
		return nil, fmt.Errorf("removing previous bundle: %w", err)
	}
	return out.Bytes(), nil
}

func writeExecutable(output string, exe []byte, attachments map[string]io.ReadSeeker) error {
	// The linker drops ember's marker string from the launcher, so the
	// library cannot recognise it. loadExecutable has already removed any
	// earlier attachments.
	embedding.SkipCompatibilityCheck = true

	tmp, err := os.CreateTemp(filepath.Dir(output), filepath.Base(output)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := embedding.Embed(tmp, bytes.NewReader(exe), attachments, nil); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("embedding bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o755); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := common.RemoveIfExists(output); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, output)
}
