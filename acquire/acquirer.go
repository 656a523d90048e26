// Package acquire downloads and unpacks app source archives.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/go-resty/resty/v2"
)

// ErrArchiveExists indicates the download destination is already
// occupied. Acquisition is skipped, not retried.
var ErrArchiveExists = errors.New("acquire: archive already exists")

// LayoutError reports an unpacked archive that did not produce exactly
// one top-level directory. It is fatal to the run; no rename or
// cleanup happens afterward.
type LayoutError struct {
	Dir   string
	Found []string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("acquire: expected one unpacked directory in %s, found %d", e.Dir, len(e.Found))
}

// UnpackError reports a failed archive-tool invocation. It is fatal to
// the run.
type UnpackError struct {
	Archive string
	Err     error
}

func (e *UnpackError) Error() string {
	return fmt.Sprintf("unpack %s: %v", e.Archive, e.Err)
}

func (e *UnpackError) Unwrap() error {
	return e.Err
}

// UnpackFunc unpacks archive into dir.
type UnpackFunc func(ctx context.Context, archive, dir string) error

// Acquirer streams source archives to disk and materializes their
// unpacked tree under a canonical src directory.
type Acquirer struct {
	http   *resty.Client
	log    *slog.Logger
	unpack UnpackFunc
}

// NewAcquirer builds an acquirer. The download client has no overall
// request timeout: the connect phase is bounded by the dialer, the
// stream itself is not.
func NewAcquirer(cfg *config.Config, log *slog.Logger) *Acquirer {
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Acquirer{http: client, log: log, unpack: tarUnpack}
}

// WithClient replaces the download client. Tests use this to
// substitute a mock transport.
func (a *Acquirer) WithClient(client *resty.Client) {
	a.http = client
}

// WithUnpack replaces the archive tool invocation.
func (a *Acquirer) WithUnpack(fn UnpackFunc) {
	a.unpack = fn
}

// Acquire runs the full sequence for target: stream download, unpack,
// single-directory layout check, rename to src, archive removal. It
// returns the number of archive bytes written.
func (a *Acquirer) Acquire(ctx context.Context, target models.DownloadTarget) (int64, error) {
	written, err := a.Download(ctx, target.SourceURL, target.ArchivePath)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(target.ArchivePath)
	a.log.Debug("unpacking archive", slog.String("archive", target.ArchivePath))
	if err := a.unpack(ctx, target.ArchivePath, dir); err != nil {
		return written, &UnpackError{Archive: target.ArchivePath, Err: err}
	}

	top, err := unpackedDir(dir)
	if err != nil {
		return written, err
	}

	if err := os.Rename(top, filepath.Join(dir, "src")); err != nil {
		return written, fmt.Errorf("rename %s: %w", top, err)
	}
	if err := os.Remove(target.ArchivePath); err != nil {
		return written, fmt.Errorf("remove archive %s: %w", target.ArchivePath, err)
	}
	return written, nil
}

// Download streams sourceURL into dest with exclusive-create
// semantics. A canceled context or copy failure removes the partial
// file before returning; no truncated archive is ever left on disk.
func (a *Acquirer) Download(ctx context.Context, sourceURL, dest string) (int64, error) {
	res, err := a.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(sourceURL)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", sourceURL, err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("download %s: http status %d", sourceURL, res.StatusCode())
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, ErrArchiveExists
		}
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	written, err := copyContext(ctx, out, body)
	if err != nil {
		out.Close()
		if removeErr := os.Remove(dest); removeErr != nil {
			a.log.Error("failed to remove partial download",
				slog.String("path", dest),
				slog.Any("error", removeErr),
			)
		} else {
			a.log.Warn("removed partially downloaded file", slog.String("path", dest))
		}
		return 0, err
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dest, err)
	}
	return written, nil
}

// copyContext copies src to dst in chunks, checking the context before
// every read so a mid-stream cancellation surfaces promptly.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, fmt.Errorf("write archive: %w", werr)
			}
		}
		if err != nil {
			if err == io.EOF {
				return written, nil
			}
			return written, fmt.Errorf("read body: %w", err)
		}
	}
}

// unpackedDir locates the single top-level directory created by
// unpacking; any other layout is a LayoutError.
func unpackedDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) != 1 {
		return "", &LayoutError{Dir: dir, Found: dirs}
	}
	return filepath.Join(dir, dirs[0]), nil
}

func tarUnpack(ctx context.Context, archive, dir string) error {
	cmd := exec.CommandContext(ctx, "tar", "xf", archive, "-C", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tar xf: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
