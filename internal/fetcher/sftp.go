package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/retry"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// PartSuffix is appended to local path of file being downloaded.
	PartSuffix = ".part"
	// ModTimeSuffix is appended to partial file path, the file keeps modification time of remote being downloaded.
	ModTimeSuffix = ".mtime"
)

// RemoteFS is connected remote file system.
type RemoteFS interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (io.ReadSeekCloser, error)
	Close() error
}

// Dialer connects and authenticates to remote file system.
type Dialer interface {
	Dial(ctx context.Context) (RemoteFS, error)
}

// SFTPConfig is sftp server address and credentials.
type SFTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// PrivateKey is PEM encoded private key.
	PrivateKey []byte
	// KnownHosts is path of known_hosts file, host keys aren't verified when empty.
	KnownHosts string
	Timeout    time.Duration
}

// SFTPDialer dials sftp servers over ssh.
type SFTPDialer struct {
	addr   string
	config *ssh.ClientConfig
}

// NewSFTPDialer returns new SFTPDialer.
func NewSFTPDialer(cfg SFTPConfig) (*SFTPDialer, error) {
	auth := make([]ssh.AuthMethod, 0, 2)
	if len(cfg.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("can't parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		callback, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("can't load known hosts: %w", err)
		}
		hostKeyCallback = callback
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}

	return &SFTPDialer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		config: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: hostKeyCallback,
			Timeout:         cfg.Timeout,
		},
	}, nil
}

// Dial connects to sftp server. Authentication failures are permanent, network failures transient.
func (d *SFTPDialer) Dial(ctx context.Context) (RemoteFS, error) {
	dialer := net.Dialer{Timeout: d.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, platform.Transient("dial", err)
	}

	if d.config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(d.config.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, d.addr, d.config)
	if err != nil {
		_ = conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, platform.Permanent("authenticate", err)
		}
		return nil, platform.Transient("handshake", err)
	}
	_ = conn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, platform.Transient("start sftp", err)
	}

	return &sftpFS{ssh: sshClient, client: client}, nil
}

type sftpFS struct {
	ssh    *ssh.Client
	client *sftp.Client
}

func (s *sftpFS) Stat(name string) (fs.FileInfo, error) {
	return s.client.Stat(name)
}

func (s *sftpFS) Open(name string) (io.ReadSeekCloser, error) {
	file, err := s.client.Open(name)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *sftpFS) Close() error {
	return errors.Join(s.client.Close(), s.ssh.Close())
}

// Download is downloaded file.
type Download struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Downloader downloads remote files, resuming interrupted transfers.
type Downloader struct {
	dialer Dialer
	policy retry.Policy
}

// NewDownloader returns new Downloader retrying transient failures with policy.
func NewDownloader(dialer Dialer, policy retry.Policy) *Downloader {
	return &Downloader{
		dialer: dialer,
		policy: policy,
	}
}

// DownloadResumable downloads remote file into localPath. Every attempt resumes
// from size of localPath.part. Partial file is renamed to localPath when complete.
// Returns error wrapping platform.ErrRetriesExhausted when transient failures persist.
func (d *Downloader) DownloadResumable(ctx context.Context, remoteName, localPath string) (*Download, error) {
	part := localPath + PartSuffix

	var download *Download
	err := d.policy.Do(ctx, func(ctx context.Context, _ int) error {
		offset, err := partSize(part)
		if err != nil {
			return platform.Permanent("stat partial file", err)
		}

		download, err = d.Download(ctx, remoteName, localPath, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("can't download %s: %w", remoteName, err)
	}

	if err := os.Rename(part, localPath); err != nil {
		return nil, fmt.Errorf("can't move downloaded %s: %w", remoteName, err)
	}
	if err := os.Remove(part + ModTimeSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("can't remove modification time of %s: %w", remoteName, err)
	}
	download.Path = localPath

	return download, nil
}

// Download makes single attempt to download remote file into localPath.part starting
// at offset. Offset beyond remote size restarts download from zero, so does partial file
// of remote with different modification time.
func (d *Downloader) Download(ctx context.Context, remoteName, localPath string, offset int64) (*Download, error) {
	remote, err := d.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer remote.Close()

	// interrupts blocked transfer
	stop := context.AfterFunc(ctx, func() { _ = remote.Close() })
	defer stop()

	info, err := remote.Stat(remoteName)
	if err != nil {
		return nil, remoteError("stat", err)
	}

	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)
	stamp := localPath + PartSuffix + ModTimeSuffix
	if offset > info.Size() || offset < 0 || partModTime(stamp) != modTime {
		offset = 0
	}
	if err := os.WriteFile(stamp, []byte(modTime), 0o644); err != nil {
		return nil, platform.Permanent("store modification time", err)
	}

	part, err := os.OpenFile(localPath+PartSuffix, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, platform.Permanent("open partial file", err)
	}
	defer part.Close()

	if err := part.Truncate(offset); err != nil {
		return nil, platform.Permanent("truncate partial file", err)
	}
	if _, err := part.Seek(offset, io.SeekStart); err != nil {
		return nil, platform.Permanent("seek partial file", err)
	}

	download := &Download{
		Path:    localPath + PartSuffix,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}

	if offset == info.Size() {
		return download, nil
	}

	file, err := remote.Open(remoteName)
	if err != nil {
		return nil, remoteError("open", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, platform.Transient("seek", err)
	}

	written, err := io.Copy(part, file)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, platform.Transient("transfer", err)
	}

	if err := part.Sync(); err != nil {
		return nil, platform.Permanent("sync partial file", err)
	}

	if offset+written != info.Size() {
		return nil, platform.Transient("transfer", fmt.Errorf("%w: %d of %d bytes", ErrSizeMismatch, offset+written, info.Size()))
	}

	return download, nil
}

func remoteError(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return platform.Permanent(op, err)
	}
	return platform.Transient(op, err)
}

// partModTime returns stored remote modification time, empty when unknown.
func partModTime(path string) string {
	stored, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(stored))
}

func partSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
