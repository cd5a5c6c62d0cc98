package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPFetcher downloads files from ftp:// URLs. Some agencies still publish
// zoning datasets only over anonymous FTP.
type FTPFetcher struct {
	timeout time.Duration
}

// NewFTPFetcher creates an FTPFetcher with the given dial timeout.
func NewFTPFetcher(timeout time.Duration) *FTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FTPFetcher{timeout: timeout}
}

// parseFTPURL splits an ftp:// URL into host:port, path, and credentials.
// Anonymous login is used when the URL carries no userinfo.
func parseFTPURL(rawURL string) (addr, path, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrapf(err, "fetcher: parse ftp url %s", rawURL)
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}

	addr = u.Host
	if !strings.Contains(addr, ":") {
		addr += ":21"
	}

	user = "anonymous"
	pass = "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	return addr, u.Path, user, pass, nil
}

// ftpConnReader wraps a retrieved file so closing the reader also quits the
// control connection.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	if err := r.conn.Quit(); err != nil {
		zap.L().Debug("fetcher: ftp quit failed", zap.Error(err))
	}
	return respErr
}

// Download retrieves the file at the ftp:// URL.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	addr, path, user, pass, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.timeout))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: dial ftp %s", addr)
	}

	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp login %s", addr)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp retrieve %s", path)
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}
