package delivery

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"compressd/logger"
	"compressd/models"
)

// toSFTP uploads the output to a remote host via SFTP. Auth is password or
// private key (base64 or raw PEM).
func toSFTP(ctx context.Context, target *models.SFTPTarget, filename string, reader io.Reader) (string, error) {
	if target == nil {
		return "", fmt.Errorf("sftp delivery requested without an sftp target")
	}
	if target.Host == "" || target.User == "" || target.RemoteDir == "" {
		return "", fmt.Errorf("sftp target needs host, user and remote_dir")
	}

	port := target.Port
	if port == "" {
		port = "22"
	}

	var auths []ssh.AuthMethod
	if target.PrivateKey != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(target.PrivateKey)
		if err != nil {
			keyBytes = []byte(target.PrivateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return "", fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	} else if target.Password != "" {
		auths = append(auths, ssh.Password(target.Password))
	} else {
		return "", fmt.Errorf("sftp target needs password or private_key")
	}

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	addr := net.JoinHostPort(target.Host, port)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial tcp %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return "", fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)
	defer sshClient.Close()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", fmt.Errorf("create sftp client: %w", err)
	}
	defer sftpClient.Close()

	remotePath := path.Join(target.RemoteDir, filename)
	if err := mkdirAllSFTP(sftpClient, target.RemoteDir); err != nil {
		return "", fmt.Errorf("ensure remote dir %s: %w", target.RemoteDir, err)
	}

	f, err := sftpClient.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("copy to remote file %s: %w", remotePath, err)
	}

	logger.Infof("uploaded '%s' to %s", remotePath, addr)
	return fmt.Sprintf("sftp://%s%s", addr, remotePath), nil
}

// mkdirAllSFTP mimics os.MkdirAll for an SFTP server by creating each
// segment of the path.
func mkdirAllSFTP(client *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	parts := strings.Split(dir, "/")
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}

	for _, p := range parts {
		if p == "" {
			continue
		}
		cur = path.Join(cur, p)
		if _, err := client.Stat(cur); err != nil {
			if os.IsNotExist(err) {
				if err := client.Mkdir(cur); err != nil {
					return fmt.Errorf("mkdir %s: %w", cur, err)
				}
			} else {
				return fmt.Errorf("stat %s: %w", cur, err)
			}
		}
	}
	return nil
}
