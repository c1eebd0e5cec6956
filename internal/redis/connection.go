// Package redis builds redigo connection pools from a connection URI.
package redis

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	jobqErrors "github.com/BranchIntl/jobq/errors"
	"github.com/gomodule/redigo/redis"
)

var (
	// ErrInvalidScheme is returned when the Redis URI scheme is invalid
	ErrInvalidScheme = errors.New("invalid Redis database URI scheme")
	// ErrInvalidDatabase is returned when the URI path is not a database index
	ErrInvalidDatabase = errors.New("invalid Redis database index")
)

// Options describes how to reach a Redis server.
//
// Supported URI forms: redis://[:password@]host:port[/db],
// rediss://... (TLS) and unix:///path/to/socket.
type Options struct {
	URI            string
	MaxConnections int
	MaxIdle        int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	UseTLS        bool
	TLSSkipVerify bool
	TLSCertPath   string
}

// DefaultOptions returns options for a local server
func DefaultOptions() Options {
	return Options{
		URI:            "redis://localhost:6379/",
		MaxConnections: 10,
		MaxIdle:        2,
		IdleTimeout:    240 * time.Second,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// NewPool returns a lazily dialing connection pool. Idle connections older
// than a minute are pinged before reuse.
func NewPool(options Options) *redis.Pool {
	return &redis.Pool{
		MaxActive:   options.MaxConnections,
		MaxIdle:     options.MaxIdle,
		IdleTimeout: options.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			return Dial(options)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Ping checks that a connection can be borrowed from the pool and answers
func Ping(pool *redis.Pool, uri string) error {
	conn := pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return jobqErrors.NewConnectionError(uri, fmt.Errorf("ping failed: %w", err))
	}
	return nil
}

// Dial opens a single connection
func Dial(options Options) (redis.Conn, error) {
	network, address, dialOptions, err := dialParams(options)
	if err != nil {
		return nil, jobqErrors.NewConnectionError(options.URI, err)
	}

	conn, err := redis.Dial(network, address, dialOptions...)
	if err != nil {
		return nil, jobqErrors.NewConnectionError(options.URI,
			fmt.Errorf("failed to connect: %w", err))
	}
	return conn, nil
}

// dialParams translates options into redigo dial arguments
func dialParams(options Options) (network, address string, dialOptions []redis.DialOption, err error) {
	uri, err := url.Parse(options.URI)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid URI: %w", err)
	}

	dialOptions = []redis.DialOption{
		redis.DialConnectTimeout(options.ConnectTimeout),
		redis.DialReadTimeout(options.ReadTimeout),
		redis.DialWriteTimeout(options.WriteTimeout),
	}

	switch uri.Scheme {
	case "redis", "rediss":
		network, address = "tcp", uri.Host

		if uri.User != nil {
			if password, ok := uri.User.Password(); ok && password != "" {
				dialOptions = append(dialOptions, redis.DialPassword(password))
			}
		}

		if len(uri.Path) > 1 {
			db, convErr := strconv.Atoi(uri.Path[1:])
			if convErr != nil || db < 0 {
				return "", "", nil, fmt.Errorf("%w: %q", ErrInvalidDatabase, uri.Path[1:])
			}
			dialOptions = append(dialOptions, redis.DialDatabase(db))
		}

		if uri.Scheme == "rediss" || options.UseTLS {
			tlsConfig, tlsErr := newTLSConfig(options)
			if tlsErr != nil {
				return "", "", nil, tlsErr
			}
			dialOptions = append(dialOptions,
				redis.DialUseTLS(true),
				redis.DialTLSConfig(tlsConfig),
			)
		}
	case "unix":
		network, address = "unix", uri.Path
	default:
		return "", "", nil, ErrInvalidScheme
	}

	return network, address, dialOptions, nil
}

func newTLSConfig(options Options) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: options.TLSSkipVerify,
	}

	if options.TLSCertPath != "" {
		pool, err := LoadCertPool(options.TLSCertPath)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// LoadCertPool returns the system pool extended with the PEM certificates
// in certPath
func LoadCertPool(certPath string) (*x509.CertPool, error) {
	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}

	certs, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cert file %q: %w", certPath, err)
	}

	if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
		return nil, fmt.Errorf("failed to append certs from %q", certPath)
	}

	return rootCAs, nil
}
