package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/rorycl/QBOConnect/qbo"
	log "github.com/sirupsen/logrus"
)

// Opts are the command line options; each may also be set from the
// environment or a .env file in the working directory
type Opts struct {
	Port         string        `short:"p" long:"port" env:"PORT" description:"port to run on" default:"3000"`
	Addr         string        `short:"n" long:"address" env:"ADDRESS" description:"network address to run on" default:"0.0.0.0"`
	ClientID     string        `long:"client-id" env:"QBO_CLIENT_ID" description:"Intuit app client id"`
	ClientSecret string        `long:"client-secret" env:"QBO_CLIENT_SECRET" description:"Intuit app client secret"`
	Environment  string        `short:"e" long:"environment" env:"QBO_ENVIRONMENT" description:"Intuit environment" choice:"sandbox" choice:"production" default:"sandbox"`
	Redirect     string        `short:"r" long:"redirect" env:"QBO_REDIRECT_URI" description:"oauth2 redirect address" default:"http://localhost:3000/callback"`
	State        string        `long:"state" env:"QBO_STATE" description:"anti-forgery state sent with the authorization request" default:"security_state_token"`
	APITimeout   time.Duration `long:"api-timeout" env:"QBO_API_TIMEOUT" description:"timeout of the company info call" default:"60s"`
	LogLevel     string        `long:"log-level" env:"LOG_LEVEL" description:"log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	DB           DBOpts        `group:"Database options"`
}

// DBOpts configure the credential store, either as a single url or as
// discrete fields
type DBOpts struct {
	URL      string `long:"database-url" env:"DATABASE_URL" description:"postgres connection url"`
	Host     string `long:"db-host" env:"PGHOST" description:"database host"`
	Port     string `long:"db-port" env:"PGPORT" description:"database port" default:"5432"`
	User     string `long:"db-user" env:"PGUSER" description:"database user"`
	Password string `long:"db-password" env:"PGPASSWORD" description:"database password"`
	Name     string `long:"db-name" env:"PGDATABASE" description:"database name"`
	SSLMode  string `long:"db-sslmode" env:"PGSSLMODE" description:"database sslmode"`
}

// DSN returns the connection url for the one configured database
// shape
func (d DBOpts) DSN() (string, error) {
	switch {
	case d.URL != "" && d.Host != "":
		return "", errors.New("set either a database url or a database host, not both")
	case d.URL != "":
		if _, err := url.Parse(d.URL); err != nil {
			return "", fmt.Errorf("database url invalid: %w", err)
		}
		return d.URL, nil
	case d.Host != "":
		u := &url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(d.Host, d.Port),
			Path:   "/" + d.Name,
		}
		if d.User != "" {
			if d.Password != "" {
				u.User = url.UserPassword(d.User, d.Password)
			} else {
				u.User = url.User(d.User)
			}
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
		}
		return u.String(), nil
	}
	return "", errors.New("no database configured: set a database url or a database host")
}

// parseOpts parses args over the environment
func parseOpts(args []string) (*Opts, *flags.Parser, error) {
	var options Opts
	parser := flags.NewParser(&options, flags.Default)
	parser.Usage = fmt.Sprintf("%s : %s", usage, version)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, parser, err
	}
	return &options, parser, nil
}

// clientConfig validates the options needed by the QuickBooks client
func (o *Opts) clientConfig() (qbo.Config, error) {
	if o.ClientID == "" || o.ClientSecret == "" {
		return qbo.Config{}, errors.New("client id and client secret are required (QBO_CLIENT_ID, QBO_CLIENT_SECRET)")
	}
	if o.APITimeout < time.Second {
		return qbo.Config{}, fmt.Errorf("api timeout %s is too short", o.APITimeout)
	}
	return qbo.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		RedirectURL:  o.Redirect,
		Environment:  o.Environment,
	}, nil
}

// setupLogging configures the standard logrus logger
func (o *Opts) setupLogging() error {
	level, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
