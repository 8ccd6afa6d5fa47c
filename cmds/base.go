// Package cmds is the command layer of the CLI. Every command opens the
// agency's databases, runs one driver operation, prints the result and
// closes the databases again.
package cmds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrInvalid = errors.New("invalid command, check arguments")

// Cmd is the base of the commands which run as a wallet.
type Cmd struct {
	WalletName string `cmd_usage:"wallet name is required"`
	WalletKey  string `cmd_usage:"wallet key is required"`
}

func (c Cmd) Validate() error {
	if c.WalletName == "" {
		return errors.New("wallet name cannot be empty")
	}
	return psm.ValidWallet(c.WalletName)
}

func (c Cmd) ValidateWalletKey() error {
	return ValidateKey(c.WalletKey)
}

func ValidateKey(k string) error {
	if k == "" {
		return errors.New("wallet key cannot be empty")
	}
	return nil
}

var timeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// ValidateTime checks the HH:MM[:SS] format of the scheduler times.
func ValidateTime(t string) error {
	if !timeRe.MatchString(t) {
		return fmt.Errorf("invalid time format %q, use HH:MM[:SS]", t)
	}
	return nil
}

type Result interface {
	JSON() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// JSONResult is the Result of any value which marshals to JSON.
type JSONResult struct {
	V any
}

func (r JSONResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r.V, "", "  ")
}

// Open opens the agency with the databases and the poll policy of
// utils.Settings.
func Open() (a *agency.Agency, err error) {
	defer err2.Handle(&err)

	if utils.Settings.PsmDB() == "" || utils.Settings.MailboxDB() == "" {
		return nil, errors.New("database files must be given")
	}
	return agency.Open(agency.Config{
		PsmDB:     utils.Settings.PsmDB(),
		MailboxDB: utils.Settings.MailboxDB(),
		Policy:    prot.DefaultPolicy(),
		Workers:   utils.Settings.Workers(),
	})
}

// Run opens the agency for the function and closes it after.
func Run(f func(a *agency.Agency) (Result, error)) (r Result, err error) {
	defer err2.Handle(&err)

	a := try.To1(Open())
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return f(a)
}

// Print writes the result as JSON.
func Print(w io.Writer, r Result) (err error) {
	defer err2.Handle(&err)

	if r == nil {
		return nil
	}
	Fprintln(w, string(try.To1(r.JSON())))
	return nil
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}
