// Command hash-password prints the bcrypt hash of a password read from
// stdin, for seeding users directly into the database.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cost int
	flagSet := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		password := strings.TrimSpace(scanner.Text())
		if password == "" {
			continue
		}
		if err := domain.ValidatePassword(password); err != nil {
			return err
		}

		hash, err := auth.HashPassword(password, cost)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, hash); err != nil {
			return err
		}
	}
	return scanner.Err()
}
