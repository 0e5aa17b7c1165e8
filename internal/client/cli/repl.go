package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc/status"
)

// execIface is the command surface the REPL drives. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	status() string
	Register(ctx context.Context) error
	Confirm(ctx context.Context, args []string) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Unlock(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
// Command errors are printed and the loop continues.
//
//	Not logged in: register, confirm <id> <token>, login, reset, help, exit
//	Logged in:     me, passwd, unlock <user id>, refresh, logout, help, exit
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "gophauth %s> ", a.status())
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		cmd, args := parts[0], parts[1:]
		var cmdErr error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: me, passwd, unlock, refresh, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, confirm, login, reset, exit")
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "confirm":
			cmdErr = a.Confirm(ctx, args)
		case "login":
			cmdErr = a.Login(ctx)
		case "reset":
			cmdErr = a.ResetPassword(ctx)
		case "me":
			cmdErr = a.Me(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "unlock":
			cmdErr = a.Unlock(ctx, args)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "Error:", describe(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

// describe strips the gRPC status wrapping from server errors.
func describe(err error) string {
	if s, ok := status.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}
